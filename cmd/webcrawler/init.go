package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pyrad/webcrawler/internal/config"
)

// newInitCmd 写出默认配置；不依赖已有配置，因此跳过根命令的配置加载
func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "生成默认 config.toml",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "out", "o", config.DefaultFileName, "输出路径")
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")
	return cmd
}
