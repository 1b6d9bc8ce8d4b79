package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pyrad/webcrawler/internal/config"
	"github.com/Pyrad/webcrawler/internal/exporter"
	"github.com/Pyrad/webcrawler/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "用数据库中的全部快照重建 xlsx 表格",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if out == "" {
				out = cfg.WorkbookPath()
			}

			roster, err := cfg.Roster()
			if err != nil {
				return err
			}
			if _, err := config.EnsureDataDir(cfg); err != nil {
				return err
			}
			st, err := store.New(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.ListSnapshots(0)
			if err != nil {
				return err
			}
			file, err := exporter.BuildWorkbook(roster, snaps)
			if err != nil {
				return err
			}
			defer file.Close()

			if err := file.SaveAs(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d snapshots to %s\n", len(snaps), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "输出路径 (默认 data/exports/<workbook_name>)")
	return cmd
}
