package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/config"
	"github.com/Pyrad/webcrawler/internal/server"
	"github.com/Pyrad/webcrawler/internal/store"
	"github.com/Pyrad/webcrawler/internal/util"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		devMode bool
		open    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动只读 API 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg

			// config.toml 中显式配置的端口优先
			if port > 0 && !a.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}

			roster, err := cfg.Roster()
			if err != nil {
				return err
			}
			dataDir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return err
			}
			a.logger.Info("data dir ready", zap.String("path", dataDir))

			st, err := store.New(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.NewServer(cfg, st, roster, a.logger)

			if open {
				url := fmt.Sprintf("http://localhost:%d/api/report/week", cfg.Server.Port)
				if err := util.OpenBrowserWithFallback(url); err != nil {
					a.logger.Warn("open browser failed", zap.String("url", url), zap.Error(err))
				}
			}
			return srv.Run(cmd.Context(), cfg.Server.Port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "服务端口 (仅当 config.toml 未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	cmd.Flags().BoolVar(&open, "open", false, "启动后在浏览器中打开本周表格")
	return cmd
}
