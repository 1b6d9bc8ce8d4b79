package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/config"
	"github.com/Pyrad/webcrawler/internal/logging"
)

// app 各子命令共享的全局参数与运行期对象
type app struct {
	configPath string
	verbose    bool

	cfg    *config.AppConfig
	info   config.LoadConfigInfo
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "webcrawler",
		Short: "二手房挂牌量周报工具",
		Long: `webcrawler 抓取各城市二手房挂牌总数，保存快照，
并把当天的数值写入周报文档中本周的表格。`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger

			cfg, info, err := config.LoadConfigWithInfo(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg, a.info = cfg, info
			if info.Path != "" {
				logger.Debug("config loaded", zap.String("path", info.Path))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件 (默认查找 ./config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(
		newRefreshCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newInitCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
