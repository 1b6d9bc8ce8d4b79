package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/city"
	"github.com/Pyrad/webcrawler/internal/config"
	"github.com/Pyrad/webcrawler/internal/crawler"
	"github.com/Pyrad/webcrawler/internal/exporter"
	"github.com/Pyrad/webcrawler/internal/report"
	"github.com/Pyrad/webcrawler/internal/snapshot"
	"github.com/Pyrad/webcrawler/internal/store"
)

type refreshOptions struct {
	reportPath string
	offline    bool
	sets       []string

	now func() time.Time
}

func newRefreshCmd(a *app) *cobra.Command {
	opts := &refreshOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "抓取挂牌总数并刷新周报中本周的表格",
		Example: `  webcrawler refresh
  webcrawler refresh --offline --set 上海=61234 --set Wuhan=0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.reportPath, "report", "", "周报文档路径 (覆盖配置)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "不抓取，复用最近一次保存的快照")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "手动指定城市数值 城市=数值，可重复")
	return cmd
}

func runRefresh(cmd *cobra.Command, a *app, opts *refreshOptions) error {
	cfg, log := a.cfg, a.logger
	if opts.reportPath != "" {
		cfg.Report.Path = opts.reportPath
	}

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	overrides, err := parseSets(opts.sets, roster)
	if err != nil {
		return err
	}

	if _, err := config.EnsureDataDir(cfg); err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	now := opts.now()
	snap, fresh, err := takeSnapshot(cmd, cfg, roster, st, opts.offline, now, log)
	if err != nil {
		return err
	}
	if len(overrides) > 0 {
		snap = snap.With(overrides)
		snap.ID = ""
		snap.TakenAt = now
		fresh = true
	}

	if fresh {
		source := store.SourceCrawl
		if opts.offline {
			source = store.SourceManual
		}
		id, err := st.SaveSnapshot(snap, source)
		if err != nil {
			return err
		}
		snap.ID = id
		if err := exporter.AppendSnapshot(cfg.WorkbookPath(), roster, snap); err != nil {
			log.Warn("append snapshot to workbook failed", zap.String("path", cfg.WorkbookPath()), zap.Error(err))
		}
	}

	if cfg.Report.Backup {
		if err := backupReport(cfg, now); err != nil {
			log.Warn("backup report failed", zap.Error(err))
		}
	}

	runID, err := st.CreateRefreshLog(cfg.Report.Path)
	if err != nil {
		return err
	}

	refresher := report.NewRefresher(cfg.Report.Path, roster, log)
	refresher.Heading = cfg.Report.Heading
	refresher.Now = func() time.Time { return now }
	out := refresher.Refresh(snap)

	status := store.RefreshCompleted
	if !out.OK() {
		status = store.RefreshFailed
	}
	if err := st.FinishRefreshLog(runID, snap.ID, status, out.Message); err != nil {
		log.Warn("finish refresh log failed", zap.Error(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	if !out.OK() {
		return out.Err
	}
	return nil
}

// takeSnapshot 抓取或读取最近快照；fresh 表示快照是新产生的，需要保存
func takeSnapshot(cmd *cobra.Command, cfg *config.AppConfig, roster *city.Roster, st *store.Store,
	offline bool, now time.Time, log *zap.Logger) (snapshot.Snapshot, bool, error) {
	if offline {
		snap, err := st.LatestSnapshot()
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("no stored snapshot, refreshing with empty values")
			return snapshot.New(now, nil), false, nil
		}
		return snap, false, err
	}

	timeout, err := cfg.CrawlTimeout()
	if err != nil {
		return snapshot.Snapshot{}, false, err
	}
	c := crawler.New(crawler.Options{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     timeout,
		Concurrency: cfg.Crawler.Concurrency,
	}, log)

	col := snapshot.NewCollector()
	if err := c.Collect(cmd.Context(), roster.Cities(), col); err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("crawl: %w", err)
	}
	for key, ferr := range col.Failed() {
		log.Warn("city missing from snapshot", zap.String("city", key), zap.Error(ferr))
	}
	return col.Freeze(now), true, nil
}

// parseSets 解析 城市=数值，城市可以是规范名或显示名，数值允许千分位逗号
func parseSets(sets []string, roster *city.Roster) (map[string]int64, error) {
	out := make(map[string]int64, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want city=value", s)
		}
		name = strings.TrimSpace(name)

		key := name
		if roster.ToDisplay(key) == "" {
			key = roster.ToCanonical(name)
		}
		if key == "" {
			return nil, fmt.Errorf("--set %q: unknown city %q", s, name)
		}

		v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		out[key] = v
	}
	return out, nil
}

// backupReport 把当前文档复制到 data/backups，文档不存在时跳过
func backupReport(cfg *config.AppConfig, now time.Time) error {
	src, err := os.Open(cfg.Report.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.%s.bak", filepath.Base(cfg.Report.Path), now.Format("20060102-150405"))
	dst, err := os.Create(config.GetDataPath(cfg, "backups", name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
