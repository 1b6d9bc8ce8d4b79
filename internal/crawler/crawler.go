// Package crawler 抓取各城市二手房挂牌总数。
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Pyrad/webcrawler/internal/city"
	"github.com/Pyrad/webcrawler/internal/snapshot"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (compatible; webcrawler/1.0)"
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
	maxBodyBytes       = 4 << 20
)

// Options 抓取参数
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	Client      *http.Client // 为空时按 Timeout 新建
}

// Crawler 城市挂牌总数抓取器
type Crawler struct {
	client      *http.Client
	userAgent   string
	concurrency int
	log         *zap.Logger
	now         func() time.Time
}

// New 创建抓取器
func New(opts Options, log *zap.Logger) *Crawler {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Crawler{
		client:      client,
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
		log:         log,
		now:         time.Now,
	}
}

// Fetch 抓取单个城市
func (c *Crawler) Fetch(ctx context.Context, target city.City) (snapshot.Reading, error) {
	reading := snapshot.Reading{Key: target.Key}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return reading, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return reading, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return reading, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	listing, err := ParseListing(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return reading, err
	}

	reading.Value = listing.Total
	reading.FetchedAt = c.now()
	c.log.Debug("city fetched",
		zap.String("city", target.Key),
		zap.String("title", listing.Title),
		zap.Int64("total", listing.Total))
	return reading, nil
}

// FetchAll 并发抓取所有配置了 URL 的城市，结果按名册顺序返回。
// 单个城市失败只体现在 Reading.Err 中；只有 ctx 被取消时返回错误。
func (c *Crawler) FetchAll(ctx context.Context, cities []city.City) ([]snapshot.Reading, error) {
	targets := make([]city.City, 0, len(cities))
	for _, target := range cities {
		if target.URL == "" {
			c.log.Debug("city has no url, skipped", zap.String("city", target.Key))
			continue
		}
		targets = append(targets, target)
	}

	readings := make([]snapshot.Reading, len(targets))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)

	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			reading, err := c.Fetch(egCtx, target)
			if err != nil {
				reading.Err = fmt.Errorf("fetch %s: %w", target.Key, err)
				c.log.Warn("city fetch failed", zap.String("city", target.Key), zap.Error(err))
			}
			readings[i] = reading
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// Collect 抓取所有城市并写入 col
func (c *Crawler) Collect(ctx context.Context, cities []city.City, col *snapshot.Collector) error {
	readings, err := c.FetchAll(ctx, cities)
	if err != nil {
		return err
	}
	for _, r := range readings {
		col.AddReading(r)
	}
	return nil
}
