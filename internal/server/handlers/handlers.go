package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/city"
	"github.com/Pyrad/webcrawler/internal/exporter"
	"github.com/Pyrad/webcrawler/internal/report"
	"github.com/Pyrad/webcrawler/internal/snapshot"
	"github.com/Pyrad/webcrawler/internal/store"
)

const defaultListLimit = 20

// Handlers 只读 API 处理器
type Handlers struct {
	store      *store.Store
	roster     *city.Roster
	reportPath string
	log        *zap.Logger

	now func() time.Time
}

// NewHandlers 创建处理器
func NewHandlers(st *store.Store, roster *city.Roster, reportPath string, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		store:      st,
		roster:     roster,
		reportPath: reportPath,
		log:        log,
		now:        time.Now,
	}
}

// RegisterRoutes 注册路由
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/cities", h.ListCities)
	router.GET("/snapshots", h.ListSnapshots)
	router.GET("/snapshots/latest", h.LatestSnapshot)
	router.GET("/refresh-logs", h.ListRefreshLogs)
	router.GET("/report/week", h.CurrentWeek)
	router.GET("/export.xlsx", h.ExportWorkbook)
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// SnapshotView 快照的 JSON 视图
type SnapshotView struct {
	ID      string      `json:"id"`
	TakenAt time.Time   `json:"takenAt"`
	Values  []CityValue `json:"values"`
}

// CityValue 单个城市的观测值
type CityValue struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Text  string `json:"text"` // 与周报单元格一致的展示文本
}

func (h *Handlers) snapshotView(snap snapshot.Snapshot) SnapshotView {
	view := SnapshotView{ID: snap.ID, TakenAt: snap.TakenAt}
	known := len(h.roster.Known())
	for i, c := range h.roster.Cities() {
		v, ok := snap.Value(c.Key)
		if !ok {
			continue
		}
		format := report.FormatCount
		if i >= known {
			format = report.FormatUnknownCount
		}
		view.Values = append(view.Values, CityValue{
			Key:   c.Key,
			Name:  c.Name,
			Value: v,
			Text:  format(v),
		})
	}
	return view
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// ListCities 城市名册，附带所属分组
func (h *Handlers) ListCities(c *gin.Context) {
	known := h.roster.Known()
	unknown := h.roster.Unknown()
	success(c, gin.H{
		"known":   known,
		"unknown": unknown,
	})
}

// ListSnapshots 最近的快照
func (h *Handlers) ListSnapshots(c *gin.Context) {
	snaps, err := h.store.ListSnapshots(limitParam(c))
	if err != nil {
		h.log.Error("list snapshots failed", zap.Error(err))
		errorResponse(c, 5001, "读取快照失败")
		return
	}
	views := make([]SnapshotView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, h.snapshotView(snap))
	}
	success(c, views)
}

// LatestSnapshot 最新快照
func (h *Handlers) LatestSnapshot(c *gin.Context) {
	snap, err := h.store.LatestSnapshot()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(c, 4004, "暂无快照")
			return
		}
		h.log.Error("latest snapshot failed", zap.Error(err))
		errorResponse(c, 5001, "读取快照失败")
		return
	}
	success(c, h.snapshotView(snap))
}

// ListRefreshLogs 最近的刷新记录
func (h *Handlers) ListRefreshLogs(c *gin.Context) {
	logs, err := h.store.ListRefreshLogs(limitParam(c))
	if err != nil {
		h.log.Error("list refresh logs failed", zap.Error(err))
		errorResponse(c, 5001, "读取刷新记录失败")
		return
	}
	if logs == nil {
		logs = []store.RefreshLog{}
	}
	success(c, logs)
}

// CurrentWeek 只读解析周报中本周的表格，不改写文档
func (h *Handlers) CurrentWeek(c *gin.Context) {
	now := h.now()
	table, err := report.Inspect(h.reportPath, now, h.roster)
	if err != nil {
		var rerr *report.RefreshError
		if errors.As(err, &rerr) {
			c.JSON(http.StatusOK, Response{
				Code:    4004,
				Message: rerr.Status.String(),
				Data:    gin.H{"label": report.WeekLabel(now), "table": table},
			})
			return
		}
		h.log.Error("inspect report failed", zap.Error(err))
		errorResponse(c, 5001, "读取周报失败")
		return
	}
	success(c, gin.H{
		"label":     table.Label,
		"weekStart": report.WeekStart(now).Format("2006-01-02"),
		"date":      report.DateCell(now),
		"table":     table,
	})
}

// ExportWorkbook 以 xlsx 下载全部快照
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	snaps, err := h.store.ListSnapshots(0)
	if err != nil {
		h.log.Error("export list snapshots failed", zap.Error(err))
		errorResponse(c, 3001, "导出失败")
		return
	}

	file, err := exporter.BuildWorkbook(h.roster, snaps)
	if err != nil {
		h.log.Error("build workbook failed", zap.Error(err))
		errorResponse(c, 3001, "导出失败")
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename=webcrawler_snapshots.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if _, err := file.WriteTo(c.Writer); err != nil {
		h.log.Error("write workbook failed", zap.Error(err))
	}
}
