package report

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/city"
)

// Refresher 周报刷新引擎。单线程同步执行，假设刷新期间独占文档。
type Refresher struct {
	Path    string
	Roster  *city.Roster
	Heading bool // 新建表格时是否写入周标题注释

	Now    func() time.Time // 可注入当前时间，nil 时使用 time.Now
	Logger *zap.Logger
}

// Outcome 一次刷新的最终结果
type Outcome struct {
	Status  Status
	Message string
	Table   *Table
	Err     error
}

// OK 文档已成功改写
func (o Outcome) OK() bool {
	return o.Status == StatusWriteSucceeded
}

// NewRefresher 创建刷新引擎
func NewRefresher(path string, roster *city.Roster, logger *zap.Logger) *Refresher {
	return &Refresher{
		Path:    path,
		Roster:  roster,
		Heading: true,
		Logger:  logger,
	}
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Refresher) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// Refresh 执行一次刷新：解析 ->（必要时新建表格并重新解析）-> 改写文档。
// 同一天、同一份观测值重复执行，文档结果完全相同。
func (r *Refresher) Refresh(values Values) Outcome {
	now := r.now()
	log := r.logger().With(zap.String("path", r.Path), zap.String("label", WeekLabel(now)))

	out := r.refresh(values, now, log)
	if out.OK() {
		log.Info("weekly table refreshed", zap.Stringer("status", out.Status), zap.String("message", out.Message))
	} else {
		log.Error("weekly table refresh failed", zap.Stringer("status", out.Status), zap.Error(out.Err))
	}
	return out
}

func (r *Refresher) refresh(values Values, now time.Time, log *zap.Logger) Outcome {
	doc, err := ReadDocument(r.Path)
	if err != nil {
		return r.fail(StatusParseFailed, err)
	}

	table, status := parseTable(doc, now, r.Roster, values, log)
	if status.Recoverable() {
		log.Debug("appending weekly table", zap.Stringer("reason", status))
		if status, err := r.scaffold(doc, now); status != StatusScaffoldSucceeded {
			return r.fail(status, err)
		}
		if doc, err = ReadDocument(r.Path); err != nil {
			return r.fail(StatusParseFailed, err)
		}
		table, status = parseTable(doc, now, r.Roster, values, log)
	}
	if status != StatusParseSucceeded {
		return r.fail(status, nil)
	}

	if err := writeFileAtomic(r.Path, Render(doc, table).Bytes()); err != nil {
		return r.fail(StatusWriteFailed, err)
	}

	return Outcome{
		Status: StatusWriteSucceeded,
		Message: fmt.Sprintf("%s: updated %s column %s (%d known, %d unknown rows)",
			r.Path, table.Label, DateCell(now), len(table.Known), len(table.Unknown)),
		Table: table,
	}
}

// scaffold 在文档末尾追加本周空表格并写回
func (r *Refresher) scaffold(doc *Document, now time.Time) (Status, error) {
	next := appendScaffold(doc, Scaffold(now, r.Roster, r.Heading))
	if err := writeFileAtomic(r.Path, next.Bytes()); err != nil {
		return StatusScaffoldFailed, err
	}
	return StatusScaffoldSucceeded, nil
}

func (r *Refresher) fail(status Status, cause error) Outcome {
	err := newRefreshError(status, r.Path, cause)
	return Outcome{
		Status:  status,
		Message: fmt.Sprintf("%s: refresh failed: %v", r.Path, err.Err),
		Err:     err,
	}
}

// Inspect 只读解析本周表格，不写文件
func Inspect(path string, now time.Time, roster *city.Roster) (*Table, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	table, status := ParseTable(doc, now, roster, nil)
	if status != StatusParseSucceeded {
		return table, newRefreshError(status, path, nil)
	}
	return table, nil
}
