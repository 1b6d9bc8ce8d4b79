package report

import (
	"errors"
	"fmt"
)

// Status 刷新过程中各步骤的结果码
type Status int

const (
	StatusTableNotFound Status = iota
	StatusDateColumnNotFound
	StatusParseSucceeded
	StatusParseFailed
	StatusScaffoldSucceeded
	StatusScaffoldFailed
	StatusWriteSucceeded
	StatusWriteFailed
)

var statusNames = map[Status]string{
	StatusTableNotFound:      "table_not_found",
	StatusDateColumnNotFound: "date_column_not_found",
	StatusParseSucceeded:     "parse_succeeded",
	StatusParseFailed:        "parse_failed",
	StatusScaffoldSucceeded:  "scaffold_succeeded",
	StatusScaffoldFailed:     "scaffold_failed",
	StatusWriteSucceeded:     "write_succeeded",
	StatusWriteFailed:        "write_failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Recoverable 找不到本周表格或今日列时可以通过新建表格恢复
func (s Status) Recoverable() bool {
	return s == StatusTableNotFound || s == StatusDateColumnNotFound
}

var (
	// ErrTableNotFound 文档中没有本周的表格
	ErrTableNotFound = errors.New("table for this week not found")
	// ErrDateColumnNotFound 本周表格中没有今天的日期列
	ErrDateColumnNotFound = errors.New("date column for today not found")
	// ErrParseFailed 找到了表格但无法解析出任何已知组的行
	ErrParseFailed = errors.New("table parse failed")
	// ErrScaffoldFailed 追加新表格时写文件失败
	ErrScaffoldFailed = errors.New("append weekly table failed")
	// ErrWriteFailed 替换文档时写文件失败
	ErrWriteFailed = errors.New("rewrite document failed")
)

// Err 失败状态对应的哨兵错误，成功状态返回 nil
func (s Status) Err() error {
	switch s {
	case StatusTableNotFound:
		return ErrTableNotFound
	case StatusDateColumnNotFound:
		return ErrDateColumnNotFound
	case StatusParseFailed:
		return ErrParseFailed
	case StatusScaffoldFailed:
		return ErrScaffoldFailed
	case StatusWriteFailed:
		return ErrWriteFailed
	default:
		return nil
	}
}

// RefreshError 刷新失败的详细信息
type RefreshError struct {
	Status Status
	Path   string
	Err    error
}

func newRefreshError(status Status, path string, cause error) *RefreshError {
	err := status.Err()
	if cause != nil {
		err = fmt.Errorf("%w: %v", err, cause)
	}
	return &RefreshError{Status: status, Path: path, Err: err}
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s (%s): %v", e.Path, e.Status, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
