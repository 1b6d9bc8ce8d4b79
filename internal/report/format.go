// Package report 维护周报文档：定位本周表格、解析并填入今日数值，
// 表格不存在时追加新表格，最后原子替换文档。
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 文档中的固定标记
const (
	labelFormat = `$\text{Year %d Week %d}$`

	mathBlock    = "$$"
	beginPrefix  = `\begin`
	arrayBegin   = `\begin{array}{l|r|r|r|r|r|r|r}`
	arrayEnd     = `\end{array}`
	separator    = `\hline`
	headerPrefix = `\mathrm`
	cellDelim    = "&"
	rowEnd       = `\\`

	dateHeader  = `\mathrm{Date}`
	timeHeader  = `\mathrm{Time}`
	placeholder = "-"

	daysPerWeek = 7
)

// 分隔线计数：两条围住表头，第三条结束已知组，第四条结束未知组
const (
	headerSeparators  = 2
	knownSeparators   = 3
	unknownSeparators = 4
)

// 第 0 列是行首（城市名 / Date / Time），今日列只会出现在它之后
const firstValueColumn = 1

// WeekNumber 以周日为一周开始的周序号（与 strftime %U 一致，年初不完整的一周为第 0 周）
func WeekNumber(t time.Time) int {
	return (t.YearDay() - 1 + daysPerWeek - int(t.Weekday())) / daysPerWeek
}

// WeekLabel 本周表格的标签行
func WeekLabel(t time.Time) string {
	return fmt.Sprintf(labelFormat, t.Year(), WeekNumber(t))
}

// WeekStart 本周周日 0 点
func WeekStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

// DateCell 日期行中某一天的单元格
func DateCell(t time.Time) string {
	return fmt.Sprintf(`\mathrm{%02d-%02d}`, int(t.Month()), t.Day())
}

// TimeCell 时间行中的单元格（精确到分钟）
func TimeCell(t time.Time) string {
	return fmt.Sprintf(`\mathrm{%02d:%02d}`, t.Hour(), t.Minute())
}

// FormatCount 带千分位的整数
func FormatCount(v int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", v)
}

// FormatUnknownCount 未知组：非正数显示为占位符
func FormatUnknownCount(v int64) string {
	if v <= 0 {
		return placeholder
	}
	return FormatCount(v)
}

func joinRow(head string, cells []string) string {
	return head + " " + cellDelim + " " + strings.Join(cells, " "+cellDelim+" ") + " " + rowEnd
}

func isSeparator(line string) bool {
	return strings.HasPrefix(line, separator)
}
