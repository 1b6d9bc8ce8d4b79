package report

import (
	"fmt"
	"time"

	"github.com/Pyrad/webcrawler/internal/city"
)

// Scaffold 生成本周的空表格：7 天日期从周日开始，所有数值为占位符。
// 时间行与数值都不在这里填写，由随后的解析步骤只填今日一列。
func Scaffold(now time.Time, roster *city.Roster, heading bool) []string {
	start := WeekStart(now)
	end := start.AddDate(0, 0, daysPerWeek-1)

	dates := make([]string, daysPerWeek)
	empty := make([]string, daysPerWeek)
	for i := range dates {
		dates[i] = DateCell(start.AddDate(0, 0, i))
		empty[i] = placeholder
	}

	lines := []string{""}
	if heading {
		lines = append(lines, fmt.Sprintf("<!-- Week %d: %s ~ %s -->",
			WeekNumber(now), start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	lines = append(lines,
		WeekLabel(now),
		mathBlock,
		arrayBegin,
		separator,
		joinRow(dateHeader, dates),
		joinRow(timeHeader, empty),
		separator,
	)
	for _, c := range roster.Known() {
		lines = append(lines, joinRow(c.Name, empty))
	}
	lines = append(lines, separator)
	for _, c := range roster.Unknown() {
		lines = append(lines, joinRow(c.Name, empty))
	}
	lines = append(lines, separator, arrayEnd, mathBlock, "")
	return lines
}

// appendScaffold 在文档末尾追加新表格，原有内容逐字保留
func appendScaffold(doc *Document, scaffold []string) *Document {
	lines := make([]string, 0, len(doc.Lines)+len(scaffold))
	lines = append(lines, doc.Lines...)
	lines = append(lines, scaffold...)
	return &Document{Lines: lines}
}
