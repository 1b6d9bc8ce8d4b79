package report

// Render 生成刷新后的文档：标签行及之前的内容原样保留，之后替换为更新后的表格。
// 表格之后的内容不会保留（文档按周追加，本周表格总在末尾）。
func Render(doc *Document, t *Table) *Document {
	lines := make([]string, 0, t.Offset+len(t.Known)+len(t.Unknown)+12)
	lines = append(lines, doc.Lines[:t.Offset+1]...)
	lines = append(lines, renderTable(t)...)
	return &Document{Lines: lines}
}

func renderTable(t *Table) []string {
	lines := []string{
		mathBlock,
		arrayBegin,
		separator,
		t.DateRow,
		t.TimeRow,
		separator,
	}
	lines = append(lines, t.Known...)
	lines = append(lines, separator)
	lines = append(lines, t.Unknown...)
	lines = append(lines, separator, arrayEnd, mathBlock, "")
	return lines
}
