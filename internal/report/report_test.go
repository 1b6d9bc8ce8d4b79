package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Pyrad/webcrawler/internal/city"
	"github.com/Pyrad/webcrawler/internal/snapshot"
)

// 2024-01-03 是周三，所在周为 2023-12-31 ~ 2024-01-06（第 0 周）
var wednesday = time.Date(2024, 1, 3, 10, 5, 0, 0, time.UTC)

func testRoster(t *testing.T) *city.Roster {
	t.Helper()
	return city.MustRoster([]city.City{
		{Key: "Beijing", Name: "北京"},
		{Key: "Guangzhou", Name: "广州"},
		{Key: "Shanghai", Name: "上海"},
		{Key: "Wuhan", Name: "武汉"},
	})
}

func scenarioValues() snapshot.Snapshot {
	return snapshot.New(wednesday, map[string]int64{
		"Beijing":   123456,
		"Guangzhou": 0,
		"Shanghai":  0,
		"Wuhan":     500,
	})
}

func newTestRefresher(t *testing.T, path string, now time.Time) *Refresher {
	t.Helper()
	r := NewRefresher(path, testRoster(t), nil)
	r.Now = func() time.Time { return now }
	return r
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	return string(data)
}

const preface = "# 二手房挂牌量\n\nSome notes.\n"

const wednesdayTable = `
<!-- Week 0: 2023-12-31 ~ 2024-01-06 -->
$\text{Year 2024 Week 0}$
$$
\begin{array}{l|r|r|r|r|r|r|r}
\hline
\mathrm{Date} & \mathrm{12-31} & \mathrm{01-01} & \mathrm{01-02} & \mathrm{01-03} & \mathrm{01-04} & \mathrm{01-05} & \mathrm{01-06} \\
\mathrm{Time} & - & - & - & \mathrm{10:05} & - & - & - \\
\hline
北京 & - & - & - & 123,456 & - & - & - \\
广州 & - & - & - & 0 & - & - & - \\
\hline
上海 & - & - & - & - & - & - & - \\
武汉 & - & - & - & 500 & - & - & - \\
\hline
\end{array}
$$

`

func TestRefreshScaffoldsAndFillsToday(t *testing.T) {
	path := writeDoc(t, preface)
	r := newTestRefresher(t, path, wednesday)

	out := r.Refresh(scenarioValues())
	if !out.OK() {
		t.Fatalf("refresh failed: %s (%v)", out.Status, out.Err)
	}

	if diff := cmp.Diff(preface+wednesdayTable, readDoc(t, path)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(readDoc(t, path), WeekLabel(wednesday)) != 1 {
		t.Fatalf("expected exactly one table for this week")
	}
	if out.Table.Column != 8 {
		t.Fatalf("Column=%d, want 8", out.Table.Column)
	}
}

func TestRefreshIsIdempotentWithinDay(t *testing.T) {
	path := writeDoc(t, preface)
	r := newTestRefresher(t, path, wednesday)

	if out := r.Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("first refresh: %v", out.Err)
	}
	first := readDoc(t, path)

	// 秒数不同，分钟相同
	r.Now = func() time.Time { return wednesday.Add(40 * time.Second) }
	if out := r.Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("second refresh: %v", out.Err)
	}
	if diff := cmp.Diff(first, readDoc(t, path)); diff != "" {
		t.Fatalf("second refresh changed document (-first +second):\n%s", diff)
	}
}

func TestRefreshNextDayKeepsEarlierColumn(t *testing.T) {
	path := writeDoc(t, preface)
	if out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("wednesday refresh: %v", out.Err)
	}

	thursday := time.Date(2024, 1, 4, 21, 30, 0, 0, time.UTC)
	values := snapshot.New(thursday, map[string]int64{"Beijing": 7, "Shanghai": 1200})
	out := newTestRefresher(t, path, thursday).Refresh(values)
	if !out.OK() {
		t.Fatalf("thursday refresh: %v", out.Err)
	}

	got := readDoc(t, path)
	for _, want := range []string{
		`\mathrm{Time} & - & - & - & \mathrm{10:05} & \mathrm{21:30} & - & - \\`,
		`北京 & - & - & - & 123,456 & 7 & - & - \\`,
		`广州 & - & - & - & 0 & 0 & - & - \\`,
		`上海 & - & - & - & - & 1,200 & - & - \\`,
		`武汉 & - & - & - & 500 & - & - & - \\`,
	} {
		if !strings.Contains(got, want+"\n") {
			t.Errorf("missing row %q in:\n%s", want, got)
		}
	}
	if strings.Count(got, WeekLabel(thursday)) != 1 {
		t.Fatalf("a second table was appended for the same week")
	}
}

func TestRefreshNewWeekAppendsTableAndPreservesHistory(t *testing.T) {
	path := writeDoc(t, preface)
	if out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("week 0 refresh: %v", out.Err)
	}
	before := readDoc(t, path)

	nextWeek := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	if out := newTestRefresher(t, path, nextWeek).Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("week 1 refresh: %v", out.Err)
	}
	after := readDoc(t, path)

	if !strings.HasPrefix(after, before) {
		t.Fatalf("previous content not preserved:\n%s", after)
	}
	if !strings.Contains(after, `$\text{Year 2024 Week 1}$`) {
		t.Fatalf("week 1 table missing")
	}
}

func TestRefreshColumnIntegrity(t *testing.T) {
	path := writeDoc(t, preface)
	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if !out.OK() {
		t.Fatalf("refresh: %v", out.Err)
	}

	tbl := out.Table
	rows := append([]string{tbl.DateRow, tbl.TimeRow}, tbl.Known...)
	rows = append(rows, tbl.Unknown...)
	width := len(strings.Fields(tbl.DateRow))
	for _, row := range rows {
		tokens := strings.Fields(row)
		if len(tokens) != width {
			t.Fatalf("row %q has %d tokens, want %d", row, len(tokens), width)
		}
		if tokens[tbl.Column] == cellDelim {
			t.Fatalf("target column points at a delimiter in %q", row)
		}
	}
	if got := strings.Fields(tbl.DateRow)[tbl.Column]; got != DateCell(wednesday) {
		t.Fatalf("date row target cell=%q", got)
	}
}

func TestRefreshCreatesMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "README.md")
	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if !out.OK() {
		t.Fatalf("refresh: %v", out.Err)
	}
	if diff := cmp.Diff(wednesdayTable, readDoc(t, path)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshDateColumnNotFoundAppendsFreshTable(t *testing.T) {
	// 标签是本周的，但日期行里没有今天
	stale := strings.Replace(wednesdayTable, `\mathrm{01-03}`, `\mathrm{99-99}`, 1)
	path := writeDoc(t, preface+stale)

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, status := ParseTable(doc, wednesday, testRoster(t), scenarioValues()); status != StatusDateColumnNotFound {
		t.Fatalf("status=%s, want %s", status, StatusDateColumnNotFound)
	}

	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if !out.OK() {
		t.Fatalf("refresh: %s %v", out.Status, out.Err)
	}
	got := readDoc(t, path)
	if !strings.HasPrefix(got, preface+stale) {
		t.Fatalf("stale table was not kept verbatim")
	}
	if !strings.HasSuffix(got, wednesdayTable) {
		t.Fatalf("fresh table not appended:\n%s", got)
	}
}

func TestRefreshUnrecognizedRowPassesThrough(t *testing.T) {
	doc := strings.Replace(wednesdayTable, "广州 & - & - & - & 0 &", "火星 & - & - & - & 0 &", 1)
	path := writeDoc(t, preface+doc)

	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if !out.OK() {
		t.Fatalf("refresh: %v", out.Err)
	}
	if !strings.Contains(readDoc(t, path), "火星 & - & - & - & 0 & - & - & - \\\\\n") {
		t.Fatalf("unrecognized row was modified:\n%s", readDoc(t, path))
	}
}

func TestRefreshTrailingContentIsDropped(t *testing.T) {
	path := writeDoc(t, preface+wednesdayTable+"trailing notes\n")

	if out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues()); !out.OK() {
		t.Fatalf("refresh: %v", out.Err)
	}
	if strings.Contains(readDoc(t, path), "trailing notes") {
		t.Fatalf("content after the current table should not be carried over")
	}
}

func TestRefreshParseFailedLeavesDocument(t *testing.T) {
	broken := preface + "\n" + WeekLabel(wednesday) + "\nnothing here\n"
	path := writeDoc(t, broken)

	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if out.Status != StatusParseFailed {
		t.Fatalf("status=%s, want %s", out.Status, StatusParseFailed)
	}
	if !errors.Is(out.Err, ErrParseFailed) {
		t.Fatalf("err=%v, want ErrParseFailed", out.Err)
	}
	var rerr *RefreshError
	if !errors.As(out.Err, &rerr) || rerr.Path != path {
		t.Fatalf("expected RefreshError for %s, got %v", path, out.Err)
	}
	if readDoc(t, path) != broken {
		t.Fatalf("document modified on parse failure")
	}
}

func TestRefreshWriteFailedLeavesOriginal(t *testing.T) {
	original := preface + wednesdayTable
	path := writeDoc(t, original)

	osRename = func(string, string) error { return errors.New("disk full") }
	defer func() { osRename = os.Rename }()

	out := newTestRefresher(t, path, wednesday.Add(time.Hour)).Refresh(scenarioValues())
	if out.Status != StatusWriteFailed || !errors.Is(out.Err, ErrWriteFailed) {
		t.Fatalf("status=%s err=%v", out.Status, out.Err)
	}
	if readDoc(t, path) != original {
		t.Fatalf("original document changed")
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestRefreshScaffoldFailed(t *testing.T) {
	path := writeDoc(t, preface)

	osRename = func(string, string) error { return errors.New("read-only filesystem") }
	defer func() { osRename = os.Rename }()

	out := newTestRefresher(t, path, wednesday).Refresh(scenarioValues())
	if out.Status != StatusScaffoldFailed || !errors.Is(out.Err, ErrScaffoldFailed) {
		t.Fatalf("status=%s err=%v", out.Status, out.Err)
	}
	if readDoc(t, path) != preface {
		t.Fatalf("original document changed")
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestInspectIsReadOnly(t *testing.T) {
	path := writeDoc(t, preface+wednesdayTable)

	tbl, err := Inspect(path, wednesday, testRoster(t))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if tbl.Known[0] != `北京 & - & - & - & 123,456 & - & - & - \\` {
		t.Fatalf("Known[0]=%q", tbl.Known[0])
	}
	if len(tbl.Unknown) != 2 {
		t.Fatalf("Unknown=%v", tbl.Unknown)
	}
	if readDoc(t, path) != preface+wednesdayTable {
		t.Fatalf("Inspect modified the document")
	}

	if _, err := Inspect(path, wednesday.AddDate(0, 0, 7), testRoster(t)); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("err=%v, want ErrTableNotFound", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}
