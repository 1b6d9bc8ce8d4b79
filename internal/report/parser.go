package report

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pyrad/webcrawler/internal/city"
)

// Values 一次刷新使用的观测值（按城市规范名查询）
type Values interface {
	Value(key string) (int64, bool)
}

// Table 当前周的表格
type Table struct {
	Label   string   `json:"label"`
	Offset  int      `json:"offset"` // 标签行在文档中的下标
	Column  int      `json:"column"` // 今日列在每一行 token 中的下标
	DateRow string   `json:"dateRow"`
	TimeRow string   `json:"timeRow"`
	Known   []string `json:"known"`
	Unknown []string `json:"unknown"`
}

type parseState int

const (
	stateStart parseState = iota
	stateAwaitBegin
	stateDateRow
	stateTimeRow
	stateKnownRows
	stateUnknownRows
	stateEnd
)

func (s parseState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateAwaitBegin:
		return "await_begin"
	case stateDateRow:
		return "date_row"
	case stateTimeRow:
		return "time_row"
	case stateKnownRows:
		return "known_rows"
	case stateUnknownRows:
		return "unknown_rows"
	case stateEnd:
		return "end"
	default:
		return "invalid"
	}
}

// tableParser 从标签行之后逐行扫描的状态机，只在一次解析中存在
type tableParser struct {
	now    time.Time
	roster *city.Roster
	values Values // nil 表示只读解析，不改写任何单元格
	log    *zap.Logger

	state      parseState
	separators int
	table      *Table
}

// ParseTable 在文档中定位并解析本周表格，同时把 values 填入今日列。
// values 为 nil 时只读取，不修改任何行。
func ParseTable(doc *Document, now time.Time, roster *city.Roster, values Values) (*Table, Status) {
	return parseTable(doc, now, roster, values, zap.NewNop())
}

func parseTable(doc *Document, now time.Time, roster *city.Roster, values Values, log *zap.Logger) (*Table, Status) {
	label := WeekLabel(now)
	offset := doc.Locate(label)
	if offset < 0 {
		log.Debug("week label not found", zap.String("label", label))
		return nil, StatusTableNotFound
	}

	p := &tableParser{
		now:    now,
		roster: roster,
		values: values,
		log:    log,
		state:  stateStart,
		table:  &Table{Label: label, Offset: offset, Column: -1},
	}

	for i := offset + 1; i < len(doc.Lines) && p.state != stateEnd; i++ {
		if status, ok := p.step(doc.Lines[i]); !ok {
			log.Debug("table parse stopped", zap.Int("line", i), zap.Stringer("status", status))
			return nil, status
		}
	}

	if len(p.table.Known) == 0 {
		return p.table, StatusParseFailed
	}
	return p.table, StatusParseSucceeded
}

// step 消费一行并推进状态；ok=false 表示解析必须中止
func (p *tableParser) step(raw string) (Status, bool) {
	line := strings.TrimSpace(raw)
	if isSeparator(line) {
		p.separators++
	}
	tokens := strings.Fields(line)

	switch p.state {
	case stateStart:
		p.transition(stateAwaitBegin)

	case stateAwaitBegin:
		if strings.HasPrefix(line, beginPrefix) {
			p.transition(stateDateRow)
		}

	case stateDateRow:
		if !strings.HasPrefix(line, headerPrefix) {
			break
		}
		col := indexFrom(tokens, DateCell(p.now), firstValueColumn)
		if col < 0 {
			return StatusDateColumnNotFound, false
		}
		p.table.Column = col
		p.table.DateRow = line
		p.transition(stateTimeRow)

	case stateTimeRow:
		if !strings.HasPrefix(line, headerPrefix) {
			break
		}
		p.table.TimeRow = p.fill(line, tokens, TimeCell(p.now))
		p.transition(stateKnownRows)

	case stateKnownRows:
		if p.separators < headerSeparators {
			break
		}
		if isSeparator(line) {
			if p.separators >= knownSeparators {
				p.transition(stateUnknownRows)
			}
			break
		}
		if len(tokens) == 0 {
			break
		}
		p.table.Known = append(p.table.Known, p.fillRow(line, tokens, FormatCount))

	case stateUnknownRows:
		if isSeparator(line) {
			if p.separators >= unknownSeparators {
				p.transition(stateEnd)
			}
			break
		}
		if len(tokens) == 0 {
			break
		}
		p.table.Unknown = append(p.table.Unknown, p.fillRow(line, tokens, FormatUnknownCount))
	}
	return StatusParseSucceeded, true
}

func (p *tableParser) transition(next parseState) {
	p.log.Debug("table parser transition", zap.Stringer("from", p.state), zap.Stringer("to", next))
	p.state = next
}

// fill 用 cell 覆盖今日列；只读解析或行太短时原样返回
func (p *tableParser) fill(line string, tokens []string, cell string) string {
	if p.values == nil || p.table.Column >= len(tokens) {
		return line
	}
	tokens[p.table.Column] = cell
	return strings.Join(tokens, " ")
}

// fillRow 按行首城市名查观测值并写入今日列，不认识的行原样保留
func (p *tableParser) fillRow(line string, tokens []string, format func(int64) string) string {
	if p.values == nil {
		return line
	}
	key := p.roster.ToCanonical(tokens[0])
	if key == "" {
		return line
	}
	v, _ := p.values.Value(key)
	return p.fill(line, tokens, format(v))
}

func indexFrom(tokens []string, want string, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i] == want {
			return i
		}
	}
	return -1
}
