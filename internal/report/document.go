package report

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Document 按行切分的文档内容，行内保留原样（包括可能的 \r）
type Document struct {
	Lines []string
}

// ReadDocument 读取文档；文件不存在视为空文档
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return ParseDocument(data), nil
}

// ParseDocument 将原始字节切分为行
func ParseDocument(data []byte) *Document {
	if len(data) == 0 {
		return &Document{}
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &Document{Lines: lines}
}

// Bytes 还原为文本，每行以 \n 结尾
func (d *Document) Bytes() []byte {
	var b strings.Builder
	for _, l := range d.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Locate 查找标签行（去除首尾空白后完全相等），返回最后一次出现的行下标，找不到返回 -1。
// 文档只在末尾追加，同一周重复出现时以最新追加的为准。
func (d *Document) Locate(label string) int {
	found := -1
	for i, l := range d.Lines {
		if strings.TrimSpace(l) == label {
			found = i
		}
	}
	return found
}
