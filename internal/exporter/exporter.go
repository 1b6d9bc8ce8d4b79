// Package exporter 把抓取快照写成 xlsx 表格，每个快照一行，每个城市一列。
package exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Pyrad/webcrawler/internal/city"
	"github.com/Pyrad/webcrawler/internal/snapshot"
)

// SheetName 快照工作表名
const SheetName = "快照"

const (
	timeHeader = "时间"
	timeLayout = "2006-01-02 15:04:05"
)

// BuildWorkbook 用全部快照生成新表格，按时间正序排列
func BuildWorkbook(roster *city.Roster, snaps []snapshot.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	columns, err := ensureHeader(f, roster)
	if err != nil {
		f.Close()
		return nil, err
	}

	sorted := make([]snapshot.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.Before(sorted[j].TakenAt)
	})

	for i, snap := range sorted {
		if err := writeRow(f, i+2, columns, snap); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// AppendSnapshot 在 path 指向的表格末尾追加一行；文件不存在时新建。
// 保存先写临时文件再改名，失败时原文件不变。
func AppendSnapshot(path string, roster *city.Roster, snap snapshot.Snapshot) error {
	f, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	columns, err := ensureHeader(f, roster)
	if err != nil {
		return err
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return err
	}
	if err := writeRow(f, len(rows)+1, columns, snap); err != nil {
		return err
	}

	return saveAtomic(f, path)
}

func openOrCreate(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
			if _, err := f.NewSheet(SheetName); err != nil {
				f.Close()
				return nil, err
			}
		}
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// ensureHeader 保证首行包含 时间 与名册中所有城市，返回 城市规范名 -> 列号。
// 已有表头中缺少的城市追加在最右侧，已有列的位置不变。
func ensureHeader(f *excelize.File, roster *city.Roster) (map[string]int, error) {
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, err
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	if len(header) == 0 {
		header = []string{timeHeader}
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		position[name] = i + 1
	}

	columns := make(map[string]int, roster.Len())
	for _, c := range roster.Cities() {
		col, ok := position[c.Name]
		if !ok {
			header = append(header, c.Name)
			col = len(header)
			position[c.Name] = col
		}
		columns[c.Key] = col
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	f.SetColWidth(SheetName, "A", "A", 22)
	if len(header) > 1 {
		f.SetColWidth(SheetName, "B", lastCol, 12)
	}
	return columns, nil
}

// writeRow 写一行快照，未观测到的城市留空
func writeRow(f *excelize.File, row int, columns map[string]int, snap snapshot.Snapshot) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(SheetName, cell, snap.TakenAt.Format(timeLayout)); err != nil {
		return err
	}
	for key, col := range columns {
		v, ok := snap.Value(key)
		if !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
