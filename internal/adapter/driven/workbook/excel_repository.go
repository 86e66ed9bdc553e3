// Package workbook reads SF133 extracts from disk with excelize.
package workbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

var extensions = map[string]bool{".xlsx": true, ".xlsm": true}

// ExcelRepository implements repository.WorkbookRepository.
type ExcelRepository struct {
	sheets types.SheetConfig
}

// NewExcelRepository creates an ExcelRepository for the configured sheet names.
func NewExcelRepository(sheets types.SheetConfig) repository.WorkbookRepository {
	return &ExcelRepository{sheets: sheets}
}

// ListWorkbooks returns the workbook paths of dir in name order. Office lock
// files ("~$...") are ignored.
func (r *ExcelRepository) ListWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadWorkbook reads the raw data sheet fully and only the top-left region
// of the detail sheet, which is all the unit detection looks at.
func (r *ExcelRepository) LoadWorkbook(ctx context.Context, path string) (*entity.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	wb := &entity.Workbook{FileName: filepath.Base(path)}
	raw := strings.TrimSpace(r.sheets.RawData)
	keyword := strings.ToLower(r.sheets.DetailKeyword)

	for _, name := range f.GetSheetList() {
		switch {
		case wb.RawData == nil && strings.EqualFold(strings.TrimSpace(name), raw):
			rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
			if err != nil {
				return nil, fmt.Errorf("error reading sheet %q: %w", name, err)
			}
			wb.RawData = &entity.Sheet{Name: name, Rows: rows}
		case wb.Detail == nil && keyword != "" && strings.Contains(strings.ToLower(name), keyword):
			rows, err := readRegion(f, name, r.sheets.UnitScanRows)
			if err != nil {
				return nil, fmt.Errorf("error reading sheet %q: %w", name, err)
			}
			wb.Detail = &entity.Sheet{Name: name, Rows: rows}
		}
	}
	return wb, nil
}

func readRegion(f *excelize.File, sheet string, maxRows int) ([][]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() && (maxRows <= 0 || len(out) < maxRows) {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		out = append(out, cols)
	}
	return out, rows.Error()
}
