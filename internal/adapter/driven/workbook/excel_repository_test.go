package workbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			values := row
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestListWorkbooks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "~$a.xlsx", "notes.txt", "c.xlsm"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := NewExcelRepository(types.DefaultConfig().Sheets).ListWorkbooks(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.XLSX", "b.xlsx", "c.xlsm"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, filepath.Base(p), want[i])
		}
	}

	if _, err := NewExcelRepository(types.DefaultConfig().Sheets).ListWorkbooks(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labor.xlsx")
	detail := make([][]interface{}, 15)
	for i := range detail {
		detail[i] = []interface{}{"filler"}
	}
	detail[2] = []interface{}{"", "(Amounts in thousands)"}
	writeWorkbook(t, path, map[string][][]interface{}{
		"Raw Data": {
			{"AGENCY", "TAFS", "LINENO", "AMT_NOV"},
			{"Department of Labor", "16-0174 /X", 2490, 12.5},
		},
		"SF133 Report Detail": detail,
	})

	wb, err := NewExcelRepository(types.DefaultConfig().Sheets).LoadWorkbook(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadWorkbook() error = %v", err)
	}
	if wb.FileName != "labor.xlsx" {
		t.Errorf("FileName = %q", wb.FileName)
	}
	if wb.RawData == nil || len(wb.RawData.Rows) != 2 {
		t.Fatalf("RawData = %+v", wb.RawData)
	}
	if got := wb.RawData.Cell(1, 2); got != "2490" {
		t.Errorf("LINENO cell = %q, want raw value 2490", got)
	}
	if got := wb.RawData.Cell(1, 3); got != "12.5" {
		t.Errorf("amount cell = %q, want 12.5", got)
	}
	if wb.Detail == nil || len(wb.Detail.Rows) != 10 {
		t.Fatalf("Detail should be limited to the scan region, got %+v", wb.Detail)
	}
	if wb.Detail.Cell(2, 1) != "(Amounts in thousands)" {
		t.Errorf("detail cell = %q", wb.Detail.Cell(2, 1))
	}
}

func TestLoadWorkbookWithoutRawData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{"Summary": {{"x"}}})

	wb, err := NewExcelRepository(types.DefaultConfig().Sheets).LoadWorkbook(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if wb.RawData != nil {
		t.Error("RawData should be nil when the sheet is missing")
	}
}

func TestLoadWorkbookErrors(t *testing.T) {
	repo := NewExcelRepository(types.DefaultConfig().Sheets)
	bad := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := os.WriteFile(bad, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.LoadWorkbook(context.Background(), bad); err == nil {
		t.Error("expected error for a corrupt workbook")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.LoadWorkbook(ctx, bad); err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
