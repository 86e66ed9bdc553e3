package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

func sampleTable() *entity.YearTable {
	return &entity.YearTable{
		FiscalYear: 2024,
		Months:     []entity.Month{entity.Nov, entity.Dec},
		Accounts: []entity.AggregatedAccount{
			{
				Key:            entity.AccountKey{Agency: "Department of Labor", Bureau: "ETA", AccountNumber: "16-0174", LineNumber: 2490, EndPeriod: "X", AllocationCode: "16", Discriminators: "TRAG=16"},
				AccountCode:    "0174",
				FundSymbol:     entity.FundSymbol{Text: "16-0174 /X"},
				SourceFile:     "labor.xlsx",
				RowCount:       2,
				Amounts:        entity.Amounts{entity.Nov: decimal.RequireFromString("1500.5")},
				Attributes:     map[string]string{"CAT_B": "x"},
				Discriminators: []entity.Discriminator{{Column: "TRAG", Value: "16"}},
			},
			{
				Key:        entity.AccountKey{Agency: "Department of Labor", Bureau: "ETA", AccountNumber: "16-0174", LineNumber: 2500, EndPeriod: "X", AllocationCode: "16"},
				FundSymbol: entity.FundSymbol{Text: "16-0174 /X"},
				RowCount:   1,
				Amounts:    entity.Amounts{entity.Nov: decimal.NewFromInt(3000), entity.Dec: decimal.Zero},
			},
		},
	}
}

func sampleRecords() []entity.AccountSummaryRecord {
	return []entity.AccountSummaryRecord{{
		Agency:                    "Department of Labor",
		Bureau:                    "ETA",
		AccountDisplayName:        "Training and Employment Services with a rather long name that must be truncated in the PDF table",
		AccountNumber:             "16-0174",
		PeriodOfPerformance:       "No Year",
		ExpirationYear:            "No Year",
		FundSymbol:                "16-0174 /X",
		UnobligatedBalance:        decimal.RequireFromString("1500.5"),
		BudgetAuthority:           decimal.NewFromInt(3000),
		PercentUnobligated:        decimal.RequireFromString("50.0166666666666667"),
		UnobligatedBalanceDisplay: "$0.0M",
		BudgetAuthorityDisplay:    "$0.0M",
		PercentUnobligatedDisplay: "50.0%",
	}}
}

func TestExportNormalizedTable(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	path, err := repo.ExportNormalizedTable(sampleTable(), dir)
	if err != nil {
		t.Fatalf("ExportNormalizedTable() error = %v", err)
	}
	if filepath.Base(path) != "sf133_2024_master.csv" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2", len(lines))
	}
	wantHeader := "Agency,Bureau,Account Code,Account Number,TAFS,Begin Period,End Period,Allocation,Line Number,Layout,TRAG,Oct,Nov,Dec,Jan,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Row Count,Source File,CAT_B"
	if lines[0] != wantHeader {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.Contains(lines[1], ",16,,1500.5,,,") {
		t.Errorf("absent months must be empty cells: %s", lines[1])
	}
	if !strings.Contains(lines[2], ",3000,0,") {
		t.Errorf("explicit zero must be kept: %s", lines[2])
	}
}

func TestExportsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	write := func() map[string][]byte {
		paths := []string{}
		p, err := repo.ExportNormalizedTable(sampleTable(), dir)
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
		if p, err = repo.ExportSummaryToCSV(sampleRecords(), 2024, dir); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
		if p, err = repo.ExportSummaryToJSON(sampleRecords(), 2024, dir); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)

		out := map[string][]byte{}
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			out[p] = data
		}
		return out
	}

	first := write()
	second := write()
	for path, data := range first {
		if !bytes.Equal(data, second[path]) {
			t.Errorf("%s changed between identical runs", filepath.Base(path))
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExportSummaryToJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExportRepository().ExportSummaryToJSON(sampleRecords(), 2024, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	for _, want := range []string{`"tafs": "16-0174 /X"`, `"unobligated_balance": "1500.5"`, `"layout": "standard"`, `"percent_unobligated_display": "50.0%"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %s", want)
		}
	}

	empty, err := NewExportRepository().ExportSummaryToJSON(nil, 2023, dir)
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(empty); strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty summary = %q, want []", data)
	}
}

func TestExportSummaryToPDF(t *testing.T) {
	dir := t.TempDir()
	report := &entity.RunReport{
		RunID:      "run-1",
		FiscalYear: 2024,
		FinishedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Warnings:   []string{"[yellow]compression ratio high[/]"},
		Gate:       &entity.GateResult{Warnings: []string{"October has no data"}},
	}
	path, err := NewExportRepository().ExportSummaryToPDF(sampleRecords(), report, dir)
	if err != nil {
		t.Fatalf("ExportSummaryToPDF() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestUpdateMonthMetadataMerges(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	if _, err := repo.UpdateMonthMetadata(entity.MonthMetadata{2023: entity.Sep, 2024: entity.Jun}, dir); err != nil {
		t.Fatal(err)
	}
	path, err := repo.UpdateMonthMetadata(entity.MonthMetadata{2024: entity.Jul}, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	want := "{\n  \"2023\": \"Sep\",\n  \"2024\": \"Jul\"\n}\n"
	if string(data) != want {
		t.Errorf("metadata = %q, want %q", data, want)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpdateMonthMetadata(entity.MonthMetadata{2025: entity.Oct}, dir); err == nil {
		t.Error("expected error for corrupt metadata file")
	}
}

func TestLoadFundSymbols(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()
	if _, err := repo.ExportNormalizedTable(sampleTable(), dir); err != nil {
		t.Fatal(err)
	}

	symbols, err := repo.LoadFundSymbols(2024, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 1 || len(symbols["Department of Labor"]) != 1 || !symbols["Department of Labor"]["16-0174 /X"] {
		t.Errorf("symbols = %v", symbols)
	}

	if _, err := repo.LoadFundSymbols(2019, dir); err == nil {
		t.Error("expected error for a year never exported")
	}
}
