package reconciler

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/application/merger"
	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

type memoryWorkbooks map[string]*entity.Workbook

func (m memoryWorkbooks) ListWorkbooks(dir string) ([]string, error) {
	var out []string
	for name := range m {
		out = append(out, dir+"/"+name)
	}
	sort.Strings(out)
	return out, nil
}

func (m memoryWorkbooks) LoadWorkbook(_ context.Context, path string) (*entity.Workbook, error) {
	for name, wb := range m {
		if path == "src/"+name {
			if wb == nil {
				return nil, errors.New("corrupt zip")
			}
			return wb, nil
		}
	}
	return nil, errors.New("not found")
}

var header = []string{"AGENCY", "BUREAU", "TAFS", "LINENO", "FY1", "FY2"}

func sheet(amountCol string, rows ...[]string) *entity.Sheet {
	h := append(append([]string{}, header...), amountCol)
	return &entity.Sheet{Name: "Raw Data", Rows: append([][]string{h}, rows...)}
}

func newReconciler(wbs memoryWorkbooks) *Reconciler {
	return New(types.DefaultConfig(), wbs, zerolog.New(io.Discard))
}

func find(t *testing.T, table *entity.YearTable, tafs string, line int) entity.AggregatedAccount {
	t.Helper()
	for _, acct := range table.Accounts {
		if acct.FundSymbol.Text == tafs && acct.Key.LineNumber == line {
			return acct
		}
	}
	t.Fatalf("account %s line %d not found", tafs, line)
	return entity.AggregatedAccount{}
}

func TestReconcileSingleMonthPivot(t *testing.T) {
	row := func(tafs, line, amount string) []string {
		return []string{"Department of Labor", "ETA", tafs, line, "", "X", amount}
	}
	wbs := memoryWorkbooks{
		"a_nov.xlsx": {FileName: "a_nov.xlsx", RawData: sheet("AMT_NOV", row("16-0174 /X", "2490", "10"), row("16-0179 /X", "2490", "4"))},
		"b_jul.xlsx": {FileName: "b_jul.xlsx", RawData: sheet("AMT_JUL", row("16-0174 /X", "2490", "20"))},
		"c_aug.xlsx": {FileName: "c_aug.xlsx", RawData: sheet("AMT_AUG", row("16-0174 /X", "2490", "30"))},
	}
	report := &entity.RunReport{}
	table, err := newReconciler(wbs).ReconcileYear(context.Background(), "src", 2012, report, nil)
	if err != nil {
		t.Fatalf("ReconcileYear() error = %v", err)
	}
	if len(table.Accounts) != 2 {
		t.Fatalf("len(Accounts) = %d, want 2", len(table.Accounts))
	}

	full := find(t, table, "16-0174 /X", 2490)
	for m, want := range map[entity.Month]int64{entity.Nov: 10, entity.Jul: 20, entity.Aug: 30} {
		if got := full.Amounts[m]; !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("%s = %s, want %d", m, got, want)
		}
	}

	partial := find(t, table, "16-0179 /X", 2490)
	for _, m := range []entity.Month{entity.Jul, entity.Aug} {
		v, ok := partial.Amounts[m]
		if !ok || !v.IsZero() {
			t.Errorf("%s = (%s, %v), want explicit zero", m, v, ok)
		}
	}
	if _, ok := partial.Amounts[entity.Sep]; ok {
		t.Error("Sep never appeared in any single-month file and must stay absent")
	}
	if got := table.Months; len(got) != 3 {
		t.Errorf("Months = %v, want Nov, Jul, Aug", got)
	}
}

func TestReconcileMonthlyKeepsAbsentMonths(t *testing.T) {
	h := []string{"AGENCY", "BUREAU", "TAFS", "LINENO", "AMT_OCT", "AMT_NOV"}
	wbs := memoryWorkbooks{
		"energy.xlsx": {FileName: "energy.xlsx", RawData: &entity.Sheet{Rows: [][]string{
			h,
			{"Department of Energy", "Science", "89-0222 /X", "2490", "5", ""},
		}}},
	}
	table, err := newReconciler(wbs).ReconcileYear(context.Background(), "src", 2025, &entity.RunReport{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Accounts[0].Amounts[entity.Nov]; ok {
		t.Error("Nov should be absent for monthly extracts")
	}
}

func TestReconcileSkipsBadFiles(t *testing.T) {
	good := sheet("AMT_SEP", []string{"Department of Energy", "Science", "89-0222 /X", "2490", "", "X", "5"})
	wbs := memoryWorkbooks{
		"2668331098.xlsx": {FileName: "2668331098.xlsx", RawData: good},
		"broken.xlsx":     nil,
		"empty.xlsx":      {FileName: "empty.xlsx", RawData: &entity.Sheet{Rows: [][]string{header}}},
		"nosheet.xlsx":    {FileName: "nosheet.xlsx"},
		"energy.xlsx":     {FileName: "energy.xlsx", RawData: good},
	}
	var seen []string
	report := &entity.RunReport{}
	table, err := newReconciler(wbs).ReconcileYear(context.Background(), "src", 2025, report, func(f string) { seen = append(seen, f) })
	if err != nil {
		t.Fatalf("ReconcileYear() error = %v", err)
	}
	if len(table.Accounts) != 1 {
		t.Errorf("len(Accounts) = %d, want 1 (consolidated file must be skipped)", len(table.Accounts))
	}
	if report.IngestedFiles() != 1 || len(report.Files) != 5 {
		t.Errorf("ingested = %d of %d files", report.IngestedFiles(), len(report.Files))
	}
	if len(seen) != 5 {
		t.Errorf("progress called %d times, want 5", len(seen))
	}
	if len(report.Agencies) != 1 || report.Agencies[0].GroupsOut != 1 {
		t.Errorf("Agencies = %+v", report.Agencies)
	}
}

func TestReconcileValidationFailureAborts(t *testing.T) {
	wbs := memoryWorkbooks{
		"commerce.xlsx": {FileName: "commerce.xlsx", RawData: sheet("AMT_SEP",
			[]string{"Department of Commerce", "NOAA", "13-1450 13/14", "2490", "12", "14", "1"},
		)},
	}
	report := &entity.RunReport{}
	_, err := newReconciler(wbs).ReconcileYear(context.Background(), "src", 2014, report, nil)

	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *types.ValidationError", err)
	}
	if len(verr.Mismatches) != 1 || verr.Mismatches[0].SourceFile != "commerce.xlsx" || verr.Mismatches[0].SourceRow != 2 {
		t.Errorf("Mismatches = %+v", verr.Mismatches)
	}
	if report.Validation.Passed {
		t.Error("report should record the failed validation")
	}
}

func TestReconcileCatchAllWithoutBureau(t *testing.T) {
	wbs := memoryWorkbooks{
		"oia.xlsx": {FileName: "oia.xlsx", RawData: &entity.Sheet{Name: "Raw Data", Rows: [][]string{
			{"AGENCY", "BUREAU", "OMB_ACCT", "TAFS", "LINENO", "AMT_SEP"},
			{"Other Independent Agencies", "", "2300 Denali Commission", "95-2300 24/25 - Salaries and Expenses", "2490", "25"},
			{"Other Independent Agencies", "", "2300 Denali Commission", "95-2300 24/25 - Salaries and Expenses", "2500", "100"},
		}}},
	}
	cfg := types.DefaultConfig()
	report := &entity.RunReport{}
	table, err := New(cfg, wbs, zerolog.New(io.Discard)).ReconcileYear(context.Background(), "src", 2025, report, nil)
	if err != nil {
		t.Fatalf("ReconcileYear() error = %v", err)
	}
	if len(table.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2 (excluded: %v)", len(table.Accounts), report.RowsExcluded)
	}
	acct := find(t, table, "95-2300 24/25 - Salaries and Expenses", 2490)
	if acct.Layout != entity.LayoutCatchAll || acct.Key.Bureau != "" {
		t.Errorf("account = %+v, want catch-all with blank bureau", acct.Key)
	}

	m, err := merger.New(cfg.Lines, "")
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Merge(table)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	if got := res.Records[0].Bureau; got != "Denali Commission" {
		t.Errorf("Bureau = %q, want the account code text", got)
	}
	if got := res.Records[0].PercentUnobligatedDisplay; got != "25.0%" {
		t.Errorf("percent = %q, want 25.0%%", got)
	}
}

func TestReconcileErrors(t *testing.T) {
	if _, err := newReconciler(memoryWorkbooks{}).ReconcileYear(context.Background(), "src", 2024, &entity.RunReport{}, nil); !errors.Is(err, types.ErrNoWorkbooks) {
		t.Errorf("empty dir error = %v, want ErrNoWorkbooks", err)
	}

	onlyBad := memoryWorkbooks{"nosheet.xlsx": {FileName: "nosheet.xlsx"}}
	if _, err := newReconciler(onlyBad).ReconcileYear(context.Background(), "src", 2024, &entity.RunReport{}, nil); !errors.Is(err, types.ErrNoRowsExtracted) {
		t.Errorf("no rows error = %v, want ErrNoRowsExtracted", err)
	}
}

func TestMergeTablesFirstWins(t *testing.T) {
	key := entity.AccountKey{Agency: "A", Bureau: "B", AccountNumber: "1-2", LineNumber: 2490, AllocationCode: "1"}
	a := []entity.AggregatedAccount{{Key: key, RowCount: 1, Amounts: entity.Amounts{entity.Nov: decimal.NewFromInt(1)}}}
	b := []entity.AggregatedAccount{{Key: key, RowCount: 1, Amounts: entity.Amounts{entity.Nov: decimal.NewFromInt(9), entity.Jul: decimal.NewFromInt(2)}}}

	out, dups := mergeTables(a, b)
	if len(out) != 1 || dups != 1 {
		t.Fatalf("len = %d dups = %d, want 1 and 1", len(out), dups)
	}
	if !out[0].Amounts[entity.Nov].Equal(decimal.NewFromInt(1)) || !out[0].Amounts[entity.Jul].Equal(decimal.NewFromInt(2)) {
		t.Errorf("Amounts = %v", out[0].Amounts)
	}
	if _, ok := a[0].Amounts[entity.Jul]; ok {
		t.Error("input table was mutated")
	}
}
