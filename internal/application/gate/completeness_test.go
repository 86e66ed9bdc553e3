package gate

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

func fixedClock(y int, m time.Month) func() time.Time {
	return func() time.Time { return time.Date(y, m, 15, 0, 0, 0, 0, time.UTC) }
}

func testConfig() *types.Config {
	cfg := types.DefaultConfig()
	cfg.Agencies = []types.AgencyConfig{
		{Name: "Department of Labor", Required: true},
		{Name: "Department of Energy", Required: true},
		{Name: "Corps of Engineers-Civil Works"},
	}
	return cfg
}

func tableWith(fy int, agencies []string, months ...entity.Month) *entity.YearTable {
	t := &entity.YearTable{FiscalYear: fy}
	for _, a := range agencies {
		amounts := entity.Amounts{}
		for _, m := range months {
			amounts[m] = decimal.NewFromInt(5000)
		}
		t.Accounts = append(t.Accounts, entity.AggregatedAccount{
			Key:        entity.AccountKey{Agency: a, LineNumber: 2490},
			FundSymbol: entity.FundSymbol{Text: a + " 1-1 /X"},
			Amounts:    amounts,
		})
	}
	return t
}

var bothAgencies = []string{"Department of Labor", "Department of Energy"}

func TestCurrentFiscalYear(t *testing.T) {
	tests := []struct {
		when time.Time
		want int
	}{
		{time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 2025},
	}
	for _, tt := range tests {
		if got := CurrentFiscalYear(tt.when); got != tt.want {
			t.Errorf("CurrentFiscalYear(%s) = %d, want %d", tt.when.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestCheckCompletedYear(t *testing.T) {
	g := New(testConfig()).WithClock(fixedClock(2025, time.March))
	allButOct := entity.FiscalMonths()[1:]

	res := g.Check(tableWith(2024, bothAgencies, allButOct...), &entity.RunReport{}, nil)
	if !res.Passed || !res.CompletedYear {
		t.Fatalf("Check() = %+v, want passed completed year", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "October") {
		t.Errorf("Warnings = %v", res.Warnings)
	}

	res = g.Check(tableWith(2024, bothAgencies, entity.Nov, entity.Dec), &entity.RunReport{}, nil)
	if res.Passed {
		t.Fatal("completed year with two months must fail")
	}
	if !strings.Contains(res.Failures[0], "Jan") {
		t.Errorf("Failures = %v", res.Failures)
	}
}

func TestCheckSmallTotalsAreMissing(t *testing.T) {
	table := tableWith(2024, bothAgencies, entity.FiscalMonths()...)
	for i := range table.Accounts {
		table.Accounts[i].Amounts[entity.Sep] = decimal.NewFromInt(400)
	}
	res := New(testConfig()).WithClock(fixedClock(2025, time.March)).Check(table, nil, nil)
	if res.Passed || !contains(res.MissingMonths, entity.Sep) {
		t.Errorf("Check() = %+v, want Sep missing", res)
	}
}

func TestCheckCurrentYearAllowsMissingMonths(t *testing.T) {
	g := New(testConfig()).WithClock(fixedClock(2025, time.March))
	res := g.Check(tableWith(2025, []string{"Department of Labor"}, entity.Oct, entity.Nov), &entity.RunReport{}, nil)
	if !res.Passed || res.CompletedYear {
		t.Errorf("Check() = %+v, want passing in-progress year", res)
	}
}

func TestCheckYearOverrides(t *testing.T) {
	cfg := testConfig()
	open := false
	cfg.Years = map[string]types.YearConfig{
		"12": {RequiredMonths: []string{"Nov", "Jul", "Aug"}, AgencyExceptions: []string{"department of energy"}},
		"24": {Completed: &open},
		"23": {ExpectedFiles: 3},
	}
	g := New(cfg).WithClock(fixedClock(2025, time.March))

	res := g.Check(tableWith(2012, []string{"Department of Labor"}, entity.Nov, entity.Jul, entity.Aug), &entity.RunReport{}, nil)
	if !res.Passed {
		t.Errorf("FY2012 failures = %v", res.Failures)
	}

	if g.Completed(2024) {
		t.Error("FY2024 is configured as not completed")
	}

	report := &entity.RunReport{Files: []entity.FileResult{{Status: entity.FileIngested}, {Status: entity.FileSkipped}}}
	res = g.Check(tableWith(2023, bothAgencies, entity.FiscalMonths()...), report, nil)
	if res.Passed || !strings.Contains(strings.Join(res.Failures, ";"), "expected 3 workbooks, ingested 1") {
		t.Errorf("Failures = %v", res.Failures)
	}
}

func TestCheckRequiredAgencies(t *testing.T) {
	g := New(testConfig()).WithClock(fixedClock(2025, time.March))
	res := g.Check(tableWith(2024, []string{"Department of Labor"}, entity.FiscalMonths()...), nil, nil)
	if res.Passed || !strings.Contains(res.Failures[0], "Department of Energy") {
		t.Errorf("Failures = %v", res.Failures)
	}
}

func TestCheckBaselineCoverage(t *testing.T) {
	cfg := testConfig()
	cfg.Gate.BaselineYear = 2022
	baseline := Baseline{
		"Department of Labor":  {"a": true, "Department of Labor 1-1 /X": true, "c": true},
		"Department of Energy": {"Department of Energy 1-1 /X": true},
	}
	res := New(cfg).WithClock(fixedClock(2025, time.March)).Check(tableWith(2024, bothAgencies, entity.FiscalMonths()...), nil, baseline)
	if !res.Passed {
		t.Fatalf("coverage must only warn, failures = %v", res.Failures)
	}
	if len(res.Warnings) != 1 || !strings.HasPrefix(res.Warnings[0], "Department of Labor: 33.3%") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}
