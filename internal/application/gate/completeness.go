// Package gate decides whether a processed fiscal year is complete enough
// to publish.
package gate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// Baseline is the set of fund symbols per agency of a reference year.
type Baseline map[string]map[string]bool

// Gate checks month availability, agency presence, file counts and
// optionally fund symbol coverage against a baseline year.
type Gate struct {
	cfg *types.Config
	now func() time.Time
}

// New creates a Gate using the wall clock.
func New(cfg *types.Config) *Gate {
	return &Gate{cfg: cfg, now: time.Now}
}

// WithClock replaces the clock, for deterministic completed-year decisions.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// CurrentFiscalYear returns the federal fiscal year of t; October starts
// the next one.
func CurrentFiscalYear(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year() + 1
	}
	return t.Year()
}

// Completed reports whether fiscalYear is over, either by configuration or
// because it precedes the current fiscal year.
func (g *Gate) Completed(fiscalYear int) bool {
	if yc, ok := g.cfg.YearConfigFor(fiscalYear); ok && yc.Completed != nil {
		return *yc.Completed
	}
	return fiscalYear < CurrentFiscalYear(g.now())
}

// Check evaluates table. baseline may be nil.
func (g *Gate) Check(table *entity.YearTable, report *entity.RunReport, baseline Baseline) *entity.GateResult {
	res := &entity.GateResult{CompletedYear: g.Completed(table.FiscalYear)}
	yc, _ := g.cfg.YearConfigFor(table.FiscalYear)

	threshold := decimal.NewFromFloat(g.cfg.Gate.MinMonthTotal)
	totals := table.MonthTotals()
	for _, m := range entity.FiscalMonths() {
		if v, ok := totals.Get(m); ok && v.Abs().GreaterThan(threshold) {
			res.AvailableMonths = append(res.AvailableMonths, m)
		} else {
			res.MissingMonths = append(res.MissingMonths, m)
		}
	}
	if len(res.AvailableMonths) == 0 {
		res.Failures = append(res.Failures, "no month has data")
	}

	if res.CompletedYear {
		required, err := requiredMonths(yc)
		if err != nil {
			res.Failures = append(res.Failures, err.Error())
		}
		var missing []string
		for _, m := range required {
			if !contains(res.AvailableMonths, m) {
				missing = append(missing, m.String())
			}
		}
		if len(missing) > 0 {
			res.Failures = append(res.Failures, fmt.Sprintf("completed fiscal year is missing months: %s", strings.Join(missing, ", ")))
		}
		if !contains(res.AvailableMonths, entity.Oct) {
			res.Warnings = append(res.Warnings, "October has no data")
		}

		if missing := g.missingAgencies(table, yc); len(missing) > 0 {
			res.Failures = append(res.Failures, fmt.Sprintf("required agencies missing: %s", strings.Join(missing, ", ")))
		}
	}

	if yc.ExpectedFiles > 0 && report != nil && report.IngestedFiles() < yc.ExpectedFiles {
		res.Failures = append(res.Failures, fmt.Sprintf("expected %d workbooks, ingested %d", yc.ExpectedFiles, report.IngestedFiles()))
	}

	res.Warnings = append(res.Warnings, g.coverage(table, baseline)...)
	res.Passed = len(res.Failures) == 0
	return res
}

// requiredMonths is every month except October unless the year overrides it.
func requiredMonths(yc types.YearConfig) ([]entity.Month, error) {
	if len(yc.RequiredMonths) == 0 {
		return entity.FiscalMonths()[1:], nil
	}
	out := make([]entity.Month, 0, len(yc.RequiredMonths))
	for _, name := range yc.RequiredMonths {
		m, err := entity.ParseMonth(name)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (g *Gate) missingAgencies(table *entity.YearTable, yc types.YearConfig) []string {
	present := map[string]bool{}
	for _, a := range table.Agencies() {
		present[strings.ToLower(a)] = true
	}
	excepted := map[string]bool{}
	for _, a := range yc.AgencyExceptions {
		excepted[strings.ToLower(strings.TrimSpace(a))] = true
	}
	var missing []string
	for _, a := range g.cfg.RequiredAgencies() {
		key := strings.ToLower(a)
		if !present[key] && !excepted[key] {
			missing = append(missing, a)
		}
	}
	return missing
}

// coverage compares the distinct fund symbols per agency with baseline.
func (g *Gate) coverage(table *entity.YearTable, baseline Baseline) []string {
	if len(baseline) == 0 {
		return nil
	}
	current := Symbols(table)
	agencies := make([]string, 0, len(baseline))
	for a := range baseline {
		agencies = append(agencies, a)
	}
	sort.Strings(agencies)

	var warnings []string
	for _, agency := range agencies {
		want := len(baseline[agency])
		if want == 0 {
			continue
		}
		pct := float64(len(current[agency])) / float64(want) * 100
		if pct < g.cfg.Gate.MinCoveragePct {
			warnings = append(warnings, fmt.Sprintf("%s: %.1f%% fund symbol coverage vs FY%d (%d of %d)",
				agency, pct, g.cfg.Gate.BaselineYear, len(current[agency]), want))
		}
	}
	return warnings
}

// Symbols returns the distinct fund symbol texts per agency of table.
func Symbols(table *entity.YearTable) Baseline {
	out := Baseline{}
	for _, acct := range table.Accounts {
		set, ok := out[acct.Key.Agency]
		if !ok {
			set = map[string]bool{}
			out[acct.Key.Agency] = set
		}
		set[acct.FundSymbol.Text] = true
	}
	return out
}

func contains(months []entity.Month, m entity.Month) bool {
	for _, x := range months {
		if x == m {
			return true
		}
	}
	return false
}
