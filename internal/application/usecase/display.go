package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// displayYear imprime o resumo do ano: agências, meses e o resultado do gate.
func (uc *PipelineUseCase) displayYear(table *entity.YearTable, report *entity.RunReport) {
	uc.console.Printf("\n%s\n", pterm.FgYellow.Sprintf("FY%d (as of %s)", report.FiscalYear, report.Merge.AsOfMonth))

	t := uc.console.CreateTable()
	t.AddColumn("Agency")
	t.AddColumn("Files")
	t.AddColumn("Rows In")
	t.AddColumn("Accounts")
	t.AddColumn("Summary Records")
	for _, a := range report.Agencies {
		t.AddRow(
			pterm.FgMagenta.Sprint(a.Agency),
			fmt.Sprint(a.Files),
			fmt.Sprint(a.RowsIn),
			fmt.Sprint(a.GroupsOut),
			fmt.Sprint(a.SummaryRecords),
		)
	}
	uc.console.Print(t.Render())

	totals := table.MonthTotals()
	var bars []types.MonthlyTotal
	for _, m := range entity.FiscalMonths() {
		v, ok := totals.Get(m)
		f, _ := v.Float64()
		bars = append(bars, types.MonthlyTotal{Month: m.String(), Total: f, Reported: ok})
	}
	uc.console.DisplayMonthTotals("Reported totals by month", bars)

	uc.console.LogInfo("Workbooks ingested: %d of %d, rows in: %d, accounts: %d (ratio %.1f)",
		report.IngestedFiles(), len(report.Files), report.RowsIn, report.GroupsOut, report.CompressionRatio)
	uc.console.LogInfo("Summary: %d matched, %d only 2490, %d only 2500, %d without %s value, %d duplicate join keys",
		report.Merge.Matched, report.Merge.OnlyUnobligated, report.Merge.OnlyAuthority,
		report.Merge.MissingMonth, report.Merge.AsOfMonth, report.Merge.DuplicateKeys)
	reasons := make([]string, 0, len(report.RowsExcluded))
	for reason := range report.RowsExcluded {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		uc.console.LogInfo("Excluded rows (%s): %d", reason, report.RowsExcluded[reason])
	}
	for _, f := range report.Files {
		if f.Status == entity.FileSkipped {
			uc.console.LogWarning("Skipped %s: %s", f.Name, f.Reason)
		}
	}
	for _, w := range report.Warnings {
		uc.console.LogWarning("%s", w)
	}

	if report.Gate == nil {
		return
	}
	for _, w := range report.Gate.Warnings {
		uc.console.LogWarning("%s", w)
	}
	if report.Gate.Passed {
		uc.console.LogSuccess("FY%d passed the completeness gate (%d months with data)", report.FiscalYear, len(report.Gate.AvailableMonths))
		return
	}
	uc.console.LogError("FY%d failed the completeness gate: %s", report.FiscalYear, strings.Join(report.Gate.Failures, "; "))
}

// displayMismatches lista todas as divergências, não só as primeiras.
func (uc *PipelineUseCase) displayMismatches(verr *types.ValidationError) {
	t := uc.console.CreateTable()
	t.AddColumn("File")
	t.AddColumn("Row")
	t.AddColumn("TAFS")
	t.AddColumn("Field")
	t.AddColumn("Parsed")
	t.AddColumn("Authoritative")
	for _, m := range verr.Mismatches {
		t.AddRow(m.SourceFile, fmt.Sprint(m.SourceRow), m.FundSymbol, m.Field,
			pterm.FgRed.Sprint(m.Parsed), pterm.FgGreen.Sprint(m.Authoritative))
	}
	uc.console.Print(t.Render())
}
