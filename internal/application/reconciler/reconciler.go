// Package reconciler builds the normalized table of one fiscal year from a
// directory of source workbooks, whatever column layout each file uses.
package reconciler

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abigailhaddad/apportionment/internal/application/aggregator"
	"github.com/abigailhaddad/apportionment/internal/application/normalizer"
	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// ProgressFunc is called after each workbook has been handled.
type ProgressFunc func(file string)

// Reconciler runs Normalizer → Parser → Aggregator over one year directory.
type Reconciler struct {
	cfg        *types.Config
	workbooks  repository.WorkbookRepository
	normalizer *normalizer.Normalizer
	aggregator *aggregator.Aggregator
	skip       map[string]bool
	log        zerolog.Logger
}

// New creates a Reconciler.
func New(cfg *types.Config, workbooks repository.WorkbookRepository, log zerolog.Logger) *Reconciler {
	skip := make(map[string]bool, len(cfg.SkipFiles))
	for _, name := range cfg.SkipFiles {
		skip[strings.ToLower(name)] = true
	}
	return &Reconciler{
		cfg:        cfg,
		workbooks:  workbooks,
		normalizer: normalizer.New(cfg),
		aggregator: aggregator.New(cfg.CompressionWarningRatio),
		skip:       skip,
		log:        log.With().Str("component", "reconciler").Logger(),
	}
}

type singleMonthFile struct {
	name  string
	items []entity.RawLineItem
}

// ReconcileYear normalizes every workbook of dir and returns the year
// table. File-level problems are recorded in report and skipped; a fund
// symbol validation failure returns *types.ValidationError.
func (r *Reconciler) ReconcileYear(ctx context.Context, dir string, fiscalYear int, report *entity.RunReport, progress ProgressFunc) (*entity.YearTable, error) {
	paths, err := r.workbooks.ListWorkbooks(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing workbooks in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoWorkbooks, dir)
	}
	log := r.log.With().Int("fiscal_year", fiscalYear).Logger()

	var (
		standardItems []entity.RawLineItem
		singleFiles   []singleMonthFile
		singleMonths  []entity.Month
		agencyRows    = map[string]int{}
		agencyFiles   = map[string]int{}
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		file := r.ingest(ctx, path, name, log)
		if progress != nil {
			progress(name)
		}
		report.Files = append(report.Files, file.File)
		for reason, n := range file.Excluded {
			report.Exclude(reason, n)
		}
		if file.File.Status != entity.FileIngested {
			continue
		}

		agencyFiles[file.File.Agency]++
		agencyRows[file.File.Agency] += len(file.Items)
		if file.File.SourceLayout == entity.SourceLayoutSingleMonth {
			singleFiles = append(singleFiles, singleMonthFile{name: name, items: file.Items})
			singleMonths = unionMonths(singleMonths, file.File.Months)
			continue
		}
		standardItems = append(standardItems, file.Items...)
	}

	validation := entity.ValidationSummary{Passed: true}
	collect := func(res *aggregator.Result, source string) {
		report.RowsIn += res.RowsIn
		for reason, n := range res.Excluded {
			report.Exclude(reason, n)
		}
		validation.Checked += res.Validation.Checked
		validation.Mismatches = append(validation.Mismatches, res.Validation.Mismatches...)
		for _, w := range res.Warnings {
			if source != "" {
				w = source + ": " + w
			}
			report.Warnings = append(report.Warnings, w)
		}
	}

	var tables [][]entity.AggregatedAccount
	if len(standardItems) > 0 {
		res := r.aggregator.Aggregate(standardItems)
		collect(res, "")
		tables = append(tables, res.Accounts)
	}
	if len(singleFiles) > 0 {
		perFile := make([][]entity.AggregatedAccount, 0, len(singleFiles))
		for _, f := range singleFiles {
			res := r.aggregator.Aggregate(f.items)
			collect(res, f.name)
			perFile = append(perFile, res.Accounts)
		}
		pivoted, dups := pivotSingleMonth(perFile, singleMonths)
		report.Exclude(entity.ExcludedDuplicateMonth, dups)
		if dups > 0 {
			log.Warn().Int("cells", dups).Msg("duplicate single-month cells ignored, first file wins")
		}
		tables = append(tables, pivoted)
		log.Info().Int("files", len(singleFiles)).Str("months", monthList(singleMonths)).Msg("single-month extracts pivoted")
	}

	validation.Passed = len(validation.Mismatches) == 0
	report.Validation = validation
	if !validation.Passed {
		log.Error().Int("mismatches", len(validation.Mismatches)).Msg("fund symbol cross-validation failed")
		return nil, &types.ValidationError{FiscalYear: fiscalYear, Mismatches: validation.Mismatches}
	}

	accounts, dups := mergeTables(tables...)
	report.Exclude(entity.ExcludedDuplicateMonth, dups)
	if len(accounts) == 0 {
		return nil, fmt.Errorf("FY%d: %w", fiscalYear, types.ErrNoRowsExtracted)
	}

	table := &entity.YearTable{FiscalYear: fiscalYear, Accounts: accounts}
	table.Months = table.MonthTotals().Months()

	report.GroupsOut = len(accounts)
	report.CompressionRatio = float64(report.RowsIn) / float64(len(accounts))
	report.Agencies = breakdown(table, agencyFiles, agencyRows)

	log.Info().
		Int("rows_in", report.RowsIn).
		Int("groups_out", report.GroupsOut).
		Float64("compression_ratio", report.CompressionRatio).
		Str("months", monthList(table.Months)).
		Msg("year reconciled")
	return table, nil
}

// ingest loads and normalizes one workbook, turning every failure into a
// skipped FileResult.
func (r *Reconciler) ingest(ctx context.Context, path, name string, log zerolog.Logger) *normalizer.Result {
	skipped := func(reason string) *normalizer.Result {
		log.Warn().Str("file", name).Str("reason", reason).Msg("workbook skipped")
		return &normalizer.Result{File: entity.FileResult{Name: name, Status: entity.FileSkipped, Reason: reason, Multiplier: 1}}
	}

	if r.skip[strings.ToLower(name)] {
		return skipped("known consolidated file, skipped to avoid double counting")
	}
	wb, err := r.workbooks.LoadWorkbook(ctx, path)
	if err != nil {
		return skipped(err.Error())
	}
	res, err := r.normalizer.Normalize(wb)
	if err != nil {
		out := skipped(err.Error())
		out.File.Agency = res.File.Agency
		return out
	}
	if len(res.Items) == 0 {
		res.File.Reason = "no budget execution rows"
		log.Warn().Str("file", name).Str("agency", res.File.Agency).Msg("workbook has no budget execution rows")
		return res
	}
	if !res.File.UnitDetected {
		log.Debug().Str("file", name).Msg("no unit label found, assuming dollars")
	}
	log.Info().
		Str("file", name).
		Str("agency", res.File.Agency).
		Str("layout", res.File.SourceLayout.String()).
		Int64("multiplier", res.File.Multiplier).
		Int("rows", len(res.Items)).
		Msg("workbook normalized")
	return res
}

func breakdown(table *entity.YearTable, files, rows map[string]int) []entity.AgencyBreakdown {
	groups := map[string]int{}
	for _, acct := range table.Accounts {
		groups[acct.Key.Agency]++
	}
	var out []entity.AgencyBreakdown
	for agency, n := range files {
		out = append(out, entity.AgencyBreakdown{
			Agency:    agency,
			Files:     n,
			RowsIn:    rows[agency],
			GroupsOut: groups[agency],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agency < out[j].Agency })
	return out
}

func monthList(months []entity.Month) string {
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}
