package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abigailhaddad/apportionment/internal/application/gate"
	"github.com/abigailhaddad/apportionment/internal/application/merger"
	"github.com/abigailhaddad/apportionment/internal/application/reconciler"
	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/logger"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// PipelineUseCase processa anos fiscais: reconcilia, resume, exporta,
// verifica completude e publica.
type PipelineUseCase struct {
	cfg        *types.Config
	workbooks  repository.WorkbookRepository
	exportRepo repository.ExportRepository
	publishers []repository.PublishRepository
	console    types.ConsoleInterface
	log        zerolog.Logger
	now        func() time.Time
}

// NewPipelineUseCase creates the pipeline use case.
func NewPipelineUseCase(
	cfg *types.Config,
	workbooks repository.WorkbookRepository,
	exportRepo repository.ExportRepository,
	publishers []repository.PublishRepository,
	console types.ConsoleInterface,
	log zerolog.Logger,
) *PipelineUseCase {
	return &PipelineUseCase{
		cfg:        cfg,
		workbooks:  workbooks,
		exportRepo: exportRepo,
		publishers: publishers,
		console:    console,
		log:        log,
		now:        time.Now,
	}
}

// YearRequest names one fiscal year and the directory holding its workbooks.
type YearRequest struct {
	FiscalYear int
	SourceDir  string
}

// yearOutcome is what one year contributes to the invocation.
type yearOutcome struct {
	report    *entity.RunReport
	asOf      entity.Month
	published bool
}

// Requests builds the per-year requests from the CLI arguments: a single
// source directory, or one sub-directory per year under the source root.
func Requests(args *types.CLIArgs) ([]YearRequest, error) {
	if len(args.Years) == 0 {
		return nil, fmt.Errorf("%w: no fiscal year given", types.ErrInvalidConfig)
	}
	if args.SourceDir != "" {
		if len(args.Years) != 1 {
			return nil, fmt.Errorf("%w: --source-dir takes exactly one year", types.ErrInvalidConfig)
		}
		return []YearRequest{{FiscalYear: types.NormalizeFiscalYear(args.Years[0]), SourceDir: args.SourceDir}}, nil
	}
	if args.SourceRoot == "" {
		return nil, fmt.Errorf("%w: --source-dir or --source-root is required", types.ErrInvalidConfig)
	}
	reqs := make([]YearRequest, 0, len(args.Years))
	for _, y := range args.Years {
		fy := types.NormalizeFiscalYear(y)
		reqs = append(reqs, YearRequest{FiscalYear: fy, SourceDir: filepath.Join(args.SourceRoot, strconv.Itoa(fy))})
	}
	return reqs, nil
}

// RunYears processes every request. Years run in parallel up to
// args.Parallel; a failing year does not stop the others. The month
// metadata file is updated once, after all years finished.
func (uc *PipelineUseCase) RunYears(ctx context.Context, args *types.CLIArgs, reqs []YearRequest) ([]*entity.RunReport, error) {
	parallel := args.Parallel
	if parallel < 1 {
		parallel = 1
	}
	interactive := parallel == 1 || len(reqs) == 1

	var (
		mu       sync.Mutex
		outcomes = map[int]*yearOutcome{}
		failures = map[int]error{}
	)

	var progress types.ProgressHandle
	if !interactive {
		progress = uc.console.ProgressWithTotal(len(reqs))
	}

	g := new(errgroup.Group)
	g.SetLimit(parallel)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				failures[req.FiscalYear] = err
				mu.Unlock()
				return nil
			}
			out, err := uc.runYear(ctx, req, args, interactive)
			mu.Lock()
			defer mu.Unlock()
			if out != nil {
				outcomes[req.FiscalYear] = out
			}
			if err != nil {
				failures[req.FiscalYear] = err
			}
			if progress != nil {
				progress.Increment()
			}
			return nil
		})
	}
	_ = g.Wait()
	if progress != nil {
		progress.Stop()
	}

	years := make([]int, 0, len(reqs))
	for _, req := range reqs {
		years = append(years, req.FiscalYear)
	}
	sort.Ints(years)

	var reports []*entity.RunReport
	metadata := entity.MonthMetadata{}
	anyPublished := false
	for _, fy := range years {
		if out, ok := outcomes[fy]; ok {
			reports = append(reports, out.report)
			if failures[fy] == nil {
				metadata[fy] = out.asOf
				anyPublished = anyPublished || out.published
			}
		}
	}

	var errs []error
	if !args.ValidateOnly && len(metadata) > 0 {
		path, err := uc.exportRepo.UpdateMonthMetadata(metadata, uc.cfg.OutputDir)
		if err != nil {
			uc.console.LogError("Failed to update month metadata: %s", err)
			errs = append(errs, err)
		} else {
			uc.console.LogSuccess("Month metadata updated: %s", path)
			if anyPublished {
				uc.publish(ctx, 0, []string{path})
			}
		}
	}

	for _, fy := range years {
		if err, ok := failures[fy]; ok {
			errs = append(errs, fmt.Errorf("FY%d: %w", fy, err))
		}
	}
	return reports, errors.Join(errs...)
}

// runYear is the strict per-year pipeline. Nothing is written unless the
// year reconciles and merges cleanly.
func (uc *PipelineUseCase) runYear(ctx context.Context, req YearRequest, args *types.CLIArgs, interactive bool) (*yearOutcome, error) {
	report := &entity.RunReport{
		RunID:      uuid.NewString(),
		FiscalYear: req.FiscalYear,
		SourceDir:  req.SourceDir,
		StartedAt:  uc.now().UTC(),
	}
	log := logger.ForYear(uc.log, report.RunID, req.FiscalYear)
	out := &yearOutcome{report: report}

	var progress reconciler.ProgressFunc
	var status types.StatusHandle
	if interactive {
		status = uc.console.Status(fmt.Sprintf("FY%d: reading workbooks from %s...", req.FiscalYear, req.SourceDir))
		progress = func(file string) {
			status.Update(fmt.Sprintf("FY%d: normalized %s", req.FiscalYear, pterm.FgCyan.Sprint(file)))
		}
	}

	table, err := reconciler.New(uc.cfg, uc.workbooks, log).ReconcileYear(ctx, req.SourceDir, req.FiscalYear, report, progress)
	if status != nil {
		status.Stop()
	}
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			uc.displayMismatches(verr)
		}
		uc.console.LogError("FY%d: %s", req.FiscalYear, err)
		return out, err
	}

	m, err := merger.New(uc.cfg.Lines, uc.cfg.AsOfMonth)
	if err != nil {
		return out, err
	}
	merged, err := m.Merge(table)
	report.Merge = merged.Stats
	if err != nil {
		uc.console.LogError("FY%d: %s", req.FiscalYear, err)
		return out, err
	}
	report.SummaryRecords = len(merged.Records)
	countRecords(report, merged.Records)
	out.asOf = merged.Stats.AsOfMonth

	report.Gate = gate.New(uc.cfg).WithClock(uc.now).Check(table, report, uc.baseline(req.FiscalYear, log))
	report.FinishedAt = uc.now().UTC()

	uc.displayYear(table, report)
	if args.ValidateOnly {
		return out, nil
	}

	artifacts, err := uc.export(table, merged.Records, report)
	report.Artifacts = artifacts
	if err != nil {
		return out, err
	}

	if args.Publish {
		if report.Gate.Passed {
			report.Published = uc.publish(ctx, req.FiscalYear, artifacts)
			out.published = report.Published
		} else {
			uc.console.LogWarning("FY%d did not pass the completeness gate, publishing skipped", req.FiscalYear)
		}
	}

	path, err := uc.exportRepo.ExportRunReport(report, uc.cfg.OutputDir)
	if err != nil {
		uc.console.LogError("Failed to export run summary: %s", err)
		return out, err
	}
	uc.console.LogSuccess("Run summary written: %s", path)
	log.Info().Int("summary_records", report.SummaryRecords).Bool("gate_passed", report.Gate.Passed).Msg("fiscal year processed")
	return out, nil
}

// export grava os artefatos do ano; o primeiro erro interrompe.
func (uc *PipelineUseCase) export(table *entity.YearTable, records []entity.AccountSummaryRecord, report *entity.RunReport) ([]string, error) {
	dir := uc.cfg.OutputDir
	var artifacts []string

	path, err := uc.exportRepo.ExportNormalizedTable(table, dir)
	if err != nil {
		uc.console.LogError("Failed to export normalized table: %s", err)
		return artifacts, err
	}
	artifacts = append(artifacts, path)
	uc.console.LogSuccess("Successfully exported normalized table: %s", path)

	for _, reportType := range uc.cfg.ReportType {
		var (
			path string
			err  error
		)
		switch reportType {
		case "csv":
			path, err = uc.exportRepo.ExportSummaryToCSV(records, table.FiscalYear, dir)
		case "json":
			path, err = uc.exportRepo.ExportSummaryToJSON(records, table.FiscalYear, dir)
		case "pdf":
			path, err = uc.exportRepo.ExportSummaryToPDF(records, report, dir)
		default:
			uc.console.LogWarning("Unknown report type %q ignored", reportType)
			continue
		}
		if err != nil {
			uc.console.LogError("Failed to export summary to %s: %s", reportType, err)
			return artifacts, err
		}
		artifacts = append(artifacts, path)
		uc.console.LogSuccess("Successfully exported summary to %s: %s", reportType, path)
	}
	return artifacts, nil
}

// publish envia para todos os destinos; falhas são registradas mas não
// invalidam os artefatos já gravados.
func (uc *PipelineUseCase) publish(ctx context.Context, fiscalYear int, artifacts []string) bool {
	if len(uc.publishers) == 0 {
		uc.console.LogWarning("Publishing requested but no publish target is configured")
		return false
	}
	ok := true
	for _, p := range uc.publishers {
		done, err := p.Publish(ctx, fiscalYear, artifacts)
		if err != nil {
			uc.console.LogError("Failed to publish to %s: %s", p.Name(), err)
			ok = false
			continue
		}
		uc.console.LogSuccess("Published %d artifact(s) to %s", len(done), p.Name())
	}
	return ok
}

func (uc *PipelineUseCase) baseline(fiscalYear int, log zerolog.Logger) gate.Baseline {
	by := uc.cfg.Gate.BaselineYear
	if by == 0 || by == fiscalYear {
		return nil
	}
	symbols, err := uc.exportRepo.LoadFundSymbols(by, uc.cfg.OutputDir)
	if err != nil {
		log.Warn().Err(err).Int("baseline_year", by).Msg("baseline table unavailable, coverage check skipped")
		return nil
	}
	return symbols
}

func countRecords(report *entity.RunReport, records []entity.AccountSummaryRecord) {
	counts := map[string]int{}
	for _, rec := range records {
		counts[rec.Agency]++
	}
	for i := range report.Agencies {
		report.Agencies[i].SummaryRecords = counts[report.Agencies[i].Agency]
	}
}
