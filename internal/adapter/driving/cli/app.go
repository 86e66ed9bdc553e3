package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abigailhaddad/apportionment/internal/application/usecase"
	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/logger"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
	"github.com/abigailhaddad/apportionment/pkg/console"
	"github.com/abigailhaddad/apportionment/pkg/version"
)

// UseCaseFactory builds the pipeline once the configuration is known. The
// logger travels in ctx.
type UseCaseFactory func(ctx context.Context, cfg *types.Config) *usecase.PipelineUseCase

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	configRepo repository.ConfigRepository
	newUseCase UseCaseFactory
	console    types.ConsoleInterface
	version    string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string, configRepo repository.ConfigRepository, consoleImpl types.ConsoleInterface) *CLIApp {
	app := &CLIApp{
		version:    versionStr,
		configRepo: configRepo,
		console:    consoleImpl,
	}

	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "sf133",
		Short:         "SF133 budget execution normalizer",
		Long:          "Normalizes monthly SF133 workbooks into one table per fiscal year and derives the unobligated balance summary.",
		Version:       formattedVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{printf "SF133 normalizer version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the output files (default: configured output_dir)")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", nil, "Summary formats to write: csv, json, pdf (default: configured report_type)")
	rootCmd.PersistentFlags().String("as-of-month", "", "Month used for the summary, e.g. Jun (default: latest month with data)")
	rootCmd.PersistentFlags().Bool("publish", false, "Publish the artifacts of years that pass the completeness gate")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("no-banner", false, "Do not print the welcome banner")

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Normalize and summarize one fiscal year",
		RunE:  app.runProcess(false),
	}
	processCmd.Flags().StringP("source-dir", "s", "", "Directory holding the workbooks of the fiscal year")
	processCmd.Flags().IntP("year", "f", 0, "Fiscal year, e.g. 2024 or 24")
	_ = processCmd.MarkFlagRequired("source-dir")
	_ = processCmd.MarkFlagRequired("year")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Normalize and cross-check one fiscal year without writing anything",
		RunE:  app.runProcess(true),
	}
	validateCmd.Flags().StringP("source-dir", "s", "", "Directory holding the workbooks of the fiscal year")
	validateCmd.Flags().IntP("year", "f", 0, "Fiscal year, e.g. 2024 or 24")
	_ = validateCmd.MarkFlagRequired("source-dir")
	_ = validateCmd.MarkFlagRequired("year")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Process several fiscal years, one sub-directory per year",
		RunE:  app.runBatch,
	}
	batchCmd.Flags().StringP("source-root", "r", "", "Directory holding one <fiscal year> sub-directory per year")
	batchCmd.Flags().IntSlice("years", nil, "Fiscal years to process (comma-separated)")
	batchCmd.Flags().IntP("parallel", "j", 1, "Number of fiscal years processed at the same time")
	_ = batchCmd.MarkFlagRequired("source-root")
	_ = batchCmd.MarkFlagRequired("years")

	rootCmd.AddCommand(processCmd, validateCmd, batchCmd)
	app.rootCmd = rootCmd
	return app
}

// SetUseCaseFactory sets how the CLI builds the pipeline use case.
func (app *CLIApp) SetUseCaseFactory(factory UseCaseFactory) {
	app.newUseCase = factory
}

// Execute runs the CLI application.
func (app *CLIApp) Execute(ctx context.Context) error {
	return app.rootCmd.ExecuteContext(ctx)
}

// parseArgs lê as flags comuns a todos os subcomandos.
func parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	configFile, _ := cmd.Flags().GetString("config-file")
	dir, _ := cmd.Flags().GetString("dir")
	reportType, _ := cmd.Flags().GetStringSlice("report-type")
	asOfMonth, _ := cmd.Flags().GetString("as-of-month")
	publish, _ := cmd.Flags().GetBool("publish")

	if dir != "" {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	return &types.CLIArgs{
		ConfigFile: configFile,
		Dir:        dir,
		ReportType: reportType,
		AsOfMonth:  asOfMonth,
		Publish:    publish,
		Parallel:   1,
	}, nil
}

func (app *CLIApp) runProcess(validateOnly bool) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		args, err := parseArgs(cmd)
		if err != nil {
			return err
		}
		sourceDir, _ := cmd.Flags().GetString("source-dir")
		year, _ := cmd.Flags().GetInt("year")
		if args.SourceDir, err = filepath.Abs(sourceDir); err != nil {
			return err
		}
		args.Years = []int{year}
		args.ValidateOnly = validateOnly
		return app.run(cmd, args)
	}
}

func (app *CLIApp) runBatch(cmd *cobra.Command, _ []string) error {
	args, err := parseArgs(cmd)
	if err != nil {
		return err
	}
	sourceRoot, _ := cmd.Flags().GetString("source-root")
	if args.SourceRoot, err = filepath.Abs(sourceRoot); err != nil {
		return err
	}
	args.Years, _ = cmd.Flags().GetIntSlice("years")
	args.Parallel, _ = cmd.Flags().GetInt("parallel")
	return app.run(cmd, args)
}

// run carrega a configuração, aplica as flags por cima e executa os anos.
func (app *CLIApp) run(cmd *cobra.Command, args *types.CLIArgs) error {
	if noBanner, _ := cmd.Flags().GetBool("no-banner"); !noBanner {
		displayWelcomeBanner()
		go version.CheckLatestVersion(app.version)
	}

	level, _ := cmd.Flags().GetString("log-level")
	log := logger.New(level)
	ctx := logger.WithContext(cmd.Context(), log)

	cfg, err := app.configRepo.LoadConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.ConfigFile != "" {
		app.console.LogInfo("Loaded configuration from %s", args.ConfigFile)
	}
	if err := applyArgs(cfg, args); err != nil {
		return err
	}

	reqs, err := usecase.Requests(args)
	if err != nil {
		return err
	}
	if app.newUseCase == nil {
		return errors.New("pipeline is not configured")
	}

	log.Debug().Str("output_dir", cfg.OutputDir).Int("years", len(reqs)).Int("parallel", args.Parallel).Msg("starting run")
	reports, runErr := app.newUseCase(ctx, cfg).RunYears(ctx, args, reqs)
	app.displayRunSummary(reqs, reports, args.ValidateOnly)
	return runErr
}

// applyArgs sobrescreve a configuração com as flags informadas.
func applyArgs(cfg *types.Config, args *types.CLIArgs) error {
	if args.Dir != "" {
		cfg.OutputDir = args.Dir
	}
	if len(args.ReportType) > 0 {
		cfg.ReportType = args.ReportType
	}
	if args.AsOfMonth != "" {
		if _, err := entity.ParseMonth(args.AsOfMonth); err != nil {
			return fmt.Errorf("%w: --as-of-month: %v", types.ErrInvalidConfig, err)
		}
		cfg.AsOfMonth = args.AsOfMonth
	}
	if cfg.OutputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.OutputDir = cwd
	}
	return cfg.Validate()
}

// displayRunSummary prints one line per requested year.
func (app *CLIApp) displayRunSummary(reqs []usecase.YearRequest, reports []*entity.RunReport, validateOnly bool) {
	if len(reqs) < 2 {
		return
	}
	byYear := make(map[int]*entity.RunReport, len(reports))
	for _, r := range reports {
		byYear[r.FiscalYear] = r
	}

	table := app.console.CreateTable()
	table.AddColumn("Fiscal Year")
	table.AddColumn("Status")
	table.AddColumn("As Of")
	table.AddColumn("Summary Records")
	table.AddColumn("Gate")
	for _, req := range reqs {
		r, ok := byYear[req.FiscalYear]
		if !ok || r.Gate == nil {
			table.AddRow(console.BrightMagenta(fmt.Sprintf("FY%d", req.FiscalYear)), console.BoldRed("failed"), "", "", "")
			continue
		}
		status := console.BrightGreen("processed")
		if validateOnly {
			status = console.BrightCyan("validated")
		}
		gate := console.BrightGreen("passed")
		if !r.Gate.Passed {
			gate = console.BrightYellow("incomplete")
		}
		table.AddRow(
			console.BrightMagenta(fmt.Sprintf("FY%d", req.FiscalYear)),
			status,
			r.Merge.AsOfMonth.String(),
			fmt.Sprint(r.SummaryRecords),
			gate,
		)
	}
	app.console.Print(table.Render())
}
