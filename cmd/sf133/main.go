package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/abigailhaddad/apportionment/internal/adapter/driven/aws"
	"github.com/abigailhaddad/apportionment/internal/adapter/driven/config"
	"github.com/abigailhaddad/apportionment/internal/adapter/driven/export"
	"github.com/abigailhaddad/apportionment/internal/adapter/driven/publish"
	"github.com/abigailhaddad/apportionment/internal/adapter/driven/workbook"
	"github.com/abigailhaddad/apportionment/internal/adapter/driving/cli"
	"github.com/abigailhaddad/apportionment/internal/application/usecase"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/logger"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
	"github.com/abigailhaddad/apportionment/pkg/console"
	"github.com/abigailhaddad/apportionment/pkg/version"
)

func main() {
	// .env é opcional; variáveis SF133_* já exportadas têm precedência
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleImpl := console.NewConsole()
	configRepo := config.NewConfigRepository()
	exportRepo := export.NewExportRepository()

	app := cli.NewCLIApp(version.Version, configRepo, consoleImpl)

	app.SetUseCaseFactory(func(ctx context.Context, cfg *types.Config) *usecase.PipelineUseCase {
		log := logger.FromContext(ctx)

		var publishers []repository.PublishRepository
		if cfg.Publish.Dir != "" {
			publishers = append(publishers, publish.NewLocalPublisher(cfg.Publish.Dir))
		}
		if cfg.Publish.S3Bucket != "" {
			publishers = append(publishers, aws.NewS3Publisher(cfg.Publish, log))
		}

		return usecase.NewPipelineUseCase(
			cfg,
			workbook.NewExcelRepository(cfg.Sheets),
			exportRepo,
			publishers,
			consoleImpl,
			log,
		)
	})

	if err := app.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
