// Command ingest runs one batch cycle of a single ingestion job and exits.
//
// Jobs:
//   - permits:        fetch demolition permits, corroborate against 311
//     complaints and upsert PERMIT hazards
//   - traffic:        fetch congestion observations and upsert TRAFFIC hazards
//   - schools:        refresh the school reference set
//   - school-hazards: materialize or clear SCHOOL zone hazards for the
//     current peak window
//
// Exit codes: 0 on success, 2 when the portal or datastore was unavailable,
// 1 otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"airscout/config"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/service"
	"airscout/internal/errors"
	"airscout/internal/infra/citydata"
	logs "airscout/internal/infra/log"
	"airscout/internal/infra/persistence/postgres"
	"airscout/internal/observability"
	"airscout/internal/usecase"
	"airscout/internal/usecase/impl"
)

type jobOptions struct {
	Job    string
	DryRun bool
}

// jobRunner is the uniform shape all four ingestion usecases share.
type jobRunner interface {
	Run(ctx context.Context, dryRun bool) (*usecase.IngestSummary, error)
}

type runJobParams struct {
	fx.In
	fx.Lifecycle

	Shutdowner fx.Shutdowner
	Options    jobOptions
	Logger     *slog.Logger

	Permits       usecase.PermitIngestUsecase
	Traffic       usecase.TrafficIngestUsecase
	Schools       usecase.SchoolIngestUsecase
	SchoolHazards usecase.SchoolHazardUsecase
}

func main() {
	_ = godotenv.Load()

	ingestCmd := flag.NewFlagSet("ingest", flag.ExitOnError)
	job := ingestCmd.String("job", "", "Job to run: permits, traffic, schools, school-hazards")
	dryRun := ingestCmd.Bool("dry-run", false, "Validate and report without writing")
	_ = ingestCmd.Parse(os.Args[1:])

	if *job == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest --job=permits|traffic|schools|school-hazards [--dry-run]")
		os.Exit(1)
	}

	var runErr error
	app := fx.New(
		fx.Supply(jobOptions{Job: *job, DryRun: *dryRun}),
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		fx.Invoke(func(params runJobParams) {
			params.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						runErr = runJob(context.Background(), params)
						_ = params.Shutdowner.Shutdown()
					}()

					return nil
				},
			})
		}),
	)

	app.Run()

	switch {
	case runErr == nil:
	case errors.Is(runErr, domainerrors.ErrUpstreamUnavailable):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

func runJob(ctx context.Context, params runJobParams) error {
	runners := map[string]jobRunner{
		"permits":        params.Permits,
		"traffic":        params.Traffic,
		"schools":        params.Schools,
		"school-hazards": params.SchoolHazards,
	}

	runner, ok := runners[params.Options.Job]
	if !ok {
		return errors.Errorf("unknown job: %s", params.Options.Job)
	}

	summary, err := runner.Run(ctx, params.Options.DryRun)
	if err != nil {
		params.Logger.Error("ingestion cycle failed",
			slog.String("job", params.Options.Job),
			slog.Any("error", err),
		)

		return err
	}

	params.Logger.Info("ingestion cycle finished",
		slog.String("job", summary.Job),
		slog.Bool("dry_run", summary.DryRun),
		slog.Int("fetched", summary.Fetched),
		slog.Int("validated", summary.Validated),
		slog.Int("suppressed", summary.Suppressed),
		slog.Int("upserted", summary.Upserted),
		slog.Int("deleted", summary.Deleted),
		slog.Int("unit_errors", len(summary.UnitErrors)),
	)

	return nil
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		observability.NewMetrics,
		newClock,
		newCityDataSource,
		provideLocation,
		providePermitsConfig,
		provideTrafficConfig,
		provideSchoolsConfig,
	)
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func newCityDataSource(cfg *config.Config) service.CityDataSource {
	return citydata.NewClient(cfg.CityData)
}

func provideLocation(cfg *config.Config) (*time.Location, error) {
	location, err := time.LoadLocation(cfg.Region.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", cfg.Region.Timezone)
	}

	return location, nil
}

func providePermitsConfig(cfg *config.Config) *config.PermitsConfig {
	return cfg.Permits
}

func provideTrafficConfig(cfg *config.Config) *config.TrafficConfig {
	return cfg.Traffic
}

func provideSchoolsConfig(cfg *config.Config) *config.SchoolsConfig {
	return cfg.Schools
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewHazardRepository,
			postgres.NewSchoolRepository,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewPermitIngestService,
			impl.NewTrafficIngestService,
			impl.NewSchoolIngestService,
			impl.NewSchoolHazardService,
		),
	)
}
