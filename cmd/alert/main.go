// Command alert runs one alert engine cycle and exits: match every alertable
// subscription against live hazards, score the matches and dispatch
// deduplicated push notifications.
//
// Exit codes: 0 on success, 2 when the datastore or push provider was
// unavailable, 1 otherwise.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"airscout/config"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/service"
	"airscout/internal/errors"
	logs "airscout/internal/infra/log"
	"airscout/internal/infra/notification"
	"airscout/internal/infra/persistence/postgres"
	"airscout/internal/observability"
	"airscout/internal/usecase"
	"airscout/internal/usecase/impl"
)

type cycleOptions struct {
	DryRun bool
}

type runCycleParams struct {
	fx.In
	fx.Lifecycle

	Shutdowner fx.Shutdowner
	Options    cycleOptions
	Logger     *slog.Logger
	AlertUC    usecase.AlertUsecase
}

func main() {
	_ = godotenv.Load()

	alertCmd := flag.NewFlagSet("alert", flag.ExitOnError)
	dryRun := alertCmd.Bool("dry-run", false, "Evaluate and report without sending")
	_ = alertCmd.Parse(os.Args[1:])

	var runErr error
	app := fx.New(
		fx.Supply(cycleOptions{DryRun: *dryRun}),
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		fx.Invoke(func(params runCycleParams) {
			params.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						runErr = runCycle(context.Background(), params)
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

func runCycle(ctx context.Context, params runCycleParams) error {
	result, err := params.AlertUC.Run(ctx, params.Options.DryRun)
	if err != nil {
		params.Logger.Error("alert cycle failed", slog.Any("error", err))

		return err
	}

	params.Logger.Info("alert cycle finished",
		slog.Bool("dry_run", params.Options.DryRun),
		slog.Int("subscriptions_checked", result.SubscriptionsChecked),
		slog.Int("alerts_generated", result.AlertsGenerated),
		slog.Int("notifications_sent", result.NotificationsSent),
		slog.Int("errors", len(result.Errors)),
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
		newPushSender,
		provideAlertsConfig,
	)
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

// newPushSender builds the FCM sender. Dry runs never dispatch, so they skip
// provider initialization entirely and work without credentials.
func newPushSender(ctx context.Context, cfg *config.Config, opts cycleOptions) (service.PushSender, error) {
	if opts.DryRun {
		return nil, nil
	}
	if cfg.Firebase == nil {
		return nil, errors.New("firebase configuration is required for live alert cycles")
	}

	return notification.NewFirebaseSender(ctx, cfg.Firebase)
}

func provideAlertsConfig(cfg *config.Config) *config.AlertsConfig {
	return cfg.Alerts
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewHazardRepository,
			postgres.NewSubscriptionRepository,
			postgres.NewAlertHistoryRepository,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAlertService,
		),
	)
}
