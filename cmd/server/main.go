// Command server runs the interactive HTTP surface: on-demand route checks
// and active hazard listings.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"airscout/config"
	"airscout/internal/delivery"
	"airscout/internal/delivery/api"
	"airscout/internal/delivery/api/router/handler"
	logs "airscout/internal/infra/log"
	"airscout/internal/infra/persistence/postgres"
	"airscout/internal/observability"
	"airscout/internal/usecase/impl"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	fx.New(
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		observability.NewMetrics,
		newClock,
		provideAlertsConfig,
	)
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideAlertsConfig(cfg *config.Config) *config.AlertsConfig {
	return cfg.Alerts
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewHazardRepository,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewRouteService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewRouteHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, d := range params.Deliveries {
		go func(d delivery.Delivery) {
			if err := d.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}(d)
	}
}
