package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"airscout/config"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/service"
	"airscout/internal/domain/validator"
	"airscout/internal/errors"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

const jobPermits = "permits"

type permitIngestService struct {
	source     service.CityDataSource
	hazardRepo repository.HazardRepository
	validator  *validator.PermitValidator
	cfg        *config.PermitsConfig
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewPermitIngestService creates a new permit ingestion service instance
func NewPermitIngestService(
	source service.CityDataSource,
	hazardRepo repository.HazardRepository,
	cfg *config.PermitsConfig,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) usecase.PermitIngestUsecase {
	return &permitIngestService{
		source:     source,
		hazardRepo: hazardRepo,
		validator: validator.NewPermitValidator(validator.PermitRules{
			ComplaintRadiusMeters: cfg.ComplaintRadiusMeters,
			ComplaintLookback:     time.Duration(cfg.ComplaintLookbackHours) * time.Hour,
			Expiry:                time.Duration(cfg.ExpiryHours) * time.Hour,
		}),
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one permit cycle: fetch permits and complaints, corroborate,
// upsert validated hazards, sweep expired rows.
func (s *permitIngestService) Run(ctx context.Context, dryRun bool) (*usecase.IngestSummary, error) {
	start := s.clock.Now()
	summary := &usecase.IngestSummary{Job: jobPermits, DryRun: dryRun}

	permits, err := s.source.FetchDemolitionPermits(ctx, start.AddDate(0, 0, -s.cfg.LookbackDays))
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobPermits, "error").Inc()

		return nil, upstreamFailure("fetch demolition permits", err)
	}

	complaints, err := s.source.FetchRecentComplaints(ctx, start.Add(-time.Duration(s.cfg.ComplaintLookbackHours)*time.Hour))
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobPermits, "error").Inc()

		return nil, upstreamFailure("fetch 311 complaints", err)
	}

	summary.Fetched = len(permits)
	s.metrics.RecordsFetched.WithLabelValues(jobPermits).Add(float64(len(permits)))
	s.logger.Info("permit cycle input",
		slog.Int("permits", len(permits)),
		slog.Int("complaints", len(complaints)),
	)

	for _, permit := range permits {
		hazard, ok := s.validator.Validate(permit, complaints, start)
		if !ok {
			continue
		}
		summary.Validated++

		if dryRun {
			summary.Upserted++
			s.logger.Info("would upsert permit hazard",
				slog.String("source_id", hazard.Source.String()),
				slog.Int("severity", hazard.Severity),
			)

			continue
		}

		if err := s.hazardRepo.UpsertHazard(ctx, &hazard); err != nil {
			summary.UnitErrors = append(summary.UnitErrors, usecase.UnitError{
				Unit: permit.PermitNumber,
				Err:  err.Error(),
			})
			s.metrics.UnitFailures.WithLabelValues(jobPermits).Inc()
			s.logger.Error("upsert permit hazard failed",
				slog.String("permit_number", permit.PermitNumber),
				slog.Any("error", err),
			)

			continue
		}

		summary.Upserted++
		s.metrics.HazardsUpserted.WithLabelValues("PERMIT").Inc()
	}

	if !dryRun {
		deleted, err := s.hazardRepo.DeleteExpired(ctx)
		if err != nil {
			s.metrics.CyclesTotal.WithLabelValues(jobPermits, "error").Inc()

			return nil, upstreamFailure("sweep expired hazards", err)
		}
		summary.Deleted = int(deleted)
		s.metrics.HazardsDeleted.WithLabelValues("expired").Add(float64(deleted))
	}

	s.metrics.CyclesTotal.WithLabelValues(jobPermits, "ok").Inc()
	s.metrics.CycleDuration.WithLabelValues(jobPermits).Observe(s.clock.Since(start).Seconds())
	s.logger.Info("permit cycle done",
		slog.Int("validated", summary.Validated),
		slog.Int("upserted", summary.Upserted),
		slog.Int("deleted", summary.Deleted),
		slog.Int("unit_errors", len(summary.UnitErrors)),
		slog.Bool("dry_run", dryRun),
	)

	return summary, nil
}

// upstreamFailure tags an error with the upstream-unavailable sentinel so
// callers can abort the cycle with a distinct exit status.
func upstreamFailure(op string, err error) error {
	return errors.Wrap(errors.Join(domainerrors.ErrUpstreamUnavailable, err), op)
}
