package impl

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"airscout/config"
	"airscout/internal/domain/entity"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/service"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

const jobSchools = "schools"

type schoolIngestService struct {
	source     service.CityDataSource
	schoolRepo repository.SchoolRepository
	cfg        *config.SchoolsConfig
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewSchoolIngestService creates a new school reference ingestion service instance
func NewSchoolIngestService(
	source service.CityDataSource,
	schoolRepo repository.SchoolRepository,
	cfg *config.SchoolsConfig,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) usecase.SchoolIngestUsecase {
	return &schoolIngestService{
		source:     source,
		schoolRepo: schoolRepo,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run refreshes the static school reference set from the city portal.
func (s *schoolIngestService) Run(ctx context.Context, dryRun bool) (*usecase.IngestSummary, error) {
	start := s.clock.Now()
	summary := &usecase.IngestSummary{Job: jobSchools, DryRun: dryRun}

	schools, err := s.source.FetchSchools(ctx)
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobSchools, "error").Inc()

		return nil, upstreamFailure("fetch schools", err)
	}
	summary.Fetched = len(schools)
	s.metrics.RecordsFetched.WithLabelValues(jobSchools).Add(float64(len(schools)))

	rows := make([]*entity.School, 0, len(schools))
	for i := range schools {
		school := schools[i]
		if school.SchoolID == "" {
			summary.Suppressed++

			continue
		}
		if school.ZoneRadiusMeters <= 0 {
			school.ZoneRadiusMeters = s.cfg.ZoneRadiusMeters
		}
		if school.SchoolType == "" {
			school.SchoolType = "Public"
		}
		school.IsActive = true
		school.UpdatedAt = start
		rows = append(rows, &school)
	}
	summary.Validated = len(rows)

	if dryRun {
		summary.Upserted = len(rows)
		s.logger.Info("would refresh school reference set", slog.Int("schools", len(rows)))
		s.metrics.CyclesTotal.WithLabelValues(jobSchools, "ok").Inc()

		return summary, nil
	}

	written, err := s.schoolRepo.UpsertSchools(ctx, rows)
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobSchools, "error").Inc()

		return nil, upstreamFailure("upsert schools", err)
	}
	summary.Upserted = written

	s.metrics.CyclesTotal.WithLabelValues(jobSchools, "ok").Inc()
	s.metrics.CycleDuration.WithLabelValues(jobSchools).Observe(s.clock.Since(start).Seconds())
	s.logger.Info("school reference refresh done",
		slog.Int("fetched", summary.Fetched),
		slog.Int("upserted", summary.Upserted),
	)

	return summary, nil
}
