package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"airscout/config"
	"airscout/internal/domain/entity"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/validator"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

const jobSchoolHazards = "school-hazards"

type schoolHazardService struct {
	schoolRepo repository.SchoolRepository
	hazardRepo repository.HazardRepository
	expiry     time.Duration
	location   *time.Location
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewSchoolHazardService creates a new school zone hazard generator instance
func NewSchoolHazardService(
	schoolRepo repository.SchoolRepository,
	hazardRepo repository.HazardRepository,
	cfg *config.SchoolsConfig,
	location *time.Location,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) usecase.SchoolHazardUsecase {
	return &schoolHazardService{
		schoolRepo: schoolRepo,
		hazardRepo: hazardRepo,
		expiry:     time.Duration(cfg.ExpiryMinutes) * time.Minute,
		location:   location,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run materializes a maximum-severity hazard for every active school during
// peak windows. Outside a window it force-clears school hazards instead of
// waiting for expiry, so the transition off-peak is immediate.
func (s *schoolHazardService) Run(ctx context.Context, dryRun bool) (*usecase.IngestSummary, error) {
	now := s.clock.Now().In(s.location)
	summary := &usecase.IngestSummary{Job: jobSchoolHazards, DryRun: dryRun}

	peak, period := validator.PeakState(now)
	if !peak {
		s.logger.Info("outside school peak window",
			slog.String("period", string(period)),
			slog.Time("next_peak", validator.NextPeakStart(now)),
		)

		if !dryRun {
			deleted, err := s.hazardRepo.DeleteByType(ctx, entity.HazardTypeSchool)
			if err != nil {
				s.metrics.CyclesTotal.WithLabelValues(jobSchoolHazards, "error").Inc()

				return nil, upstreamFailure("clear school hazards", err)
			}
			summary.Deleted = int(deleted)
			s.metrics.HazardsDeleted.WithLabelValues("off_peak").Add(float64(deleted))
		}

		s.metrics.CyclesTotal.WithLabelValues(jobSchoolHazards, "ok").Inc()

		return summary, nil
	}

	schools, err := s.schoolRepo.FindActiveSchools(ctx)
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobSchoolHazards, "error").Inc()

		return nil, upstreamFailure("load active schools", err)
	}
	summary.Fetched = len(schools)
	s.logger.Info("school peak window active",
		slog.String("period", string(period)),
		slog.Int("schools", len(schools)),
	)

	for _, school := range schools {
		hazard := validator.BuildSchoolHazard(*school, period, s.expiry, now)
		summary.Validated++

		if dryRun {
			summary.Upserted++

			continue
		}

		if err := s.hazardRepo.UpsertHazard(ctx, &hazard); err != nil {
			summary.UnitErrors = append(summary.UnitErrors, usecase.UnitError{
				Unit: school.SchoolID,
				Err:  err.Error(),
			})
			s.metrics.UnitFailures.WithLabelValues(jobSchoolHazards).Inc()
			s.logger.Error("upsert school hazard failed",
				slog.String("school_id", school.SchoolID),
				slog.Any("error", err),
			)

			continue
		}

		summary.Upserted++
		s.metrics.HazardsUpserted.WithLabelValues("SCHOOL").Inc()
	}

	s.metrics.CyclesTotal.WithLabelValues(jobSchoolHazards, "ok").Inc()
	s.logger.Info("school hazard cycle done",
		slog.String("period", string(period)),
		slog.Int("upserted", summary.Upserted),
		slog.Bool("dry_run", dryRun),
	)

	return summary, nil
}
