package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"airscout/config"
	"airscout/internal/domain/entity"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/service"
	"airscout/internal/domain/validator"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

const jobTraffic = "traffic"

type trafficIngestService struct {
	source     service.CityDataSource
	hazardRepo repository.HazardRepository
	schoolRepo repository.SchoolRepository
	classifier *validator.TrafficClassifier
	location   *time.Location
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTrafficIngestService creates a new traffic ingestion service instance
func NewTrafficIngestService(
	source service.CityDataSource,
	hazardRepo repository.HazardRepository,
	schoolRepo repository.SchoolRepository,
	cfg *config.TrafficConfig,
	location *time.Location,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) usecase.TrafficIngestUsecase {
	return &trafficIngestService{
		source:     source,
		hazardRepo: hazardRepo,
		schoolRepo: schoolRepo,
		classifier: validator.NewTrafficClassifier(validator.TrafficRules{
			FreeFlowSpeedMPH:           cfg.FreeFlowSpeedMPH,
			MinSeverity:                cfg.MinSeverity,
			Expiry:                     time.Duration(cfg.ExpiryMinutes) * time.Minute,
			SchoolSuppressRadiusMeters: cfg.SchoolSuppressRadiusMeters,
		}),
		location: location,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one congestion cycle: fetch observations, classify, suppress
// near-school segments during peak windows, upsert, sweep expired rows.
func (s *trafficIngestService) Run(ctx context.Context, dryRun bool) (*usecase.IngestSummary, error) {
	start := s.clock.Now()
	summary := &usecase.IngestSummary{Job: jobTraffic, DryRun: dryRun}

	segments, err := s.source.FetchTrafficSegments(ctx)
	if err != nil {
		s.metrics.CyclesTotal.WithLabelValues(jobTraffic, "error").Inc()

		return nil, upstreamFailure("fetch traffic segments", err)
	}
	summary.Fetched = len(segments)
	s.metrics.RecordsFetched.WithLabelValues(jobTraffic).Add(float64(len(segments)))

	peak, period := validator.PeakState(start.In(s.location))

	var schools []entity.School
	if peak {
		active, err := s.schoolRepo.FindActiveSchools(ctx)
		if err != nil {
			s.metrics.CyclesTotal.WithLabelValues(jobTraffic, "error").Inc()

			return nil, upstreamFailure("load active schools", err)
		}
		schools = make([]entity.School, 0, len(active))
		for _, sc := range active {
			schools = append(schools, *sc)
		}
		s.logger.Info("school zone suppression active",
			slog.String("period", string(period)),
			slog.Int("schools", len(schools)),
		)
	}

	for _, seg := range segments {
		hazard, ok := s.classifier.Classify(seg, schools, peak, start)
		if !ok {
			summary.Suppressed++

			continue
		}
		summary.Validated++

		if dryRun {
			summary.Upserted++

			continue
		}

		if err := s.hazardRepo.UpsertHazard(ctx, &hazard); err != nil {
			summary.UnitErrors = append(summary.UnitErrors, usecase.UnitError{
				Unit: seg.SegmentID,
				Err:  err.Error(),
			})
			s.metrics.UnitFailures.WithLabelValues(jobTraffic).Inc()
			s.logger.Error("upsert traffic hazard failed",
				slog.String("segment_id", seg.SegmentID),
				slog.Any("error", err),
			)

			continue
		}

		summary.Upserted++
		s.metrics.HazardsUpserted.WithLabelValues("TRAFFIC").Inc()
	}

	if !dryRun {
		deleted, err := s.hazardRepo.DeleteExpired(ctx)
		if err != nil {
			s.metrics.CyclesTotal.WithLabelValues(jobTraffic, "error").Inc()

			return nil, upstreamFailure("sweep expired hazards", err)
		}
		summary.Deleted = int(deleted)
		s.metrics.HazardsDeleted.WithLabelValues("expired").Add(float64(deleted))
	}

	s.metrics.CyclesTotal.WithLabelValues(jobTraffic, "ok").Inc()
	s.metrics.CycleDuration.WithLabelValues(jobTraffic).Observe(s.clock.Since(start).Seconds())
	s.logger.Info("traffic cycle done",
		slog.Int("fetched", summary.Fetched),
		slog.Int("kept", summary.Validated),
		slog.Int("dropped", summary.Suppressed),
		slog.Int("upserted", summary.Upserted),
		slog.Bool("dry_run", dryRun),
	)

	return summary, nil
}
