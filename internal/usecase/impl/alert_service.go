package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"airscout/config"
	"airscout/internal/domain/entity"
	"airscout/internal/domain/geo"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/risk"
	"airscout/internal/domain/service"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

type alertService struct {
	subscriptionRepo repository.SubscriptionRepository
	hazardRepo       repository.HazardRepository
	historyRepo      repository.AlertHistoryRepository
	pushSender       service.PushSender
	cfg              *config.AlertsConfig
	clock            clockwork.Clock
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// NewAlertService creates a new alert engine instance
func NewAlertService(
	subscriptionRepo repository.SubscriptionRepository,
	hazardRepo repository.HazardRepository,
	historyRepo repository.AlertHistoryRepository,
	pushSender service.PushSender,
	cfg *config.AlertsConfig,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) usecase.AlertUsecase {
	return &alertService{
		subscriptionRepo: subscriptionRepo,
		hazardRepo:       hazardRepo,
		historyRepo:      historyRepo,
		pushSender:       pushSender,
		cfg:              cfg,
		clock:            clock,
		logger:           logger,
		metrics:          metrics,
	}
}

// Run executes one alert cycle. Subscriptions are evaluated concurrently
// under a worker bound; one failing subscription never stops the others.
// Dry runs evaluate the cooldown exactly as live runs do, so the set of
// alerts reported matches what a live run at the same instant would send.
func (s *alertService) Run(ctx context.Context, dryRun bool) (*usecase.AlertCycleResult, error) {
	now := s.clock.Now()
	result := &usecase.AlertCycleResult{}

	subscriptions, err := s.subscriptionRepo.FindAlertableSubscriptions(ctx)
	if err != nil {
		return nil, upstreamFailure("fetch alertable subscriptions", err)
	}
	result.SubscriptionsChecked = len(subscriptions)
	s.metrics.SubscriptionsChecked.Add(float64(len(subscriptions)))

	if len(subscriptions) == 0 {
		s.logger.Info("no alertable subscriptions")

		return result, nil
	}

	alerts, evalErrors := s.evaluateAll(ctx, subscriptions, now)
	result.AlertsGenerated = len(alerts)
	result.Errors = append(result.Errors, evalErrors...)
	s.metrics.AlertsGenerated.Add(float64(len(alerts)))

	for _, alert := range alerts {
		s.logger.Info("alert generated",
			slog.String("user_id", alert.subscription.UserID.String()),
			slog.String("route_name", alert.subscription.RouteName),
			slog.Int("hazards", len(alert.hazards)),
			slog.String("risk_level", string(alert.assessment.Level)),
		)
	}

	if dryRun {
		for _, alert := range alerts {
			payload := buildNotificationPayload(alert)
			s.logger.Info("would send notification",
				slog.String("user_id", alert.subscription.UserID.String()),
				slog.String("title", payload.Title),
				slog.String("body", payload.Body),
			)
		}
		result.NotificationsSent = len(alerts)

		return result, nil
	}

	var staleTokens []string
	for _, alert := range alerts {
		stale, err := s.dispatch(ctx, alert, now)
		if stale {
			staleTokens = append(staleTokens, alert.subscription.PushToken)
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			s.metrics.NotificationsFailed.Inc()
			s.logger.Error("notification dispatch failed",
				slog.String("user_id", alert.subscription.UserID.String()),
				slog.Any("error", err),
			)

			continue
		}

		result.NotificationsSent++
		s.metrics.NotificationsSent.Inc()
	}

	if len(staleTokens) > 0 {
		disabled, err := s.subscriptionRepo.DisableByPushTokens(ctx, staleTokens)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("disable stale tokens: %v", err))
			s.logger.Error("failed to disable stale push tokens", slog.Any("error", err))
		} else {
			s.metrics.TokensDisabled.Add(float64(disabled))
			s.logger.Info("disabled subscriptions with rejected push tokens",
				slog.Int("tokens", len(staleTokens)),
				slog.Int64("subscriptions", disabled),
			)
		}
	}

	s.logger.Info("alert cycle done",
		slog.Int("subscriptions", result.SubscriptionsChecked),
		slog.Int("alerts", result.AlertsGenerated),
		slog.Int("sent", result.NotificationsSent),
		slog.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// evaluateAll fans subscriptions out over a bounded worker pool and gathers
// the alerts and per-subscription failures.
func (s *alertService) evaluateAll(
	ctx context.Context,
	subscriptions []*entity.RouteSubscription,
	now time.Time,
) ([]routeAlert, []string) {
	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		alerts   []routeAlert
		failures []string
	)

	sem := make(chan struct{}, workers)
	for _, sub := range subscriptions {
		wg.Add(1)
		sem <- struct{}{}

		go func(sub *entity.RouteSubscription) {
			defer wg.Done()
			defer func() { <-sem }()

			alert, err := s.evaluate(ctx, sub, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("subscription %s: %v", sub.ID, err))
				s.metrics.UnitFailures.WithLabelValues("alerts").Inc()

				return
			}
			if alert != nil {
				alerts = append(alerts, *alert)
			}
		}(sub)
	}
	wg.Wait()

	return alerts, failures
}

// evaluate matches one subscription against active hazards. A nil alert
// means nothing new to report.
func (s *alertService) evaluate(
	ctx context.Context,
	sub *entity.RouteSubscription,
	now time.Time,
) (*routeAlert, error) {
	// Subscriptions without a threshold fall back to the engine default; a
	// threshold the user did set is honored as-is.
	threshold := sub.SeverityThreshold
	if threshold <= 0 {
		threshold = s.cfg.MinSeverity
	}

	// The cooldown read happens on every run, dry or live, so both modes
	// resolve the same alert set.
	since := now.Add(-time.Duration(s.cfg.CooldownHours) * time.Hour)
	exclude, err := s.historyRepo.FindRecentSourceIDs(ctx, sub.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("load recent alerts: %w", err)
	}

	corridor, err := geo.BufferRoute(sub.Route, s.cfg.BufferMeters)
	if err != nil {
		return nil, fmt.Errorf("buffer route: %w", err)
	}

	hazards, err := s.hazardRepo.FindHazardsAlongRoute(ctx, repository.RouteQuery{
		Corridor:         corridor,
		Route:            sub.Route,
		MinSeverity:      threshold,
		ExcludeSourceIDs: exclude,
		Order:            repository.OrderBySeverity,
	})
	if err != nil {
		return nil, fmt.Errorf("query hazards: %w", err)
	}

	if len(hazards) == 0 {
		return nil, nil
	}

	return &routeAlert{
		subscription: sub,
		hazards:      hazards,
		assessment:   risk.Score(dereference(hazards), s.cfg.BufferMeters, risk.ScaleAlert),
	}, nil
}

// dispatch sends one notification and records its hazards in the alert log.
// staleToken reports that the provider rejected the subscription's token;
// the caller disables those subscriptions once the loop finishes.
func (s *alertService) dispatch(ctx context.Context, alert routeAlert, now time.Time) (staleToken bool, err error) {
	payload := buildNotificationPayload(alert)

	successCount, _, invalidTokens, err := s.pushSender.SendBatchNotification(
		ctx, []string{alert.subscription.PushToken}, payload.Title, payload.Body, payload.Data,
	)
	if err != nil {
		return false, fmt.Errorf("send to user %s: %w", alert.subscription.UserID, err)
	}
	if len(invalidTokens) > 0 {
		return true, fmt.Errorf("push token rejected for user %s", alert.subscription.UserID)
	}
	if successCount == 0 {
		return false, fmt.Errorf("send to user %s: delivery failed", alert.subscription.UserID)
	}

	entries := make([]*entity.AlertHistoryEntry, 0, len(alert.hazards))
	for _, h := range alert.hazards {
		entries = append(entries, &entity.AlertHistoryEntry{
			ID:             uuid.New(),
			UserID:         alert.subscription.UserID,
			SubscriptionID: alert.subscription.ID,
			HazardSourceID: h.Source.String(),
			SentAt:         now,
		})
	}

	if err := s.historyRepo.RecordAlerts(ctx, entries); err != nil {
		return false, fmt.Errorf("record alerts for user %s: %w", alert.subscription.UserID, err)
	}

	return false, nil
}
