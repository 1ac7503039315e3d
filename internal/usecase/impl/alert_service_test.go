package impl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/errors"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

type alertMocks struct {
	subscriptionRepo *mockSubscriptionRepo
	hazardRepo       *mockHazardRepo
	historyRepo      *mockAlertHistoryRepo
	pushSender       *mockPushSender
}

func newAlertSvc(clock clockwork.Clock) (usecase.AlertUsecase, *alertMocks) {
	m := &alertMocks{
		subscriptionRepo: new(mockSubscriptionRepo),
		hazardRepo:       new(mockHazardRepo),
		historyRepo:      new(mockAlertHistoryRepo),
		pushSender:       new(mockPushSender),
	}

	svc := NewAlertService(
		m.subscriptionRepo, m.hazardRepo, m.historyRepo, m.pushSender,
		alertsConfig(), clock, testLogger(), observability.NewMetricsForTesting(),
	)

	return svc, m
}

func subscription(threshold int) *entity.RouteSubscription {
	return &entity.RouteSubscription{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		RouteName:         "Commute",
		Route:             testRoute,
		PushToken:         "token-1",
		SeverityThreshold: threshold,
		AlertEnabled:      true,
	}
}

func severeHazard(naturalID string) *entity.MatchedHazard {
	return &entity.MatchedHazard{
		Hazard: entity.Hazard{
			ID:          uuid.New(),
			Source:      entity.NewSourceID(entity.HazardTypePermit, naturalID),
			Severity:    5,
			Location:    orb.Point{-87.63, 41.88},
			Description: "Active demolition at 1234 W MADISON ST",
		},
		DistanceMeters: 0,
	}
}

func TestAlertRunSendsAndRecords(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(3)
	hazard := severeHazard("100")

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, sub.UserID, clock.Now().Add(-4*time.Hour)).
		Return([]string{}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return q.Order == repository.OrderBySeverity && q.MinSeverity == 3
	})).Return([]*entity.MatchedHazard{hazard}, nil)
	m.pushSender.On("SendBatchNotification",
		mock.Anything, []string{"token-1"}, "Route Update: Commute", "1 hazard detected: Demolition",
		mock.MatchedBy(func(data map[string]string) bool {
			return data["type"] == "hazard_alert" &&
				data["risk_level"] == "LOW" &&
				data["risk_score"] == "25" &&
				data["hazard_count"] == "1"
		}),
	).Return(1, 0, []string{}, nil).Once()
	m.historyRepo.On("RecordAlerts", mock.Anything, mock.MatchedBy(func(entries []*entity.AlertHistoryEntry) bool {
		return len(entries) == 1 &&
			entries[0].UserID == sub.UserID &&
			entries[0].HazardSourceID == "PERMIT-100"
	})).Return(nil).Once()

	result, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SubscriptionsChecked)
	assert.Equal(t, 1, result.AlertsGenerated)
	assert.Equal(t, 1, result.NotificationsSent)
	assert.Empty(t, result.Errors)
	m.pushSender.AssertExpectations(t)
	m.historyRepo.AssertExpectations(t)
}

func TestAlertRunHonorsLowSubscriptionThreshold(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(1) // user opted in below the default of 3

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, mock.Anything, mock.Anything).
		Return([]string{}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return q.MinSeverity == 1
	})).Return([]*entity.MatchedHazard{}, nil)

	result, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsGenerated)
	m.hazardRepo.AssertExpectations(t)
}

func TestAlertRunDefaultsUnsetThreshold(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(0) // never set a threshold

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, mock.Anything, mock.Anything).
		Return([]string{}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return q.MinSeverity == 3
	})).Return([]*entity.MatchedHazard{}, nil)

	result, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsGenerated)
	m.hazardRepo.AssertExpectations(t)
}

func TestAlertRunHonorsCooldownExclusions(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(3)

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, sub.UserID, mock.Anything).
		Return([]string{"PERMIT-100", "TRAFFIC-7"}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return len(q.ExcludeSourceIDs) == 2 && q.ExcludeSourceIDs[0] == "PERMIT-100"
	})).Return([]*entity.MatchedHazard{}, nil)

	_, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	m.hazardRepo.AssertExpectations(t)
}

func TestAlertRunDryRunSendsNothing(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(3)

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	// Dry runs still read the cooldown so the alert set matches live.
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, sub.UserID, mock.Anything).
		Return([]string{}, nil).Once()
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.Anything).
		Return([]*entity.MatchedHazard{severeHazard("100")}, nil)

	result, err := svc.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlertsGenerated)
	assert.Equal(t, 1, result.NotificationsSent)
	m.pushSender.AssertNotCalled(t, "SendBatchNotification",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.historyRepo.AssertNotCalled(t, "RecordAlerts", mock.Anything, mock.Anything)
	m.historyRepo.AssertExpectations(t)
}

func TestAlertRunIsolatesSubscriptionFailures(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)

	broken := subscription(3)
	broken.Route = orb.LineString{{-87.63, 41.88}} // cannot be buffered
	healthy := subscription(3)

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{broken, healthy}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, mock.Anything, mock.Anything).
		Return([]string{}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.Anything).
		Return([]*entity.MatchedHazard{severeHazard("200")}, nil)
	m.pushSender.On("SendBatchNotification",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(1, 0, []string{}, nil)
	m.historyRepo.On("RecordAlerts", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SubscriptionsChecked)
	assert.Equal(t, 1, result.AlertsGenerated)
	assert.Equal(t, 1, result.NotificationsSent)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], broken.ID.String())
}

func TestAlertRunDisablesRejectedTokens(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)
	sub := subscription(3)

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return([]*entity.RouteSubscription{sub}, nil)
	m.historyRepo.On("FindRecentSourceIDs", mock.Anything, sub.UserID, mock.Anything).
		Return([]string{}, nil)
	m.hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.Anything).
		Return([]*entity.MatchedHazard{severeHazard("100")}, nil)
	m.pushSender.On("SendBatchNotification",
		mock.Anything, []string{"token-1"}, mock.Anything, mock.Anything, mock.Anything).
		Return(0, 1, []string{"token-1"}, nil).Once()
	m.subscriptionRepo.On("DisableByPushTokens", mock.Anything, []string{"token-1"}).
		Return(int64(1), nil).Once()

	result, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlertsGenerated)
	assert.Equal(t, 0, result.NotificationsSent)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "rejected")
	// No alert history for a send that never reached the device.
	m.historyRepo.AssertNotCalled(t, "RecordAlerts", mock.Anything, mock.Anything)
	m.subscriptionRepo.AssertExpectations(t)
	m.pushSender.AssertExpectations(t)
}

func TestAlertRunUpstreamFailure(t *testing.T) {
	clock := fixedClock()
	svc, m := newAlertSvc(clock)

	m.subscriptionRepo.On("FindAlertableSubscriptions", mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := svc.Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
}

func TestBuildNotificationPayload(t *testing.T) {
	sub := subscription(3)
	alert := routeAlert{
		subscription: sub,
		hazards: []*entity.MatchedHazard{
			severeHazard("1"), severeHazard("2"), severeHazard("3"),
			severeHazard("4"), severeHazard("5"), severeHazard("6"),
		},
	}
	alert.hazards[1].Source = entity.NewSourceID(entity.HazardTypeSchool, "2")
	alert.assessment.Score = 100
	alert.assessment.Level = "HIGH"
	alert.assessment.HighestSeverity = 5

	payload := buildNotificationPayload(alert)

	assert.Equal(t, "High Risk Alert: Commute", payload.Title)
	assert.Equal(t, "6 hazards detected: Demolition, School Zone", payload.Body)
	assert.Equal(t, "100", payload.Data["risk_score"])
	assert.Equal(t, "6", payload.Data["hazard_count"])
	// The payload carries at most five hazards.
	assert.Contains(t, payload.Data["hazards"], "PERMIT-1")
	assert.NotContains(t, payload.Data["hazards"], "PERMIT-6")
}
