package impl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/repository"
)

type mockHazardRepo struct {
	mock.Mock
}

func (m *mockHazardRepo) UpsertHazard(ctx context.Context, hazard *entity.Hazard) error {
	args := m.Called(ctx, hazard)

	return args.Error(0)
}

func (m *mockHazardRepo) FindHazardsAlongRoute(ctx context.Context, query repository.RouteQuery) ([]*entity.MatchedHazard, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.MatchedHazard), args.Error(1)
}

func (m *mockHazardRepo) FindActiveHazards(ctx context.Context, hazardType *entity.HazardType) ([]*entity.Hazard, error) {
	args := m.Called(ctx, hazardType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.Hazard), args.Error(1)
}

func (m *mockHazardRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockHazardRepo) DeleteByType(ctx context.Context, hazardType entity.HazardType) (int64, error) {
	args := m.Called(ctx, hazardType)

	return args.Get(0).(int64), args.Error(1)
}

type mockSchoolRepo struct {
	mock.Mock
}

func (m *mockSchoolRepo) UpsertSchools(ctx context.Context, schools []*entity.School) (int, error) {
	args := m.Called(ctx, schools)

	return args.Int(0), args.Error(1)
}

func (m *mockSchoolRepo) FindActiveSchools(ctx context.Context) ([]*entity.School, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.School), args.Error(1)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) FindAlertableSubscriptions(ctx context.Context) ([]*entity.RouteSubscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.RouteSubscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.RouteSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.RouteSubscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]*entity.RouteSubscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.RouteSubscription), args.Error(1)
}

func (m *mockSubscriptionRepo) DisableByPushTokens(ctx context.Context, tokens []string) (int64, error) {
	args := m.Called(ctx, tokens)

	return args.Get(0).(int64), args.Error(1)
}

type mockAlertHistoryRepo struct {
	mock.Mock
}

func (m *mockAlertHistoryRepo) RecordAlerts(ctx context.Context, entries []*entity.AlertHistoryEntry) error {
	args := m.Called(ctx, entries)

	return args.Error(0)
}

func (m *mockAlertHistoryRepo) FindRecentSourceIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]string, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

type mockCityDataSource struct {
	mock.Mock
}

func (m *mockCityDataSource) FetchDemolitionPermits(ctx context.Context, since time.Time) ([]entity.PermitRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.PermitRecord), args.Error(1)
}

func (m *mockCityDataSource) FetchRecentComplaints(ctx context.Context, since time.Time) ([]entity.ComplaintRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.ComplaintRecord), args.Error(1)
}

func (m *mockCityDataSource) FetchSchools(ctx context.Context) ([]entity.School, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.School), args.Error(1)
}

func (m *mockCityDataSource) FetchTrafficSegments(ctx context.Context) ([]entity.TrafficSegmentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.TrafficSegmentRecord), args.Error(1)
}

type mockPushSender struct {
	mock.Mock
}

func (m *mockPushSender) SendBatchNotification(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, int, []string, error) {
	args := m.Called(ctx, tokens, title, body, data)

	var invalid []string
	if args.Get(2) != nil {
		invalid = args.Get(2).([]string)
	}

	return args.Int(0), args.Int(1), invalid, args.Error(3)
}
