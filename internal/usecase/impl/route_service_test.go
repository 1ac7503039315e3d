package impl

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"airscout/config"
	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/risk"
	"airscout/internal/errors"
	"airscout/internal/usecase"
)

var testRoute = orb.LineString{
	{-87.6298, 41.8781},
	{-87.6350, 41.8850},
	{-87.6400, 41.9000},
}

func alertsConfig() *config.AlertsConfig {
	return &config.AlertsConfig{
		BufferMeters:  25,
		MinSeverity:   3,
		CooldownHours: 4,
		MaxWorkers:    4,
	}
}

func fixedClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC))
}

func matchedHazard(severity int, distance float64) *entity.MatchedHazard {
	return &entity.MatchedHazard{
		Hazard: entity.Hazard{
			Source:   entity.NewSourceID(entity.HazardTypePermit, "100"),
			Severity: severity,
			Location: orb.Point{-87.63, 41.88},
		},
		DistanceMeters: distance,
	}
}

func TestCheckRoute(t *testing.T) {
	hazardRepo := new(mockHazardRepo)
	svc := NewRouteService(hazardRepo, alertsConfig(), fixedClock())

	hazards := []*entity.MatchedHazard{matchedHazard(5, 0), matchedHazard(4, 10)}
	hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return q.Order == repository.OrderByDistance &&
			q.MinSeverity == 0 &&
			len(q.ExcludeSourceIDs) == 0 &&
			len(q.Corridor) > 0
	})).Return(hazards, nil)

	result, err := svc.CheckRoute(context.Background(), usecase.CheckRouteInput{Route: testRoute})
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.BufferMeters)
	assert.Len(t, result.Hazards, 2)
	// 1*1*20 + 0.6*0.8*20 = 29.6 -> 29.
	assert.Equal(t, 29, result.Risk.Score)
	assert.Equal(t, risk.LevelLow, result.Risk.Level)
	assert.Equal(t, 5, result.Risk.HighestSeverity)
	assert.Greater(t, result.RouteLengthKM, 1.0)
	hazardRepo.AssertExpectations(t)
}

func TestCheckRouteCustomBufferAndSeverity(t *testing.T) {
	hazardRepo := new(mockHazardRepo)
	svc := NewRouteService(hazardRepo, alertsConfig(), fixedClock())

	hazardRepo.On("FindHazardsAlongRoute", mock.Anything, mock.MatchedBy(func(q repository.RouteQuery) bool {
		return q.MinSeverity == 4
	})).Return([]*entity.MatchedHazard{}, nil)

	result, err := svc.CheckRoute(context.Background(), usecase.CheckRouteInput{
		Route:        testRoute,
		BufferMeters: 50,
		MinSeverity:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.BufferMeters)
	assert.Equal(t, 0, result.Risk.Score)
	assert.Equal(t, "No hazards detected along this route", result.Risk.Message)
}

func TestCheckRouteRejectsBadInput(t *testing.T) {
	svc := NewRouteService(new(mockHazardRepo), alertsConfig(), fixedClock())

	t.Run("short route", func(t *testing.T) {
		_, err := svc.CheckRoute(context.Background(), usecase.CheckRouteInput{
			Route: orb.LineString{{-87.63, 41.88}},
		})
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidRoute))
	})

	t.Run("negative buffer", func(t *testing.T) {
		_, err := svc.CheckRoute(context.Background(), usecase.CheckRouteInput{
			Route:        testRoute,
			BufferMeters: -5,
		})
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidParameter))
	})

	t.Run("severity out of range", func(t *testing.T) {
		_, err := svc.CheckRoute(context.Background(), usecase.CheckRouteInput{
			Route:       testRoute,
			MinSeverity: 7,
		})
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidParameter))
	})
}

func TestListActiveHazards(t *testing.T) {
	hazardRepo := new(mockHazardRepo)
	svc := NewRouteService(hazardRepo, alertsConfig(), fixedClock())

	t.Run("filtered by type", func(t *testing.T) {
		trafficType := entity.HazardTypeTraffic
		hazardRepo.On("FindActiveHazards", mock.Anything, &trafficType).
			Return([]*entity.Hazard{{Severity: 4}}, nil).Once()

		hazards, err := svc.ListActiveHazards(context.Background(), &trafficType)
		require.NoError(t, err)
		assert.Len(t, hazards, 1)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		bogus := entity.HazardType("FLOOD")
		_, err := svc.ListActiveHazards(context.Background(), &bogus)
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidParameter))
	})
}
