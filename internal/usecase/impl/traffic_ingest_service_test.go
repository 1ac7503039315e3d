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
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

func trafficConfig() *config.TrafficConfig {
	return &config.TrafficConfig{
		FreeFlowSpeedMPH:           30,
		MinSeverity:                3,
		ExpiryMinutes:              30,
		SchoolSuppressRadiusMeters: 200,
	}
}

func newTrafficService(
	source *mockCityDataSource,
	hazardRepo *mockHazardRepo,
	schoolRepo *mockSchoolRepo,
	clock clockwork.Clock,
) usecase.TrafficIngestUsecase {
	return NewTrafficIngestService(
		source, hazardRepo, schoolRepo, trafficConfig(), time.UTC, clock,
		testLogger(), observability.NewMetricsForTesting(),
	)
}

// offPeakClock is a Monday noon; peakClock is a Monday 08:00, inside the
// morning window when read in UTC.
func offPeakClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC))
}

func peakClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC))
}

func trafficSegments() []entity.TrafficSegmentRecord {
	return []entity.TrafficSegmentRecord{
		{SegmentID: "1", Street: "Western Ave", SpeedMPH: 5, Location: orb.Point{-87.6870, 41.9100}},
		{SegmentID: "2", Street: "Ashland Ave", SpeedMPH: 28, Location: orb.Point{-87.6680, 41.9100}},
	}
}

func TestTrafficIngestOffPeak(t *testing.T) {
	clock := offPeakClock()
	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	schoolRepo := new(mockSchoolRepo)

	source.On("FetchTrafficSegments", mock.Anything).Return(trafficSegments(), nil)
	hazardRepo.On("UpsertHazard", mock.Anything, mock.MatchedBy(func(h *entity.Hazard) bool {
		return h.Source.String() == "TRAFFIC-1" && h.Severity == 5
	})).Return(nil).Once()
	hazardRepo.On("DeleteExpired", mock.Anything).Return(int64(3), nil)

	summary, err := newTrafficService(source, hazardRepo, schoolRepo, clock).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Validated)
	assert.Equal(t, 1, summary.Suppressed) // free-flow segment dropped
	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 3, summary.Deleted)
	// Off peak the school set is never consulted.
	schoolRepo.AssertNotCalled(t, "FindActiveSchools", mock.Anything)
	hazardRepo.AssertExpectations(t)
}

func TestTrafficIngestPeakSuppressesNearSchools(t *testing.T) {
	clock := peakClock()
	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	schoolRepo := new(mockSchoolRepo)

	source.On("FetchTrafficSegments", mock.Anything).Return(trafficSegments(), nil)
	schoolRepo.On("FindActiveSchools", mock.Anything).Return([]*entity.School{
		{
			SchoolID: "609755",
			Name:     "Lincoln Elementary",
			Location: orb.Point{-87.6870, 41.9110}, // ~110m from segment 1
			IsActive: true,
		},
	}, nil)
	hazardRepo.On("DeleteExpired", mock.Anything).Return(int64(0), nil)

	summary, err := newTrafficService(source, hazardRepo, schoolRepo, clock).Run(context.Background(), false)
	require.NoError(t, err)

	// Segment 1 is congested but near a school; segment 2 is free flow.
	assert.Equal(t, 0, summary.Validated)
	assert.Equal(t, 2, summary.Suppressed)
	hazardRepo.AssertNotCalled(t, "UpsertHazard", mock.Anything, mock.Anything)
}

func TestTrafficIngestDryRun(t *testing.T) {
	clock := offPeakClock()
	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	schoolRepo := new(mockSchoolRepo)

	source.On("FetchTrafficSegments", mock.Anything).Return(trafficSegments(), nil)

	summary, err := newTrafficService(source, hazardRepo, schoolRepo, clock).Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Upserted)
	hazardRepo.AssertNotCalled(t, "UpsertHazard", mock.Anything, mock.Anything)
	hazardRepo.AssertNotCalled(t, "DeleteExpired", mock.Anything)
}
