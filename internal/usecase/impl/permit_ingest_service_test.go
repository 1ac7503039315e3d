package impl

import (
	"context"
	"log/slog"
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
	"airscout/internal/errors"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

func permitsConfig() *config.PermitsConfig {
	return &config.PermitsConfig{
		LookbackDays:           365,
		ComplaintRadiusMeters:  200,
		ComplaintLookbackHours: 48,
		ExpiryHours:            168,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newPermitService(source *mockCityDataSource, hazardRepo *mockHazardRepo, clock clockwork.Clock) usecase.PermitIngestUsecase {
	return NewPermitIngestService(
		source, hazardRepo, permitsConfig(), clock,
		testLogger(), observability.NewMetricsForTesting(),
	)
}

func corroboratedPermitFixtures(now time.Time) ([]entity.PermitRecord, []entity.ComplaintRecord) {
	permits := []entity.PermitRecord{
		{
			PermitNumber: "100778555",
			PermitType:   "PERMIT - WRECKING/DEMOLITION",
			Address:      "1234 W MADISON ST",
			Location:     orb.Point{-87.6650, 41.8815},
		},
		{
			PermitNumber: "100779000",
			PermitType:   "PERMIT - WRECKING/DEMOLITION",
			Address:      "500 N STATE ST",
			Location:     orb.Point{-87.6280, 41.8915},
		},
	}
	// Only the first permit has a complaint nearby.
	complaints := []entity.ComplaintRecord{
		{
			ServiceRequestID: "SR-1",
			Code:             "SVR",
			Description:      "DUST FROM DEMOLITION",
			Location:         orb.Point{-87.6650, 41.8818},
			CreatedAt:        now.Add(-2 * time.Hour),
		},
	}

	return permits, complaints
}

func TestPermitIngestRun(t *testing.T) {
	clock := fixedClock()
	now := clock.Now()
	permits, complaints := corroboratedPermitFixtures(now)

	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	source.On("FetchDemolitionPermits", mock.Anything, now.AddDate(0, 0, -365)).Return(permits, nil)
	source.On("FetchRecentComplaints", mock.Anything, now.Add(-48*time.Hour)).Return(complaints, nil)
	hazardRepo.On("UpsertHazard", mock.Anything, mock.MatchedBy(func(h *entity.Hazard) bool {
		return h.Source.String() == "PERMIT-100778555" && h.Severity == 3
	})).Return(nil).Once()
	hazardRepo.On("DeleteExpired", mock.Anything).Return(int64(7), nil).Once()

	summary, err := newPermitService(source, hazardRepo, clock).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Validated)
	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 7, summary.Deleted)
	assert.Empty(t, summary.UnitErrors)
	hazardRepo.AssertExpectations(t)
}

func TestPermitIngestDryRunWritesNothing(t *testing.T) {
	clock := fixedClock()
	permits, complaints := corroboratedPermitFixtures(clock.Now())

	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	source.On("FetchDemolitionPermits", mock.Anything, mock.Anything).Return(permits, nil)
	source.On("FetchRecentComplaints", mock.Anything, mock.Anything).Return(complaints, nil)

	summary, err := newPermitService(source, hazardRepo, clock).Run(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Validated)
	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 0, summary.Deleted)
	hazardRepo.AssertNotCalled(t, "UpsertHazard", mock.Anything, mock.Anything)
	hazardRepo.AssertNotCalled(t, "DeleteExpired", mock.Anything)
}

func TestPermitIngestUpstreamFailureAbortsCycle(t *testing.T) {
	clock := fixedClock()
	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	source.On("FetchDemolitionPermits", mock.Anything, mock.Anything).
		Return(nil, errors.New("portal timeout"))

	_, err := newPermitService(source, hazardRepo, clock).Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
}

func TestPermitIngestUnitFailureDoesNotStopCycle(t *testing.T) {
	clock := fixedClock()
	now := clock.Now()

	permits := []entity.PermitRecord{
		{PermitNumber: "A", Location: orb.Point{-87.6650, 41.8815}},
		{PermitNumber: "B", Location: orb.Point{-87.6650, 41.8815}},
	}
	complaints := []entity.ComplaintRecord{
		{
			ServiceRequestID: "SR-1",
			Code:             "NOI",
			Location:         orb.Point{-87.6650, 41.8816},
			CreatedAt:        now.Add(-time.Hour),
		},
	}

	source := new(mockCityDataSource)
	hazardRepo := new(mockHazardRepo)
	source.On("FetchDemolitionPermits", mock.Anything, mock.Anything).Return(permits, nil)
	source.On("FetchRecentComplaints", mock.Anything, mock.Anything).Return(complaints, nil)
	hazardRepo.On("UpsertHazard", mock.Anything, mock.MatchedBy(func(h *entity.Hazard) bool {
		return h.Source.NaturalID == "A"
	})).Return(errors.New("constraint violation")).Once()
	hazardRepo.On("UpsertHazard", mock.Anything, mock.MatchedBy(func(h *entity.Hazard) bool {
		return h.Source.NaturalID == "B"
	})).Return(nil).Once()
	hazardRepo.On("DeleteExpired", mock.Anything).Return(int64(0), nil)

	summary, err := newPermitService(source, hazardRepo, clock).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Validated)
	assert.Equal(t, 1, summary.Upserted)
	require.Len(t, summary.UnitErrors, 1)
	assert.Equal(t, "A", summary.UnitErrors[0].Unit)
	hazardRepo.AssertExpectations(t)
}
