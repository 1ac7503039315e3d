package impl

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/errors"
	"airscout/internal/observability"
	"airscout/internal/usecase"
)

func newSchoolIngestSvc(source *mockCityDataSource, schoolRepo *mockSchoolRepo) usecase.SchoolIngestUsecase {
	return NewSchoolIngestService(
		source, schoolRepo, schoolsConfig(), fixedClock(),
		testLogger(), observability.NewMetricsForTesting(),
	)
}

func fetchedSchools() []entity.School {
	return []entity.School{
		{
			SchoolID:         "609755",
			Name:             "Lincoln Elementary",
			SchoolType:       "Charter",
			Location:         orb.Point{-87.6446, 41.9254},
			ZoneRadiusMeters: 120,
		},
		{
			// Missing radius and type; both get defaults.
			SchoolID: "610123",
			Name:     "Roosevelt High",
			Location: orb.Point{-87.7, 41.95},
		},
		{
			// No natural id; skipped.
			Name:     "Unnamed Annex",
			Location: orb.Point{-87.71, 41.96},
		},
	}
}

func TestSchoolIngestRun(t *testing.T) {
	source := new(mockCityDataSource)
	schoolRepo := new(mockSchoolRepo)

	source.On("FetchSchools", mock.Anything).Return(fetchedSchools(), nil)
	schoolRepo.On("UpsertSchools", mock.Anything, mock.MatchedBy(func(rows []*entity.School) bool {
		if len(rows) != 2 {
			return false
		}
		// Explicit values survive; blanks get the configured defaults.
		return rows[0].ZoneRadiusMeters == 120 && rows[0].SchoolType == "Charter" &&
			rows[1].ZoneRadiusMeters == 150 && rows[1].SchoolType == "Public" &&
			rows[0].IsActive && rows[1].IsActive
	})).Return(2, nil).Once()

	summary, err := newSchoolIngestSvc(source, schoolRepo).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 2, summary.Validated)
	assert.Equal(t, 1, summary.Suppressed)
	assert.Equal(t, 2, summary.Upserted)
	schoolRepo.AssertExpectations(t)
}

func TestSchoolIngestDryRun(t *testing.T) {
	source := new(mockCityDataSource)
	schoolRepo := new(mockSchoolRepo)
	source.On("FetchSchools", mock.Anything).Return(fetchedSchools(), nil)

	summary, err := newSchoolIngestSvc(source, schoolRepo).Run(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Upserted)
	schoolRepo.AssertNotCalled(t, "UpsertSchools", mock.Anything, mock.Anything)
}

func TestSchoolIngestUpstreamFailure(t *testing.T) {
	source := new(mockCityDataSource)
	schoolRepo := new(mockSchoolRepo)
	source.On("FetchSchools", mock.Anything).Return(nil, errors.New("portal timeout"))

	_, err := newSchoolIngestSvc(source, schoolRepo).Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUpstreamUnavailable))
}
