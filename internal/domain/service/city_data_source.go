package service

import (
	"context"
	"time"

	"airscout/internal/domain/entity"
)

// CityDataSource defines the interface to the municipal open-data portal.
// Implementations tolerate schema drift in the upstream datasets; they only
// fail on transport or availability errors.
type CityDataSource interface {
	// FetchDemolitionPermits retrieves wrecking/demolition permits with valid
	// coordinates issued since the given instant.
	FetchDemolitionPermits(ctx context.Context, since time.Time) ([]entity.PermitRecord, error)

	// FetchRecentComplaints retrieves geolocated 311 service requests created
	// since the given instant. Relevance filtering happens in the validator.
	FetchRecentComplaints(ctx context.Context, since time.Time) ([]entity.ComplaintRecord, error)

	// FetchSchools retrieves the school reference dataset.
	FetchSchools(ctx context.Context) ([]entity.School, error)

	// FetchTrafficSegments retrieves the latest congestion observation per
	// street segment.
	FetchTrafficSegments(ctx context.Context) ([]entity.TrafficSegmentRecord, error)
}
