package repository

import (
	"context"

	"airscout/internal/domain/entity"
)

// SchoolRepository defines the interface for the static school reference set.
type SchoolRepository interface {
	// UpsertSchools refreshes the school reference rows by natural id and
	// returns the number of rows written.
	UpsertSchools(ctx context.Context, schools []*entity.School) (int, error)

	// FindActiveSchools retrieves all schools flagged active.
	FindActiveSchools(ctx context.Context) ([]*entity.School, error)
}
