package postgres

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/infra/persistence/model"
)

// schoolRepository implements the repository.SchoolRepository interface.
type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository is the constructor for schoolRepository.
func NewSchoolRepository(db *gorm.DB) repository.SchoolRepository {
	return &schoolRepository{
		db: db,
	}
}

// UpsertSchools refreshes the school reference set inside one transaction so
// a failed refresh never leaves a half-written mix of old and new rows. It
// returns how many rows were written.
func (repo *schoolRepository) UpsertSchools(ctx context.Context, schools []*entity.School) (int, error) {
	if len(schools) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO schools (school_id, name, school_type, address, location, zone_radius_meters, is_active, updated_at)
		VALUES (?, ?, ?, ?, ST_SetSRID(ST_MakePoint(?, ?), 4326), ?, ?, ?)
		ON CONFLICT (school_id) DO UPDATE SET
			name               = EXCLUDED.name,
			school_type        = EXCLUDED.school_type,
			address            = EXCLUDED.address,
			location           = EXCLUDED.location,
			zone_radius_meters = EXCLUDED.zone_radius_meters,
			is_active          = EXCLUDED.is_active,
			updated_at         = EXCLUDED.updated_at
	`

	written := 0
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, school := range schools {
			if err := tx.Exec(query,
				school.SchoolID,
				school.Name,
				school.SchoolType,
				school.Address,
				school.Location[0],
				school.Location[1],
				school.ZoneRadiusMeters,
				school.IsActive,
				school.UpdatedAt,
			).Error; err != nil {
				return errors.Wrapf(err, "failed to upsert school %s", school.SchoolID)
			}
			written++
		}

		return nil
	})
	if err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to refresh schools")
	}

	return written, nil
}

// FindActiveSchools retrieves every active school with its zone geometry.
func (repo *schoolRepository) FindActiveSchools(ctx context.Context) ([]*entity.School, error) {
	var schoolModels []*model.SchoolModel

	query := `
		SELECT s.school_id, s.name, s.school_type, s.address,
		       ST_X(s.location) AS longitude,
		       ST_Y(s.location) AS latitude,
		       s.zone_radius_meters, s.is_active, s.updated_at
		FROM schools s
		WHERE s.is_active = true
		ORDER BY s.school_id
	`

	if err := repo.db.WithContext(ctx).
		Raw(query).
		Scan(&schoolModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active schools")
	}

	schools := make([]*entity.School, 0, len(schoolModels))
	for _, schoolM := range schoolModels {
		schools = append(schools, toSchoolDomain(schoolM))
	}

	return schools, nil
}

// --- Mapper Functions ---

// toSchoolDomain converts a GORM SchoolModel to a domain School entity.
func toSchoolDomain(data *model.SchoolModel) *entity.School {
	if data == nil {
		return nil
	}

	return &entity.School{
		SchoolID:         data.SchoolID,
		Name:             data.Name,
		SchoolType:       data.SchoolType,
		Address:          data.Address,
		Location:         orbPoint(data.Longitude, data.Latitude),
		ZoneRadiusMeters: data.ZoneRadiusMeters,
		IsActive:         data.IsActive,
		UpdatedAt:        data.UpdatedAt,
	}
}
