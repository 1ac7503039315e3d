// Package postgres contains the concrete implementation of the persistence layer using GORM and PostGIS.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/infra/persistence/model"
)

// hazardRepository implements the repository.HazardRepository interface.
type hazardRepository struct {
	db *gorm.DB
}

// NewHazardRepository is the constructor for hazardRepository.
func NewHazardRepository(db *gorm.DB) repository.HazardRepository {
	return &hazardRepository{
		db: db,
	}
}

// UpsertHazard inserts a hazard or, when a row with the same source_id
// already exists, refreshes it in place. Re-ingesting a live signal extends
// its expiry instead of duplicating it.
func (repo *hazardRepository) UpsertHazard(ctx context.Context, hazard *entity.Hazard) error {
	metadata, err := json.Marshal(hazard.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to encode hazard metadata")
	}

	id := hazard.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO hazards (id, source_id, hazard_type, severity, location, description, metadata, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ST_SetSRID(ST_MakePoint(?, ?), 4326), ?, ?, NOW(), NOW(), ?)
		ON CONFLICT (source_id) DO UPDATE SET
			severity    = EXCLUDED.severity,
			location    = EXCLUDED.location,
			description = EXCLUDED.description,
			metadata    = EXCLUDED.metadata,
			updated_at  = NOW(),
			expires_at  = EXCLUDED.expires_at
	`

	if err := repo.db.WithContext(ctx).Exec(query,
		id,
		hazard.Source.String(),
		string(hazard.Source.Type),
		hazard.Severity,
		hazard.Location[0],
		hazard.Location[1],
		hazard.Description,
		metadata,
		hazard.ExpiresAt,
	).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert hazard")
	}

	return nil
}

// FindHazardsAlongRoute performs the PostGIS corridor query: live hazards at
// or above the severity floor whose location falls inside the buffered route
// polygon, each annotated with its geodesic distance to the route line.
func (repo *hazardRepository) FindHazardsAlongRoute(ctx context.Context, q repository.RouteQuery) ([]*entity.MatchedHazard, error) {
	var hazardModels []*model.HazardModel

	query := `
		SELECT h.id, h.source_id, h.hazard_type, h.severity,
		       ST_X(h.location) AS longitude,
		       ST_Y(h.location) AS latitude,
		       h.description, h.metadata, h.created_at, h.updated_at, h.expires_at,
		       ST_Distance(h.location::geography, ST_GeomFromText(?, 4326)::geography) AS distance_meters
		FROM hazards h
		WHERE h.expires_at > NOW()
		  AND h.severity >= ?
		  AND ST_Intersects(h.location, ST_GeomFromText(?, 4326))
	`
	args := []any{
		wkt.MarshalString(q.Route),
		q.MinSeverity,
		wkt.MarshalString(q.Corridor),
	}

	if len(q.ExcludeSourceIDs) > 0 {
		query += " AND h.source_id NOT IN ?"
		args = append(args, q.ExcludeSourceIDs)
	}

	switch q.Order {
	case repository.OrderBySeverity:
		query += " ORDER BY h.severity DESC, distance_meters ASC"
	default:
		query += " ORDER BY distance_meters ASC, h.severity DESC"
	}

	if err := repo.db.WithContext(ctx).
		Raw(query, args...).
		Scan(&hazardModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find hazards along route")
	}

	hazards := make([]*entity.MatchedHazard, 0, len(hazardModels))
	for _, hazardM := range hazardModels {
		hazard, err := toHazardDomain(hazardM)
		if err != nil {
			return nil, err
		}
		hazards = append(hazards, &entity.MatchedHazard{
			Hazard:         *hazard,
			DistanceMeters: hazardM.DistanceMeters,
		})
	}

	return hazards, nil
}

// FindActiveHazards retrieves all non-expired hazards, optionally restricted
// to one hazard type.
func (repo *hazardRepository) FindActiveHazards(ctx context.Context, hazardType *entity.HazardType) ([]*entity.Hazard, error) {
	var hazardModels []*model.HazardModel

	query := `
		SELECT h.id, h.source_id, h.hazard_type, h.severity,
		       ST_X(h.location) AS longitude,
		       ST_Y(h.location) AS latitude,
		       h.description, h.metadata, h.created_at, h.updated_at, h.expires_at
		FROM hazards h
		WHERE h.expires_at > NOW()
	`
	args := []any{}

	if hazardType != nil {
		query += " AND h.hazard_type = ?"
		args = append(args, string(*hazardType))
	}

	query += " ORDER BY h.severity DESC, h.updated_at DESC"

	if err := repo.db.WithContext(ctx).
		Raw(query, args...).
		Scan(&hazardModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active hazards")
	}

	hazards := make([]*entity.Hazard, 0, len(hazardModels))
	for _, hazardM := range hazardModels {
		hazard, err := toHazardDomain(hazardM)
		if err != nil {
			return nil, err
		}
		hazards = append(hazards, hazard)
	}

	return hazards, nil
}

// DeleteExpired removes hazards whose expiry has passed and reports how many
// rows went away.
func (repo *hazardRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).
		Exec("DELETE FROM hazards WHERE expires_at <= NOW()")

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete expired hazards")
	}

	return result.RowsAffected, nil
}

// DeleteByType removes every hazard of the given type regardless of expiry.
// The school hazard job uses this to force-clear zones outside peak windows.
func (repo *hazardRepository) DeleteByType(ctx context.Context, hazardType entity.HazardType) (int64, error) {
	result := repo.db.WithContext(ctx).
		Exec("DELETE FROM hazards WHERE hazard_type = ?", string(hazardType))

	if result.Error != nil {
		return 0, errors.Wrapf(result.Error, "failed to delete hazards of type %s", hazardType)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toHazardDomain converts a GORM HazardModel to a domain Hazard entity.
func toHazardDomain(data *model.HazardModel) (*entity.Hazard, error) {
	if data == nil {
		return nil, nil
	}

	source, err := entity.ParseSourceID(data.SourceID)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt hazard row %s", data.ID)
	}

	var metadata map[string]any
	if len(data.Metadata) > 0 {
		if err := json.Unmarshal(data.Metadata, &metadata); err != nil {
			return nil, errors.Wrapf(err, "corrupt hazard metadata on row %s", data.ID)
		}
	}

	return &entity.Hazard{
		ID:          data.ID,
		Source:      source,
		Severity:    data.Severity,
		Location:    orbPoint(data.Longitude, data.Latitude),
		Description: data.Description,
		Metadata:    metadata,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
		ExpiresAt:   data.ExpiresAt,
	}, nil
}
