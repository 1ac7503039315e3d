package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/repository"
	"airscout/internal/infra/persistence/model"
)

// alertHistoryRepository implements the repository.AlertHistoryRepository interface.
type alertHistoryRepository struct {
	db *gorm.DB
}

// NewAlertHistoryRepository is the constructor for alertHistoryRepository.
func NewAlertHistoryRepository(db *gorm.DB) repository.AlertHistoryRepository {
	return &alertHistoryRepository{
		db: db,
	}
}

// RecordAlerts appends one row per alerted hazard.
func (repo *alertHistoryRepository) RecordAlerts(ctx context.Context, entries []*entity.AlertHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	entryModels := make([]*model.AlertHistoryModel, 0, len(entries))
	for _, entry := range entries {
		entryModels = append(entryModels, fromAlertHistoryDomain(entry))
	}

	if err := repo.db.WithContext(ctx).Create(entryModels).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to record alert history")
	}

	return nil
}

// FindRecentSourceIDs returns the distinct hazard source ids alerted to a
// user since the given instant. The alert engine excludes these from its
// corridor query to enforce the cooldown.
func (repo *alertHistoryRepository) FindRecentSourceIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]string, error) {
	var sourceIDs []string

	if err := repo.db.WithContext(ctx).
		Model(&model.AlertHistoryModel{}).
		Where("user_id = ? AND sent_at >= ?", userID, since).
		Distinct().
		Pluck("hazard_source_id", &sourceIDs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find recent alert source ids")
	}

	return sourceIDs, nil
}

// --- Mapper Functions ---

// fromAlertHistoryDomain converts a domain AlertHistoryEntry to a GORM AlertHistoryModel.
func fromAlertHistoryDomain(data *entity.AlertHistoryEntry) *model.AlertHistoryModel {
	if data == nil {
		return nil
	}

	return &model.AlertHistoryModel{
		ID:             data.ID,
		UserID:         data.UserID,
		SubscriptionID: data.SubscriptionID,
		HazardSourceID: data.HazardSourceID,
		SentAt:         data.SentAt,
	}
}
