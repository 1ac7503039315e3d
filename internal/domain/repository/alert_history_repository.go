package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"airscout/internal/domain/entity"
)

// AlertHistoryRepository defines the interface for the append-only alert log.
type AlertHistoryRepository interface {
	// RecordAlerts appends one entry per alerted hazard.
	RecordAlerts(ctx context.Context, entries []*entity.AlertHistoryEntry) error

	// FindRecentSourceIDs retrieves the distinct hazard source ids alerted to
	// a user since the given instant. The alert engine excludes these to
	// honor the cooldown window.
	FindRecentSourceIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]string, error)
}
