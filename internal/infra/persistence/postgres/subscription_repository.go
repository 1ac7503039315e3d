package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/repository"
	"airscout/internal/infra/persistence/model"
)

const selectSubscriptionColumns = `
	SELECT s.id, s.user_id, s.route_name,
	       ST_AsBinary(s.route) AS route_wkb,
	       s.push_token, s.severity_threshold, s.alert_enabled,
	       s.created_at, s.updated_at
	FROM route_subscriptions s
`

// subscriptionRepository implements the repository.SubscriptionRepository
// interface. The engine reads subscriptions and disables alerting on tokens
// the push provider rejected; all other writes belong to the app that owns
// them.
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository is the constructor for subscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

// FindAlertableSubscriptions retrieves every subscription the alert engine
// should evaluate: alerts enabled and a push token present.
func (repo *subscriptionRepository) FindAlertableSubscriptions(ctx context.Context) ([]*entity.RouteSubscription, error) {
	var subscriptionModels []*model.RouteSubscriptionModel

	query := selectSubscriptionColumns + `
		WHERE s.alert_enabled = true
		  AND s.push_token <> ''
		ORDER BY s.created_at ASC
	`

	if err := repo.db.WithContext(ctx).
		Raw(query).
		Scan(&subscriptionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find alertable subscriptions")
	}

	return toSubscriptionDomainList(subscriptionModels)
}

// FindSubscriptionByID retrieves a subscription by its unique ID.
func (repo *subscriptionRepository) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.RouteSubscription, error) {
	var subscriptionModels []*model.RouteSubscriptionModel

	query := selectSubscriptionColumns + " WHERE s.id = ?"

	if err := repo.db.WithContext(ctx).
		Raw(query, id).
		Scan(&subscriptionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find subscription by ID")
	}

	if len(subscriptionModels) == 0 {
		return nil, repository.ErrSubscriptionNotFound
	}

	return toSubscriptionDomain(subscriptionModels[0])
}

// FindSubscriptionsByUser retrieves all subscriptions for a specific user.
func (repo *subscriptionRepository) FindSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]*entity.RouteSubscription, error) {
	var subscriptionModels []*model.RouteSubscriptionModel

	query := selectSubscriptionColumns + `
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC
	`

	if err := repo.db.WithContext(ctx).
		Raw(query, userID).
		Scan(&subscriptionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find subscriptions by user")
	}

	return toSubscriptionDomainList(subscriptionModels)
}

// DisableByPushTokens turns off alerting for every subscription carrying one
// of the rejected tokens, so dead tokens stop being evaluated every cycle.
func (repo *subscriptionRepository) DisableByPushTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	result := repo.db.WithContext(ctx).Exec(`
		UPDATE route_subscriptions
		SET alert_enabled = false, updated_at = NOW()
		WHERE push_token IN ?
	`, tokens)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to disable subscriptions by push token")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toSubscriptionDomain converts a GORM RouteSubscriptionModel to a domain
// RouteSubscription entity, decoding the route geometry.
func toSubscriptionDomain(data *model.RouteSubscriptionModel) (*entity.RouteSubscription, error) {
	if data == nil {
		return nil, nil
	}

	route, err := decodeLineString(data.RouteWKB)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt route on subscription %s", data.ID)
	}

	return &entity.RouteSubscription{
		ID:                data.ID,
		UserID:            data.UserID,
		RouteName:         data.RouteName,
		Route:             route,
		PushToken:         data.PushToken,
		SeverityThreshold: data.SeverityThreshold,
		AlertEnabled:      data.AlertEnabled,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}, nil
}

func toSubscriptionDomainList(models []*model.RouteSubscriptionModel) ([]*entity.RouteSubscription, error) {
	subscriptions := make([]*entity.RouteSubscription, 0, len(models))
	for _, subscriptionM := range models {
		subscription, err := toSubscriptionDomain(subscriptionM)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}

	return subscriptions, nil
}
