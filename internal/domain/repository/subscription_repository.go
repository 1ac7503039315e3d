package repository

import (
	"context"

	"github.com/google/uuid"

	"airscout/internal/domain/entity"
	"airscout/internal/errors"
)

// Domain-specific errors for subscription persistence.
var (
	// ErrSubscriptionNotFound is returned when a subscription is not found.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscriptionRepository defines the interface for route subscription access.
// Subscriptions are created and edited by the user-facing application; the
// engine consumes them and may only disable alerting on tokens the push
// provider has rejected.
type SubscriptionRepository interface {
	// FindAlertableSubscriptions retrieves subscriptions with alerts enabled
	// and a non-empty push token.
	FindAlertableSubscriptions(ctx context.Context) ([]*entity.RouteSubscription, error)

	// FindSubscriptionByID retrieves a subscription by its unique ID.
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.RouteSubscription, error)

	// FindSubscriptionsByUser retrieves all subscriptions for a specific user.
	FindSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]*entity.RouteSubscription, error)

	// DisableByPushTokens turns off alerting on every subscription carrying
	// one of the given tokens and returns how many rows were updated. Used
	// when the push provider reports a token as invalid or unregistered.
	DisableByPushTokens(ctx context.Context, tokens []string) (int64, error)
}
