package service

import (
	"context"
)

// PushSender defines the interface for push notification delivery.
type PushSender interface {
	// SendBatchNotification sends one notification to the given device tokens.
	// Returns success count, failure count, the tokens the provider rejected
	// as invalid or unregistered, and a transport-level error.
	SendBatchNotification(ctx context.Context, tokens []string, title, body string, data map[string]string) (successCount, failureCount int, invalidTokens []string, err error)
}
