package usecase

import (
	"context"
)

// AlertCycleResult reports one alert engine cycle.
type AlertCycleResult struct {
	SubscriptionsChecked int      `json:"subscriptions_checked"`
	AlertsGenerated      int      `json:"alerts_generated"`
	NotificationsSent    int      `json:"notifications_sent"`
	Errors               []string `json:"errors,omitempty"`
}

// AlertUsecase drives the periodic alert engine: match every alertable
// subscription against active hazards, deduplicate within the cooldown,
// dispatch push notifications and record them.
type AlertUsecase interface {
	// Run executes one cycle. With dryRun set, matching and deduplication
	// run exactly as live but nothing is sent or recorded.
	Run(ctx context.Context, dryRun bool) (*AlertCycleResult, error)
}
