package usecase

import (
	"context"
)

// UnitError records one record-level failure inside a batch cycle. The cycle
// keeps going; the summary carries what was skipped and why.
type UnitError struct {
	Unit string `json:"unit"` // natural id of the failed record
	Err  string `json:"error"`
}

// IngestSummary reports one batch cycle. In dry-run mode Upserted and
// Deleted count what would have been written.
type IngestSummary struct {
	Job        string      `json:"job"`
	DryRun     bool        `json:"dry_run"`
	Fetched    int         `json:"fetched"`
	Validated  int         `json:"validated"`
	Suppressed int         `json:"suppressed"`
	Upserted   int         `json:"upserted"`
	Deleted    int         `json:"deleted"`
	UnitErrors []UnitError `json:"unit_errors,omitempty"`
}

// PermitIngestUsecase runs the demolition permit cycle: fetch permits and
// complaints, corroborate, upsert validated hazards, sweep expired rows.
type PermitIngestUsecase interface {
	Run(ctx context.Context, dryRun bool) (*IngestSummary, error)
}

// TrafficIngestUsecase runs the congestion cycle: fetch segment observations,
// classify, suppress near-school segments during peak, upsert, sweep expired
// traffic rows.
type TrafficIngestUsecase interface {
	Run(ctx context.Context, dryRun bool) (*IngestSummary, error)
}

// SchoolIngestUsecase refreshes the static school reference set from the
// city portal.
type SchoolIngestUsecase interface {
	Run(ctx context.Context, dryRun bool) (*IngestSummary, error)
}

// SchoolHazardUsecase materializes school zone hazards during peak windows
// and force-clears them outside.
type SchoolHazardUsecase interface {
	Run(ctx context.Context, dryRun bool) (*IngestSummary, error)
}
