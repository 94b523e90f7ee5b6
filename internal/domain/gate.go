package domain

import "context"

// ConfirmationGate blocks the run until an external party explicitly
// approves the next batch. The wait is unbounded: there is no timeout
// and no auto-approval. Returns nil to proceed, ErrAborted if the
// operator declines, or ctx.Err() on cancellation.
type ConfirmationGate interface {
	AwaitConfirmation(ctx context.Context, batch Batch, totalBatches int) error
}

// Presenter renders run progress for the operator. Implementations
// write to a terminal; tests record calls.
type Presenter interface {
	// Rejections shows entries that need manual handling. Called once,
	// before any automated action begins.
	Rejections(rejected []RejectedEntry)

	// BatchStart announces the batch about to be processed.
	BatchStart(batch Batch, totalBatches int)

	// Summary renders the completed report.
	Summary(report *RunReport)
}
