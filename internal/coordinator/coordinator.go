package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/normalizer"
)

// Options controls batch sizing, pacing, and the resume point.
type Options struct {
	// BatchSize is the number of contacts per batch. Defaults to
	// DefaultBatchSize.
	BatchSize int

	// StartBatch is the 1-based sequence number of the first batch to
	// actually process; earlier batches are recorded as Skipped. Lets
	// an operator resume an interrupted session. Defaults to 1.
	StartBatch int

	// InterAction is the minimum pause between two add operations.
	InterAction time.Duration

	// InterBatch is the minimum pause after a batch completes, before
	// the next confirmation gate is presented.
	InterBatch time.Duration

	// Deduplicate drops repeated canonical numbers, keeping the first
	// occurrence. Off by default: duplicates in the form are processed
	// as separate entries unless the operator opts in.
	Deduplicate bool
}

// Coordinator drives one run: normalize everything, surface rejects,
// then feed valid numbers to the actor in confirmed, paced batches.
// A Coordinator is not safe for concurrent use; the external session
// is a single UI surface and the run loop is strictly sequential.
type Coordinator struct {
	norm      *normalizer.Normalizer
	actor     domain.GroupActor
	gate      domain.ConfirmationGate
	presenter domain.Presenter
	logger    *zap.Logger
	opts      Options

	state RunState
}

// New wires a coordinator. All ports are required.
func New(
	norm *normalizer.Normalizer,
	actor domain.GroupActor,
	gate domain.ConfirmationGate,
	presenter domain.Presenter,
	logger *zap.Logger,
	opts Options,
) (*Coordinator, error) {
	if norm == nil {
		return nil, errors.New("coordinator: normalizer is required")
	}
	if actor == nil {
		return nil, errors.New("coordinator: group actor is required")
	}
	if gate == nil {
		return nil, errors.New("coordinator: confirmation gate is required")
	}
	if presenter == nil {
		return nil, errors.New("coordinator: presenter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("coordinator: batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.StartBatch < 1 {
		opts.StartBatch = 1
	}
	return &Coordinator{
		norm:      norm,
		actor:     actor,
		gate:      gate,
		presenter: presenter,
		logger:    logger,
		opts:      opts,
		state:     StateIdle,
	}, nil
}

// State returns the coordinator's current run state.
func (c *Coordinator) State() RunState {
	return c.state
}

// Run executes the full workflow and always returns a complete report:
// every valid number ends up Added, Failed, or Skipped, and every
// rejected entry is listed. Session loss, operator abort, and context
// cancellation halt the run and are recorded on the report rather than
// returned as errors.
func (c *Coordinator) Run(ctx context.Context, entries []domain.RawEntry) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:        uuid.New().String(),
		StartedAt:    time.Now(),
		TotalEntries: len(entries),
	}

	c.state = StateIdle
	c.transition(StateReporting)

	valid := c.normalizeAll(entries, report)
	c.presenter.Rejections(report.Rejected)
	c.logger.Info("entries normalized",
		zap.String("run_id", report.RunID),
		zap.Int("total", len(entries)),
		zap.Int("valid", len(valid)),
		zap.Int("rejected", len(report.Rejected)),
	)

	if c.opts.Deduplicate {
		before := len(valid)
		valid = dedupe(valid)
		if dropped := before - len(valid); dropped > 0 {
			c.logger.Info("duplicate numbers dropped", zap.Int("count", dropped))
		}
	}

	batches, err := Partition(valid, c.opts.BatchSize)
	if err != nil {
		return nil, err
	}
	report.BatchCount = len(batches)

	haltReason := c.processBatches(ctx, batches, report)

	if haltReason != "" {
		report.Halted = true
		report.HaltReason = haltReason
		c.transition(StateHalted)
		c.logger.Warn("run halted", zap.String("run_id", report.RunID), zap.String("reason", haltReason))
	} else {
		c.transition(StateCompleted)
	}

	report.FinishedAt = time.Now()
	c.presenter.Summary(report)
	c.logger.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.String("state", string(c.state)),
		zap.Int("added", report.CountOutcome(domain.OutcomeAdded)),
		zap.Int("failed", report.CountOutcome(domain.OutcomeFailed)),
		zap.Int("skipped", report.CountOutcome(domain.OutcomeSkipped)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// normalizeAll resolves every entry to exactly one bucket: the valid
// sequence or the report's rejection list. Trunk rewrites are recorded
// for the audit trail.
func (c *Coordinator) normalizeAll(entries []domain.RawEntry, report *domain.RunReport) []domain.CanonicalNumber {
	valid := make([]domain.CanonicalNumber, 0, len(entries))
	for _, entry := range entries {
		num, rej := c.norm.Normalize(entry)
		if rej != nil {
			report.Rejected = append(report.Rejected, *rej)
			continue
		}
		if string(num) != strings.TrimSpace(entry.Raw) {
			report.Rewritten = append(report.Rewritten, domain.Rewrite{Entry: entry, Canonical: num})
		}
		valid = append(valid, num)
	}
	return valid
}

// processBatches runs the gate/process loop. Returns an empty string
// on normal completion, otherwise the reason the run halted. Once a
// halt reason exists all remaining numbers are recorded Skipped.
func (c *Coordinator) processBatches(ctx context.Context, batches []domain.Batch, report *domain.RunReport) string {
	haltReason := ""
	sessionOpen := false
	total := len(batches)

	for _, batch := range batches {
		if haltReason != "" || batch.Seq < c.opts.StartBatch {
			c.skipBatch(report, batch, 0)
			continue
		}

		if !sessionOpen {
			if err := c.actor.BeginSession(ctx); err != nil {
				c.skipBatch(report, batch, 0)
				haltReason = fmt.Sprintf("session setup failed: %v", err)
				continue
			}
			sessionOpen = true
		}

		haltReason = c.processBatch(ctx, batch, total, report)
		if haltReason != "" {
			continue
		}

		if batch.Seq < total {
			if err := c.pause(ctx, c.opts.InterBatch); err != nil {
				haltReason = fmt.Sprintf("cancelled during inter-batch pause after batch %d", batch.Seq)
			}
		}
	}
	return haltReason
}

// processBatch presents one batch, blocks on the confirmation gate,
// then submits each number with the configured pacing. Returns a halt
// reason, or "" if the batch resolved fully.
func (c *Coordinator) processBatch(ctx context.Context, batch domain.Batch, total int, report *domain.RunReport) string {
	c.presenter.BatchStart(batch, total)
	c.transition(StateAwaitingConfirmation)
	c.logger.Info("awaiting confirmation",
		zap.Int("batch", batch.Seq),
		zap.Int("of", total),
		zap.Int("numbers", len(batch.Numbers)),
	)

	if err := c.gate.AwaitConfirmation(ctx, batch, total); err != nil {
		c.skipBatch(report, batch, 0)
		if errors.Is(err, domain.ErrAborted) {
			return fmt.Sprintf("operator aborted at batch %d gate", batch.Seq)
		}
		return fmt.Sprintf("cancelled at batch %d gate", batch.Seq)
	}

	if !c.actor.SessionAlive(ctx) {
		c.skipBatch(report, batch, 0)
		return fmt.Sprintf("session lost before batch %d", batch.Seq)
	}

	c.transition(StateProcessing)
	for i, num := range batch.Numbers {
		err := c.actor.AddContact(ctx, num)
		switch {
		case err == nil:
			report.Results = append(report.Results, domain.NumberResult{
				Number: num, BatchSeq: batch.Seq, Outcome: domain.OutcomeAdded,
			})
		case errors.Is(err, domain.ErrSessionLost):
			c.skipBatch(report, batch, i)
			return fmt.Sprintf("session lost in batch %d", batch.Seq)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// The add never happened; the number is skipped, not failed.
			c.skipBatch(report, batch, i)
			return fmt.Sprintf("cancelled in batch %d", batch.Seq)
		default:
			c.logger.Warn("add failed",
				zap.String("number", string(num)),
				zap.Int("batch", batch.Seq),
				zap.Error(err),
			)
			report.Results = append(report.Results, domain.NumberResult{
				Number: num, BatchSeq: batch.Seq, Outcome: domain.OutcomeFailed, FailReason: err.Error(),
			})
		}

		if i < len(batch.Numbers)-1 {
			if err := c.pause(ctx, c.opts.InterAction); err != nil {
				c.skipBatch(report, batch, i+1)
				return fmt.Sprintf("cancelled in batch %d", batch.Seq)
			}
		}
	}
	c.logger.Info("batch completed", zap.Int("batch", batch.Seq), zap.Int("of", total))
	return ""
}

// skipBatch records the batch's numbers from index onward as Skipped.
func (c *Coordinator) skipBatch(report *domain.RunReport, batch domain.Batch, from int) {
	for _, num := range batch.Numbers[from:] {
		report.Results = append(report.Results, domain.NumberResult{
			Number: num, BatchSeq: batch.Seq, Outcome: domain.OutcomeSkipped,
		})
	}
}

// pause is a bounded, cancellable delay. A non-positive duration only
// checks for cancellation.
func (c *Coordinator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) transition(to RunState) {
	if !allowedTransition(c.state, to) {
		c.logger.DPanic("invalid run state transition",
			zap.String("from", string(c.state)),
			zap.String("to", string(to)),
		)
		return
	}
	c.logger.Debug("run state", zap.String("from", string(c.state)), zap.String("to", string(to)))
	c.state = to
}

// dedupe drops repeated numbers while preserving first-seen order.
func dedupe(numbers []domain.CanonicalNumber) []domain.CanonicalNumber {
	seen := make(map[domain.CanonicalNumber]struct{}, len(numbers))
	out := numbers[:0:len(numbers)]
	for _, num := range numbers {
		if _, ok := seen[num]; ok {
			continue
		}
		seen[num] = struct{}{}
		out = append(out, num)
	}
	return out
}
