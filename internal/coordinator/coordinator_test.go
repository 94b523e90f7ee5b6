package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/normalizer"
)

type fakeActor struct {
	beginErr error
	begins   int
	dead     bool
	addErr   map[domain.CanonicalNumber]error
	afterAdd func(calls int)
	added    []domain.CanonicalNumber
	calls    int
}

func (a *fakeActor) BeginSession(context.Context) error {
	a.begins++
	return a.beginErr
}

func (a *fakeActor) AddContact(_ context.Context, num domain.CanonicalNumber) error {
	a.calls++
	if a.afterAdd != nil {
		defer a.afterAdd(a.calls)
	}
	if err, ok := a.addErr[num]; ok {
		return err
	}
	a.added = append(a.added, num)
	return nil
}

func (a *fakeActor) SessionAlive(context.Context) bool {
	return !a.dead
}

type fakeGate struct {
	confirmed []int
	abortAt   int
}

func (g *fakeGate) AwaitConfirmation(ctx context.Context, batch domain.Batch, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.confirmed = append(g.confirmed, batch.Seq)
	if g.abortAt != 0 && batch.Seq == g.abortAt {
		return domain.ErrAborted
	}
	return nil
}

type fakePresenter struct {
	events   []string
	rejected []domain.RejectedEntry
	summary  *domain.RunReport
}

func (p *fakePresenter) Rejections(rejected []domain.RejectedEntry) {
	p.rejected = rejected
	p.events = append(p.events, "rejections")
}

func (p *fakePresenter) BatchStart(batch domain.Batch, _ int) {
	p.events = append(p.events, fmt.Sprintf("batch %d", batch.Seq))
}

func (p *fakePresenter) Summary(report *domain.RunReport) {
	p.summary = report
	p.events = append(p.events, "summary")
}

func validEntries(n int) []domain.RawEntry {
	entries := make([]domain.RawEntry, n)
	for i := range entries {
		entries[i] = domain.RawEntry{Raw: fmt.Sprintf("+62812%07d", i), Row: i + 2}
	}
	return entries
}

func newTestCoordinator(t *testing.T, actor *fakeActor, gate *fakeGate, presenter *fakePresenter, opts Options) *Coordinator {
	t.Helper()
	c, err := New(normalizer.New(nil, 0, 0), actor, gate, presenter, zaptest.NewLogger(t), opts)
	require.NoError(t, err)
	return c
}

func TestRunTwentySevenNumbersTwoGates(t *testing.T) {
	actor := &fakeActor{}
	gate := &fakeGate{}
	presenter := &fakePresenter{}
	c := newTestCoordinator(t, actor, gate, presenter, Options{BatchSize: 25})

	report, err := c.Run(context.Background(), validEntries(27))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, gate.confirmed, "exactly two confirmation gates")
	assert.Equal(t, 2, report.BatchCount)
	assert.Equal(t, 27, report.TotalEntries)
	assert.Len(t, report.Results, 27, "every number must have an outcome")
	assert.Equal(t, 27, report.CountOutcome(domain.OutcomeAdded))
	assert.Equal(t, 1, actor.begins)
	assert.False(t, report.Halted)
	assert.Equal(t, StateCompleted, c.State())
	assert.NotEmpty(t, report.RunID)
}

func TestRunRejectionsSurfacedBeforeAnyBatch(t *testing.T) {
	actor := &fakeActor{}
	gate := &fakeGate{}
	presenter := &fakePresenter{}
	c := newTestCoordinator(t, actor, gate, presenter, Options{BatchSize: 25})

	entries := []domain.RawEntry{
		{Raw: "abc12345", Row: 2},
		{Raw: "08123456789", Row: 3},
		{Raw: "1234", Row: 4},
	}
	report, err := c.Run(context.Background(), entries)
	require.NoError(t, err)

	require.Len(t, presenter.rejected, 2)
	assert.Equal(t, domain.ReasonContainsNonDigitCharacters, presenter.rejected[0].Reason)
	assert.Equal(t, domain.ReasonMalformedLength, presenter.rejected[1].Reason)
	require.NotEmpty(t, presenter.events)
	assert.Equal(t, "rejections", presenter.events[0], "rejections come before any batch work")

	// The rewritten trunk prefix is audited.
	require.Len(t, report.Rewritten, 1)
	assert.Equal(t, domain.CanonicalNumber("+628123456789"), report.Rewritten[0].Canonical)
	assert.Equal(t, 3, report.Rewritten[0].Entry.Row)

	// Totality: 3 entries, 1 outcome + 2 rejections.
	assert.Equal(t, 3, report.TotalEntries)
	assert.Len(t, report.Results, 1)
	assert.Len(t, report.Rejected, 2)
}

func TestRunPerNumberFailureDoesNotAbortBatch(t *testing.T) {
	entries := validEntries(5)
	bad := domain.CanonicalNumber(entries[2].Raw)
	actor := &fakeActor{addErr: map[domain.CanonicalNumber]error{bad: errors.New("contact picker timed out")}}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 25})

	report, err := c.Run(context.Background(), entries)
	require.NoError(t, err)

	assert.Equal(t, 4, report.CountOutcome(domain.OutcomeAdded))
	assert.Equal(t, 1, report.CountOutcome(domain.OutcomeFailed))
	assert.Equal(t, 0, report.CountOutcome(domain.OutcomeSkipped))
	assert.False(t, report.Halted)

	failed := report.Results[2]
	assert.Equal(t, bad, failed.Number)
	assert.Equal(t, domain.OutcomeFailed, failed.Outcome)
	assert.Contains(t, failed.FailReason, "contact picker")
}

func TestRunSessionLossHaltsAndSkipsRemainder(t *testing.T) {
	entries := validEntries(5)
	lost := domain.CanonicalNumber(entries[2].Raw)
	actor := &fakeActor{addErr: map[domain.CanonicalNumber]error{lost: domain.ErrSessionLost}}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 3})

	report, err := c.Run(context.Background(), entries)
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Contains(t, report.HaltReason, "session lost")
	assert.Equal(t, 2, report.CountOutcome(domain.OutcomeAdded))
	assert.Equal(t, 3, report.CountOutcome(domain.OutcomeSkipped), "current number and everything after it")
	assert.Len(t, report.Results, 5, "no number may be left unaccounted")
	assert.Equal(t, []int{1}, gate.confirmed, "batch 2 never reaches its gate")
	assert.Equal(t, StateHalted, c.State())
}

func TestRunDeadSessionDetectedAtBatchBoundary(t *testing.T) {
	actor := &fakeActor{dead: true}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 25})

	report, err := c.Run(context.Background(), validEntries(3))
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Contains(t, report.HaltReason, "session lost")
	assert.Equal(t, 3, report.CountOutcome(domain.OutcomeSkipped))
	assert.Zero(t, actor.calls)
}

func TestRunCancellationMidSecondBatchOfThree(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actor := &fakeActor{afterAdd: func(calls int) {
		if calls == 3 { // first number of batch 2
			cancel()
		}
	}}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 2})

	report, err := c.Run(ctx, validEntries(6))
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Contains(t, report.HaltReason, "batch 2")
	assert.Equal(t, 3, report.CountOutcome(domain.OutcomeAdded), "batch 1 fully resolved, batch 2 partially")
	assert.Equal(t, 3, report.CountOutcome(domain.OutcomeSkipped), "rest of batch 2 and all of batch 3")
	assert.Len(t, report.Results, 6)

	// Exact fate per position: no ambiguity.
	want := []domain.Outcome{
		domain.OutcomeAdded, domain.OutcomeAdded,
		domain.OutcomeAdded, domain.OutcomeSkipped,
		domain.OutcomeSkipped, domain.OutcomeSkipped,
	}
	for i, res := range report.Results {
		assert.Equal(t, want[i], res.Outcome, "position %d", i)
	}
}

func TestRunOperatorAbortAtGate(t *testing.T) {
	actor := &fakeActor{}
	gate := &fakeGate{abortAt: 2}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 2})

	report, err := c.Run(context.Background(), validEntries(6))
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Contains(t, report.HaltReason, "aborted")
	assert.Equal(t, 2, report.CountOutcome(domain.OutcomeAdded))
	assert.Equal(t, 4, report.CountOutcome(domain.OutcomeSkipped))
	assert.Equal(t, []int{1, 2}, gate.confirmed, "batch 3 gate is never presented")
}

func TestRunStartBatchResumesMidway(t *testing.T) {
	actor := &fakeActor{}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 2, StartBatch: 2})

	report, err := c.Run(context.Background(), validEntries(5))
	require.NoError(t, err)

	assert.False(t, report.Halted)
	assert.Equal(t, []int{2, 3}, gate.confirmed)
	assert.Equal(t, 2, report.CountOutcome(domain.OutcomeSkipped), "batch 1 recorded as skipped")
	assert.Equal(t, 3, report.CountOutcome(domain.OutcomeAdded))
	assert.Equal(t, 1, actor.begins, "session opens once, at the first processed batch")
}

func TestRunDeduplicatePreservesFirstOccurrence(t *testing.T) {
	entries := []domain.RawEntry{
		{Raw: "08123456789", Row: 2},
		{Raw: "+628123456789", Row: 3}, // same canonical form
		{Raw: "+628999999999", Row: 4},
	}

	actor := &fakeActor{}
	c := newTestCoordinator(t, actor, &fakeGate{}, &fakePresenter{}, Options{BatchSize: 25, Deduplicate: true})
	report, err := c.Run(context.Background(), entries)
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
	assert.Equal(t, []domain.CanonicalNumber{"+628123456789", "+628999999999"}, actor.added)

	// Without the option duplicates are preserved as separate entries.
	actor = &fakeActor{}
	c = newTestCoordinator(t, actor, &fakeGate{}, &fakePresenter{}, Options{BatchSize: 25})
	report, err = c.Run(context.Background(), entries)
	require.NoError(t, err)
	assert.Len(t, report.Results, 3)
}

func TestRunNoValidNumbersCompletesWithoutSession(t *testing.T) {
	actor := &fakeActor{}
	gate := &fakeGate{}
	presenter := &fakePresenter{}
	c := newTestCoordinator(t, actor, gate, presenter, Options{BatchSize: 25})

	report, err := c.Run(context.Background(), []domain.RawEntry{{Raw: "abc", Row: 2}})
	require.NoError(t, err)

	assert.Zero(t, report.BatchCount)
	assert.Empty(t, gate.confirmed)
	assert.Zero(t, actor.begins)
	assert.False(t, report.Halted)
	assert.Equal(t, StateCompleted, c.State())
	require.NotNil(t, presenter.summary)
}

func TestRunBeginSessionFailureSkipsEverything(t *testing.T) {
	actor := &fakeActor{beginErr: errors.New("browser did not start")}
	gate := &fakeGate{}
	c := newTestCoordinator(t, actor, gate, &fakePresenter{}, Options{BatchSize: 2})

	report, err := c.Run(context.Background(), validEntries(5))
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Contains(t, report.HaltReason, "session setup failed")
	assert.Equal(t, 5, report.CountOutcome(domain.OutcomeSkipped))
	assert.Empty(t, gate.confirmed)
}

func TestNewValidatesWiring(t *testing.T) {
	norm := normalizer.New(nil, 0, 0)
	actor := &fakeActor{}
	gate := &fakeGate{}
	presenter := &fakePresenter{}

	_, err := New(nil, actor, gate, presenter, nil, Options{})
	assert.Error(t, err)
	_, err = New(norm, nil, gate, presenter, nil, Options{})
	assert.Error(t, err)
	_, err = New(norm, actor, nil, presenter, nil, Options{})
	assert.Error(t, err)
	_, err = New(norm, actor, gate, nil, nil, Options{})
	assert.Error(t, err)
	_, err = New(norm, actor, gate, presenter, nil, Options{BatchSize: -1})
	assert.Error(t, err)

	c, err := New(norm, actor, gate, presenter, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, c.State())
}
