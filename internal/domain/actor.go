package domain

import (
	"context"
	"errors"
)

// ErrSessionLost marks a fatal loss of the external session (browser
// closed, logged out, network gone). It aborts the run; everything not
// yet processed is recorded as Skipped.
var ErrSessionLost = errors.New("session lost")

// ErrAborted is returned by a confirmation gate when the operator
// declines to proceed. Treated like cancellation, not like a failure.
var ErrAborted = errors.New("aborted by operator")

// GroupActor abstracts the external system that actually adds a number
// to the group. The coordinator has zero knowledge of how adding is
// performed; tests substitute a fake.
type GroupActor interface {
	// BeginSession brings the external session to a ready state. For
	// the real driver this covers the QR scan and navigating to the
	// target group, both performed by the operator.
	BeginSession(ctx context.Context) error

	// AddContact submits one number. A nil return means Added. A
	// non-nil return means Failed and is recorded against the number,
	// unless it wraps ErrSessionLost, which halts the run.
	AddContact(ctx context.Context, number CanonicalNumber) error

	// SessionAlive reports whether the session can still accept
	// commands. Polled between batches.
	SessionAlive(ctx context.Context) bool
}
