package coordinator

// RunState is the coordinator's position in the per-run state machine:
//
//	Idle -> Reporting -> AwaitingConfirmation <-> Processing -> Completed
//
// with an escape edge into Halted from any non-terminal state on fatal
// session failure, operator abort, or cancellation.
type RunState string

const (
	StateIdle                 RunState = "idle"
	StateReporting            RunState = "reporting"
	StateAwaitingConfirmation RunState = "awaiting_confirmation"
	StateProcessing           RunState = "processing"
	StateCompleted            RunState = "completed"
	StateHalted               RunState = "halted"
)

// Terminal reports whether the run is finished in this state.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateHalted
}

func allowedTransition(from, to RunState) bool {
	if to == StateHalted {
		return !from.Terminal()
	}
	switch from {
	case StateIdle:
		return to == StateReporting
	case StateReporting:
		return to == StateAwaitingConfirmation || to == StateCompleted
	case StateAwaitingConfirmation:
		return to == StateProcessing
	case StateProcessing:
		return to == StateAwaitingConfirmation || to == StateCompleted
	default:
		return false
	}
}
