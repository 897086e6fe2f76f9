package signup

// State is the lifecycle of a form submission.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission is the outcome of submitting a form.
// CustomerID is set only when State is StateSucceeded,
// Reason only when State is StateFailed.
type Submission struct {
	State      State
	CustomerID string
	Reason     string
}

// Idle is a submission that has not started.
func Idle() Submission {
	return Submission{State: StateIdle}
}

// Pending is a submission in flight.
func Pending() Submission {
	return Submission{State: StatePending}
}

// Succeeded is a completed submission that produced a customer identifier.
func Succeeded(customerID string) Submission {
	return Submission{State: StateSucceeded, CustomerID: customerID}
}

// Failed is a submission rejected for reason.
func Failed(reason string) Submission {
	return Submission{State: StateFailed, Reason: reason}
}

// Done reports whether the submission reached a terminal state.
func (s Submission) Done() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}
