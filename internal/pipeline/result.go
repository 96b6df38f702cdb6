package pipeline

// State is the lifecycle position of a Runner.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Failure records an entry whose translation attempt errored. Skips and
// placeholder rejections are not failures.
type Failure struct {
	Index   int
	MsgID   string
	MsgCtxt string
	Reason  string
}

// Result summarizes a finished run.
type Result struct {
	State     State
	Processed int
	Total     int
	Failures  []Failure
	// OutputPath is set by RunFile when the catalog was written.
	OutputPath string
	// RecoveryLogPath is set when failures were written for a later retry.
	RecoveryLogPath string
}

// Failed reports whether any entry errored.
func (r Result) Failed() bool {
	return len(r.Failures) > 0
}
