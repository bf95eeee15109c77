package export

// State tracks where a session is in its lifecycle. Transitions only move
// forward; Failed is terminal and reachable from any non-terminal state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateFetching
	StateExporting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateFetching:
		return "fetching"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
