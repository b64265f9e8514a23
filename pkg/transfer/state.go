package transfer

// State tracks where a session is in its lifecycle. Transitions are
// Requesting -> Negotiating (only when options were requested) ->
// Transferring -> Completed or Failed.
type State uint8

const (
	StateRequesting State = iota
	StateNegotiating
	StateTransferring
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateNegotiating:
		return "negotiating"
	case StateTransferring:
		return "transferring"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
