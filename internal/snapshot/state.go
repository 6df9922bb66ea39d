package snapshot

// State is where a Set is in its single run.
type State int

const (
	Idle State = iota
	Rotating
	Syncing
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Syncing:
		return "syncing"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
