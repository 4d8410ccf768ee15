package editor

// State is the lifecycle state of a Controller.
type State int

const (
	Unmounted State = iota
	Initializing
	Ready
	Disposing
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Disposing:
		return "disposing"
	default:
		return "unknown"
	}
}
