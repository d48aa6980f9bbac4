package presenter

// ButtonState is the state of one listing's watch button.
type ButtonState int

const (
	Unwatched ButtonState = iota
	Watched
	Toggling
)

// Button labels.
const (
	LabelUnwatched = "+ Watchlist"
	LabelWatched   = "- Remove"
	LabelToggling  = "..."
)

func (s ButtonState) String() string {
	switch s {
	case Watched:
		return "watched"
	case Toggling:
		return "toggling"
	default:
		return "unwatched"
	}
}

// Label is the text the button shows in state s.
func (s ButtonState) Label() string {
	switch s {
	case Watched:
		return LabelWatched
	case Toggling:
		return LabelToggling
	default:
		return LabelUnwatched
	}
}

// Button is the watch control for one (product, source) listing. Its
// fields are guarded by the owning Card's mutex.
type Button struct {
	source  string
	state   ButtonState
	lastErr string
}
