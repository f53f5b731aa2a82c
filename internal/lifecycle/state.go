package lifecycle

// State is the lifecycle state of the main window.
type State int

const (
	// StateActive means the main window is shown.
	StateActive State = iota
	// StateHidden means the window was closed by the user and merely hidden;
	// the process keeps running.
	StateHidden
	// StateTerminated means the main window was destroyed. Terminal.
	StateTerminated
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateHidden:
		return "hidden"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Event drives the main window state machine.
type Event int

const (
	EventCloseRequested Event = iota
	EventShown
	EventDestroyed
)

// String returns the string representation of the event
func (e Event) String() string {
	switch e {
	case EventCloseRequested:
		return "close-requested"
	case EventShown:
		return "shown"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Action is the side effect a transition asks the coordinator to perform.
type Action int

const (
	ActionNone Action = iota
	// ActionHide hides the main window instead of letting it be destroyed.
	ActionHide
	// ActionCascade closes every dependent window.
	ActionCascade
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionHide:
		return "hide"
	case ActionCascade:
		return "cascade"
	default:
		return "unknown"
	}
}

// Transition is the main window state machine. It is the only place that
// decides how the main window reacts to window-manager events.
func Transition(s State, e Event) (State, Action) {
	if s == StateTerminated {
		return StateTerminated, ActionNone
	}

	switch e {
	case EventCloseRequested:
		if s == StateActive {
			return StateHidden, ActionHide
		}
		return StateHidden, ActionNone
	case EventShown:
		return StateActive, ActionNone
	case EventDestroyed:
		return StateTerminated, ActionCascade
	default:
		return s, ActionNone
	}
}
