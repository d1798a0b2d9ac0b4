package orchestrator

// State is a step of the run state machine.
type State int

const (
	StateStart State = iota
	StateClarifying
	StateElaborating
	StateGenerating
	StateVerifying
	StateRepairing
	StateDone
)

var stateNames = [...]string{
	StateStart:       "start",
	StateClarifying:  "clarifying",
	StateElaborating: "elaborating",
	StateGenerating:  "generating",
	StateVerifying:   "verifying",
	StateRepairing:   "repairing",
	StateDone:        "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
