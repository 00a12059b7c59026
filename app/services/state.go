package services

import "fmt"

// State is a step of a single publish request.
type State int

const (
	Idle State = iota
	Authenticating
	Authorized
	Rejected
	Submitting
	Saved
	Notifying
	Done
	Failed
)

var stateNames = map[State]string{
	Idle:           "idle",
	Authenticating: "authenticating",
	Authorized:     "authorized",
	Rejected:       "rejected",
	Submitting:     "submitting",
	Saved:          "saved",
	Notifying:      "notifying",
	Done:           "done",
	Failed:         "failed",
}

var transitions = map[State][]State{
	Idle:           {Authenticating},
	Authenticating: {Authorized, Rejected},
	Authorized:     {Submitting},
	Submitting:     {Saved, Failed},
	Saved:          {Notifying},
	Notifying:      {Done, Failed},
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Rejected || s == Failed
}

// CanTransition reports whether next may follow s.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown publish state %q", text)
}
