package types

import "fmt"

// StoryState represents the lifecycle state of a story
type StoryState string

const (
	StoryStateIncomplete StoryState = "INCOMPLETE"
	StoryStateReady      StoryState = "READY"
	StoryStatePublished  StoryState = "PUBLISHED"
	StoryStateDiscarded  StoryState = "DISCARDED"
)

// AllStoryStates returns all valid story states
func AllStoryStates() []StoryState {
	return []StoryState{
		StoryStateIncomplete,
		StoryStateReady,
		StoryStatePublished,
		StoryStateDiscarded,
	}
}

// IsValid checks if the story state is valid
func (s StoryState) IsValid() bool {
	switch s {
	case StoryStateIncomplete,
		StoryStateReady,
		StoryStatePublished,
		StoryStateDiscarded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed out of the state
func (s StoryState) IsTerminal() bool {
	return s == StoryStatePublished || s == StoryStateDiscarded
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Incomplete stories may become ready or be discarded; ready stories may be
// sent back, published, or discarded. Terminal states allow nothing.
func (s StoryState) CanTransitionTo(next StoryState) bool {
	switch s {
	case StoryStateIncomplete:
		return next == StoryStateReady || next == StoryStateDiscarded
	case StoryStateReady:
		return next == StoryStateIncomplete || next == StoryStatePublished || next == StoryStateDiscarded
	default:
		return false
	}
}

// String returns the string representation of the story state
func (s StoryState) String() string {
	return string(s)
}

// ParseStoryState parses a string into a StoryState
func ParseStoryState(s string) (StoryState, error) {
	state := StoryState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid story state: %s", s)
	}
	return state, nil
}
