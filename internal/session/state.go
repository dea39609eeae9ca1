// Package session owns the run lifecycle: the game state machine, per-frame
// simulation of the active run, and the wiring from run events to the
// economy, ad gate, and persistence layers.
package session

import "fmt"

// State is a node of the game state machine.
type State int

const (
	StateMainMenu State = iota
	StateBotSelection
	StatePlaying
	StatePaused
	StateGameOver
	StateSettings
	StateShop
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main_menu"
	case StateBotSelection:
		return "bot_selection"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	case StateSettings:
		return "settings"
	case StateShop:
		return "shop"
	default:
		return "unknown"
	}
}

// transitions is the full edge set of the state machine. Anything not listed
// is rejected.
var transitions = map[State][]State{
	StateMainMenu:     {StateBotSelection, StateSettings, StateShop, StatePlaying},
	StateBotSelection: {StatePlaying, StateMainMenu},
	StatePlaying:      {StatePaused, StateGameOver},
	StatePaused:       {StatePlaying, StateGameOver, StateMainMenu},
	StateGameOver:     {StatePlaying, StateBotSelection, StateShop, StateMainMenu},
	StateSettings:     {StateMainMenu},
	StateShop:         {StateMainMenu, StateGameOver},
}

// InvalidTransitionError is returned for a state change with no edge in the
// machine.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session: invalid transition %s -> %s", e.From, e.To)
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
