package core

// Action represents a semantic player action, abstracted from physical key
// presses. The platform layer maps keys to actions; the simulation only sees
// these high-level intents.
type Action int

const (
	ActionNone       Action = iota
	ActionJump              // Space, W, Up - jump (double-tap while airborne for DoubleJump)
	ActionShield            // 1 - activate shield ability
	ActionMagnet            // 2 - activate magnetic field ability
	ActionSpeedBoost        // 3 - activate speed boost ability
	ActionConfirm           // Enter - confirm selection in menus
	ActionBack              // B, Escape - go back
	ActionPause             // P - pause/unpause
	ActionRestart           // R - restart after game over
	ActionQuit              // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionJump:
		return "Jump"
	case ActionShield:
		return "Shield"
	case ActionMagnet:
		return "Magnet"
	case ActionSpeedBoost:
		return "SpeedBoost"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionPause:
		return "Pause"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
