package bot

import "fmt"

// Ability is a timed, cooldown-gated action a bot may invoke during a run.
type Ability int

const (
	DoubleJump Ability = iota
	Shield
	MagneticField
	SpeedBoost
)

// String returns the config/wire name of the ability.
func (a Ability) String() string {
	switch a {
	case DoubleJump:
		return "double_jump"
	case Shield:
		return "shield"
	case MagneticField:
		return "magnetic_field"
	case SpeedBoost:
		return "speed_boost"
	default:
		return "unknown"
	}
}

// ParseAbility converts a config name to an Ability.
func ParseAbility(name string) (Ability, error) {
	switch name {
	case "double_jump":
		return DoubleJump, nil
	case "shield":
		return Shield, nil
	case "magnetic_field":
		return MagneticField, nil
	case "speed_boost":
		return SpeedBoost, nil
	default:
		return 0, fmt.Errorf("bot: unknown ability %q", name)
	}
}

// Cooldown durations in seconds. Fixed per-ability constants, not runtime
// configurable.
const (
	CooldownDoubleJump    = 3.0
	CooldownShield        = 15.0
	CooldownMagneticField = 20.0
	CooldownSpeedBoost    = 12.0
)

// Active-effect windows in seconds.
const (
	ShieldDuration     = 3.0
	MagnetDuration     = 5.0
	SpeedBoostDuration = 4.0
	SpeedBoostFactor   = 1.5
)

// spec describes one ability: its cooldown, an optional precondition checked
// before the cooldown is committed, and the effect applied on success.
// Dispatch goes through this table rather than a switch so new abilities are
// a single row.
type spec struct {
	cooldown     float64
	precondition func(*Instance) bool
	effect       func(*Instance)
}

var abilityTable = map[Ability]spec{
	DoubleJump: {
		cooldown:     CooldownDoubleJump,
		precondition: func(b *Instance) bool { return !b.grounded },
		effect:       func(b *Instance) { b.vel = b.phys.JumpImpulse },
	},
	Shield: {
		cooldown: CooldownShield,
		effect:   func(b *Instance) { b.invulnRemaining = ShieldDuration },
	},
	MagneticField: {
		cooldown: CooldownMagneticField,
		effect:   func(b *Instance) { b.magnetRemaining = MagnetDuration },
	},
	SpeedBoost: {
		cooldown: CooldownSpeedBoost,
		effect:   func(b *Instance) { b.boostRemaining = SpeedBoostDuration },
	},
}

// CooldownFor returns the fixed cooldown duration for an ability.
func CooldownFor(a Ability) float64 {
	return abilityTable[a].cooldown
}
