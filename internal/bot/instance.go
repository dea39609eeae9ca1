package bot

import (
	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/core"
)

// Instance is the mutable state of one bot during one run. It owns its
// cooldown and effect timers; the session ticks it once per frame. All timed
// effects are independent countdowns, so a Shield window and a SpeedBoost
// cooldown can overlap freely.
type Instance struct {
	def  *Definition
	phys config.PhysicsConfig

	// Vertical physics, relative to the ground line. altitude <= 0 with 0
	// meaning grounded; vel positive = falling.
	altitude float64
	vel      float64
	grounded bool

	invulnRemaining float64
	magnetRemaining float64
	boostRemaining  float64
	cooldowns       map[Ability]float64
}

// NewInstance creates a run instance from a definition template.
func NewInstance(def *Definition, phys config.PhysicsConfig) *Instance {
	return &Instance{
		def:       def,
		phys:      phys,
		grounded:  true,
		cooldowns: make(map[Ability]float64, len(def.Abilities)),
	}
}

// Definition returns the shared template this instance was created from.
func (b *Instance) Definition() *Definition { return b.def }

// Tick advances all timers by dt seconds: cooldowns and effect windows decay
// toward zero (never below), and vertical physics integrates.
func (b *Instance) Tick(dt float64) {
	if dt <= 0 {
		return
	}

	for a, remaining := range b.cooldowns {
		b.cooldowns[a] = core.ClampF(remaining-dt, 0, remaining)
	}
	b.invulnRemaining = core.ClampF(b.invulnRemaining-dt, 0, b.invulnRemaining)
	b.magnetRemaining = core.ClampF(b.magnetRemaining-dt, 0, b.magnetRemaining)
	b.boostRemaining = core.ClampF(b.boostRemaining-dt, 0, b.boostRemaining)

	if !b.grounded {
		b.vel += b.phys.Gravity * dt
		if b.vel > b.phys.MaxFallSpeed {
			b.vel = b.phys.MaxFallSpeed
		}
		b.altitude += b.vel * dt
		if b.altitude >= 0 {
			b.altitude = 0
			b.vel = 0
			b.grounded = true
		}
	}
}

// Jump performs the ordinary ground jump. Returns false while airborne;
// mid-air jumps go through the DoubleJump ability.
func (b *Instance) Jump() bool {
	if !b.grounded {
		return false
	}
	b.vel = b.phys.JumpImpulse
	b.grounded = false
	return true
}

// TryUseAbility attempts to invoke an ability. It fails silently (returns
// false, no state change) when the bot does not have the ability, the
// cooldown has not reached zero, or the ability's precondition does not hold.
// On success the effect is applied and the fixed cooldown committed.
func (b *Instance) TryUseAbility(a Ability) bool {
	if !b.def.HasAbility(a) {
		return false
	}
	sp, ok := abilityTable[a]
	if !ok {
		return false
	}
	if b.cooldowns[a] > 0 {
		return false
	}
	if sp.precondition != nil && !sp.precondition(b) {
		return false
	}
	sp.effect(b)
	b.cooldowns[a] = sp.cooldown
	return true
}

// CooldownRemaining returns the remaining cooldown for an ability in seconds.
func (b *Instance) CooldownRemaining(a Ability) float64 {
	return b.cooldowns[a]
}

// IsGrounded reports whether the bot is on the ground.
func (b *Instance) IsGrounded() bool { return b.grounded }

// IsInvulnerable reports whether a shield window is active.
func (b *Instance) IsInvulnerable() bool { return b.invulnRemaining > 0 }

// InvulnerabilityRemaining returns the remaining shield window in seconds.
func (b *Instance) InvulnerabilityRemaining() float64 { return b.invulnRemaining }

// MagnetActive reports whether a magnetic-field window is active.
func (b *Instance) MagnetActive() bool { return b.magnetRemaining > 0 }

// BoostActive reports whether a speed-boost window is active.
func (b *Instance) BoostActive() bool { return b.boostRemaining > 0 }

// SpeedMultiplier returns the current horizontal speed multiplier: the
// definition's factor, times the boost factor while a boost is active.
func (b *Instance) SpeedMultiplier() float64 {
	m := b.def.SpeedFactor
	if b.BoostActive() {
		m *= SpeedBoostFactor
	}
	return m
}

// AltitudeCells returns the bot's height above ground in whole cells.
func (b *Instance) AltitudeCells() int {
	return int(-b.altitude)
}

// GrantInvulnerability opens (or extends) a shield window without touching
// any cooldown. Used for externally granted protection, e.g. a revive.
func (b *Instance) GrantInvulnerability(seconds float64) {
	if seconds > b.invulnRemaining {
		b.invulnRemaining = seconds
	}
}

// GrantBoost opens (or extends) a speed-boost window without touching any
// cooldown.
func (b *Instance) GrantBoost(seconds float64) {
	if seconds > b.boostRemaining {
		b.boostRemaining = seconds
	}
}

// SurvivesObstacleHit reports whether an obstacle collision is absorbed.
// A collision during a shield window is ignored entirely; otherwise it is
// fatal to the run. Collectible pickups never consult this.
func (b *Instance) SurvivesObstacleHit() bool {
	return b.IsInvulnerable()
}
