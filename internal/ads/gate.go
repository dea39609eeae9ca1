// Package ads implements the ad frequency gate and the placement manager
// that routes load/show callbacks from an ad supply. Eligibility decisions
// are recomputed from the persisted profile on every check so they survive
// restarts.
package ads

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
)

// Interstitial frequency caps. All three must hold at once.
const (
	MinSessionsBetweenInterstitials    = 2
	MinIntervalBetweenInterstitials    = 60 * time.Second
	MinLifetimeSessionsForInterstitial = 3
)

// ProfileStore persists the ad-gating counters. *storage.Store satisfies it.
type ProfileStore interface {
	LoadProfile() (storage.Profile, error)
	SaveProfile(storage.Profile) error
}

// Gate decides when an interstitial may be shown. It never decides when one
// IS shown; callers ask for eligibility and report back with
// MarkInterstitialShown.
type Gate struct {
	store      ProfileStore
	adsRemoved func() bool
	emitter    telemetry.Emitter
	logger     *log.Logger
	now        func() time.Time
}

// NewGate creates a gate. adsRemoved is consulted on every eligibility check
// so a remove-ads purchase takes effect immediately; nil means ads are never
// removed.
func NewGate(store ProfileStore, adsRemoved func() bool, emitter telemetry.Emitter, logger *log.Logger) *Gate {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	if adsRemoved == nil {
		adsRemoved = func() bool { return false }
	}
	return &Gate{
		store:      store,
		adsRemoved: adsRemoved,
		emitter:    emitter,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock overrides the wall clock, for tests.
func (g *Gate) SetClock(now func() time.Time) { g.now = now }

// RecordSessionEnd increments the lifetime and since-last-interstitial
// session counters. Call it once per finished run, before checking
// eligibility for the between-sessions slot.
func (g *Gate) RecordSessionEnd() error {
	profile, err := g.store.LoadProfile()
	if err != nil {
		return err
	}
	profile.LifetimeSessions++
	profile.SessionsSinceInterstitial++
	return g.store.SaveProfile(profile)
}

// InterstitialEligible reports whether an interstitial may be shown right
// now. The caps are conjunctive: enough sessions since the last one, enough
// wall-clock time since the last one, and enough lifetime sessions overall.
// A remove-ads entitlement short-circuits everything.
func (g *Gate) InterstitialEligible() bool {
	if g.adsRemoved() {
		return false
	}

	profile, err := g.store.LoadProfile()
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("cannot load profile for ad gate", "error", err)
		}
		return false
	}

	if profile.SessionsSinceInterstitial < MinSessionsBetweenInterstitials {
		return false
	}
	if profile.LifetimeSessions < MinLifetimeSessionsForInterstitial {
		return false
	}
	// A zero LastInterstitialAt means none was ever shown, which satisfies
	// the interval cap trivially.
	if !profile.LastInterstitialAt.IsZero() &&
		g.now().Sub(profile.LastInterstitialAt) < MinIntervalBetweenInterstitials {
		return false
	}
	return true
}

// MarkInterstitialShown resets the session counter and stamps the show time.
// The lifetime counter is untouched.
func (g *Gate) MarkInterstitialShown() error {
	profile, err := g.store.LoadProfile()
	if err != nil {
		return err
	}
	profile.SessionsSinceInterstitial = 0
	profile.LastInterstitialAt = g.now()
	if err := g.store.SaveProfile(profile); err != nil {
		return err
	}
	g.emitter.Emit("interstitial_shown", map[string]any{
		"lifetime_sessions": profile.LifetimeSessions,
	})
	return nil
}
