package ads

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/unit4productions/botrun/internal/telemetry"
)

// Placement identifies an ad slot.
type Placement int

const (
	PlacementBanner Placement = iota
	PlacementInterstitial
	PlacementRewarded
)

// String returns the telemetry name of the placement.
func (p Placement) String() string {
	switch p {
	case PlacementBanner:
		return "banner"
	case PlacementInterstitial:
		return "interstitial"
	case PlacementRewarded:
		return "rewarded"
	default:
		return "unknown"
	}
}

// RewardContext says why a rewarded video was requested, which determines
// the reward applied on completion.
type RewardContext int

const (
	RewardExtraCoins RewardContext = iota
	RewardExtraLife
	RewardDoubleCoins
	RewardUnlockBot
	RewardSpeedBoost
	RewardShield
)

// String returns the telemetry name of the reward context.
func (r RewardContext) String() string {
	switch r {
	case RewardExtraCoins:
		return "extra_coins"
	case RewardExtraLife:
		return "extra_life"
	case RewardDoubleCoins:
		return "double_coins"
	case RewardUnlockBot:
		return "unlock_bot"
	case RewardSpeedBoost:
		return "speed_boost"
	case RewardShield:
		return "shield"
	default:
		return "unknown"
	}
}

// CompletionState is how a shown ad ended.
type CompletionState int

const (
	CompletionCompleted CompletionState = iota
	CompletionSkipped
	CompletionFailed
)

// Supply is the ad SDK boundary. Both calls are asynchronous; results arrive
// through the manager's OnAd* callbacks.
type Supply interface {
	RequestLoad(p Placement)
	RequestShow(p Placement)
}

// RewardFunc applies the reward for a completed rewarded video.
type RewardFunc func(ctx RewardContext)

// Load-retry delays. Failures retry at a fixed interval, not exponentially;
// ad fill is a capacity problem, not a congestion problem.
const (
	BannerRetryDelay       = 5 * time.Second
	InterstitialRetryDelay = 10 * time.Second
	RewardedRetryDelay     = 10 * time.Second
)

// Manager tracks per-placement load state, routes rewarded completions to
// their reward, and reschedules failed loads. It runs on the simulation
// goroutine; the supply must deliver callbacks there too.
type Manager struct {
	supply   Supply
	gate     *Gate
	reward   RewardFunc
	emitter  telemetry.Emitter
	logger   *log.Logger
	schedule func(delay time.Duration, fn func())

	loaded  map[Placement]bool
	retries map[Placement]backoff.BackOff

	pendingReward RewardContext
	rewardArmed   bool
}

// NewManager creates a manager. reward is invoked only for rewarded videos
// that complete; skipped or failed shows grant nothing.
func NewManager(supply Supply, gate *Gate, reward RewardFunc, emitter telemetry.Emitter, logger *log.Logger) *Manager {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	m := &Manager{
		supply:   supply,
		gate:     gate,
		reward:   reward,
		emitter:  emitter,
		logger:   logger,
		schedule: func(delay time.Duration, fn func()) { time.AfterFunc(delay, fn) },
		loaded:   make(map[Placement]bool),
		retries: map[Placement]backoff.BackOff{
			PlacementBanner:       backoff.NewConstantBackOff(BannerRetryDelay),
			PlacementInterstitial: backoff.NewConstantBackOff(InterstitialRetryDelay),
			PlacementRewarded:     backoff.NewConstantBackOff(RewardedRetryDelay),
		},
	}
	return m
}

// SetScheduler overrides the retry scheduler, for tests.
func (m *Manager) SetScheduler(schedule func(time.Duration, func())) { m.schedule = schedule }

// Preload requests a load for every placement that is not already loaded.
func (m *Manager) Preload() {
	for _, p := range []Placement{PlacementBanner, PlacementInterstitial, PlacementRewarded} {
		m.Load(p)
	}
}

// Load requests a load unless the placement is already filled.
func (m *Manager) Load(p Placement) {
	if m.loaded[p] {
		return
	}
	m.supply.RequestLoad(p)
}

// Ready reports whether the placement has a filled ad.
func (m *Manager) Ready(p Placement) bool { return m.loaded[p] }

// ShowInterstitialIfEligible shows an interstitial when the frequency gate
// allows it and one is loaded. Returns whether a show was requested.
func (m *Manager) ShowInterstitialIfEligible() bool {
	if !m.gate.InterstitialEligible() {
		return false
	}
	if !m.loaded[PlacementInterstitial] {
		m.emitter.Emit("interstitial_not_ready", nil)
		m.Load(PlacementInterstitial)
		return false
	}
	m.supply.RequestShow(PlacementInterstitial)
	return true
}

// ShowRewarded requests a rewarded video for the given context. Returns
// false without side effects when none is loaded.
func (m *Manager) ShowRewarded(ctx RewardContext) bool {
	if !m.loaded[PlacementRewarded] {
		m.emitter.Emit("rewarded_not_ready", map[string]any{"context": ctx.String()})
		m.Load(PlacementRewarded)
		return false
	}
	m.pendingReward = ctx
	m.rewardArmed = true
	m.supply.RequestShow(PlacementRewarded)
	return true
}

// OnAdLoaded is the supply's load-success callback.
func (m *Manager) OnAdLoaded(p Placement) {
	m.loaded[p] = true
	m.retries[p].Reset()
	m.emitter.Emit("ad_loaded", map[string]any{"placement": p.String()})
}

// OnAdLoadFailed is the supply's load-failure callback. The reload is
// rescheduled after the placement's fixed delay.
func (m *Manager) OnAdLoadFailed(p Placement, reason string) {
	m.loaded[p] = false
	delay := m.retries[p].NextBackOff()
	if m.logger != nil {
		m.logger.Warn("ad load failed", "placement", p.String(), "reason", reason, "retry_in", delay)
	}
	m.emitter.Emit("ad_load_failed", map[string]any{
		"placement": p.String(),
		"reason":    reason,
	})
	m.schedule(delay, func() { m.supply.RequestLoad(p) })
}

// OnAdShowComplete is the supply's show-finished callback. The placement is
// consumed and reloaded regardless of how the show ended; the reward fires
// only for a completed rewarded video.
func (m *Manager) OnAdShowComplete(p Placement, state CompletionState) {
	m.loaded[p] = false

	switch p {
	case PlacementInterstitial:
		if state != CompletionFailed {
			if err := m.gate.MarkInterstitialShown(); err != nil && m.logger != nil {
				m.logger.Error("cannot record interstitial show", "error", err)
			}
		}
	case PlacementRewarded:
		armed := m.rewardArmed
		ctx := m.pendingReward
		m.rewardArmed = false
		if armed && state == CompletionCompleted && m.reward != nil {
			m.reward(ctx)
			m.emitter.Emit("rewarded_completed", map[string]any{"context": ctx.String()})
		} else if armed {
			m.emitter.Emit("rewarded_abandoned", map[string]any{
				"context": ctx.String(),
				"state":   int(state),
			})
		}
	}

	m.supply.RequestLoad(p)
}

// OnAdShowFailed is the supply's show-failure callback. Any armed reward is
// dropped without granting.
func (m *Manager) OnAdShowFailed(p Placement, reason string) {
	m.loaded[p] = false
	m.rewardArmed = false
	if m.logger != nil {
		m.logger.Warn("ad show failed", "placement", p.String(), "reason", reason)
	}
	m.emitter.Emit("ad_show_failed", map[string]any{
		"placement": p.String(),
		"reason":    reason,
	})
	m.schedule(m.retries[p].NextBackOff(), func() { m.supply.RequestLoad(p) })
}
