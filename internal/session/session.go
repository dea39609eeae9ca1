package session

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/unit4productions/botrun/internal/ads"
	"github.com/unit4productions/botrun/internal/bot"
	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/core"
	"github.com/unit4productions/botrun/internal/economy"
	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
	"github.com/unit4productions/botrun/internal/track"
)

// ErrBotLocked is returned when a run is started with a bot whose unlock has
// not been purchased.
var ErrBotLocked = errors.New("session: bot is locked")

// Reward windows applied outside the ability system.
const (
	ReviveShieldSeconds  = 3.0
	RewardBoostSeconds   = 4.0
	RewardExtraCoinValue = 25
)

// RunStore persists finished runs and the profile's high score.
// *storage.Store satisfies it.
type RunStore interface {
	SaveRun(runID, botID string, score, durationSecs int) error
	LoadProfile() (storage.Profile, error)
	SaveProfile(storage.Profile) error
}

// Session drives the whole game loop: state transitions, the active run's
// per-frame simulation, and the end-of-run bookkeeping. It is
// single-threaded; all calls must come from the same goroutine as Advance.
type Session struct {
	cfg     config.GameConfig
	runtime core.RuntimeConfig
	roster  *bot.Roster

	ledger  *economy.Ledger
	gate    *ads.Gate
	store   RunStore
	emitter telemetry.Emitter
	logger  *log.Logger

	// unlocked consults purchased entitlements for locked roster entries.
	unlocked func(botID string) bool

	state     State
	listeners []Listener

	// adSlot, when set, runs at the end of every game over, after the
	// ad-gate counters have moved.
	adSlot func()

	// Active run state, valid only between StartGame and the GameOver
	// transition.
	runID          string
	bot            *bot.Instance
	field          *track.Field
	score          int
	scoreAccum     float64
	coins          int
	elapsed        float64
	runsStarted    int64
	sessionCounted bool

	// coinMultiplier applies to collectible grants for the current (or next)
	// run; a rewarded double-coins video sets it to 2 and EndGame resets it.
	coinMultiplier int
}

// New creates a session in the main menu. unlocked may be nil, which keeps
// every locked bot locked.
func New(cfg config.GameConfig, runtime core.RuntimeConfig, roster *bot.Roster, ledger *economy.Ledger, gate *ads.Gate, store RunStore, unlocked func(string) bool, emitter telemetry.Emitter, logger *log.Logger) *Session {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	if unlocked == nil {
		unlocked = func(string) bool { return false }
	}
	return &Session{
		cfg:            cfg,
		runtime:        runtime,
		roster:         roster,
		ledger:         ledger,
		gate:           gate,
		store:          store,
		unlocked:       unlocked,
		emitter:        emitter,
		logger:         logger,
		state:          StateMainMenu,
		coinMultiplier: 1,
	}
}

// Subscribe registers a listener for session events.
func (s *Session) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// SetAdSlot registers the between-runs ad hook. EndGame invokes it after the
// gate counters have moved, so an eligibility check inside the hook already
// counts the run that just ended.
func (s *Session) SetAdSlot(fn func()) { s.adSlot = fn }

// State returns the current state machine node.
func (s *Session) State() State { return s.state }

// Score returns the current run's score.
func (s *Session) Score() int { return s.score }

// CoinsCollected returns the current run's collectible count.
func (s *Session) CoinsCollected() int { return s.coins }

// Elapsed returns the current run's play time in seconds, pauses excluded.
func (s *Session) Elapsed() float64 { return s.elapsed }

// Bot returns the active run's bot instance, nil outside a run.
func (s *Session) Bot() *bot.Instance { return s.bot }

// Field returns the active run's track field, nil outside a run.
func (s *Session) Field() *track.Field { return s.field }

// Roster returns the bot roster.
func (s *Session) Roster() *bot.Roster { return s.roster }

// BotAvailable reports whether a roster entry can be selected: either it
// ships unlocked or its unlock was purchased.
func (s *Session) BotAvailable(botID string) bool {
	def, ok := s.roster.Get(botID)
	if !ok {
		return false
	}
	return !def.Locked || s.unlocked(botID)
}

// To performs a plain state transition. Transitions with run side effects
// (StartGame, EndGame) have their own entry points and are rejected here.
func (s *Session) To(next State) error {
	if next == StatePlaying || next == StateGameOver {
		return &InvalidTransitionError{From: s.state, To: next}
	}
	return s.transition(next)
}

func (s *Session) transition(next State) error {
	if !canTransition(s.state, next) {
		return &InvalidTransitionError{From: s.state, To: next}
	}
	prev := s.state
	s.state = next
	s.emitter.Emit("state_changed", map[string]any{
		"from": prev.String(),
		"to":   next.String(),
	})
	for _, l := range s.listeners {
		l.OnGameStateChanged(prev, next)
	}
	return nil
}

// StartGame begins a run with the given bot. Valid from MainMenu (quick
// start), BotSelection, and GameOver (restart). A locked bot without a
// purchased unlock is rejected before any state changes.
func (s *Session) StartGame(botID string) error {
	if !canTransition(s.state, StatePlaying) {
		return &InvalidTransitionError{From: s.state, To: StatePlaying}
	}

	def, ok := s.roster.Get(botID)
	if !ok {
		return fmt.Errorf("session: unknown bot %q", botID)
	}
	if def.Locked && !s.unlocked(botID) {
		return fmt.Errorf("%w: %s", ErrBotLocked, botID)
	}

	s.runID = uuid.NewString()
	s.bot = bot.NewInstance(def, s.cfg.Physics)
	// Each run reseeds from the base seed plus a run counter so a whole
	// session stays reproducible while runs differ.
	s.field = track.NewField(s.runtime.Seed+s.runsStarted, s.runtime.ScreenW, s.cfg.Track)
	s.runsStarted++
	s.score = 0
	s.scoreAccum = 0
	s.coins = 0
	s.elapsed = 0
	s.sessionCounted = false

	if err := s.transition(StatePlaying); err != nil {
		return err
	}
	s.emitter.Emit("session_start", map[string]any{
		"run_id": s.runID,
		"bot_id": botID,
	})
	if s.logger != nil {
		s.logger.Info("run started", "run", s.runID, "bot", botID)
	}
	return nil
}

// Pause suspends the run. Simulation time stops; cooldowns and effect
// windows freeze because Advance is not called while paused.
func (s *Session) Pause() error {
	return s.transition(StatePaused)
}

// Resume continues a paused run.
func (s *Session) Resume() error {
	if s.state != StatePaused {
		return &InvalidTransitionError{From: s.state, To: StatePlaying}
	}
	s.state = StatePlaying
	for _, l := range s.listeners {
		l.OnGameStateChanged(StatePaused, StatePlaying)
	}
	return nil
}

// Jump performs the ground jump. Ignored outside Playing.
func (s *Session) Jump() bool {
	if s.state != StatePlaying {
		return false
	}
	return s.bot.Jump()
}

// UseAbility invokes an ability on the active bot. Ignored outside Playing.
func (s *Session) UseAbility(a bot.Ability) bool {
	if s.state != StatePlaying {
		return false
	}
	used := s.bot.TryUseAbility(a)
	if used {
		s.emitter.Emit("ability_used", map[string]any{
			"run_id":  s.runID,
			"ability": a.String(),
		})
	}
	return used
}

// AddScore adds points to the run score and grants Primary 1:1 with them.
// A no-op outside Playing; the ledger is never touched from a dead run.
func (s *Session) AddScore(points int) {
	if s.state != StatePlaying || points <= 0 {
		return
	}
	s.score += points
	if err := s.ledger.Grant(economy.Primary, int64(points), "score"); err != nil && s.logger != nil {
		s.logger.Error("cannot grant score currency", "error", err)
	}
	for _, l := range s.listeners {
		l.OnScoreChanged(s.score)
	}
}

// Advance steps the simulation by dt seconds. A no-op in every state but
// Playing, which is what freezes the run while paused.
func (s *Session) Advance(dt float64) {
	if s.state != StatePlaying || dt <= 0 {
		return
	}

	s.elapsed += dt
	s.bot.Tick(dt)

	speed := s.cfg.Physics.BaseSpeed * s.bot.SpeedMultiplier()
	s.field.Advance(speed * dt)

	// Survival score accrues fractionally and is granted in whole points.
	s.scoreAccum += s.cfg.Rewards.ScoreRate * dt
	if whole := int(s.scoreAccum); whole > 0 {
		s.scoreAccum -= float64(whole)
		s.AddScore(whole)
	}

	groundY := s.groundY()
	player := track.PlayerRect(groundY, s.bot.AltitudeCells())

	if picked := s.field.CollectCoins(player, groundY, s.bot.MagnetActive()); picked > 0 {
		s.coins += picked
		amount := int64(picked * s.cfg.Rewards.CoinValue * s.coinMultiplier)
		if err := s.ledger.Grant(economy.Secondary, amount, "coin_pickup"); err != nil && s.logger != nil {
			s.logger.Error("cannot grant coin currency", "error", err)
		}
	}

	if s.field.HitsObstacle(player, groundY) && !s.bot.SurvivesObstacleHit() {
		s.EndGame()
	}
}

// EndGame finishes the run: persists it, updates the high score, bumps the
// ad-gate session counters, and transitions to GameOver. Listener order is
// state change first, then the run summary; the ad slot fires last.
func (s *Session) EndGame() error {
	if s.state != StatePlaying && s.state != StatePaused {
		return &InvalidTransitionError{From: s.state, To: StateGameOver}
	}

	summary := RunSummary{
		RunID:    s.runID,
		BotID:    s.bot.Definition().ID,
		Score:    s.score,
		Duration: s.elapsed,
		Coins:    s.coins,
	}

	profile, err := s.store.LoadProfile()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("cannot load profile at game over", "error", err)
		}
	} else {
		summary.HighScore = profile.HighScore
		if s.score > profile.HighScore {
			profile.HighScore = s.score
			summary.HighScore = s.score
			summary.NewRecord = true
			if err := s.store.SaveProfile(profile); err != nil && s.logger != nil {
				s.logger.Error("cannot save high score", "error", err)
			}
		}
	}

	if err := s.store.SaveRun(s.runID, summary.BotID, s.score, int(s.elapsed)); err != nil && s.logger != nil {
		s.logger.Error("cannot save run", "error", err)
	}

	// The counters move before the ad slot fires, so the run that just
	// ended counts toward eligibility. They move once per logical run: an
	// ending after a revive is still the same play session.
	if !s.sessionCounted {
		if err := s.gate.RecordSessionEnd(); err != nil && s.logger != nil {
			s.logger.Error("cannot record session end", "error", err)
		}
		s.sessionCounted = true
	}

	s.coinMultiplier = 1

	if err := s.transition(StateGameOver); err != nil && s.logger != nil {
		s.logger.Error("game over transition failed", "error", err)
	}
	s.emitter.Emit("session_end", map[string]any{
		"run_id":   summary.RunID,
		"bot_id":   summary.BotID,
		"score":    summary.Score,
		"coins":    summary.Coins,
		"duration": summary.Duration,
		"record":   summary.NewRecord,
	})
	for _, l := range s.listeners {
		l.OnGameOver(summary)
	}

	if s.adSlot != nil {
		s.adSlot()
	}
	return nil
}

// ApplyReward applies a completed rewarded video's benefit. Rewards that
// need a live run are dropped silently when no run is active.
func (s *Session) ApplyReward(ctx ads.RewardContext) {
	switch ctx {
	case ads.RewardExtraCoins:
		if err := s.ledger.Grant(economy.Secondary, RewardExtraCoinValue, "rewarded:extra_coins"); err != nil && s.logger != nil {
			s.logger.Error("cannot grant rewarded coins", "error", err)
		}
	case ads.RewardDoubleCoins:
		s.coinMultiplier = 2
	case ads.RewardExtraLife:
		s.Revive()
	case ads.RewardSpeedBoost:
		if s.state == StatePlaying {
			s.bot.GrantBoost(RewardBoostSeconds)
		}
	case ads.RewardShield:
		if s.state == StatePlaying {
			s.bot.GrantInvulnerability(ReviveShieldSeconds)
		}
	case ads.RewardUnlockBot:
		// Unlock routing needs the store catalog; the composition layer
		// handles it before the reward reaches the session.
	}
}

// Revive resumes a just-ended run from GameOver with a short shield so the
// bot is not immediately killed by the obstacle it died on.
func (s *Session) Revive() bool {
	if s.state != StateGameOver || s.bot == nil {
		return false
	}
	s.bot.GrantInvulnerability(ReviveShieldSeconds)
	s.state = StatePlaying
	s.emitter.Emit("session_revived", map[string]any{"run_id": s.runID})
	for _, l := range s.listeners {
		l.OnGameStateChanged(StateGameOver, StatePlaying)
	}
	return true
}

func (s *Session) groundY() int {
	return s.runtime.ScreenH - 2
}
