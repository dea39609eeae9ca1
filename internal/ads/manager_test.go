package ads

import (
	"testing"
	"time"

	"github.com/unit4productions/botrun/internal/telemetry"
)

type supplyCall struct {
	op        string // "load" or "show"
	placement Placement
}

// recordingSupply captures requests without fulfilling them; tests drive the
// manager's callbacks by hand.
type recordingSupply struct {
	calls []supplyCall
}

func (s *recordingSupply) RequestLoad(p Placement) {
	s.calls = append(s.calls, supplyCall{"load", p})
}

func (s *recordingSupply) RequestShow(p Placement) {
	s.calls = append(s.calls, supplyCall{"show", p})
}

func (s *recordingSupply) count(op string, p Placement) int {
	n := 0
	for _, c := range s.calls {
		if c.op == op && c.placement == p {
			n++
		}
	}
	return n
}

type scheduledRetry struct {
	delay time.Duration
	fn    func()
}

type manualScheduler struct {
	pending []scheduledRetry
}

func (s *manualScheduler) schedule(delay time.Duration, fn func()) {
	s.pending = append(s.pending, scheduledRetry{delay, fn})
}

func (s *manualScheduler) fireAll() {
	pending := s.pending
	s.pending = nil
	for _, r := range pending {
		r.fn()
	}
}

type managerFixture struct {
	supply    *recordingSupply
	scheduler *manualScheduler
	gate      *Gate
	manager   *Manager
	recorder  *telemetry.Recorder
	rewards   []RewardContext
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		supply:    &recordingSupply{},
		scheduler: &manualScheduler{},
		recorder:  &telemetry.Recorder{},
	}
	f.gate = NewGate(openTestStore(t), nil, f.recorder, nil)
	f.manager = NewManager(f.supply, f.gate, func(ctx RewardContext) {
		f.rewards = append(f.rewards, ctx)
	}, f.recorder, nil)
	f.manager.SetScheduler(f.scheduler.schedule)
	return f
}

func TestLoadFailureRetriesAtFixedDelay(t *testing.T) {
	f := newManagerFixture(t)

	f.manager.Load(PlacementBanner)
	f.manager.OnAdLoadFailed(PlacementBanner, "no fill")

	if len(f.scheduler.pending) != 1 {
		t.Fatalf("expected 1 scheduled retry, got %d", len(f.scheduler.pending))
	}
	if got := f.scheduler.pending[0].delay; got != BannerRetryDelay {
		t.Errorf("banner retry delay = %v, expected %v", got, BannerRetryDelay)
	}

	// The delay is constant across consecutive failures, not exponential.
	f.scheduler.fireAll()
	f.manager.OnAdLoadFailed(PlacementBanner, "no fill")
	if got := f.scheduler.pending[0].delay; got != BannerRetryDelay {
		t.Errorf("second banner retry delay = %v, expected %v", got, BannerRetryDelay)
	}

	f.manager.Load(PlacementInterstitial)
	f.manager.OnAdLoadFailed(PlacementInterstitial, "no fill")
	last := f.scheduler.pending[len(f.scheduler.pending)-1]
	if last.delay != InterstitialRetryDelay {
		t.Errorf("interstitial retry delay = %v, expected %v", last.delay, InterstitialRetryDelay)
	}

	f.scheduler.fireAll()
	if got := f.supply.count("load", PlacementBanner); got != 3 {
		t.Errorf("banner load requests = %d, expected 3", got)
	}
}

func TestLoadIsIdempotentWhenFilled(t *testing.T) {
	f := newManagerFixture(t)

	f.manager.Load(PlacementRewarded)
	f.manager.OnAdLoaded(PlacementRewarded)
	f.manager.Load(PlacementRewarded)

	if got := f.supply.count("load", PlacementRewarded); got != 1 {
		t.Errorf("load requests = %d, expected 1 (placement already filled)", got)
	}
	if !f.manager.Ready(PlacementRewarded) {
		t.Error("placement should be ready after OnAdLoaded")
	}
}

func TestRewardedGrantsOnlyOnCompletion(t *testing.T) {
	f := newManagerFixture(t)

	// Not loaded yet: show refuses and nothing is armed.
	if f.manager.ShowRewarded(RewardDoubleCoins) {
		t.Error("ShowRewarded should fail before load")
	}

	f.manager.OnAdLoaded(PlacementRewarded)
	if !f.manager.ShowRewarded(RewardDoubleCoins) {
		t.Fatal("ShowRewarded should succeed once loaded")
	}
	f.manager.OnAdShowComplete(PlacementRewarded, CompletionSkipped)
	if len(f.rewards) != 0 {
		t.Errorf("skipped video granted a reward: %v", f.rewards)
	}

	f.manager.OnAdLoaded(PlacementRewarded)
	if !f.manager.ShowRewarded(RewardExtraLife) {
		t.Fatal("ShowRewarded should succeed")
	}
	f.manager.OnAdShowComplete(PlacementRewarded, CompletionCompleted)
	if len(f.rewards) != 1 || f.rewards[0] != RewardExtraLife {
		t.Errorf("rewards = %v, expected [extra_life]", f.rewards)
	}

	// The placement is consumed and a reload was requested.
	if f.manager.Ready(PlacementRewarded) {
		t.Error("placement should be consumed after show")
	}
	if got := f.supply.count("load", PlacementRewarded); got < 2 {
		t.Errorf("expected reloads after shows, got %d load requests", got)
	}
}

func TestRewardedShowFailureDropsReward(t *testing.T) {
	f := newManagerFixture(t)

	f.manager.OnAdLoaded(PlacementRewarded)
	if !f.manager.ShowRewarded(RewardShield) {
		t.Fatal("ShowRewarded should succeed")
	}
	f.manager.OnAdShowFailed(PlacementRewarded, "display error")

	if len(f.rewards) != 0 {
		t.Errorf("failed show granted a reward: %v", f.rewards)
	}
	if len(f.scheduler.pending) != 1 || f.scheduler.pending[0].delay != RewardedRetryDelay {
		t.Errorf("expected one reload scheduled at %v", RewardedRetryDelay)
	}
}

func TestInterstitialShowRespectsGateAndMarks(t *testing.T) {
	f := newManagerFixture(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.gate.SetClock(func() time.Time { return clock })

	f.manager.OnAdLoaded(PlacementInterstitial)

	// Fresh profile: the gate refuses, no show request goes out.
	if f.manager.ShowInterstitialIfEligible() {
		t.Error("show requested against a closed gate")
	}
	if got := f.supply.count("show", PlacementInterstitial); got != 0 {
		t.Errorf("show requests = %d, expected 0", got)
	}

	endSessions(t, f.gate, 3)
	if !f.manager.ShowInterstitialIfEligible() {
		t.Fatal("show should be requested once eligible")
	}
	f.manager.OnAdShowComplete(PlacementInterstitial, CompletionCompleted)

	// The completed show reset the gate.
	if f.gate.InterstitialEligible() {
		t.Error("gate open immediately after a completed show")
	}
	if got := f.recorder.Count("interstitial_shown"); got != 1 {
		t.Errorf("interstitial_shown count = %d, expected 1", got)
	}
}

func TestInterstitialNotReadyRequestsLoad(t *testing.T) {
	f := newManagerFixture(t)
	endSessions(t, f.gate, 3)

	if f.manager.ShowInterstitialIfEligible() {
		t.Error("show should fail with nothing loaded")
	}
	if got := f.supply.count("load", PlacementInterstitial); got != 1 {
		t.Errorf("load requests = %d, expected 1", got)
	}
	// Eligibility is preserved for the next slot.
	if !f.gate.InterstitialEligible() {
		t.Error("a refused show must not consume eligibility")
	}
}
