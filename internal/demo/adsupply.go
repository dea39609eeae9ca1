// Package demo provides in-process stand-ins for the platform boundaries:
// an ad supply and a storefront. Both are deterministic and scriptable so
// the TUI and the CLI commands can exercise the full monetization flow
// without any SDK.
package demo

import (
	"github.com/unit4productions/botrun/internal/ads"
)

// AdSupply fulfills load and show requests synchronously. Each placement
// can be scripted to fail its next N loads; shows end with a configurable
// completion state.
type AdSupply struct {
	manager *ads.Manager

	failLoads    map[ads.Placement]int
	showOutcomes map[ads.Placement]ads.CompletionState
	loads        int
	shows        int
}

// NewAdSupply creates a supply with every load succeeding and every show
// completing.
func NewAdSupply() *AdSupply {
	return &AdSupply{
		failLoads:    make(map[ads.Placement]int),
		showOutcomes: make(map[ads.Placement]ads.CompletionState),
	}
}

// Bind attaches the manager that receives this supply's callbacks. Must be
// called before the first request.
func (s *AdSupply) Bind(m *ads.Manager) { s.manager = m }

// FailNextLoads scripts the next n loads of a placement to fail.
func (s *AdSupply) FailNextLoads(p ads.Placement, n int) { s.failLoads[p] = n }

// ScriptShowOutcome sets how future shows of a placement end.
func (s *AdSupply) ScriptShowOutcome(p ads.Placement, state ads.CompletionState) {
	s.showOutcomes[p] = state
}

// Loads returns how many load requests were received.
func (s *AdSupply) Loads() int { return s.loads }

// Shows returns how many show requests were received.
func (s *AdSupply) Shows() int { return s.shows }

// RequestLoad resolves the load immediately per the script.
func (s *AdSupply) RequestLoad(p ads.Placement) {
	s.loads++
	if s.failLoads[p] > 0 {
		s.failLoads[p]--
		s.manager.OnAdLoadFailed(p, "scripted no fill")
		return
	}
	s.manager.OnAdLoaded(p)
}

// RequestShow resolves the show immediately per the script.
func (s *AdSupply) RequestShow(p ads.Placement) {
	s.shows++
	s.manager.OnAdShowComplete(p, s.showOutcomes[p])
}
