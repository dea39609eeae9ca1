// Package bot implements the bot roster and the per-run ability/cooldown
// engine. A Definition is static shared config; an Instance is the mutable
// state of one bot during one run.
package bot

import (
	"fmt"
	"sort"

	"github.com/unit4productions/botrun/internal/config"
)

// Definition is the static, read-only template a run instance is created
// from.
type Definition struct {
	ID          string
	Name        string
	Abilities   []Ability
	SpeedFactor float64
	Locked      bool // Locked definitions need an unlock entitlement
}

// HasAbility reports whether the definition carries the given ability.
func (d *Definition) HasAbility(a Ability) bool {
	for _, ab := range d.Abilities {
		if ab == a {
			return true
		}
	}
	return false
}

// Roster is the set of available bot definitions, loaded from config.
type Roster struct {
	defs map[string]*Definition
}

// NewRoster builds a roster from config. Unknown ability names are an error;
// the roster is config-driven and a typo should fail loudly at startup.
func NewRoster(cfg config.BotsConfig) (*Roster, error) {
	r := &Roster{defs: make(map[string]*Definition, len(cfg.Bots))}
	for _, bc := range cfg.Bots {
		if bc.ID == "" {
			return nil, fmt.Errorf("bot: roster entry with empty id")
		}
		if _, exists := r.defs[bc.ID]; exists {
			return nil, fmt.Errorf("bot: duplicate roster id %q", bc.ID)
		}
		def := &Definition{
			ID:          bc.ID,
			Name:        bc.Name,
			SpeedFactor: bc.SpeedFactor,
			Locked:      bc.Locked,
		}
		if def.SpeedFactor <= 0 {
			def.SpeedFactor = 1.0
		}
		for _, name := range bc.Abilities {
			a, err := ParseAbility(name)
			if err != nil {
				return nil, fmt.Errorf("bot: roster entry %q: %w", bc.ID, err)
			}
			def.Abilities = append(def.Abilities, a)
		}
		r.defs[bc.ID] = def
	}
	return r, nil
}

// Get returns a definition by id.
func (r *Roster) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// List returns all definitions sorted by id.
func (r *Roster) List() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
