// Package economy implements the multi-currency ledger and the idempotent
// purchase processor. The ledger is the one piece of state reachable from
// both the simulation tick and boundary callbacks (store, ad SDK), so its
// mutations are serialized behind a mutex; everything else in the system is
// single-threaded.
package economy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/unit4productions/botrun/internal/telemetry"
)

// Kind identifies a currency.
type Kind int

const (
	Primary   Kind = iota // Score-derived, granted 1:1 with score
	Secondary             // Collectible-derived coins
	Premium               // Purchase-only currency
)

// String returns the storage/wire name of the currency kind.
func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Premium:
		return "premium"
	default:
		return "unknown"
	}
}

// ParseKind converts a config/storage name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "primary":
		return Primary, nil
	case "secondary":
		return Secondary, nil
	case "premium":
		return Premium, nil
	default:
		return 0, fmt.Errorf("economy: unknown currency kind %q", name)
	}
}

// Kinds lists all currency kinds.
var Kinds = []Kind{Primary, Secondary, Premium}

// ErrInvalidAmount is returned when a grant amount is not positive.
var ErrInvalidAmount = errors.New("economy: grant amount must be positive")

// WalletStore persists balances. Save must be durable before returning.
type WalletStore interface {
	Balances() (map[string]int64, error)
	SetBalance(kind string, balance int64) error
}

// ChangeFunc observes a balance change after it has been applied.
type ChangeFunc func(kind Kind, balance int64, source string)

// Ledger holds the player's balances. All mutation goes through Grant and
// Spend; the two are atomic with respect to each other.
type Ledger struct {
	mu        sync.Mutex
	balances  map[Kind]int64
	store     WalletStore
	emitter   telemetry.Emitter
	logger    *log.Logger
	observers []ChangeFunc
}

// NewLedger loads balances from the store. A persisted negative balance
// means corruption; the recovery is to reset that balance to zero and log
// it, not to crash.
func NewLedger(store WalletStore, emitter telemetry.Emitter, logger *log.Logger) (*Ledger, error) {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}

	l := &Ledger{
		balances: make(map[Kind]int64, len(Kinds)),
		store:    store,
		emitter:  emitter,
		logger:   logger,
	}

	persisted, err := store.Balances()
	if err != nil {
		return nil, fmt.Errorf("economy: cannot load balances: %w", err)
	}

	for _, kind := range Kinds {
		balance := persisted[kind.String()]
		if balance < 0 {
			if logger != nil {
				logger.Error("corrupted balance reset to zero", "kind", kind.String(), "was", balance)
			}
			balance = 0
			if err := store.SetBalance(kind.String(), 0); err != nil {
				return nil, fmt.Errorf("economy: cannot reset corrupted balance: %w", err)
			}
		}
		l.balances[kind] = balance
	}

	return l, nil
}

// Subscribe registers an observer called after every balance mutation.
func (l *Ledger) Subscribe(fn ChangeFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Balance returns the current balance for a kind.
func (l *Ledger) Balance(kind Kind) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[kind]
}

// Grant adds amount to a balance. The amount must be positive; anything else
// is a caller error and mutates nothing. The new balance is persisted before
// Grant returns.
func (l *Ledger) Grant(kind Kind, amount int64, source string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balances[kind] + amount
	if err := l.store.SetBalance(kind.String(), next); err != nil {
		return fmt.Errorf("economy: cannot persist grant: %w", err)
	}
	l.balances[kind] = next

	l.emitter.Emit("currency_granted", map[string]any{
		"currency_type": kind.String(),
		"amount":        amount,
		"balance":       next,
		"source":        source,
	})
	l.notify(kind, next, source)
	return nil
}

// Spend removes amount from a balance. Returns false (and mutates nothing)
// when the balance is insufficient. This is the only path that prevents
// negative balances.
func (l *Ledger) Spend(kind Kind, amount int64) bool {
	if amount <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balances[kind]
	if current < amount {
		return false
	}

	next := current - amount
	if err := l.store.SetBalance(kind.String(), next); err != nil {
		// A spend that cannot be persisted did not happen. Same contract
		// as Grant: the new balance is durable before the call returns.
		if l.logger != nil {
			l.logger.Error("cannot persist spend", "kind", kind.String(), "error", err)
		}
		return false
	}
	l.balances[kind] = next

	l.emitter.Emit("currency_spent", map[string]any{
		"currency_type": kind.String(),
		"amount":        amount,
		"remaining":     next,
	})
	l.notify(kind, next, "spend")
	return true
}

// notify runs observers after the mutation, never before. Callers hold the
// mutex; observers must not call back into the ledger.
func (l *Ledger) notify(kind Kind, balance int64, source string) {
	for _, fn := range l.observers {
		fn(kind, balance, source)
	}
}
