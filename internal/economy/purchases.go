package economy

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
)

// ErrUnknownProduct is returned for a product id missing from the catalog.
// The storefront must NOT consume/finalize the platform receipt on this
// error so the money stays recoverable by support.
var ErrUnknownProduct = errors.New("economy: unknown product")

// Entitlement ids persisted by benefit application.
const (
	EntitlementRemoveAds = "remove_ads"

	entitlementBotPrefix     = "bot:"
	entitlementUpgradePrefix = "upgrade:"
)

// BotEntitlement returns the entitlement id for an unlocked bot.
func BotEntitlement(botID string) string { return entitlementBotPrefix + botID }

// UpgradeEntitlement returns the entitlement id for a permanent upgrade.
func UpgradeEntitlement(upgradeID string) string { return entitlementUpgradePrefix + upgradeID }

// PurchaseStore persists purchase records, entitlements, and the profile.
// *storage.Store satisfies it.
type PurchaseStore interface {
	InsertPurchase(transactionID, productID string) error
	MarkBenefitApplied(transactionID string) error
	PurchaseByTransaction(transactionID string) (*storage.PurchaseRecord, error)
	PendingPurchases() ([]storage.PurchaseRecord, error)
	GrantEntitlement(id string) error
	HasEntitlement(id string) (bool, error)
	LoadProfile() (storage.Profile, error)
	SaveProfile(storage.Profile) error
}

// Processor handles store purchase callbacks. Processing is idempotent per
// transaction id: a record is persisted before the benefit is applied, so a
// crash between the two is recoverable, and a retried callback for an
// already-applied transaction is a successful no-op.
type Processor struct {
	mu      sync.Mutex
	catalog *Catalog
	ledger  *Ledger
	store   PurchaseStore
	emitter telemetry.Emitter
	logger  *log.Logger
	now     func() time.Time
}

// NewProcessor creates a purchase processor.
func NewProcessor(catalog *Catalog, ledger *Ledger, store PurchaseStore, emitter telemetry.Emitter, logger *log.Logger) *Processor {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &Processor{
		catalog: catalog,
		ledger:  ledger,
		store:   store,
		emitter: emitter,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the wall clock, for tests.
func (p *Processor) SetClock(now func() time.Time) { p.now = now }

// ProcessPurchase applies the benefit for a completed store transaction.
// A nil return means the storefront may finalize the receipt; any error
// means it must not.
func (p *Processor) ProcessPurchase(transactionID, productID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.store.PurchaseByTransaction(transactionID)
	if err != nil {
		return err
	}
	if existing != nil && existing.BenefitApplied {
		// Retried store callback. Already successful, nothing to reapply.
		if p.logger != nil {
			p.logger.Info("purchase already processed", "transaction", transactionID, "product", existing.ProductID)
		}
		p.emitter.Emit("purchase_duplicate", map[string]any{
			"transaction_id": transactionID,
			"product_id":     existing.ProductID,
		})
		return nil
	}

	product, ok := p.catalog.Get(productID)
	if !ok {
		// Integrity-critical: log and leave the transaction unfinalized
		// for manual reconciliation. Never silently swallow the money.
		if p.logger != nil {
			p.logger.Error("purchase for unknown product", "transaction", transactionID, "product", productID)
		}
		p.emitter.Emit("purchase_unknown_product", map[string]any{
			"transaction_id": transactionID,
			"product_id":     productID,
		})
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	// Persist the record before applying the benefit. A crash after this
	// point leaves a benefit_applied=false row that RecoverPending resumes.
	if existing == nil {
		if err := p.store.InsertPurchase(transactionID, productID); err != nil {
			return err
		}
	}

	if err := p.applyBenefit(product); err != nil {
		return err
	}

	if err := p.store.MarkBenefitApplied(transactionID); err != nil {
		return err
	}

	p.emitter.Emit("purchase_processed", map[string]any{
		"transaction_id":    transactionID,
		"product_id":        product.ID,
		"benefit":           product.Benefit.String(),
		"revenue_usd_cents": product.PriceUSDCents,
	})
	return nil
}

// RecoverPending resumes purchases that were persisted but whose benefit was
// never applied (crash between the two persists). Returns how many were
// recovered.
func (p *Processor) RecoverPending() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.store.PendingPurchases()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, rec := range pending {
		product, ok := p.catalog.Get(rec.ProductID)
		if !ok {
			if p.logger != nil {
				p.logger.Error("pending purchase references unknown product", "transaction", rec.TransactionID, "product", rec.ProductID)
			}
			continue
		}
		if err := p.applyBenefit(product); err != nil {
			return recovered, err
		}
		if err := p.store.MarkBenefitApplied(rec.TransactionID); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

func (p *Processor) applyBenefit(product Product) error {
	switch product.Benefit {
	case BenefitGrantCurrency:
		return p.ledger.Grant(product.Currency, product.Amount, "iap:"+product.ID)
	case BenefitRemoveAds:
		return p.store.GrantEntitlement(EntitlementRemoveAds)
	case BenefitUnlockBot:
		return p.store.GrantEntitlement(BotEntitlement(product.BotID))
	case BenefitPermanentUpgrade:
		return p.store.GrantEntitlement(UpgradeEntitlement(product.UpgradeID))
	case BenefitSeasonPass:
		return p.extendSeasonPass(product.DurationDays)
	default:
		return fmt.Errorf("economy: unhandled benefit %v", product.Benefit)
	}
}

// extendSeasonPass computes expiry as now + duration, stacking on top of an
// unexpired pass.
func (p *Processor) extendSeasonPass(durationDays int) error {
	profile, err := p.store.LoadProfile()
	if err != nil {
		return err
	}

	base := p.now()
	if profile.SeasonPassUntil.After(base) {
		base = profile.SeasonPassUntil
	}
	profile.SeasonPassUntil = base.Add(time.Duration(durationDays) * 24 * time.Hour)

	return p.store.SaveProfile(profile)
}

// HasRemovedAds reports whether the remove-ads entitlement is owned.
func (p *Processor) HasRemovedAds() bool {
	has, err := p.store.HasEntitlement(EntitlementRemoveAds)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("cannot read entitlement", "error", err)
		}
		return false
	}
	return has
}

// BotUnlocked reports whether a bot unlock entitlement is owned.
func (p *Processor) BotUnlocked(botID string) bool {
	has, err := p.store.HasEntitlement(BotEntitlement(botID))
	if err != nil {
		return false
	}
	return has
}

// SeasonPassActive evaluates the pass against the wall clock at call time.
// The result is never cached; a pass must expire without a restart.
func (p *Processor) SeasonPassActive() bool {
	profile, err := p.store.LoadProfile()
	if err != nil {
		return false
	}
	return p.now().Before(profile.SeasonPassUntil)
}
