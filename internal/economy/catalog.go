package economy

import (
	"fmt"
	"sort"

	"github.com/unit4productions/botrun/internal/config"
)

// BenefitKind classifies what a store product grants.
type BenefitKind int

const (
	BenefitRemoveAds BenefitKind = iota
	BenefitGrantCurrency
	BenefitUnlockBot
	BenefitPermanentUpgrade
	BenefitSeasonPass
)

// String returns the config name of the benefit kind.
func (b BenefitKind) String() string {
	switch b {
	case BenefitRemoveAds:
		return "remove_ads"
	case BenefitGrantCurrency:
		return "grant_currency"
	case BenefitUnlockBot:
		return "unlock_bot"
	case BenefitPermanentUpgrade:
		return "permanent_upgrade"
	case BenefitSeasonPass:
		return "season_pass"
	default:
		return "unknown"
	}
}

func parseBenefit(name string) (BenefitKind, error) {
	switch name {
	case "remove_ads":
		return BenefitRemoveAds, nil
	case "grant_currency":
		return BenefitGrantCurrency, nil
	case "unlock_bot":
		return BenefitUnlockBot, nil
	case "permanent_upgrade":
		return BenefitPermanentUpgrade, nil
	case "season_pass":
		return BenefitSeasonPass, nil
	default:
		return 0, fmt.Errorf("economy: unknown benefit %q", name)
	}
}

// Product is a static mapping from a store product id to a benefit. Products
// are config, never runtime-mutated.
type Product struct {
	ID            string
	Benefit       BenefitKind
	Currency      Kind // For BenefitGrantCurrency
	Amount        int64
	BotID         string // For BenefitUnlockBot
	UpgradeID     string // For BenefitPermanentUpgrade
	DurationDays  int    // For BenefitSeasonPass
	PriceUSDCents int
}

// Catalog is the validated set of purchasable products.
type Catalog struct {
	products map[string]Product
}

// NewCatalog builds a catalog from config. Malformed products fail loudly at
// startup rather than at purchase time.
func NewCatalog(cfg config.EconomyConfig) (*Catalog, error) {
	c := &Catalog{products: make(map[string]Product, len(cfg.Products))}
	for _, pc := range cfg.Products {
		if pc.ID == "" {
			return nil, fmt.Errorf("economy: product with empty id")
		}
		if _, exists := c.products[pc.ID]; exists {
			return nil, fmt.Errorf("economy: duplicate product id %q", pc.ID)
		}

		benefit, err := parseBenefit(pc.Benefit)
		if err != nil {
			return nil, fmt.Errorf("economy: product %q: %w", pc.ID, err)
		}

		p := Product{
			ID:            pc.ID,
			Benefit:       benefit,
			BotID:         pc.BotID,
			UpgradeID:     pc.UpgradeID,
			DurationDays:  pc.DurationDays,
			PriceUSDCents: pc.PriceUSDCents,
		}

		switch benefit {
		case BenefitGrantCurrency:
			kind, err := ParseKind(pc.Currency)
			if err != nil {
				return nil, fmt.Errorf("economy: product %q: %w", pc.ID, err)
			}
			if pc.Amount <= 0 {
				return nil, fmt.Errorf("economy: product %q: amount must be positive", pc.ID)
			}
			p.Currency = kind
			p.Amount = int64(pc.Amount)
		case BenefitUnlockBot:
			if pc.BotID == "" {
				return nil, fmt.Errorf("economy: product %q: unlock_bot needs bot_id", pc.ID)
			}
		case BenefitPermanentUpgrade:
			if pc.UpgradeID == "" {
				return nil, fmt.Errorf("economy: product %q: permanent_upgrade needs upgrade_id", pc.ID)
			}
		case BenefitSeasonPass:
			if pc.DurationDays <= 0 {
				return nil, fmt.Errorf("economy: product %q: season_pass needs duration_days", pc.ID)
			}
		}

		c.products[pc.ID] = p
	}
	return c, nil
}

// Get returns a product by store id.
func (c *Catalog) Get(id string) (Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// List returns all products sorted by id.
func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
