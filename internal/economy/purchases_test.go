package economy

import (
	"errors"
	"testing"
	"time"

	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
)

func testEconomyConfig() config.EconomyConfig {
	return config.EconomyConfig{
		Products: []config.ProductConfig{
			{ID: "remove_ads", Benefit: "remove_ads", PriceUSDCents: 299},
			{ID: "coins_small", Benefit: "grant_currency", Currency: "premium", Amount: 100, PriceUSDCents: 99},
			{ID: "unlock_magnetron", Benefit: "unlock_bot", BotID: "magnetron", PriceUSDCents: 499},
			{ID: "upgrade_turbo", Benefit: "permanent_upgrade", UpgradeID: "turbo", PriceUSDCents: 199},
			{ID: "season_pass", Benefit: "season_pass", DurationDays: 30, PriceUSDCents: 999},
		},
	}
}

type purchaseFixture struct {
	store     *storage.Store
	ledger    *Ledger
	processor *Processor
	recorder  *telemetry.Recorder
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	store := openTestStore(t)
	catalog, err := NewCatalog(testEconomyConfig())
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	rec := &telemetry.Recorder{}
	ledger, err := NewLedger(store, rec, nil)
	if err != nil {
		t.Fatalf("NewLedger() failed: %v", err)
	}
	return &purchaseFixture{
		store:     store,
		ledger:    ledger,
		processor: NewProcessor(catalog, ledger, store, rec, nil),
		recorder:  rec,
	}
}

func TestProcessPurchaseIsIdempotent(t *testing.T) {
	f := newPurchaseFixture(t)

	if err := f.processor.ProcessPurchase("tx-001", "remove_ads"); err != nil {
		t.Fatalf("first ProcessPurchase() failed: %v", err)
	}
	if !f.processor.HasRemovedAds() {
		t.Fatal("remove_ads entitlement not granted")
	}

	// Retried store callback with the same transaction id is a success no-op.
	if err := f.processor.ProcessPurchase("tx-001", "remove_ads"); err != nil {
		t.Fatalf("duplicate ProcessPurchase() should succeed, got %v", err)
	}
	if got := f.recorder.Count("purchase_processed"); got != 1 {
		t.Errorf("purchase_processed count = %d, expected 1", got)
	}
	if got := f.recorder.Count("purchase_duplicate"); got != 1 {
		t.Errorf("purchase_duplicate count = %d, expected 1", got)
	}
}

func TestProcessPurchaseGrantsCurrencyOnce(t *testing.T) {
	f := newPurchaseFixture(t)

	if err := f.processor.ProcessPurchase("tx-100", "coins_small"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	if err := f.processor.ProcessPurchase("tx-100", "coins_small"); err != nil {
		t.Fatalf("duplicate ProcessPurchase() failed: %v", err)
	}

	if got := f.ledger.Balance(Premium); got != 100 {
		t.Errorf("premium balance = %d, expected exactly one grant of 100", got)
	}

	// A distinct transaction for the same product is a real second purchase.
	if err := f.processor.ProcessPurchase("tx-101", "coins_small"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	if got := f.ledger.Balance(Premium); got != 200 {
		t.Errorf("premium balance = %d, expected 200", got)
	}
}

func TestProcessPurchaseUnknownProduct(t *testing.T) {
	f := newPurchaseFixture(t)

	err := f.processor.ProcessPurchase("tx-404", "no_such_product")
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("error = %v, expected ErrUnknownProduct", err)
	}

	// Nothing recorded: the storefront must keep the receipt unfinalized.
	rec, err := f.store.PurchaseByTransaction("tx-404")
	if err != nil {
		t.Fatalf("PurchaseByTransaction() failed: %v", err)
	}
	if rec != nil {
		t.Error("unknown-product purchase should not be recorded")
	}
	if got := f.recorder.Count("purchase_processed"); got != 0 {
		t.Errorf("purchase_processed count = %d, expected 0", got)
	}
}

func TestProcessPurchaseUnlocksBotAndUpgrade(t *testing.T) {
	f := newPurchaseFixture(t)

	if f.processor.BotUnlocked("magnetron") {
		t.Fatal("magnetron should start locked")
	}
	if err := f.processor.ProcessPurchase("tx-200", "unlock_magnetron"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	if !f.processor.BotUnlocked("magnetron") {
		t.Error("magnetron should be unlocked")
	}

	if err := f.processor.ProcessPurchase("tx-201", "upgrade_turbo"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	has, err := f.store.HasEntitlement(UpgradeEntitlement("turbo"))
	if err != nil {
		t.Fatalf("HasEntitlement() failed: %v", err)
	}
	if !has {
		t.Error("turbo upgrade entitlement missing")
	}
}

func TestSeasonPassExpiresAgainstWallClock(t *testing.T) {
	f := newPurchaseFixture(t)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.processor.SetClock(func() time.Time { return clock })

	if f.processor.SeasonPassActive() {
		t.Fatal("pass should not be active before purchase")
	}
	if err := f.processor.ProcessPurchase("tx-300", "season_pass"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	if !f.processor.SeasonPassActive() {
		t.Fatal("pass should be active immediately after purchase")
	}

	// Advancing the clock past expiry flips the check without any restart
	// or re-load in between.
	clock = clock.Add(29 * 24 * time.Hour)
	if !f.processor.SeasonPassActive() {
		t.Error("pass should still be active at day 29")
	}
	clock = clock.Add(2 * 24 * time.Hour)
	if f.processor.SeasonPassActive() {
		t.Error("pass should be expired at day 31")
	}
}

func TestSeasonPassStacksOnUnexpiredPass(t *testing.T) {
	f := newPurchaseFixture(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	f.processor.SetClock(func() time.Time { return clock })

	if err := f.processor.ProcessPurchase("tx-310", "season_pass"); err != nil {
		t.Fatalf("ProcessPurchase() failed: %v", err)
	}
	clock = clock.Add(10 * 24 * time.Hour)
	if err := f.processor.ProcessPurchase("tx-311", "season_pass"); err != nil {
		t.Fatalf("second ProcessPurchase() failed: %v", err)
	}

	profile, err := f.store.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile() failed: %v", err)
	}
	want := start.Add(60 * 24 * time.Hour)
	if !profile.SeasonPassUntil.Equal(want) {
		t.Errorf("SeasonPassUntil = %v, expected %v (stacked)", profile.SeasonPassUntil, want)
	}
}

func TestRecoverPendingAppliesCrashedBenefit(t *testing.T) {
	f := newPurchaseFixture(t)

	// Simulate a crash between persisting the record and applying the
	// benefit: the row exists with benefit_applied = false.
	if err := f.store.InsertPurchase("tx-500", "coins_small"); err != nil {
		t.Fatalf("InsertPurchase() failed: %v", err)
	}

	recovered, err := f.processor.RecoverPending()
	if err != nil {
		t.Fatalf("RecoverPending() failed: %v", err)
	}
	if recovered != 1 {
		t.Errorf("recovered = %d, expected 1", recovered)
	}
	if got := f.ledger.Balance(Premium); got != 100 {
		t.Errorf("premium balance = %d, expected 100", got)
	}

	// A second recovery pass finds nothing to do.
	recovered, err = f.processor.RecoverPending()
	if err != nil {
		t.Fatalf("second RecoverPending() failed: %v", err)
	}
	if recovered != 0 {
		t.Errorf("second pass recovered %d, expected 0", recovered)
	}
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name    string
		product config.ProductConfig
	}{
		{"empty id", config.ProductConfig{Benefit: "remove_ads"}},
		{"unknown benefit", config.ProductConfig{ID: "x", Benefit: "mystery_box"}},
		{"currency grant without amount", config.ProductConfig{ID: "x", Benefit: "grant_currency", Currency: "premium"}},
		{"currency grant with bad kind", config.ProductConfig{ID: "x", Benefit: "grant_currency", Currency: "doubloons", Amount: 10}},
		{"bot unlock without bot id", config.ProductConfig{ID: "x", Benefit: "unlock_bot"}},
		{"upgrade without upgrade id", config.ProductConfig{ID: "x", Benefit: "permanent_upgrade"}},
		{"season pass without duration", config.ProductConfig{ID: "x", Benefit: "season_pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(config.EconomyConfig{Products: []config.ProductConfig{tt.product}})
			if err == nil {
				t.Errorf("NewCatalog() accepted %s", tt.name)
			}
		})
	}

	catalog, err := NewCatalog(testEconomyConfig())
	if err != nil {
		t.Fatalf("NewCatalog() rejected valid config: %v", err)
	}
	if got := len(catalog.List()); got != 5 {
		t.Errorf("List() returned %d products, expected 5", got)
	}
}
