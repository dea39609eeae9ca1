package demo

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/unit4productions/botrun/internal/economy"
)

// Receipt is one simulated platform transaction.
type Receipt struct {
	TransactionID string
	ProductID     string
	Finalized     bool
}

// Storefront simulates the platform IAP boundary. Buying generates a
// transaction and delivers it to the processor; the receipt is finalized
// only when processing succeeds, mirroring the platform contract.
type Storefront struct {
	processor *economy.Processor
	receipts  []Receipt

	// DeliverTwice replays every successful delivery once, the way flaky
	// store callbacks do in the field. Processing must stay idempotent.
	DeliverTwice bool
}

// NewStorefront creates a storefront bound to a purchase processor.
func NewStorefront(processor *economy.Processor) *Storefront {
	return &Storefront{processor: processor}
}

// Buy simulates a completed platform payment for a product and delivers it.
// The returned transaction id is stable for replays.
func (s *Storefront) Buy(productID string) (string, error) {
	txID := uuid.NewString()
	if err := s.deliver(txID, productID); err != nil {
		return txID, err
	}
	if s.DeliverTwice {
		if err := s.deliver(txID, productID); err != nil {
			return txID, fmt.Errorf("demo: replayed delivery failed: %w", err)
		}
	}
	return txID, nil
}

// deliver runs one processor callback and finalizes the receipt on success.
func (s *Storefront) deliver(txID, productID string) error {
	err := s.processor.ProcessPurchase(txID, productID)
	s.receipts = append(s.receipts, Receipt{
		TransactionID: txID,
		ProductID:     productID,
		Finalized:     err == nil,
	})
	return err
}

// RetryUnfinalized redelivers every receipt that was not finalized, the way
// a platform retries pending transactions at app start. Returns how many
// were finalized this pass.
func (s *Storefront) RetryUnfinalized() int {
	finalized := 0
	for i := range s.receipts {
		if s.receipts[i].Finalized {
			continue
		}
		if err := s.processor.ProcessPurchase(s.receipts[i].TransactionID, s.receipts[i].ProductID); err == nil {
			s.receipts[i].Finalized = true
			finalized++
		}
	}
	return finalized
}

// Receipts returns a copy of all receipts seen so far.
func (s *Storefront) Receipts() []Receipt {
	out := make([]Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}
