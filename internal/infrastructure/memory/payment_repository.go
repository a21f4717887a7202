package memory

import (
	"context"
	"fmt"
	"sync"

	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
)

// PaymentRepository is append-only: records are never mutated or deleted.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*dompayment.Payment
	byOrder  map[string]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*dompayment.Payment),
		byOrder:  make(map[string]string),
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *dompayment.Payment) error {
	_ = ctx
	if p == nil || p.PaymentID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.PaymentID]; exists {
		return dompayment.ErrConflict
	}
	if _, exists := r.byOrder[p.OrderID]; exists {
		return dompayment.ErrConflict
	}

	clone := *p
	r.payments[p.PaymentID] = &clone
	r.byOrder[p.OrderID] = p.PaymentID
	return nil
}

func (r *PaymentRepository) FindByOrder(ctx context.Context, orderID string) (*dompayment.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, dompayment.ErrNotFound
	}
	clone := *r.payments[id]
	return &clone, nil
}
