package payment

import "context"

// Repository is append-only: Insert is the only write.
type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	FindByOrder(ctx context.Context, orderID string) (*Payment, error)
}
