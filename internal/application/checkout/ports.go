package checkout

import (
	"context"

	domcart "github.com/crunchkart/storefront/internal/domain/cart"
)

type IDGenerator interface {
	NewID() string
}

// CartPort is the slice of the cart store the orchestrator needs: reading the
// cart to freeze it into an order, and clearing it after settlement.
type CartPort interface {
	Get(ctx context.Context, userID string) (*domcart.Cart, error)
	Clear(ctx context.Context, userID string) error
}
