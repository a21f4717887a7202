package cart

import "context"

// Repository is the document-store port for carts. Get on a user without a
// cart document returns an empty cart, never an error: carts are created
// implicitly on first add.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}
