package cart

import (
	"context"

	domcart "github.com/crunchkart/storefront/internal/domain/cart"
)

// Snapshot is the decoded cart view delivered to sync subscribers.
type Snapshot struct {
	UserID      string
	TotalItems  int
	TotalAmount float64
	Lines       []domcart.Line
}

// SnapshotOf builds a Snapshot from a cart, tolerating nil (empty view).
func SnapshotOf(c *domcart.Cart) Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		UserID:      c.UserID,
		TotalItems:  c.TotalItems(),
		TotalAmount: c.TotalAmount(),
		Lines:       append([]domcart.Line(nil), c.Lines...),
	}
}

// Watcher is the change-subscription primitive of the backing store: a
// standing feed of cart snapshots for one user. The returned stop function
// must release the subscription; after stop, the channel is closed.
type Watcher interface {
	Watch(ctx context.Context, userID string) (<-chan Snapshot, func(), error)
}
