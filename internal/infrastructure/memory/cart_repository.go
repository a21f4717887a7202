package memory

import (
	"context"
	"sync"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
)

// CartRepository keeps carts in memory and doubles as the change-subscription
// primitive: every Save fans the new snapshot out to the user's watchers.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domcart.Cart

	watchMu  sync.Mutex
	watchers map[string]map[int]chan appcart.Snapshot
	nextID   int
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts:    make(map[string]*domcart.Cart),
		watchers: make(map[string]map[int]chan appcart.Snapshot),
	}
}

// Get returns the user's cart, or an empty cart when none was saved yet.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[userID]
	if !ok {
		return domcart.New(userID), nil
	}
	return c.Clone(), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	_ = ctx
	if c == nil {
		return nil
	}

	r.mu.Lock()
	r.carts[c.UserID] = c.Clone()
	r.mu.Unlock()

	r.notify(appcart.SnapshotOf(c))
	return nil
}

// Watch registers a snapshot feed for the user. The current cart state is
// delivered first so a new subscriber starts from the canonical view. The
// returned stop function unregisters and closes the channel.
func (r *CartRepository) Watch(ctx context.Context, userID string) (<-chan appcart.Snapshot, func(), error) {
	ch := make(chan appcart.Snapshot, 8)

	// Seed and register under the same watchMu hold: a Save landing in
	// between would otherwise notify before this feed exists, and its
	// snapshot would never be delivered.
	r.watchMu.Lock()
	current, err := r.Get(ctx, userID)
	if err != nil {
		r.watchMu.Unlock()
		return nil, nil, err
	}
	ch <- appcart.SnapshotOf(current)

	if r.watchers[userID] == nil {
		r.watchers[userID] = make(map[int]chan appcart.Snapshot)
	}
	id := r.nextID
	r.nextID++
	r.watchers[userID][id] = ch
	r.watchMu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			r.watchMu.Lock()
			delete(r.watchers[userID], id)
			r.watchMu.Unlock()
			close(ch)
		})
	}
	return ch, stop, nil
}

func (r *CartRepository) notify(snapshot appcart.Snapshot) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	for _, ch := range r.watchers[snapshot.UserID] {
		select {
		case ch <- snapshot:
		default:
			// Slow watcher: drop, the next save carries the full state.
		}
	}
}
