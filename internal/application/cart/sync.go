package cart

import (
	"context"
	"sync"

	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	"github.com/crunchkart/storefront/internal/observability"
)

const componentCartSync = "cart_sync"

// Sync owns the realtime cart subscriptions. Every Subscribe opens its own
// feed, so one user can hold several live streams (two tabs, phone plus
// laptop) and each sees every committed change. The stop function returned
// by Subscribe tears down only its own feed; stopping one stream never
// disturbs another.
type Sync struct {
	watcher Watcher

	log        observability.Logger
	deliveries observability.Counter

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	userID string
	stop   func()
	out    chan Snapshot
	done   chan struct{}
}

func NewSync(watcher Watcher, tel observability.Observability) *Sync {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Sync{
		watcher:    watcher,
		log:        tel.Logger().With(observability.F("component", componentCartSync)),
		deliveries: tel.Metrics().Counter(observability.MCartSyncDeliveries),
		subs:       make(map[int]*subscription),
	}
}

// Subscribe opens a standing feed of the user's cart snapshots. The returned
// stop function closes this feed and must be called on teardown; calling it
// more than once is safe. On a watch failure the subscriber receives a single
// empty snapshot and a closed channel: a degraded view, not a fatal error.
func (s *Sync) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error) {
	if userID == "" {
		return nil, nil, domcart.ErrNotAuthenticated
	}

	updates, stop, err := s.watcher.Watch(ctx, userID)
	if err != nil {
		s.log.Warn("cart_watch_failed",
			observability.F("user_id", userID),
			observability.F("error", err.Error()),
		)
		fallback := make(chan Snapshot, 1)
		fallback <- Snapshot{UserID: userID}
		close(fallback)
		return fallback, func() {}, nil
	}

	sub := &subscription{
		userID: userID,
		stop:   stop,
		out:    make(chan Snapshot, 8),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	go s.forward(updates, sub)

	s.log.Info("cart_subscribed", observability.F("user_id", userID))
	return sub.out, func() { s.unsubscribe(id) }, nil
}

// unsubscribe tears down one feed. Further snapshots are never delivered on
// it after the call returns; in-flight store writes still complete
// server-side and reach the user's remaining feeds.
func (s *Sync) unsubscribe(id int) {
	s.mu.Lock()
	sub, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	sub.stop()
	<-sub.done
	s.log.Info("cart_unsubscribed", observability.F("user_id", sub.userID))
}

// Close tears down every feed, for process shutdown.
func (s *Sync) Close() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.unsubscribe(id)
	}
}

func (s *Sync) forward(updates <-chan Snapshot, sub *subscription) {
	defer func() {
		close(sub.out)
		close(sub.done)
	}()

	for snapshot := range updates {
		select {
		case sub.out <- snapshot:
			if s.deliveries != nil {
				s.deliveries.Add(1, observability.L("outcome", "delivered"))
			}
		default:
			// Slow subscriber: drop this snapshot, the next one carries
			// the full canonical state anyway.
			if s.deliveries != nil {
				s.deliveries.Add(1, observability.L("outcome", "dropped"))
			}
			s.log.Debug("cart_snapshot_dropped", observability.F("user_id", sub.userID))
		}
	}
}
