package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/redis/go-redis/v9"
)

const (
	componentCartHub = "cart_hub"
	channelPrefix    = "cart.updates."
)

// Hub bridges cart snapshots across instances over Redis pub/sub: the
// repository publishes after every save, and Watch subscribes any instance's
// sync to the same feed. New watchers are seeded with the current persisted
// cart so they start from canonical state.
type Hub struct {
	client *redis.Client
	carts  domcart.Repository
	log    observability.Logger

	publishes  observability.BoundCounter
	publishDur observability.BoundHistogram
}

func NewHub(client *redis.Client, carts domcart.Repository, tel observability.Observability) *Hub {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Hub{
		client:     client,
		carts:      carts,
		log:        tel.Logger().With(observability.F("component", componentCartHub)),
		publishes:  tel.Metrics().Counter(observability.MExternalRequests).Bind(observability.L("target", "redis"), observability.L("operation", "publish")),
		publishDur: tel.Metrics().Histogram(observability.MExternalRequestDuration).Bind(observability.L("target", "redis"), observability.L("operation", "publish")),
	}
}

type snapshotPayload struct {
	UserID      string        `json:"userId"`
	TotalItems  int           `json:"totalItems"`
	TotalAmount float64       `json:"totalAmount"`
	Lines       []linePayload `json:"lines"`
}

type linePayload struct {
	ProductID       string  `json:"id"`
	ProductName     string  `json:"productName"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	ImageURL        string  `json:"imageUrl"`
	Description     string  `json:"description"`
	Quantity        int     `json:"quantity"`
}

// Publish fans the snapshot out to every subscribed instance.
func (h *Hub) Publish(ctx context.Context, snapshot appcart.Snapshot) error {
	payload, err := json.Marshal(encodeSnapshot(snapshot))
	if err != nil {
		return fmt.Errorf("redispub: marshal snapshot: %w", err)
	}

	start := time.Now()
	err = h.client.Publish(ctx, channelFor(snapshot.UserID), payload).Err()
	h.publishes.Add(1)
	h.publishDur.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redispub: publish: %w", err)
	}
	return nil
}

// Watch subscribes to the user's snapshot channel, seeding the feed with the
// currently persisted cart. The stop function closes the subscription and,
// in turn, the returned channel.
func (h *Hub) Watch(ctx context.Context, userID string) (<-chan appcart.Snapshot, func(), error) {
	current, err := h.carts.Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("redispub: seed cart: %w", err)
	}

	sub := h.client.Subscribe(ctx, channelFor(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redispub: subscribe: %w", err)
	}

	out := make(chan appcart.Snapshot, 8)
	out <- appcart.SnapshotOf(current)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var payload snapshotPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.log.Warn("snapshot_decode_failed",
					observability.F("user_id", userID),
					observability.F("error", err.Error()),
				)
				continue
			}
			select {
			case out <- decodeSnapshot(payload):
			default:
				// Slow consumer: drop, the next publish carries full state.
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}
	return out, stop, nil
}

func channelFor(userID string) string {
	return channelPrefix + userID
}

func encodeSnapshot(s appcart.Snapshot) snapshotPayload {
	payload := snapshotPayload{
		UserID:      s.UserID,
		TotalItems:  s.TotalItems,
		TotalAmount: s.TotalAmount,
		Lines:       make([]linePayload, 0, len(s.Lines)),
	}
	for _, line := range s.Lines {
		payload.Lines = append(payload.Lines, linePayload{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Price:           line.Price,
			DiscountedPrice: line.DiscountedPrice,
			ImageURL:        line.ImageURL,
			Description:     line.Description,
			Quantity:        line.Quantity,
		})
	}
	return payload
}

func decodeSnapshot(payload snapshotPayload) appcart.Snapshot {
	s := appcart.Snapshot{
		UserID:      payload.UserID,
		TotalItems:  payload.TotalItems,
		TotalAmount: payload.TotalAmount,
	}
	for _, line := range payload.Lines {
		s.Lines = append(s.Lines, domcart.Line{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Price:           line.Price,
			DiscountedPrice: line.DiscountedPrice,
			ImageURL:        line.ImageURL,
			Description:     line.Description,
			Quantity:        line.Quantity,
		})
	}
	return s
}
