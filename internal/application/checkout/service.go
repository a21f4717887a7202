package checkout

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/crunchkart/storefront/internal/observability/logctx"
)

const componentCheckoutService = "checkout_service"

// Service creates orders: it freezes the user's current cart into an
// immutable line-item list with an Unpaid payment status.
type Service struct {
	cart        CartPort
	orders      domorder.Repository
	idGenerator IDGenerator
	log         observability.Logger
}

func NewService(cart CartPort, orders domorder.Repository, idGen IDGenerator, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		cart:        cart,
		orders:      orders,
		idGenerator: idGen,
		log:         tel.Logger().With(observability.F("component", componentCheckoutService)),
	}
}

// CreateOrder freezes the cart into a new Unpaid order. The cart itself is
// left untouched until payment settles.
func (s *Service) CreateOrder(ctx context.Context, userID string) (*domorder.Order, error) {
	logger := logctx.FromOr(ctx, s.log)

	if userID == "" {
		return nil, domcart.ErrNotAuthenticated
	}

	c, err := s.cart.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	}
	if c == nil || len(c.Lines) == 0 {
		return nil, domorder.ErrEmptyOrder
	}

	items := make([]domorder.LineItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, domorder.LineItem{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Quantity:        line.Quantity,
			DiscountedPrice: line.DiscountedPrice,
		})
	}

	entity, err := domorder.New(s.idGenerator.NewID(), userID, items)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Insert(ctx, entity); err != nil {
		logger.Error("order_insert_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
		return nil, fmt.Errorf("checkout: insert order: %w", err)
	}

	logger.Info("order_created",
		observability.F("order_id", entity.ID),
		observability.F("line_items", len(entity.Products)),
		observability.F("total_amount", entity.TotalAmount),
	)
	return entity, nil
}

// Get loads an order by id.
func (s *Service) Get(ctx context.Context, id string) (*domorder.Order, error) {
	if id == "" {
		return nil, errors.New("checkout: order id is required")
	}
	return s.orders.Get(ctx, id)
}
