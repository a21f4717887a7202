package cart

import (
	"context"
	"fmt"

	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	"github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/crunchkart/storefront/internal/observability/logctx"
)

const componentCartService = "cart_service"

// Service is the cart store: it applies add/increment/decrement mutations,
// each mediated by the inventory guard against the product's live stock, and
// persists the full cart snapshot in a single document write per mutation.
type Service struct {
	carts    domcart.Repository
	products catalog.ProductRepository

	log       observability.Logger
	mutations observability.Counter
}

func NewService(carts domcart.Repository, products catalog.ProductRepository, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		carts:     carts,
		products:  products,
		log:       tel.Logger().With(observability.F("component", componentCartService)),
		mutations: tel.Metrics().Counter(observability.MCartMutations),
	}
}

// Get returns the user's current cart; users without a cart document get an
// empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	if userID == "" {
		return nil, domcart.ErrNotAuthenticated
	}
	return s.carts.Get(ctx, userID)
}

// AddToCart puts one unit of the product in the cart. If a line already
// exists the call behaves as an increment.
func (s *Service) AddToCart(ctx context.Context, userID, productID string) (*domcart.Cart, error) {
	return s.mutate(ctx, "add", userID, productID)
}

// Increment raises the line quantity by one, subject to live stock.
func (s *Service) Increment(ctx context.Context, userID, productID string) (*domcart.Cart, error) {
	return s.mutate(ctx, "increment", userID, productID)
}

// Decrement lowers the line quantity by one; a line reaching zero is removed.
func (s *Service) Decrement(ctx context.Context, userID, productID string) (*domcart.Cart, error) {
	return s.mutate(ctx, "decrement", userID, productID)
}

// Replace overwrites the whole line set, used after a full cart reload.
// Zero-quantity lines never persist.
func (s *Service) Replace(ctx context.Context, userID string, lines []domcart.Line) (*domcart.Cart, error) {
	if userID == "" {
		return nil, domcart.ErrNotAuthenticated
	}

	c := domcart.New(userID)
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		c.AddLine(line)
	}

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	s.count("replace", "success")
	return c, nil
}

// Clear writes an empty line set for the user.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return domcart.ErrNotAuthenticated
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("cart: load: %w", err)
	}
	c.Clear()

	if err := s.carts.Save(ctx, c); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}

	s.count("clear", "success")
	return nil
}

func (s *Service) mutate(ctx context.Context, mutation, userID, productID string) (*domcart.Cart, error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("mutation", mutation),
		observability.F("product_id", productID),
	)

	if userID == "" {
		s.count(mutation, "not_authenticated")
		return nil, domcart.ErrNotAuthenticated
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		s.count(mutation, "error")
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		s.count(mutation, "error")
		return nil, fmt.Errorf("cart: product lookup: %w", err)
	}

	currentQty := 0
	op := opFor(mutation)
	if i := c.FindLine(productID); i >= 0 {
		currentQty = c.Lines[i].Quantity
		if op == domcart.OpAdd {
			op = domcart.OpIncrement
		}
	} else if op == domcart.OpIncrement {
		// Incrementing a product not in the cart behaves as an initial add.
		op = domcart.OpAdd
	} else if op == domcart.OpDecrement {
		s.count(mutation, "error")
		return nil, domcart.ErrLineNotFound
	}

	decision := domcart.Evaluate(op, currentQty, product.Quantity)
	switch {
	case !decision.Allow:
		logger.Info("cart_mutation_rejected",
			observability.F("stock", product.Quantity),
			observability.F("current_qty", currentQty),
		)
		s.count(mutation, "out_of_stock")
		return nil, fmt.Errorf("%w: %s", domcart.ErrOutOfStock, product.ProductName)
	case decision.RemoveLine:
		if err := c.RemoveLine(productID); err != nil {
			s.count(mutation, "error")
			return nil, err
		}
	case op == domcart.OpAdd:
		c.AddLine(domcart.Line{
			ProductID:       product.ID,
			ProductName:     product.ProductName,
			Price:           product.Price,
			DiscountedPrice: product.DiscountedPrice,
			ImageURL:        product.ImageURL,
			Description:     product.Description,
			Quantity:        decision.NewQuantity,
		})
	default:
		if err := c.SetQuantity(productID, decision.NewQuantity); err != nil {
			s.count(mutation, "error")
			return nil, err
		}
	}

	if err := s.carts.Save(ctx, c); err != nil {
		s.count(mutation, "error")
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	logger.Debug("cart_mutation_applied",
		observability.F("total_items", c.TotalItems()),
	)
	s.count(mutation, "success")
	return c, nil
}

func opFor(mutation string) domcart.Op {
	switch mutation {
	case "increment":
		return domcart.OpIncrement
	case "decrement":
		return domcart.OpDecrement
	default:
		return domcart.OpAdd
	}
}

func (s *Service) count(mutation, outcome string) {
	if s.mutations == nil {
		return
	}
	s.mutations.Add(1,
		observability.L("mutation", mutation),
		observability.L("outcome", outcome),
	)
}
