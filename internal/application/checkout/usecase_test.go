package checkout

import (
	"context"
	"fmt"
	"testing"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	"github.com/crunchkart/storefront/internal/domain/catalog"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
	"github.com/crunchkart/storefront/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDGenerator struct{ n int }

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// fixture wires the checkout flow against the in-memory backends.
type fixture struct {
	products *memory.ProductRepository
	orders   *memory.OrderRepository
	payments *memory.PaymentRepository
	carts    *memory.CartRepository
	cartSvc  *appcart.Service
	svc      *Service
	confirm  *ConfirmPaymentUseCase
}

func newFixture(t *testing.T, products ...*catalog.Product) *fixture {
	t.Helper()

	f := &fixture{
		products: memory.NewProductRepository(),
		orders:   memory.NewOrderRepository(),
		payments: memory.NewPaymentRepository(),
		carts:    memory.NewCartRepository(),
	}
	for _, p := range products {
		_, err := f.products.Insert(context.Background(), p)
		require.NoError(t, err)
	}

	idGen := &seqIDGenerator{}
	f.cartSvc = appcart.NewService(f.carts, f.products, nil)
	f.svc = NewService(f.cartSvc, f.orders, idGen, nil)
	f.confirm = NewConfirmPaymentUseCase(f.orders, f.payments, f.products, f.cartSvc, idGen, nil)
	return f
}

func (f *fixture) addToCart(t *testing.T, userID, productID string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		_, err := f.cartSvc.AddToCart(context.Background(), userID, productID)
		require.NoError(t, err)
	}
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func testProduct(t *testing.T, id string, price float64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(id, "Product "+id, price, 0, stock, "general", "", "")
	require.NoError(t, err)
	return p
}

func TestCreateOrderFreezesCart(t *testing.T) {
	f := newFixture(t,
		testProduct(t, "p1", 50, 10),
		testProduct(t, "p2", 30, 10),
	)
	ctx := context.Background()
	f.addToCart(t, "user-1", "p1", 2)
	f.addToCart(t, "user-1", "p2", 1)

	entity, err := f.svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, domorder.PaymentStatusUnpaid, entity.PaymentStatus)
	assert.Equal(t, 130.0, entity.TotalAmount)
	require.Len(t, entity.Products, 2)
	assert.Equal(t, 2, entity.Products[0].Quantity)

	// The cart stays intact until payment settles.
	c, err := f.cartSvc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 2)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "user-1")
	require.ErrorIs(t, err, domorder.ErrEmptyOrder)
}

func TestCreateOrderRequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "")
	require.ErrorIs(t, err, domcart.ErrNotAuthenticated)
}

func TestConfirmPaymentSettlesOrder(t *testing.T) {
	f := newFixture(t,
		testProduct(t, "p1", 50, 5),
		testProduct(t, "p2", 30, 5),
	)
	ctx := context.Background()
	f.addToCart(t, "user-1", "p1", 2)
	f.addToCart(t, "user-1", "p2", 1)

	entity, err := f.svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	result, err := f.confirm.Execute(ctx, ConfirmPaymentInput{
		OrderID: entity.ID,
		Method:  string(dompayment.MethodUPI),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ID, result.OrderID)
	assert.Equal(t, domorder.PaymentStatusPaid, result.Status)

	// Stock settled per line item.
	assert.Equal(t, 3, f.stockOf(t, "p1"))
	assert.Equal(t, 4, f.stockOf(t, "p2"))

	// Order persisted as Paid.
	stored, err := f.orders.Get(ctx, entity.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())

	// Exactly one payment record for the order.
	record, err := f.payments.FindByOrder(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, result.PaymentID, record.PaymentID)
	assert.Equal(t, entity.TotalAmount, record.TotalAmount)
	assert.Equal(t, dompayment.MethodUPI, record.Method)

	// Cart cleared after settlement.
	c, err := f.cartSvc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t, testProduct(t, "p1", 50, 5))
	ctx := context.Background()
	f.addToCart(t, "user-1", "p1", 1)

	entity, err := f.svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	input := ConfirmPaymentInput{OrderID: entity.ID, Method: string(dompayment.MethodCreditCard)}

	first, err := f.confirm.Execute(ctx, input)
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, input)
	require.ErrorIs(t, err, ErrAlreadyPaid)

	// Side effects ran exactly once.
	assert.Equal(t, 4, f.stockOf(t, "p1"))
	record, err := f.payments.FindByOrder(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentID, record.PaymentID)
}

func TestConfirmPaymentInsufficientStockAborts(t *testing.T) {
	f := newFixture(t,
		testProduct(t, "p1", 50, 5),
		testProduct(t, "p2", 30, 5),
		testProduct(t, "p3", 20, 5),
	)
	ctx := context.Background()
	f.addToCart(t, "user-1", "p1", 1)
	f.addToCart(t, "user-1", "p2", 2)
	f.addToCart(t, "user-1", "p3", 1)

	entity, err := f.svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	// Another buyer drains p2 after the order was created.
	_, err = f.products.ReadModifyWrite(ctx, "p2", func(p *catalog.Product) error {
		return p.DeductStock(4)
	})
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, ConfirmPaymentInput{
		OrderID: entity.ID,
		Method:  string(dompayment.MethodDebitCard),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Items before the failing one settled; the failing one and all later
	// items are untouched.
	assert.Equal(t, 4, f.stockOf(t, "p1"))
	assert.Equal(t, 1, f.stockOf(t, "p2"))
	assert.Equal(t, 5, f.stockOf(t, "p3"))

	// No payment was committed and the order stayed Unpaid.
	_, err = f.payments.FindByOrder(ctx, entity.ID)
	require.ErrorIs(t, err, dompayment.ErrNotFound)
	stored, err := f.orders.Get(ctx, entity.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid())

	// The cart survives a failed settlement.
	c, err := f.cartSvc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 3)
}

func TestConfirmPaymentUnknownMethod(t *testing.T) {
	f := newFixture(t, testProduct(t, "p1", 50, 5))
	ctx := context.Background()
	f.addToCart(t, "user-1", "p1", 1)

	entity, err := f.svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, ConfirmPaymentInput{OrderID: entity.ID, Method: "Barter"})
	require.ErrorIs(t, err, dompayment.ErrUnknownMethod)
	assert.Equal(t, 5, f.stockOf(t, "p1"))
}

func TestConfirmPaymentOrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.confirm.Execute(context.Background(), ConfirmPaymentInput{
		OrderID: "missing",
		Method:  string(dompayment.MethodUPI),
	})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmPaymentRequiresOrderID(t *testing.T) {
	f := newFixture(t)

	_, err := f.confirm.Execute(context.Background(), ConfirmPaymentInput{
		Method: string(dompayment.MethodUPI),
	})
	require.ErrorIs(t, err, ErrValidation)
}
