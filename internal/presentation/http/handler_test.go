package httppresentation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	appcatalog "github.com/crunchkart/storefront/internal/application/catalog"
	"github.com/crunchkart/storefront/internal/application/checkout"
	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/crunchkart/storefront/internal/infrastructure/id"
	"github.com/crunchkart/storefront/internal/infrastructure/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router   http.Handler
	products *memory.ProductRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	carts := memory.NewCartRepository()
	products := memory.NewProductRepository()
	categories := memory.NewCategoryRepository()
	orders := memory.NewOrderRepository()
	payments := memory.NewPaymentRepository()
	idGen := id.NewUUIDGenerator()

	cartSvc := appcart.NewService(carts, products, nil)
	cartSync := appcart.NewSync(carts, nil)
	t.Cleanup(cartSync.Close)

	checkoutSvc := checkout.NewService(cartSvc, orders, idGen, nil)
	confirm := checkout.NewConfirmPaymentUseCase(orders, payments, products, cartSvc, idGen, nil)
	catalogSvc := appcatalog.NewService(products, categories, nil)

	handler := NewHandler(cartSvc, cartSync, checkoutSvc, confirm, catalogSvc, testSecret, nil, nil)
	return &testEnv{router: handler.Router(), products: products}
}

func (e *testEnv) seedProduct(t *testing.T, pid string, price float64, stock int) {
	t.Helper()
	p, err := domcatalog.NewProduct(pid, "Product "+pid, price, 0, stock, "snacks", "", "")
	require.NoError(t, err)
	_, err = e.products.Insert(context.Background(), p)
	require.NoError(t, err)
}

func bearerToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/cart", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartMutationFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 3)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[cartView](t, rec)
	require.Len(t, view.Products, 1)
	assert.Equal(t, 1, view.Products[0].Quantity)

	rec = env.do(t, http.MethodPost, "/cart/items/p1/increment", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[cartView](t, rec)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, 200.0, view.TotalAmount)

	rec = env.do(t, http.MethodPost, "/cart/items/p1/decrement", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[cartView](t, rec)
	assert.Equal(t, 1, view.TotalItems)
}

func TestAddOutOfStockProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 0)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "p1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/orders", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[orderView](t, rec)
	assert.Equal(t, "Unpaid", order.PaymentStatus)
	assert.Equal(t, 100.0, order.TotalAmount)

	rec = env.do(t, http.MethodPost, "/orders/"+order.OrderID+"/pay", token,
		confirmPaymentRequest{PaymentMethod: "UPI"})
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decodeBody[confirmPaymentResponse](t, rec)
	assert.Equal(t, "Paid", paid.PaymentStatus)
	assert.NotEmpty(t, paid.PaymentID)

	// Paying twice is rejected.
	rec = env.do(t, http.MethodPost, "/orders/"+order.OrderID+"/pay", token,
		confirmPaymentRequest{PaymentMethod: "UPI"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The cart was cleared by settlement.
	rec = env.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[cartView](t, rec)
	assert.Zero(t, view.TotalItems)
}

func TestOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/orders", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	owner := bearerToken(t, "user-1", "customer")
	intruder := bearerToken(t, "user-2", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", owner, addToCartRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/orders", owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[orderView](t, rec)

	rec = env.do(t, http.MethodGet, "/orders/"+order.OrderID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/orders/"+order.OrderID+"/pay", intruder,
		confirmPaymentRequest{PaymentMethod: "UPI"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	token := bearerToken(t, "user-1", "customer")

	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/orders", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[orderView](t, rec)

	rec = env.do(t, http.MethodPost, "/orders/"+order.OrderID+"/pay", token,
		confirmPaymentRequest{PaymentMethod: "Barter"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpointsRequireRole(t *testing.T) {
	env := newTestEnv(t)
	customer := bearerToken(t, "user-1", "customer")
	admin := bearerToken(t, "admin-1", "admin")

	body := createProductRequest{ProductName: "Almonds", Price: 200, Quantity: 10, Category: "dry fruits"}

	rec := env.do(t, http.MethodPost, "/products", customer, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/products", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[productView](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 200.0, created.DiscountedPrice)
}

func TestCategoryAdministration(t *testing.T) {
	env := newTestEnv(t)
	admin := bearerToken(t, "admin-1", "admin")

	rec := env.do(t, http.MethodPost, "/categories", admin, categoryRequest{Name: "snacks"})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decodeBody[categoryView](t, rec)
	rec = env.do(t, http.MethodPost, "/categories", admin, categoryRequest{Name: "dry fruits"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decodeBody[categoryView](t, rec)

	rec = env.do(t, http.MethodPatch, "/categories/"+first.ID, admin, categoryRequest{Name: "munchies"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/categories/"+first.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Categories are public; the remaining one was renumbered to slot 1.
	rec = env.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]categoryView](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 1, list[0].Order)
}

func TestListProductsByCategory(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	env.seedProduct(t, "p2", 50, 5)

	rec := env.do(t, http.MethodGet, "/products?category=snacks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]productView](t, rec)
	assert.Len(t, list, 2)
}

func TestCartStreamDeliversSnapshots(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	token := bearerToken(t, "user-1", "customer")

	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/cart/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan snapshotViewBody, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var body snapshotViewBody
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &body); err != nil {
				continue
			}
			events <- body
		}
	}()

	waitEvent := func() snapshotViewBody {
		select {
		case e := <-events:
			return e
		case <-ctx.Done():
			t.Fatal("timed out waiting for stream event")
			return snapshotViewBody{}
		}
	}

	// The stream opens with the current (empty) cart state.
	seed := waitEvent()
	assert.Zero(t, seed.TotalItems)

	// A mutation pushes a fresh snapshot to the open stream.
	rec := env.do(t, http.MethodPost, "/cart/items", token, addToCartRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	got := waitEvent()
	assert.Equal(t, 1, got.TotalItems)
	assert.Equal(t, 100.0, got.TotalAmount)
}
