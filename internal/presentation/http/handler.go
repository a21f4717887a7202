package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	appcatalog "github.com/crunchkart/storefront/internal/application/catalog"
	"github.com/crunchkart/storefront/internal/application/checkout"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const componentHTTPHandler = "http_server"

type Handler struct {
	cartService     *appcart.Service
	cartSync        *appcart.Sync
	checkoutService *checkout.Service
	confirmPayment  *checkout.ConfirmPaymentUseCase
	catalogService  *appcatalog.Service

	jwtSecret string
	log       observability.Logger
	tel       observability.Observability
}

func NewHandler(
	cartSvc *appcart.Service,
	cartSync *appcart.Sync,
	checkoutSvc *checkout.Service,
	confirmPayment *checkout.ConfirmPaymentUseCase,
	catalogSvc *appcatalog.Service,
	jwtSecret string,
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		cartService:     cartSvc,
		cartSync:        cartSync,
		checkoutService: checkoutSvc,
		confirmPayment:  confirmPayment,
		catalogService:  catalogSvc,
		jwtSecret:       jwtSecret,
		log:             baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:             tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(ObservabilityMiddleware(h.log, h.tel))
	r.Use(Authenticator(h.jwtSecret))

	r.Get("/health", h.handleHealth)

	r.Get("/products", h.handleListProducts)
	r.Get("/categories", h.handleListCategories)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Get("/cart", h.handleGetCart)
		r.Put("/cart", h.handleReplaceCart)
		r.Get("/cart/stream", h.handleCartStream)
		r.Post("/cart/items", h.handleAddToCart)
		r.Post("/cart/items/{productID}/increment", h.handleIncrement)
		r.Post("/cart/items/{productID}/decrement", h.handleDecrement)

		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/{orderID}", h.handleGetOrder)
		r.Post("/orders/{orderID}/pay", h.handleConfirmPayment)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireRole("admin"))

		r.Post("/products", h.handleCreateProduct)
		r.Post("/categories", h.handleAddCategory)
		r.Patch("/categories/{categoryID}", h.handleRenameCategory)
		r.Delete("/categories/{categoryID}", h.handleDeleteCategory)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- cart ---

type lineView struct {
	ID              string  `json:"id"`
	ProductName     string  `json:"productName"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	ImageURL        string  `json:"imageUrl"`
	Description     string  `json:"description"`
	Quantity        int     `json:"quantity"`
}

type cartView struct {
	Products    []lineView `json:"products"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount float64    `json:"totalAmount"`
}

func cartViewOf(c *domcart.Cart) cartView {
	view := cartView{Products: make([]lineView, 0, len(c.Lines))}
	for _, line := range c.Lines {
		view.Products = append(view.Products, lineView{
			ID:              line.ProductID,
			ProductName:     line.ProductName,
			Price:           line.Price,
			DiscountedPrice: line.DiscountedPrice,
			ImageURL:        line.ImageURL,
			Description:     line.Description,
			Quantity:        line.Quantity,
		})
	}
	view.TotalItems = c.TotalItems()
	view.TotalAmount = c.TotalAmount()
	return view
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	c, err := h.cartService.Get(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartViewOf(c))
}

type addToCartRequest struct {
	ProductID string `json:"id"`
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.cartService.AddToCart(r.Context(), identity.UserID, req.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartViewOf(c))
}

func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	c, err := h.cartService.Increment(r.Context(), identity.UserID, chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartViewOf(c))
}

func (h *Handler) handleDecrement(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	c, err := h.cartService.Decrement(r.Context(), identity.UserID, chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartViewOf(c))
}

type replaceCartRequest struct {
	Products []lineView `json:"products"`
}

func (h *Handler) handleReplaceCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req replaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]domcart.Line, 0, len(req.Products))
	for _, v := range req.Products {
		lines = append(lines, domcart.Line{
			ProductID:       v.ID,
			ProductName:     v.ProductName,
			Price:           v.Price,
			DiscountedPrice: v.DiscountedPrice,
			ImageURL:        v.ImageURL,
			Description:     v.Description,
			Quantity:        v.Quantity,
		})
	}

	c, err := h.cartService.Replace(r.Context(), identity.UserID, lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartViewOf(c))
}

// handleCartStream delivers the realtime cart feed as server-sent events.
// The subscription is torn down when the client disconnects.
func (h *Handler) handleCartStream(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	updates, stop, err := h.cartSync.Subscribe(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(snapshotView(snapshot))
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type snapshotViewBody struct {
	TotalItems  int     `json:"totalItems"`
	TotalAmount float64 `json:"totalAmount"`
}

func snapshotView(s appcart.Snapshot) snapshotViewBody {
	return snapshotViewBody{TotalItems: s.TotalItems, TotalAmount: s.TotalAmount}
}

// --- checkout ---

type orderView struct {
	OrderID       string     `json:"orderId"`
	Products      []lineItem `json:"products"`
	TotalAmount   float64    `json:"totalAmount"`
	PaymentStatus string     `json:"paymentStatus"`
}

type lineItem struct {
	ID              string  `json:"id"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

func orderViewOf(o *domorder.Order) orderView {
	view := orderView{
		OrderID:       o.ID,
		Products:      make([]lineItem, 0, len(o.Products)),
		TotalAmount:   o.TotalAmount,
		PaymentStatus: string(o.PaymentStatus),
	}
	for _, item := range o.Products {
		view.Products = append(view.Products, lineItem{
			ID:              item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			DiscountedPrice: item.DiscountedPrice,
		})
	}
	return view
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	entity, err := h.checkoutService.CreateOrder(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderViewOf(entity))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	entity, err := h.checkoutService.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entity.UserID != identity.UserID && identity.Role != "admin" {
		writeError(w, http.StatusForbidden, errors.New("not the order owner"))
		return
	}
	writeJSON(w, http.StatusOK, orderViewOf(entity))
}

type confirmPaymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type confirmPaymentResponse struct {
	OrderID       string `json:"orderId"`
	PaymentID     string `json:"paymentId"`
	PaymentStatus string `json:"paymentStatus"`
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	entity, err := h.checkoutService.Get(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entity.UserID != identity.UserID {
		writeError(w, http.StatusForbidden, errors.New("not the order owner"))
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.confirmPayment.Execute(r.Context(), checkout.ConfirmPaymentInput{
		OrderID: orderID,
		Method:  req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmPaymentResponse{
		OrderID:       result.OrderID,
		PaymentID:     result.PaymentID,
		PaymentStatus: string(result.Status),
	})
}

// --- catalog ---

type productView struct {
	ID              string  `json:"id"`
	ProductName     string  `json:"productName"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	Quantity        int     `json:"quantity"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"imageUrl"`
	Description     string  `json:"description"`
}

func productViewOf(p *domcatalog.Product) productView {
	return productView{
		ID:              p.ID,
		ProductName:     p.ProductName,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Quantity:        p.Quantity,
		Category:        p.Category,
		ImageURL:        p.ImageURL,
		Description:     p.Description,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	products, err := h.catalogService.ListByCategory(r.Context(), category)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productViewOf(p))
	}
	writeJSON(w, http.StatusOK, views)
}

type createProductRequest struct {
	ProductName     string  `json:"productName"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	Quantity        int     `json:"quantity"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"imageUrl"`
	Description     string  `json:"description"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.catalogService.CreateProduct(r.Context(), appcatalog.CreateProductInput{
		ProductName:     req.ProductName,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Stock:           req.Quantity,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		Description:     req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productViewOf(entity))
}

type categoryView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{ID: c.ID, Name: c.Name, Order: c.Order})
	}
	writeJSON(w, http.StatusOK, views)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.catalogService.AddCategory(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{ID: entity.ID, Name: entity.Name, Order: entity.Order})
}

func (h *Handler) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.catalogService.RenameCategory(r.Context(), chi.URLParam(r, "categoryID"), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogService.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
