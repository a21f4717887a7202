package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crunchkart/storefront/internal/domain/catalog"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/crunchkart/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService       = "checkout-service"
	useCaseConfirmPayment = "checkout.confirm_payment"
	spanPrefix            = "UC."
)

var (
	ErrAlreadyPaid       = domorder.ErrAlreadyPaid
	ErrOrderNotFound     = domorder.ErrNotFound
	ErrInsufficientStock = catalog.ErrInsufficientStock
	ErrCheckoutFailed    = errors.New("checkout: failed")
	ErrValidation        = errors.New("checkout: invalid input")
)

// ConfirmPaymentUseCase executes the terminal checkout transition: settle
// every line item's stock through atomic read-modify-write transactions,
// mark the order paid, append the immutable payment record, and clear the
// cart. Stock is validated and decremented before payment commits, so a
// failed settlement never leaves a paid order without stock coverage.
type ConfirmPaymentUseCase struct {
	orders      domorder.Repository
	payments    dompayment.Repository
	products    catalog.ProductRepository
	cart        CartPort
	idGenerator IDGenerator
	tel         observability.Observability

	// Base logger with fixed fields prebound (vendor must remain hidden).
	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewConfirmPaymentUseCase wires the dependencies required to execute the use case.
func NewConfirmPaymentUseCase(
	orders domorder.Repository,
	payments dompayment.Repository,
	products catalog.ProductRepository,
	cart CartPort,
	idGen IDGenerator,
	tel observability.Observability,
) *ConfirmPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}

	baseLog := tel.Logger().With(
		observability.F("service", checkoutService),
	)

	metricsProvider := tel.Metrics()

	return &ConfirmPaymentUseCase{
		orders:       orders,
		payments:     payments,
		products:     products,
		cart:         cart,
		idGenerator:  idGen,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

type ConfirmPaymentInput struct {
	OrderID string
	Method  string
}

type ConfirmPaymentResult struct {
	OrderID   string
	PaymentID string
	Status    domorder.PaymentStatus
}

// Execute performs the payment confirmation flow.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *ConfirmPaymentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseConfirmPayment),
		observability.F("order_id", cmd.OrderID),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCaseConfirmPayment),
		attribute.String("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseConfirmPayment),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseConfirmPayment),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.OrderID == "" {
		outcome, statusText = "error", "ORDER_ID_REQUIRED"
		return nil, newValidation("order id is required")
	}
	method, merr := dompayment.ParseMethod(cmd.Method)
	if merr != nil {
		outcome, statusText = "error", "METHOD_INVALID"
		return nil, merr
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	entity, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			outcome, statusText = "error", "ORDER_NOT_FOUND"
			return nil, ErrOrderNotFound
		}
		outcome, statusText = "error", "ORDER_LOAD_FAILED"
		return nil, fmt.Errorf("%w: load order: %w", ErrCheckoutFailed, err)
	}

	// Idempotency guard: a paid order never re-executes side effects.
	if entity.IsPaid() {
		outcome, statusText = "error", "ALREADY_PAID"
		span.AddEvent("checkout.already_paid",
			trace.WithAttributes(attribute.String("order.id", entity.ID)),
		)
		return nil, ErrAlreadyPaid
	}

	// Settle stock first. Each line item runs its own atomic transaction; a
	// failure at item k leaves items before k decremented and aborts the
	// rest, and the order stays Unpaid.
	for _, item := range entity.Products {
		_, rmwErr := uc.products.ReadModifyWrite(ctx, item.ProductID, func(p *catalog.Product) error {
			return p.DeductStock(item.Quantity)
		})
		if rmwErr != nil {
			if errors.Is(rmwErr, catalog.ErrInsufficientStock) {
				outcome, statusText = "error", "INSUFFICIENT_STOCK"
				span.AddEvent("checkout.insufficient_stock",
					trace.WithAttributes(attribute.String("product.id", item.ProductID)),
				)
				return nil, rmwErr
			}
			outcome, statusText = "error", "STOCK_TXN_FAILED"
			return nil, fmt.Errorf("%w: stock decrement %s: %w", ErrCheckoutFailed, item.ProductID, rmwErr)
		}
	}

	if err := entity.MarkPaid(); err != nil {
		outcome, statusText = "error", "ALREADY_PAID"
		return nil, err
	}
	if err := uc.orders.Update(ctx, entity); err != nil {
		outcome, statusText = "error", "ORDER_UPDATE_FAILED"
		return nil, fmt.Errorf("%w: mark paid: %w", ErrCheckoutFailed, err)
	}

	record := dompayment.New(uc.idGenerator.NewID(), entity.ID, entity.UserID, entity.TotalAmount, method)
	if err := uc.payments.Insert(ctx, record); err != nil {
		outcome, statusText = "error", "PAYMENT_WRITE_FAILED"
		return nil, fmt.Errorf("%w: payment record: %w", ErrCheckoutFailed, err)
	}

	if err := uc.cart.Clear(ctx, entity.UserID); err != nil {
		outcome, statusText = "error", "CART_CLEAR_FAILED"
		return nil, fmt.Errorf("%w: clear cart: %w", ErrCheckoutFailed, err)
	}

	span.SetAttributes(attribute.String("order.status", string(entity.PaymentStatus)))
	span.AddEvent("checkout.settled",
		trace.WithAttributes(
			attribute.String("order.id", entity.ID),
			attribute.String("payment.id", record.PaymentID),
		),
	)

	return &ConfirmPaymentResult{
		OrderID:   entity.ID,
		PaymentID: record.PaymentID,
		Status:    entity.PaymentStatus,
	}, nil
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
