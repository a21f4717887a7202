package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("order: not found")
	ErrEmptyOrder  = errors.New("order: at least one line item is required")
	ErrAlreadyPaid = errors.New("order: already paid")
)

// PaymentStatus is one-way: Unpaid -> Paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// LineItem is a frozen snapshot of a cart line at order-creation time.
type LineItem struct {
	ProductID       string
	ProductName     string
	Quantity        int
	DiscountedPrice float64
}

// Order is immutable once created except for the payment-status transition.
type Order struct {
	ID            string
	UserID        string
	Products      []LineItem
	TotalAmount   float64
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, userID string, items []LineItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := 0.0
	for _, item := range items {
		total += item.DiscountedPrice * float64(item.Quantity)
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		UserID:        userID,
		Products:      append([]LineItem(nil), items...),
		TotalAmount:   total,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkPaid performs the one-way Unpaid -> Paid transition.
func (o *Order) MarkPaid() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return ErrAlreadyPaid
	}
	o.PaymentStatus = PaymentStatusPaid
	o.touch()
	return nil
}

// IsPaid reports whether the order has settled.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Products = append([]LineItem(nil), o.Products...)
	return &clone
}
