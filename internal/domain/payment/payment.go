package payment

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("payment: not found")
	ErrUnknownMethod = errors.New("payment: unknown payment method")
	ErrConflict      = errors.New("payment: record already exists")
)

// Method is the user-chosen settlement channel. The set mirrors what the
// storefront offers; payment here is a recorded confirmation, not a gateway
// integration.
type Method string

const (
	MethodCreditCard Method = "Credit Card"
	MethodDebitCard  Method = "Debit Card"
	MethodUPI        Method = "UPI"
	MethodNetBanking Method = "Net Banking"
)

// ParseMethod validates a user-supplied method name.
func ParseMethod(v string) (Method, error) {
	switch Method(v) {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodNetBanking:
		return Method(v), nil
	default:
		return "", ErrUnknownMethod
	}
}

// Payment is an append-only audit record: exactly one exists per completed
// order, and it is never mutated or deleted once written.
type Payment struct {
	PaymentID   string
	OrderID     string
	UserID      string
	TotalAmount float64
	Method      Method
	CreatedAt   string
}

func New(paymentID, orderID, userID string, amount float64, method Method) *Payment {
	return &Payment{
		PaymentID:   paymentID,
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: amount,
		Method:      method,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
