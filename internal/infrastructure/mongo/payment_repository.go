package mongo

import (
	"context"
	"errors"
	"fmt"

	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const paymentCollection = "payment"

type paymentDocument struct {
	PaymentID   string  `bson:"_id"`
	OrderID     string  `bson:"orderId"`
	UserID      string  `bson:"userId"`
	TotalAmount float64 `bson:"totalAmount"`
	Method      string  `bson:"paymentMethod"`
	CreatedAt   string  `bson:"createdAt"`
}

// PaymentRepository is append-only; the unique index on orderId enforces one
// record per order at the store level.
type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{collection: db.Collection(paymentCollection)}
}

// paymentIndexes declares the schema the repository relies on. Insert maps
// duplicate-key errors to ErrConflict, which only holds if these exist.
func paymentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}

// EnsureIndexes creates the unique orderId index. Call once at startup,
// before the repository serves writes.
func (r *PaymentRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, paymentIndexes()); err != nil {
		return fmt.Errorf("mongo: ensure payment indexes: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Insert(ctx context.Context, p *dompayment.Payment) error {
	if p == nil || p.PaymentID == "" {
		return fmt.Errorf("mongo: payment id is required")
	}

	doc := &paymentDocument{
		PaymentID:   p.PaymentID,
		OrderID:     p.OrderID,
		UserID:      p.UserID,
		TotalAmount: p.TotalAmount,
		Method:      string(p.Method),
		CreatedAt:   p.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dompayment.ErrConflict
		}
		return fmt.Errorf("mongo: insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByOrder(ctx context.Context, orderID string) (*dompayment.Payment, error) {
	var doc paymentDocument
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dompayment.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find payment: %w", err)
	}
	return &dompayment.Payment{
		PaymentID:   doc.PaymentID,
		OrderID:     doc.OrderID,
		UserID:      doc.UserID,
		TotalAmount: doc.TotalAmount,
		Method:      dompayment.Method(doc.Method),
		CreatedAt:   doc.CreatedAt,
	}, nil
}
