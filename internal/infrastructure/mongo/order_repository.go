package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/crunchkart/storefront/internal/domain/order"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const orderCollection = "orders"

type orderDocument struct {
	ID            string             `bson:"_id"`
	UserID        string             `bson:"userId"`
	Products      []lineItemDocument `bson:"products"`
	TotalAmount   float64            `bson:"totalAmount"`
	PaymentStatus string             `bson:"paymentStatus"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type lineItemDocument struct {
	ProductID       string  `bson:"id"`
	ProductName     string  `bson:"productName"`
	Quantity        int     `bson:"quantity"`
	DiscountedPrice float64 `bson:"discountedPrice"`
}

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(orderCollection)}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domorder.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("mongo: order id is required")
	}
	if _, err := r.collection.InsertOne(ctx, encodeOrder(order)); err != nil {
		return fmt.Errorf("mongo: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domorder.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domorder.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get order: %w", err)
	}
	return decodeOrder(&doc), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domorder.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("mongo: order id is required")
	}

	doc := encodeOrder(order)
	update := bson.M{"$set": bson.M{
		"paymentStatus": doc.PaymentStatus,
		"updatedAt":     doc.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": order.ID}, update)
	if err != nil {
		return fmt.Errorf("mongo: update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return domorder.ErrNotFound
	}
	return nil
}

func encodeOrder(o *domorder.Order) *orderDocument {
	doc := &orderDocument{
		ID:            o.ID,
		UserID:        o.UserID,
		Products:      make([]lineItemDocument, 0, len(o.Products)),
		TotalAmount:   o.TotalAmount,
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, item := range o.Products {
		doc.Products = append(doc.Products, lineItemDocument{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			DiscountedPrice: item.DiscountedPrice,
		})
	}
	return doc
}

func decodeOrder(doc *orderDocument) *domorder.Order {
	o := &domorder.Order{
		ID:            doc.ID,
		UserID:        doc.UserID,
		TotalAmount:   doc.TotalAmount,
		PaymentStatus: domorder.PaymentStatus(doc.PaymentStatus),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	for _, item := range doc.Products {
		o.Products = append(o.Products, domorder.LineItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			DiscountedPrice: item.DiscountedPrice,
		})
	}
	return o
}
