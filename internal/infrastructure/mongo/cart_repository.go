package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartCollection = "cart"

// CartNotifier receives the committed snapshot after every cart save, so a
// pub/sub bridge can fan it out to subscribers on any instance.
type CartNotifier interface {
	Publish(ctx context.Context, snapshot appcart.Snapshot) error
}

type cartDocument struct {
	UserID    string         `bson:"_id"`
	Products  []lineDocument `bson:"products"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

type lineDocument struct {
	ProductID       string  `bson:"id"`
	ProductName     string  `bson:"productName"`
	Price           float64 `bson:"price"`
	DiscountedPrice float64 `bson:"discountedPrice"`
	ImageURL        string  `bson:"imageUrl"`
	Description     string  `bson:"description"`
	Quantity        int     `bson:"quantity"`
}

type CartRepository struct {
	collection *mongo.Collection
	notifier   CartNotifier
}

// NewCartRepository wraps the cart collection; notifier may be nil for
// deployments without cross-instance sync.
func NewCartRepository(db *mongo.Database, notifier CartNotifier) *CartRepository {
	return &CartRepository{
		collection: db.Collection(cartCollection),
		notifier:   notifier,
	}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domcart.New(userID), nil
		}
		return nil, fmt.Errorf("mongo: get cart: %w", err)
	}
	return decodeCart(&doc), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	if c == nil {
		return nil
	}

	doc := encodeCart(c)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.UserID}, doc, opts); err != nil {
		return fmt.Errorf("mongo: save cart: %w", err)
	}

	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, appcart.SnapshotOf(c)); err != nil {
			// Delivery is best-effort: the write committed, subscribers
			// reconcile on the next snapshot.
			return nil
		}
	}
	return nil
}

func encodeCart(c *domcart.Cart) *cartDocument {
	doc := &cartDocument{
		UserID:    c.UserID,
		Products:  make([]lineDocument, 0, len(c.Lines)),
		UpdatedAt: c.UpdatedAt,
	}
	for _, line := range c.Lines {
		doc.Products = append(doc.Products, lineDocument{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Price:           line.Price,
			DiscountedPrice: line.DiscountedPrice,
			ImageURL:        line.ImageURL,
			Description:     line.Description,
			Quantity:        line.Quantity,
		})
	}
	return doc
}

func decodeCart(doc *cartDocument) *domcart.Cart {
	c := &domcart.Cart{
		UserID:    doc.UserID,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, line := range doc.Products {
		c.Lines = append(c.Lines, domcart.Line{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Price:           line.Price,
			DiscountedPrice: line.DiscountedPrice,
			ImageURL:        line.ImageURL,
			Description:     line.Description,
			Quantity:        line.Quantity,
		})
	}
	return c
}
