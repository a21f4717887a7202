package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	productCollection = "products"

	// rmwMaxRetries bounds the optimistic retry loop of ReadModifyWrite.
	rmwMaxRetries = 5
)

type productDocument struct {
	ID              string    `bson:"_id"`
	ProductName     string    `bson:"productName"`
	Price           float64   `bson:"price"`
	DiscountedPrice float64   `bson:"discountedPrice"`
	Quantity        int       `bson:"quantity"`
	Category        string    `bson:"category"`
	ImageURL        string    `bson:"imageUrl"`
	Description     string    `bson:"description"`
	UpdatedAt       time.Time `bson:"updatedAt"`
	Version         uint64    `bson:"version"`
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(productCollection)}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domcatalog.Product, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeProduct(doc), nil
}

func (r *ProductRepository) get(ctx context.Context, id string) (*productDocument, error) {
	var doc productDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domcatalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("mongo: get product: %w", err)
	}
	return &doc, nil
}

func (r *ProductRepository) Insert(ctx context.Context, product *domcatalog.Product) (string, error) {
	doc := encodeProduct(product)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Version = 1

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongo: insert product: %w", err)
	}
	return doc.ID, nil
}

func (r *ProductRepository) Save(ctx context.Context, product *domcatalog.Product) error {
	if product == nil || product.ID == "" {
		return fmt.Errorf("mongo: product id is required")
	}

	doc := encodeProduct(product)
	update := bson.M{
		"$set": bson.M{
			"productName":     doc.ProductName,
			"price":           doc.Price,
			"discountedPrice": doc.DiscountedPrice,
			"quantity":        doc.Quantity,
			"category":        doc.Category,
			"imageUrl":        doc.ImageURL,
			"description":     doc.Description,
			"updatedAt":       doc.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("mongo: save product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domcatalog.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]*domcatalog.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"category": category})
	if err != nil {
		return nil, fmt.Errorf("mongo: list products: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domcatalog.Product
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode product: %w", err)
		}
		out = append(out, decodeProduct(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterate products: %w", err)
	}
	return out, nil
}

// ReadModifyWrite applies fn to the product and commits with a version
// compare-and-set, retrying when a concurrent commit won the race.
func (r *ProductRepository) ReadModifyWrite(ctx context.Context, id string, fn func(p *domcatalog.Product) error) (*domcatalog.Product, error) {
	for attempt := 0; attempt < rmwMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}

		candidate := decodeProduct(doc)
		if err := fn(candidate); err != nil {
			return nil, err
		}

		next := encodeProduct(candidate)
		update := bson.M{
			"$set": bson.M{
				"productName":     next.ProductName,
				"price":           next.Price,
				"discountedPrice": next.DiscountedPrice,
				"quantity":        next.Quantity,
				"category":        next.Category,
				"imageUrl":        next.ImageURL,
				"description":     next.Description,
				"updatedAt":       next.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		}
		res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "version": doc.Version}, update)
		if err != nil {
			return nil, fmt.Errorf("mongo: rmw product: %w", err)
		}
		if res.MatchedCount == 1 {
			return candidate, nil
		}
		// Version moved underneath us: retry against the fresh document.
	}
	return nil, domcatalog.ErrConflict
}

func encodeProduct(p *domcatalog.Product) *productDocument {
	return &productDocument{
		ID:              p.ID,
		ProductName:     p.ProductName,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Quantity:        p.Quantity,
		Category:        p.Category,
		ImageURL:        p.ImageURL,
		Description:     p.Description,
		UpdatedAt:       p.UpdatedAt,
	}
}

func decodeProduct(doc *productDocument) *domcatalog.Product {
	return &domcatalog.Product{
		ID:              doc.ID,
		ProductName:     doc.ProductName,
		Price:           doc.Price,
		DiscountedPrice: doc.DiscountedPrice,
		Quantity:        doc.Quantity,
		Category:        doc.Category,
		ImageURL:        doc.ImageURL,
		Description:     doc.Description,
		UpdatedAt:       doc.UpdatedAt,
	}
}
