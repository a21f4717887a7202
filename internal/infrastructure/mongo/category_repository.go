package mongo

import (
	"context"
	"fmt"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const categoryCollection = "categories"

type categoryDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Order int    `bson:"order"`
}

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection(categoryCollection)}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domcatalog.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domcatalog.Category
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode category: %w", err)
		}
		out = append(out, &domcatalog.Category{ID: doc.ID, Name: doc.Name, Order: doc.Order})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterate categories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) Insert(ctx context.Context, category *domcatalog.Category) (string, error) {
	if category == nil {
		return "", fmt.Errorf("mongo: category is required")
	}

	id := category.ID
	if id == "" {
		id = uuid.NewString()
	}
	doc := &categoryDocument{ID: id, Name: category.Name, Order: category.Order}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongo: insert category: %w", err)
	}
	return id, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domcatalog.Category) error {
	if category == nil || category.ID == "" {
		return fmt.Errorf("mongo: category id is required")
	}

	update := bson.M{"$set": bson.M{"name": category.Name, "order": category.Order}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": category.ID}, update)
	if err != nil {
		return fmt.Errorf("mongo: update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return domcatalog.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return domcatalog.ErrCategoryNotFound
	}
	return nil
}
