package memory

import (
	"context"
	"fmt"
	"sync"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/google/uuid"
)

type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domcatalog.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{
		categories: make(map[string]*domcatalog.Category),
	}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domcatalog.Category, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domcatalog.Category, 0, len(r.categories))
	for _, c := range r.categories {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (r *CategoryRepository) Insert(ctx context.Context, category *domcatalog.Category) (string, error) {
	_ = ctx
	if category == nil {
		return "", fmt.Errorf("category repository: category is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := category.ID
	if id == "" {
		id = uuid.NewString()
	}
	clone := *category
	clone.ID = id
	r.categories[id] = &clone
	return id, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domcatalog.Category) error {
	_ = ctx
	if category == nil || category.ID == "" {
		return fmt.Errorf("category repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.ID]; !exists {
		return domcatalog.ErrCategoryNotFound
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[id]; !exists {
		return domcatalog.ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}
