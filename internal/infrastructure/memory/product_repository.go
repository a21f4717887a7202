package memory

import (
	"context"
	"fmt"
	"sync"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/google/uuid"
)

// rmwMaxRetries bounds the optimistic retry loop of ReadModifyWrite.
const rmwMaxRetries = 5

// ProductRepository keeps products in memory with a per-document version so
// ReadModifyWrite can detect and retry conflicting commits, mirroring the
// transactional primitive of the real document store.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domcatalog.Product
	versions map[string]uint64
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domcatalog.Product),
		versions: make(map[string]uint64),
	}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domcatalog.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domcatalog.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Insert(ctx context.Context, product *domcatalog.Product) (string, error) {
	_ = ctx
	if product == nil {
		return "", fmt.Errorf("product repository: product is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := product.ID
	if id == "" {
		id = uuid.NewString()
	}
	clone := product.Clone()
	clone.ID = id
	r.products[id] = clone
	r.versions[id]++
	return id, nil
}

func (r *ProductRepository) Save(ctx context.Context, product *domcatalog.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product.Clone()
	r.versions[product.ID]++
	return nil
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]*domcatalog.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domcatalog.Product
	for _, p := range r.products {
		if p.Category == category {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// ReadModifyWrite runs fn on a copy of the product and commits the result
// only if no concurrent commit happened in between, retrying on conflict.
func (r *ProductRepository) ReadModifyWrite(ctx context.Context, id string, fn func(p *domcatalog.Product) error) (*domcatalog.Product, error) {
	for attempt := 0; attempt < rmwMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.mu.RLock()
		current, ok := r.products[id]
		version := r.versions[id]
		r.mu.RUnlock()
		if !ok {
			return nil, domcatalog.ErrProductNotFound
		}

		candidate := current.Clone()
		if err := fn(candidate); err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.versions[id] != version {
			r.mu.Unlock()
			continue
		}
		r.products[id] = candidate.Clone()
		r.versions[id]++
		r.mu.Unlock()
		return candidate, nil
	}
	return nil, domcatalog.ErrConflict
}
