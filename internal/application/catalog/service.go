package catalog

import (
	"context"
	"fmt"
	"sort"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/crunchkart/storefront/internal/observability/logctx"
	"golang.org/x/sync/singleflight"
)

const componentCatalogService = "catalog_service"

// Service covers the admin side of the catalog: product creation and the
// category list with its dense display order.
type Service struct {
	products   domcatalog.ProductRepository
	categories domcatalog.CategoryRepository
	log        observability.Logger
	sfg        singleflight.Group // coalesces concurrent category listings
}

func NewService(products domcatalog.ProductRepository, categories domcatalog.CategoryRepository, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		products:   products,
		categories: categories,
		log:        tel.Logger().With(observability.F("component", componentCatalogService)),
	}
}

type CreateProductInput struct {
	ProductName     string
	Price           float64
	DiscountedPrice float64
	Stock           int
	Category        string
	ImageURL        string
	Description     string
}

// CreateProduct validates and stores a new catalog entry, returning its id.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domcatalog.Product, error) {
	logger := logctx.FromOr(ctx, s.log)

	entity, err := domcatalog.NewProduct(
		"", input.ProductName, input.Price, input.DiscountedPrice,
		input.Stock, input.Category, input.ImageURL, input.Description,
	)
	if err != nil {
		return nil, err
	}

	id, err := s.products.Insert(ctx, entity)
	if err != nil {
		logger.Error("product_insert_failed", observability.F("error", err.Error()))
		return nil, fmt.Errorf("catalog: insert product: %w", err)
	}
	entity.ID = id

	logger.Info("product_created",
		observability.F("product_id", id),
		observability.F("category", entity.Category),
	)
	return entity, nil
}

// GetProduct loads one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (*domcatalog.Product, error) {
	return s.products.Get(ctx, id)
}

// ListByCategory returns the products of one category. Concurrent calls for
// the same category share a single repository read.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*domcatalog.Product, error) {
	v, err, _ := s.sfg.Do("category:"+category, func() (any, error) {
		return s.products.ListByCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domcatalog.Product), nil
}

// ListCategories returns all categories sorted by display order.
func (s *Service) ListCategories(ctx context.Context) ([]*domcatalog.Category, error) {
	v, err, _ := s.sfg.Do("categories", func() (any, error) {
		list, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domcatalog.Category), nil
}

// AddCategory appends a category at the end of the display order.
func (s *Service) AddCategory(ctx context.Context, name string) (*domcatalog.Category, error) {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}

	entity, err := domcatalog.NewCategory("", name, len(existing)+1)
	if err != nil {
		return nil, err
	}

	id, err := s.categories.Insert(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert category: %w", err)
	}
	entity.ID = id
	return entity, nil
}

// RenameCategory updates the display name, keeping the order slot.
func (s *Service) RenameCategory(ctx context.Context, id, name string) error {
	if name == "" {
		return domcatalog.ErrInvalidCategoryName
	}

	list, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("catalog: list categories: %w", err)
	}
	for _, c := range list {
		if c.ID == id {
			c.Name = name
			return s.categories.Update(ctx, c)
		}
	}
	return domcatalog.ErrCategoryNotFound
}

// DeleteCategory removes a category and renumbers the remainder so the
// display order stays dense and 1-based.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	logger := logctx.FromOr(ctx, s.log)

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	remaining, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("catalog: list categories: %w", err)
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Order < remaining[j].Order })

	for i, c := range remaining {
		if c.Order == i+1 {
			continue
		}
		c.Order = i + 1
		if err := s.categories.Update(ctx, c); err != nil {
			return fmt.Errorf("catalog: renumber category %s: %w", c.ID, err)
		}
	}

	logger.Info("category_deleted",
		observability.F("category_id", id),
		observability.F("remaining", len(remaining)),
	)
	return nil
}
