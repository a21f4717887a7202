package catalog

import (
	"context"
	"testing"

	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	"github.com/crunchkart/storefront/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService() *Service {
	return NewService(memory.NewProductRepository(), memory.NewCategoryRepository(), nil)
}

func TestCreateProduct(t *testing.T) {
	svc := newCatalogService()

	entity, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ProductName:     "Almonds",
		Price:           200,
		DiscountedPrice: 150,
		Stock:           20,
		Category:        "dry fruits",
	})
	require.NoError(t, err)
	require.NotEmpty(t, entity.ID)

	stored, err := svc.GetProduct(context.Background(), entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "Almonds", stored.ProductName)
	assert.Equal(t, 150.0, stored.DiscountedPrice)
	assert.Equal(t, 20, stored.Quantity)
}

func TestCreateProductDefaultsDiscountToPrice(t *testing.T) {
	svc := newCatalogService()

	entity, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ProductName: "Cashews",
		Price:       300,
		Stock:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, entity.DiscountedPrice)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Price: 10})
	assert.ErrorIs(t, err, domcatalog.ErrInvalidName)

	_, err = svc.CreateProduct(ctx, CreateProductInput{ProductName: "x", Price: -1})
	assert.ErrorIs(t, err, domcatalog.ErrInvalidPrice)

	_, err = svc.CreateProduct(ctx, CreateProductInput{ProductName: "x", Price: 1, Stock: -1})
	assert.ErrorIs(t, err, domcatalog.ErrInvalidStock)
}

func TestListByCategory(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	for _, in := range []CreateProductInput{
		{ProductName: "Almonds", Price: 200, Stock: 5, Category: "dry fruits"},
		{ProductName: "Cashews", Price: 300, Stock: 5, Category: "dry fruits"},
		{ProductName: "Chips", Price: 20, Stock: 50, Category: "snacks"},
	} {
		_, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	list, err := svc.ListByCategory(ctx, "dry fruits")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAddCategoryAppendsToOrder(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	first, err := svc.AddCategory(ctx, "snacks")
	require.NoError(t, err)
	second, err := svc.AddCategory(ctx, "dry fruits")
	require.NoError(t, err)

	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)
}

func TestListCategoriesSortedByOrder(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	for _, name := range []string{"snacks", "dry fruits", "beverages"} {
		_, err := svc.AddCategory(ctx, name)
		require.NoError(t, err)
	}

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, c := range list {
		assert.Equal(t, i+1, c.Order)
	}
}

func TestRenameCategory(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	entity, err := svc.AddCategory(ctx, "snaks")
	require.NoError(t, err)

	require.NoError(t, svc.RenameCategory(ctx, entity.ID, "snacks"))

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snacks", list[0].Name)
	assert.Equal(t, 1, list[0].Order)
}

func TestRenameCategoryNotFound(t *testing.T) {
	svc := newCatalogService()

	err := svc.RenameCategory(context.Background(), "missing", "snacks")
	assert.ErrorIs(t, err, domcatalog.ErrCategoryNotFound)
}

func TestDeleteCategoryRenumbersRemaining(t *testing.T) {
	svc := newCatalogService()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"snacks", "dry fruits", "beverages", "spices"} {
		entity, err := svc.AddCategory(ctx, name)
		require.NoError(t, err)
		ids = append(ids, entity.ID)
	}

	// Deleting the second category must close the gap in the display order.
	require.NoError(t, svc.DeleteCategory(ctx, ids[1]))

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	names := make([]string, 0, len(list))
	for i, c := range list {
		assert.Equal(t, i+1, c.Order)
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"snacks", "beverages", "spices"}, names)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	svc := newCatalogService()

	err := svc.DeleteCategory(context.Background(), "missing")
	assert.ErrorIs(t, err, domcatalog.ErrCategoryNotFound)
}
