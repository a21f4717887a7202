package catalog

import "context"

// ProductRepository is the document-store port for products. Stock is shared
// mutable state: it must only be changed through ReadModifyWrite.
type ProductRepository interface {
	Get(ctx context.Context, id string) (*Product, error)
	Insert(ctx context.Context, product *Product) (string, error)
	Save(ctx context.Context, product *Product) error
	ListByCategory(ctx context.Context, category string) ([]*Product, error)

	// ReadModifyWrite applies fn to the current product under an atomic
	// read-modify-write transaction, retried on conflict. An error returned
	// by fn aborts the transaction without committing.
	ReadModifyWrite(ctx context.Context, id string, fn func(p *Product) error) (*Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	Insert(ctx context.Context, category *Category) (string, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
}
