package catalog

import "errors"

var (
	ErrCategoryNotFound    = errors.New("catalog: category not found")
	ErrInvalidCategoryName = errors.New("catalog: category name is required")
)

// Category carries a dense, 1-based display order maintained on every delete.
type Category struct {
	ID    string
	Name  string
	Order int
}

func NewCategory(id, name string, order int) (*Category, error) {
	if name == "" {
		return nil, ErrInvalidCategoryName
	}
	if order < 1 {
		order = 1
	}
	return &Category{ID: id, Name: name, Order: order}, nil
}
