package catalog

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrProductNotFound   = errors.New("catalog: product not found")
	ErrInvalidName       = errors.New("catalog: product name is required")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock      = errors.New("catalog: stock must be zero or greater")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrConflict          = errors.New("catalog: concurrent modification")
)

// Product is the catalog entry. Quantity is the authoritative available-unit
// counter; it is mutated only by admin actions and by checkout settlement.
type Product struct {
	ID              string
	ProductName     string
	Price           float64
	DiscountedPrice float64
	Quantity        int
	Category        string
	ImageURL        string
	Description     string
	UpdatedAt       time.Time
}

func NewProduct(id, name string, price, discountedPrice float64, stock int, category, imageURL, description string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price < 0 || discountedPrice < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	if discountedPrice == 0 {
		discountedPrice = price
	}
	return &Product{
		ID:              id,
		ProductName:     name,
		Price:           price,
		DiscountedPrice: discountedPrice,
		Quantity:        stock,
		Category:        category,
		ImageURL:        imageURL,
		Description:     description,
		UpdatedAt:       time.Now().UTC(),
	}, nil
}

// DeductStock removes quantity units, failing if the counter would go negative.
func (p *Product) DeductStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStock
	}
	if quantity > p.Quantity {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, p.ProductName)
	}
	p.Quantity -= quantity
	p.touch()
	return nil
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Quantity > 0
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
