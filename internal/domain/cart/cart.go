package cart

import (
	"errors"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("cart: not authenticated")
	ErrOutOfStock       = errors.New("cart: out of stock")
	ErrLineNotFound     = errors.New("cart: line not found")
)

// Line is one product entry in a user's cart. Display fields are denormalized
// from the product at the time of add; Quantity is always positive, a line
// reaching zero is removed instead.
type Line struct {
	ProductID       string
	ProductName     string
	Price           float64
	DiscountedPrice float64
	ImageURL        string
	Description     string
	Quantity        int
}

// Cart is the per-user line collection, ordered, unique by product id.
type Cart struct {
	UserID    string
	Lines     []Line
	UpdatedAt time.Time
}

func New(userID string) *Cart {
	return &Cart{
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
}

// FindLine returns the index of the line for productID, or -1.
func (c *Cart) FindLine(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// SetQuantity updates the quantity of an existing line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.FindLine(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines[i].Quantity = quantity
	c.touch()
	return nil
}

// AddLine appends a new line, replacing any existing line for the product.
func (c *Cart) AddLine(line Line) {
	if i := c.FindLine(line.ProductID); i >= 0 {
		c.Lines[i] = line
	} else {
		c.Lines = append(c.Lines, line)
	}
	c.touch()
}

// RemoveLine deletes the line for productID, preserving order of the rest.
func (c *Cart) RemoveLine(productID string) error {
	i := c.FindLine(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.touch()
	return nil
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Lines = nil
	c.touch()
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for i := range c.Lines {
		total += c.Lines[i].Quantity
	}
	return total
}

// TotalAmount is the discounted-price total across all lines.
func (c *Cart) TotalAmount() float64 {
	total := 0.0
	for i := range c.Lines {
		total += c.Lines[i].DiscountedPrice * float64(c.Lines[i].Quantity)
	}
	return total
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = append([]Line(nil), c.Lines...)
	return &clone
}
