package cart

// Op identifies a cart quantity mutation.
type Op int

const (
	// OpAdd creates a line for a product not yet in the cart.
	OpAdd Op = iota
	// OpIncrement raises an existing line's quantity by one.
	OpIncrement
	// OpDecrement lowers an existing line's quantity by one.
	OpDecrement
)

// Decision is the guard's verdict on a requested quantity change.
// Allow=false means the operation is rejected (out of stock); RemoveLine
// means the line must be deleted rather than kept at quantity zero.
type Decision struct {
	Allow       bool
	NewQuantity int
	RemoveLine  bool
}

// Evaluate decides the allowed outcome of op given the line's current
// quantity and the product's live stock. It is pure: no side effects, no
// errors, so callers map a rejection to their own error taxonomy.
func Evaluate(op Op, currentQuantity, availableStock int) Decision {
	switch op {
	case OpAdd:
		if availableStock > 0 {
			return Decision{Allow: true, NewQuantity: 1}
		}
		return Decision{}
	case OpIncrement:
		if currentQuantity+1 <= availableStock {
			return Decision{Allow: true, NewQuantity: currentQuantity + 1}
		}
		return Decision{}
	case OpDecrement:
		if currentQuantity-1 >= 1 {
			return Decision{Allow: true, NewQuantity: currentQuantity - 1}
		}
		return Decision{Allow: true, RemoveLine: true}
	default:
		return Decision{}
	}
}
