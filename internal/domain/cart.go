package domain

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrEmptyCart    = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrBookNotFound = &Error{Code: ENOTFOUND, Message: "Book not found"}
)

// LineItem is one entry of the cart: a catalogue book plus a quantity.
// Invariants, enforced by the cart store: quantity >= 1, and at most one line
// item per book ID exists at any time.
type LineItem struct {
	Book     Book `json:"book"`
	Quantity int  `json:"quantity"`
}

// Subtotal is the monetary value of the line (price x quantity).
func (li LineItem) Subtotal() float64 {
	return li.Book.Price * float64(li.Quantity)
}
