package domain

// Payment mirrors the payments service response: the created payment with
// book data denormalized at purchase time.
type Payment struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"userId"`
	BookID       int64   `json:"bookId"`
	BookTitle    string  `json:"bookTitle"`
	BookISBN     string  `json:"bookIsbn"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	TotalPrice   float64 `json:"totalPrice"`
	PurchaseDate string  `json:"purchaseDate"`
	Status       string  `json:"status"`
}

// Confirmation is the outcome of a fully successful checkout: one payment per
// cart line, in cart order.
type Confirmation struct {
	Payments []Payment `json:"payments"`
	Total    float64   `json:"total"`
}
