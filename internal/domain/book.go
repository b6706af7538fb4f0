package domain

import (
	"strings"
)

const (
	// FallbackCoverURL is the local placeholder served when a book has no
	// usable ISBN, or when the remote cover host fails to load client-side.
	FallbackCoverURL = "/book-placeholder.svg"

	// FallbackDescription replaces an empty description from the catalogue.
	FallbackDescription = "Available at Relatos de Papel. Check availability and complete your purchase."

	// BestSellerRating is the minimum rating that marks a book as a best
	// seller. The catalogue documents a 1-5 integer scale.
	BestSellerRating = 5

	coverHost = "https://covers.openlibrary.org/b/isbn/"
)

// Book represents a purchasable book as known to the storefront. The first
// group of fields mirrors the catalogue service response; the view fields are
// derived once by Normalize when a record crosses the boundary and are never
// re-derived elsewhere.
type Book struct {
	ID              int64   `json:"id" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	Author          string  `json:"author"`
	Category        string  `json:"category"`
	Price           float64 `json:"price" validate:"gte=0"`
	Rating          *int    `json:"rating,omitempty"`
	ISBN            string  `json:"isbn,omitempty"`
	Description     string  `json:"description,omitempty"`
	Visible         bool    `json:"visible"`
	PublicationDate string  `json:"publicationDate,omitempty"`
	Stock           *int    `json:"stock,omitempty"`

	// Derived view fields, filled by Normalize.
	CoverURL         string `json:"image"`
	FallbackCoverURL string `json:"imageFallback"`
	BestSeller       bool   `json:"isBestSeller"`
}

// Normalize fills the derived view fields from the raw catalogue record:
// cover URL from the cleaned ISBN, fallback placeholder, canned description
// when the source field is empty, and the best-seller flag.
func (b *Book) Normalize() {
	b.CoverURL = coverURLFromISBN(b.ISBN)
	b.FallbackCoverURL = FallbackCoverURL
	if strings.TrimSpace(b.Description) == "" {
		b.Description = FallbackDescription
	}
	b.BestSeller = b.Rating != nil && *b.Rating >= BestSellerRating
}

// coverURLFromISBN builds the OpenLibrary cover URL from a raw ISBN,
// stripping dashes and whitespace. Empty or all-dash ISBNs fall back to the
// local placeholder.
func coverURLFromISBN(isbn string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(isbn, "-", ""))
	if cleaned == "" {
		return FallbackCoverURL
	}
	return coverHost + cleaned + "-L.jpg"
}
