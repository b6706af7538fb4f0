// Package routes registers the storefront API routes on a router.
package routes

import (
	"github.com/relatosdepapel/storefront/internal/handler/storefront"
	"github.com/relatosdepapel/storefront/internal/router"
)

// StorefrontDeps holds the handlers the storefront API needs.
type StorefrontDeps struct {
	Catalog  *storefront.CatalogHandler
	Cart     *storefront.CartHandler
	Checkout *storefront.CheckoutHandler
}

// RegisterStorefrontRoutes registers the JSON API consumed by the browser
// frontend.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalogue
	r.Get("/api/catalog", deps.Catalog.Resolve)
	r.Get("/api/catalog/suggest", deps.Catalog.Suggest)
	r.Get("/api/catalog/books/{id}", deps.Catalog.Book)

	// Cart
	r.Get("/api/cart", deps.Cart.View)
	r.Post("/api/cart/items", deps.Cart.AddItem)
	r.Post("/api/cart/items/{id}/decrease", deps.Cart.DecreaseItem)
	r.Delete("/api/cart/items/{id}", deps.Cart.RemoveItem)
	r.Delete("/api/cart", deps.Cart.Clear)

	// Checkout
	r.Post("/api/checkout", deps.Checkout.Confirm)
	r.Get("/api/payments", deps.Checkout.History)
}
