// Package cart owns the in-progress order: an ordered collection of line
// items, durable across restarts through a pluggable storage collaborator,
// consumed by independent view subscribers.
package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/relatosdepapel/storefront/internal/domain"
)

// Listener receives the full line-item snapshot after each mutation.
type Listener func(items []domain.LineItem)

// Store is the single source of truth for the cart. All operations are
// synchronous and atomic from the caller's perspective: each mutation
// persists and notifies subscribers before returning, under one lock.
//
// Mutations cannot fail in the domain sense; a storage write failure is
// logged and the in-memory state stays authoritative (last writer wins on
// the durable record).
type Store struct {
	mu        sync.Mutex
	items     []domain.LineItem
	storage   Storage
	logger    *slog.Logger
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a cart store, restoring any previously persisted cart.
// A failed restore starts empty rather than refusing to serve.
func NewStore(ctx context.Context, storage Storage, logger *slog.Logger) *Store {
	s := &Store{
		storage:   storage,
		logger:    logger,
		listeners: make(map[int]Listener),
	}

	items, err := storage.Load(ctx)
	if err != nil {
		logger.Warn("failed to restore cart, starting empty", slog.String("error", err.Error()))
		return s
	}
	// Drop any zero-quantity lines a stale record might carry.
	for _, item := range items {
		if item.Quantity >= 1 {
			s.items = append(s.items, item)
		}
	}
	return s
}

// AddItem puts a book in the cart: an existing line item's quantity grows by
// one, otherwise a new line with quantity 1 is appended. Always succeeds.
func (s *Store) AddItem(book domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Book.ID == book.ID {
			s.items[i].Quantity++
			s.commit()
			return
		}
	}
	s.items = append(s.items, domain.LineItem{Book: book, Quantity: 1})
	s.commit()
}

// RemoveItem drops the line item for the book ID. No-op if absent.
func (s *Store) RemoveItem(bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Book.ID == bookID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.commit()
			return
		}
	}
}

// DecreaseQuantity lowers a line item's quantity by one; at quantity 1 the
// line is removed entirely. No-op if the book is absent.
func (s *Store) DecreaseQuantity(bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Book.ID != bookID {
			continue
		}
		if s.items[i].Quantity > 1 {
			s.items[i].Quantity--
		} else {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
		s.commit()
		return
	}
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.commit()
}

// Items returns a defensive copy of the line items in display order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// TotalItemCount is the sum of quantities across line items.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalValue is the sum of price x quantity across line items.
func (s *Store) TotalValue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

// Subscribe registers a listener called synchronously after every mutation
// with the new snapshot. The returned function unsubscribes.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// commit persists the cart and notifies subscribers. Called with the lock
// held; listeners get their own copy of the snapshot.
func (s *Store) commit() {
	snapshot := s.snapshot()

	if err := s.storage.Save(context.Background(), snapshot); err != nil {
		s.logger.Error("failed to persist cart", slog.String("error", err.Error()))
	}

	for _, fn := range s.listeners {
		fn(snapshot)
	}
}

func (s *Store) snapshot() []domain.LineItem {
	items := make([]domain.LineItem, len(s.items))
	copy(items, s.items)
	return items
}
