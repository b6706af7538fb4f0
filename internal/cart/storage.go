package cart

import (
	"context"
	"sync"

	"github.com/relatosdepapel/storefront/internal/domain"
)

// Storage is the durable record backing the cart: one named record, read
// once at startup and overwritten on every mutation. Last writer wins.
type Storage interface {
	// Load reads the persisted cart. A missing record yields (nil, nil).
	Load(ctx context.Context) ([]domain.LineItem, error)

	// Save overwrites the persisted cart with the given snapshot.
	Save(ctx context.Context, items []domain.LineItem) error
}

// MemoryStorage keeps the cart record in process memory. Default in dev and
// the fake used by tests.
type MemoryStorage struct {
	mu    sync.Mutex
	items []domain.LineItem

	// SaveCalls counts writes, for tests asserting persistence behavior.
	SaveCalls int
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.LineItem, len(m.items))
	copy(items, m.items)
	return items, nil
}

func (m *MemoryStorage) Save(ctx context.Context, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make([]domain.LineItem, len(items))
	copy(m.items, items)
	m.SaveCalls++
	return nil
}
