package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/cartclash/internal/model"
)

type watchKey struct {
	userID    int64
	productID int64
	source    string
}

// MemoryStore implements Store in process memory. It backs tests and the
// "memory" driver used for demos; nothing survives a restart.
type MemoryStore struct {
	mu           sync.RWMutex
	products     map[int64]model.Product
	observations []model.PriceObservation
	nextObsID    int64
	watches      map[watchKey]model.WatchlistEntry
	sessions     map[string]model.Session
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]model.Product),
		watches:  make(map[watchKey]model.WatchlistEntry),
		sessions: make(map[string]model.Session),
	}
}

func (m *MemoryStore) Ping(context.Context) error    { return nil }
func (m *MemoryStore) Migrate(context.Context) error { return nil }
func (m *MemoryStore) Close() error                  { return nil }

func (m *MemoryStore) ListProducts(_ context.Context, limit int) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	if n := productLimit(limit); len(products) > n {
		products = products[:n]
	}
	return products, nil
}

func (m *MemoryStore) ProductExists(_ context.Context, productID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.products[productID]
	return ok, nil
}

func (m *MemoryStore) UpsertProducts(_ context.Context, products []model.Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, p := range products {
		if existing, ok := m.products[p.ID]; ok {
			p.CreatedAt = existing.CreatedAt
		} else if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		m.products[p.ID] = p
	}
	return int64(len(products)), nil
}

func (m *MemoryStore) AddObservations(_ context.Context, obs []model.PriceObservation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range obs {
		m.nextObsID++
		o.ID = m.nextObsID
		if o.ObservedAt.IsZero() {
			o.ObservedAt = time.Now().UTC()
		}
		m.observations = append(m.observations, o)
	}
	return int64(len(obs)), nil
}

// LatestObservations walks observations in insertion order, so a later row
// replaces the current pick only when it is strictly newer.
func (m *MemoryStore) LatestObservations(_ context.Context, productID int64) ([]model.PriceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]model.PriceObservation)
	for _, o := range m.observations {
		if o.ProductID != productID {
			continue
		}
		cur, ok := latest[o.Source]
		if !ok || o.ObservedAt.After(cur.ObservedAt) {
			latest[o.Source] = o
		}
	}

	out := make([]model.PriceObservation, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AddWatch(_ context.Context, entry model.WatchlistEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := watchKey{entry.UserID, entry.ProductID, entry.Source}
	if _, ok := m.watches[k]; ok {
		return false, nil
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	m.watches[k] = entry
	return true, nil
}

func (m *MemoryStore) RemoveWatch(_ context.Context, userID, productID int64, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := watchKey{userID, productID, source}
	if _, ok := m.watches[k]; !ok {
		return false, nil
	}
	delete(m.watches, k)
	return true, nil
}

func (m *MemoryStore) ListWatchlist(_ context.Context, userID int64) ([]model.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []model.WatchlistEntry
	for k, e := range m.watches {
		if k.userID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.After(b.AddedAt)
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.Source < b.Source
	})
	return entries, nil
}

func (m *MemoryStore) GetSession(_ context.Context, token string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	if sess.UserID != nil {
		id := *sess.UserID
		sess.UserID = &id
	}
	return &sess, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sess model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess.UserID != nil {
		id := *sess.UserID
		sess.UserID = &id
	}
	m.sessions[sess.Token] = sess
	return nil
}

// Compile-time interface checks.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
