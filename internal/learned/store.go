// Package learned remembers multi-unit pack sizes per user, product and store
// so later receipts can reuse them when the extraction misses the quantity.
package learned

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// AllStores is the store name used for lines without a store.
const AllStores = "ALL"

// Entry is a learned pack size.
type Entry struct {
	ProductKey string    `json:"product_key"`
	StoreName  string    `json:"store_name"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Backend persists entries per user.
type Backend interface {
	// LoadPacks returns every entry of a user, keyed by entry key
	LoadPacks(userID string) (map[string]Entry, error)

	// UpsertPack writes one entry
	UpsertPack(userID, key string, entry Entry) error
}

// StoreKey is the key of the store-specific entry.
func StoreKey(productKey, storeName string) string {
	if storeName == "" {
		storeName = AllStores
	}
	return storeName + "|" + productKey
}

// Store is a read-through cache over a Backend. Each user's entries are
// loaded once and served from memory afterwards.
type Store struct {
	backend Backend
	now     func() time.Time

	mu    sync.Mutex
	users map[string]*Packs
}

// NewStore creates a Store over backend.
func NewStore(backend Backend) *Store {
	return NewStoreWithClock(backend, time.Now)
}

// NewStoreWithClock creates a Store with a custom clock for testing
func NewStoreWithClock(backend Backend, now func() time.Time) *Store {
	return &Store{
		backend: backend,
		now:     now,
		users:   make(map[string]*Packs),
	}
}

// ForUser returns the pack sizes learned for userID, loading them on first use.
func (s *Store) ForUser(userID string) (*Packs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.users[userID]; ok {
		return p, nil
	}

	entries, err := s.backend.LoadPacks(userID)
	if err != nil {
		return nil, fmt.Errorf("loading learned packs: %w", err)
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	p := &Packs{
		userID:  userID,
		backend: s.backend,
		now:     s.now,
		entries: entries,
	}
	s.users[userID] = p
	return p, nil
}

// Packs holds one user's learned pack sizes.
type Packs struct {
	userID  string
	backend Backend
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
}

// Get returns the pack size learned for a product at a store, falling back
// to the largest size seen for the product at any store.
func (p *Packs) Get(productKey, storeName string) (int, bool) {
	if productKey == "" {
		return 0, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if e, ok := p.entries[StoreKey(productKey, storeName)]; ok {
		return e.Quantity, true
	}
	if e, ok := p.entries[productKey]; ok {
		return e.Quantity, true
	}
	return 0, false
}

// Learn records a confirmed pack size. Quantities that are not finite or not
// above one are ignored. The store-specific entry is always overwritten; the
// cross-store entry only grows. The in-memory view is updated even when the
// backend write fails.
func (p *Packs) Learn(productKey string, quantity float64, storeName string) error {
	if productKey == "" || math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 1 {
		return nil
	}
	q := int(math.Round(quantity))
	if q <= 1 {
		return nil
	}
	if storeName == "" {
		storeName = AllStores
	}

	now := p.now()
	type write struct {
		key   string
		entry Entry
	}
	writes := []write{{
		key: StoreKey(productKey, storeName),
		entry: Entry{
			ProductKey: productKey,
			StoreName:  storeName,
			Quantity:   q,
			UpdatedAt:  now,
		},
	}}

	p.mu.Lock()
	if prev, ok := p.entries[productKey]; !ok || q > prev.Quantity {
		writes = append(writes, write{
			key: productKey,
			entry: Entry{
				ProductKey: productKey,
				StoreName:  AllStores,
				Quantity:   q,
				UpdatedAt:  now,
			},
		})
	}
	for _, w := range writes {
		p.entries[w.key] = w.entry
	}
	p.mu.Unlock()

	// The store entry is written first; a failure does not skip the global one.
	var errs []error
	for _, w := range writes {
		if err := p.backend.UpsertPack(p.userID, w.key, w.entry); err != nil {
			errs = append(errs, fmt.Errorf("saving learned pack %q: %w", w.key, err))
		}
	}
	return errors.Join(errs...)
}

// Entries returns every learned entry, store-specific ones first, sorted by
// product key.
func (p *Packs) Entries() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	type keyed struct {
		key   string
		entry Entry
	}
	all := make([]keyed, 0, len(p.entries))
	for k, e := range p.entries {
		all = append(all, keyed{k, e})
	}
	sort.Slice(all, func(i, j int) bool {
		gi, gj := all[i].key == all[i].entry.ProductKey, all[j].key == all[j].entry.ProductKey
		if gi != gj {
			return !gi
		}
		if all[i].entry.ProductKey != all[j].entry.ProductKey {
			return all[i].entry.ProductKey < all[j].entry.ProductKey
		}
		return all[i].entry.StoreName < all[j].entry.StoreName
	})

	out := make([]Entry, 0, len(all))
	for _, k := range all {
		out = append(out, k.entry)
	}
	return out
}
