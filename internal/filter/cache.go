package filter

import (
	"encoding/json"
	"sort"
	"sync"

	"mpdcli/pkg/contracts/domain"
)

// Cache memoizes filtered record slices by filter state. Entries accumulate
// until Invalidate; the owner must invalidate whenever the source record set
// changes, since keys only capture criteria and flags.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]domain.EnrichedLoanRecord
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]domain.EnrichedLoanRecord)}
}

// cacheKey is the canonical serialized form of a filter state.
type cacheKey struct {
	Criteria domain.FilterCriteria `json:"criteria"`
	Flags    domain.FilterFlags    `json:"flags"`
}

// Key canonicalizes (criteria, flags) into a cache key. Selection sets are
// sorted first so logically identical selections share an entry regardless
// of the order the UI handed them over in.
func Key(c domain.FilterCriteria, f domain.FilterFlags) (string, error) {
	c.Lenders = sortedCopy(c.Lenders)
	c.ProductTypes = sortedCopy(c.ProductTypes)
	c.PurchaseTypes = sortedCopy(c.PurchaseTypes)

	data, err := json.Marshal(cacheKey{Criteria: c, Flags: f})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Get returns the cached slice for a key, if present.
func (c *Cache) Get(key string) ([]domain.EnrichedLoanRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records, ok := c.entries[key]
	return records, ok
}

// Put stores a filtered slice under a key.
func (c *Cache) Put(key string, records []domain.EnrichedLoanRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = records
}

// Invalidate clears every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]domain.EnrichedLoanRecord)
}

// Len reports the number of cached filter states.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
