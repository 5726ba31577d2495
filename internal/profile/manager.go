// Package profile provides cached, structured access to the company
// profile stored in SQLite as flat key/value rows.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SetProfileKey(key, value string) error
	GetProfileKey(key string) (string, error)
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager assembles the flat profile rows into a Company and caches the
// result briefly so repeated scoring requests don't hit the database.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Company
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{store: store, clock: clock, ttl: ttl}
}

// Get reads all profile keys from storage (or cache) and assembles a
// Company. Returns a zero-value Company on an empty store.
func (m *Manager) Get() (Company, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		c := copyCompany(m.cached)
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copyCompany(m.cached), nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Company{}, fmt.Errorf("loading profile keys: %w", err)
	}

	c := buildCompany(keys)
	m.cached = &c
	m.cachedAt = m.clock.Now()
	return copyCompany(&c), nil
}

// SetField persists a profile key and invalidates the cache. Keys are
// stored under the "company." prefix; callers may pass either form.
func (m *Manager) SetField(key, value string) error {
	if !strings.HasPrefix(key, "company.") {
		key = "company." + key
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetProfileKey(key, value); err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}
	m.cached = nil
	return nil
}

// Summary returns a compact text block describing the company, suitable
// for injection into the roadmap prompt. Empty when nothing is set.
func (m *Manager) Summary() (string, error) {
	c, err := m.Get()
	if err != nil {
		return "", fmt.Errorf("getting profile for summary: %w", err)
	}
	return Summarize(c), nil
}

// Summarize renders the company profile as prompt text.
func Summarize(c Company) string {
	var parts []string
	if c.Name != "" {
		parts = append(parts, fmt.Sprintf("Company: %s.", c.Name))
	}
	if c.Industry != "" {
		parts = append(parts, fmt.Sprintf("Industry: %s.", c.Industry))
	}
	if c.SectorType != "" {
		parts = append(parts, fmt.Sprintf("Sector: %s.", c.SectorType))
	}
	if c.Size != "" {
		parts = append(parts, fmt.Sprintf("Size: %s.", c.Size))
	}
	if c.Region != "" {
		parts = append(parts, fmt.Sprintf("Region: %s.", c.Region))
	}

	// Extras in sorted order for deterministic prompts.
	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for k := range c.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := strings.ReplaceAll(k, "_", " ")
			if label != "" {
				label = strings.ToUpper(label[:1]) + label[1:]
			}
			parts = append(parts, fmt.Sprintf("%s: %s.", label, c.Extra[k]))
		}
	}

	return strings.Join(parts, " ")
}

func copyCompany(c *Company) Company {
	if c == nil {
		return Company{}
	}
	cp := *c
	if c.Extra != nil {
		cp.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			cp.Extra[k] = v
		}
	}
	return cp
}

// buildCompany assembles a Company from flat key-value pairs. Known keys
// map to struct fields; any other "company.*" key lands in Extra.
func buildCompany(keys map[string]string) Company {
	var c Company
	for k, v := range keys {
		name, ok := strings.CutPrefix(k, "company.")
		if !ok {
			continue
		}
		switch name {
		case "name":
			c.Name = v
		case "industry":
			c.Industry = v
		case "sector_type":
			c.SectorType = v
		case "size":
			c.Size = v
		case "region":
			c.Region = v
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[name] = v
		}
	}
	return c
}
