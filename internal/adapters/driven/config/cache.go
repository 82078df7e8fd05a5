package config

import "sync"

// Cache memoises one loaded AppConfig behind a mutex. It replaces a global
// load-once variable with an explicit value constructed at the composition
// root and passed to whoever needs settings.
type Cache struct {
	mu   sync.Mutex
	load func() (*AppConfig, error)
	cfg  *AppConfig
}

// NewCache builds a cache around the given load function.
// A nil load uses Load with default options.
func NewCache(load func() (*AppConfig, error)) *Cache {
	if load == nil {
		load = func() (*AppConfig, error) {
			return Load(Options{})
		}
	}
	return &Cache{load: load}
}

// Get returns the cached configuration, loading it on first use.
// A failed load is not cached; the next Get retries.
func (c *Cache) Get() (*AppConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return c.cfg, nil
}

// Reset clears the cached configuration so the next Get reloads.
// Intended for tests.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = nil
}
