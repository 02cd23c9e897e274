package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is the last name resolved for a device.
type Entry struct {
	Name       string
	ResolvedAt time.Time
}

type NameCache struct {
	MaxEntries int
	Devices    map[string]Entry
	lock       sync.Mutex
}

// New returns a NameCache that holds names for up to maxEntries devices. The NameCache evicts the
// entry that was resolved least recently; looking a name up does not count as a use.
//
// Set maxEntries to zero for an unbounded cache.
func New(maxEntries int) *NameCache {
	return &NameCache{
		MaxEntries: maxEntries,
		Devices:    make(map[string]Entry),
	}
}

func key(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}

// Update records name as the current name of the device at address. Empty names are ignored.
func (c *NameCache) Update(address, name string) {
	if name == "" {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	c.Devices[key(address)] = Entry{Name: name, ResolvedAt: time.Now()}
	if c.MaxEntries > 0 && len(c.Devices) > c.MaxEntries {
		oldestAddress := key(address)
		oldestResolvedAt := time.Now()
		for a, entry := range c.Devices {
			if entry.ResolvedAt.Before(oldestResolvedAt) {
				oldestAddress = a
				oldestResolvedAt = entry.ResolvedAt
			}
		}
		delete(c.Devices, oldestAddress)
	}
}

// Lookup returns the name last recorded for address.
func (c *NameCache) Lookup(address string) (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Devices[key(address)]
	return entry.Name, ok
}

// Len returns the number of cached names.
func (c *NameCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.Devices)
}
