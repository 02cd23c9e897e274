package platform

import (
	"context"
	"strings"
	"sync"
)

// NameTable remembers the most recent non-empty name advertised by each address. LE devices
// often send their name only in a scan response, so the first advertisement from a device may
// carry no name while a later one does. Backends built on advertisements record every
// advertisement here and serve [NameAccessor] lookups from it.
type NameTable struct {
	lock  sync.Mutex
	names map[string]string
}

func NewNameTable() *NameTable {
	return &NameTable{names: make(map[string]string)}
}

func normalizeAddress(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}

// Observe records name for address. Empty names never overwrite a known one.
func (t *NameTable) Observe(address, name string) {
	if name == "" {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.names[normalizeAddress(address)] = name
}

// DeviceName implements [NameAccessor].
func (t *NameTable) DeviceName(ctx context.Context, address string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.names[normalizeAddress(address)], nil
}

