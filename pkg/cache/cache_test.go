package cache

import (
	"fmt"
	"testing"
	"time"
)

func testAddress(n int) string {
	return fmt.Sprintf("00:00:00:00:00:%02X", n)
}

func generateTestCache(t *testing.T, deviceCount int) *NameCache {
	t.Helper()
	c := New(0)
	for i := 0; i < deviceCount; i++ {
		c.Devices[testAddress(i)] = Entry{
			Name:       fmt.Sprintf("device-%d", i),
			ResolvedAt: time.Time{}.Add(time.Duration(i)),
		}
	}
	return c
}

func verifyCache(t *testing.T, c *NameCache, entries []int) {
	t.Helper()
	found := make(map[string]bool)
	for _, i := range entries {
		address := testAddress(i)
		if name, ok := c.Lookup(address); !ok {
			t.Errorf("name cache did not contain entry %d", i)
		} else if name != fmt.Sprintf("device-%d", i) {
			t.Errorf("name cache contained invalid entry %d: %s", i, name)
		}
		found[address] = true
	}
	for address := range c.Devices {
		if _, ok := found[address]; !ok {
			t.Errorf("name cache contained extraneous entry %s", address)
		}
	}
}

func TestLookup(t *testing.T) {
	c := New(0)
	if _, ok := c.Lookup("AA:BB:CC:DD:EE:FF"); ok {
		t.Fatal("empty cache returned an entry")
	}
	c.Update("aa:bb:cc:dd:ee:ff", "Headset")
	c.Update("AA:BB:CC:DD:EE:FF", "")
	if name, ok := c.Lookup(" AA:BB:CC:DD:EE:FF"); !ok || name != "Headset" {
		t.Errorf("expected Headset, got %q (found = %v)", name, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected one entry, got %d", c.Len())
	}
}

func TestEviction(t *testing.T) {
	c := generateTestCache(t, 0)
	c.MaxEntries = 5
	// Entries added by generateTestCache carry timestamp n, so they are older than anything added
	// through Update and are evicted in order of their index.
	for i := 0; i < 5; i++ {
		c.Devices[testAddress(4-i)] = Entry{Name: fmt.Sprintf("device-%d", 4-i), ResolvedAt: time.Time{}.Add(time.Duration(4 - i))}
	}
	verifyCache(t, c, []int{0, 1, 2, 3, 4})

	c.Update(testAddress(5), "device-5")
	verifyCache(t, c, []int{1, 2, 3, 4, 5})

	c.Update(testAddress(6), "device-6")
	verifyCache(t, c, []int{2, 3, 4, 5, 6})

	// Updating an existing entry does not evict anything.
	c.Update(testAddress(2), "device-2")
	verifyCache(t, c, []int{2, 3, 4, 5, 6})
}

func TestUnboundedCache(t *testing.T) {
	c := generateTestCache(t, 20)
	c.Update(testAddress(20), "device-20")
	var all []int
	for i := 0; i <= 20; i++ {
		all = append(all, i)
	}
	verifyCache(t, c, all)
}
