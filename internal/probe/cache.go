package probe

import "sync"

// macCache hands hardware addresses seen during liveness checks to the
// MAC lookup that follows
type macCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMACCache() *macCache {
	return &macCache{entries: make(map[string]string)}
}

func (c *macCache) put(ip, mac string) {
	c.mu.Lock()
	c.entries[ip] = mac
	c.mu.Unlock()
}

func (c *macCache) take(ip string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mac, ok := c.entries[ip]
	if ok {
		delete(c.entries, ip)
	}
	return mac, ok
}
