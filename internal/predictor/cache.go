package predictor

import (
	"container/list"
	"encoding/binary"
	"math"
	"sync"
)

// priceCache is an LRU of assembled prediction vectors to model output. A nil cache
// never hits and ignores writes.
type priceCache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	price float64
}

// newPriceCache returns a cache holding up to capacity prices, or nil when capacity <= 0.
func newPriceCache(capacity int) *priceCache {
	if capacity <= 0 {
		return nil
	}
	return &priceCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

// vectorKey encodes the exact bit pattern of vec.
func vectorKey(vec []float64) string {
	b := make([]byte, 8*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(x))
	}
	return string(b)
}

// Get returns the cached price for vec if present.
func (c *priceCache) Get(vec []float64) (float64, bool) {
	if c == nil {
		return 0, false
	}
	key := vectorKey(vec)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).price, true
	}
	return 0, false
}

// Set stores the price for vec, evicting the least recently used entry when full.
func (c *priceCache) Set(vec []float64, price float64) {
	if c == nil {
		return
	}
	key := vectorKey(vec)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).price = price
		return
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, price: price})
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached prices.
func (c *priceCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
