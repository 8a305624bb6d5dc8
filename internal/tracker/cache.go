package tracker

import (
	"sort"
	"sync"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// Field selects one value of a cached observation.
type Field int

const (
	FieldArena Field = iota
	FieldGrandArena
	FieldLogin
)

// Entry is one cached observation, as exposed by Snapshot.
type Entry struct {
	Key         domain.Key         `json:"key"`
	Observation domain.Observation `json:"observation"`
}

// Cache holds the last accepted observation per (account, subscriber, platform).
// Callers doing read-modify-write take Lock(key) first.
type Cache struct {
	mu      sync.RWMutex
	entries map[domain.Key]domain.Observation
	locks   map[domain.Key]*sync.Mutex
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[domain.Key]domain.Observation),
		locks:   make(map[domain.Key]*sync.Mutex),
	}
}

func (c *Cache) Get(k domain.Key) (domain.Observation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.entries[k]
	return o, ok
}

func (c *Cache) Put(k domain.Key, o domain.Observation) {
	c.mu.Lock()
	c.entries[k] = o
	c.mu.Unlock()
}

// UpdateField overwrites a single value of an existing entry. It is a no-op
// when the key has no entry yet.
func (c *Cache) UpdateField(k domain.Key, f Field, v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.entries[k]
	if !ok {
		return
	}
	switch f {
	case FieldArena:
		o.ArenaRank = v
	case FieldGrandArena:
		o.GrandArenaRank = v
	case FieldLogin:
		o.LastLogin = v
	}
	c.entries[k] = o
}

// Lock serializes evaluations of one key and returns the matching unlock.
func (c *Cache) Lock(k domain.Key) (unlock func()) {
	c.mu.Lock()
	m, ok := c.locks[k]
	if !ok {
		m = &sync.Mutex{}
		c.locks[k] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Snapshot copies the entries of one platform, ordered by account then subscriber.
func (c *Cache) Snapshot(p domain.Platform) []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for k, o := range c.entries {
		if k.Platform == p {
			out = append(out, Entry{Key: k, Observation: o})
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.AccountID != out[j].Key.AccountID {
			return out[i].Key.AccountID < out[j].Key.AccountID
		}
		return out[i].Key.SubscriberID < out[j].Key.SubscriberID
	})
	return out
}

// Len is the number of cached entries across all platforms.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
