package auth

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Factory builds the resolver for a browser session.
type Factory func(sessionID string) *Resolver

// Registry keeps one Resolver per browser session. Idle resolvers are
// evicted; their tokens stay in the store, so a later request rebuilds the
// user with CurrentUser.
type Registry struct {
	mu      sync.Mutex
	cache   *lru.LRU[string, *Resolver]
	factory Factory
}

// NewRegistry constructs a Registry holding at most size resolvers, each
// expiring ttl after it was created.
func NewRegistry(size int, ttl time.Duration, factory Factory) *Registry {
	if size <= 0 {
		size = 1024
	}
	return &Registry{
		cache:   lru.NewLRU[string, *Resolver](size, nil, ttl),
		factory: factory,
	}
}

// Get returns the resolver for sessionID, creating it on first use.
func (r *Registry) Get(sessionID string) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache.Get(sessionID); ok {
		return res
	}
	res := r.factory(sessionID)
	r.cache.Add(sessionID, res)
	return res
}

// Remove forgets the resolver for sessionID.
func (r *Registry) Remove(sessionID string) {
	r.cache.Remove(sessionID)
}

// Len reports how many resolvers are held.
func (r *Registry) Len() int {
	return r.cache.Len()
}
