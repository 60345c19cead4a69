package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// NamingCache keeps generated topic names for an hour so identical memberships are not sent to the model twice.
type NamingCache[T any] struct {
	cache *cache.Cache
}

func NewNamingCache[T any](ttl time.Duration) *NamingCache[T] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &NamingCache[T]{cache: cache.New(ttl, 10*time.Minute)}
}

func (r *NamingCache[T]) Save(key string, value T) {
	r.cache.Set(key, value, cache.DefaultExpiration)
}

func (r *NamingCache[T]) Get(key string) (T, bool) {
	if x, found := r.cache.Get(key); found {
		if v, ok := x.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (r *NamingCache[T]) Count() int {
	return r.cache.ItemCount()
}
