package conversation

import (
	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps records in process memory. Nothing expires.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	if x, found := b.cache.Get(key); found {
		data := x.([]byte)
		return append([]byte(nil), data...), true, nil
	}
	return nil, false, nil
}

func (b *MemoryBackend) Set(key string, data []byte) error {
	b.cache.Set(key, append([]byte(nil), data...), cache.NoExpiration)
	return nil
}

func (b *MemoryBackend) Remove(key string) error {
	b.cache.Delete(key)
	return nil
}
