package tool

import (
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Cache memoizes outbound calls for the lifetime of a single run, so a model
// that re-asks the same question does not multiply load on the knowledge
// service. It is confined to one run's single thread of control.
type Cache struct {
	entries map[string][]byte
	misses  int
}

// NewCache creates an empty per-run cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// CacheKey builds the canonical key for a normalized input. json.Marshal
// emits struct fields in declaration order and map keys sorted, so equal
// normalized inputs always produce equal keys.
func CacheKey(name string, input any) string {
	data, err := json.Marshal(input)
	if err != nil {
		// fall through with a non-colliding key; the call just won't be cached
		return fmt.Sprintf("%s:!%p", name, &input)
	}
	return name + ":" + string(data)
}

// Misses returns how many fetches actually went out.
func (c *Cache) Misses() int { return c.misses }

// Cached returns the memoized value for key, fetching it on first use. Errors
// are not cached, so a failed call can be retried with the same arguments.
func Cached[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	var out T

	if data, ok := c.entries[key]; ok {
		if err := json.Unmarshal(data, &out); err != nil {
			return out, goerr.Wrap(err, "failed to decode cached entry", goerr.V("key", key))
		}
		return out, nil
	}

	c.misses++
	out, err := fetch()
	if err != nil {
		return out, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return out, goerr.Wrap(err, "failed to encode cache entry", goerr.V("key", key))
	}
	c.entries[key] = data
	return out, nil
}
