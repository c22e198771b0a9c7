package upstream

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientPool_GetReturnsSameClientForSameKey(t *testing.T) {
	pool := NewClientPool()

	a := pool.Get(true)
	b := pool.Get(true)

	assert.Same(t, a, b)
}

func TestClientPool_GetDistinguishesVerifyTLS(t *testing.T) {
	pool := NewClientPool()

	verify := pool.Get(true)
	skip := pool.Get(false)

	assert.NotSame(t, verify, skip)
}

func TestClientPool_ConcurrentFirstGetsCollapseToOneClient(t *testing.T) {
	pool := NewClientPool()

	const goroutines = 32
	results := make([]*http.Client, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = pool.Get(true)
		}(i)
	}
	wg.Wait()

	first := results[0]
	for _, client := range results[1:] {
		assert.Same(t, first, client)
	}
}
