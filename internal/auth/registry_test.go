package auth_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

func countingFactory() (auth.Factory, *int) {
	var mu sync.Mutex
	created := 0
	return func(sessionID string) *auth.Resolver {
		mu.Lock()
		created++
		mu.Unlock()
		return auth.NewResolver(nil, nil, nil, auth.Options{})
	}, &created
}

func TestRegistryKeepsOneResolverPerSession(t *testing.T) {
	factory, created := countingFactory()
	registry := auth.NewRegistry(8, time.Hour, factory)

	a := registry.Get("a")
	require.Same(t, a, registry.Get("a"))
	b := registry.Get("b")
	require.NotSame(t, a, b)
	require.Equal(t, 2, *created)
	require.Equal(t, 2, registry.Len())

	a.SetUser(&auth.User{ID: 1, Roles: []rbac.Role{{Name: "Director"}}})
	require.True(t, registry.Get("a").HasRole("Director"))
	require.False(t, registry.Get("b").HasRole("Director"))

	registry.Remove("a")
	require.NotSame(t, a, registry.Get("a"))
	require.Equal(t, 3, *created)
}

func TestRegistryEvictsOldest(t *testing.T) {
	factory, _ := countingFactory()
	registry := auth.NewRegistry(2, time.Hour, factory)
	first := registry.Get("1")
	registry.Get("2")
	registry.Get("3")
	require.Equal(t, 2, registry.Len())
	require.NotSame(t, first, registry.Get("1"))
}

func TestRegistryConcurrentGet(t *testing.T) {
	factory, created := countingFactory()
	registry := auth.NewRegistry(0, time.Hour, factory)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Get(fmt.Sprintf("s%d", i%4))
		}(i)
	}
	wg.Wait()
	require.Equal(t, 4, *created)
	require.Equal(t, 4, registry.Len())
}
