package invocation_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/gridlink/invocation"
)

func TestRegistry_RemoveConnection(t *testing.T) {
	registry := invocation.NewRegistry()

	registry.Register(1, 1, &invocation.Invocation{})
	registry.Register(1, 2, &invocation.Invocation{})
	registry.Register(2, 1, &invocation.Invocation{})

	removed := registry.RemoveConnection(1)
	require.Len(t, removed, 2)
	require.Equal(t, 1, registry.Len())

	_, ok := registry.Get(2, 1)
	require.True(t, ok)
}

func TestRegistry_RemoveOnce(t *testing.T) {
	registry := invocation.NewRegistry()
	registry.Register(1, 1, &invocation.Invocation{})

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, ok := registry.Remove(1, 1); ok {
				winners.Add(1)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, int32(1), winners.Load())
	require.Equal(t, 0, registry.Len())
}

func TestRegistry_RemoveAll(t *testing.T) {
	registry := invocation.NewRegistry()

	for i := int64(0); i < 5; i++ {
		registry.Register(i, i, &invocation.Invocation{})
	}

	require.Len(t, registry.RemoveAll(), 5)
	require.Equal(t, 0, registry.Len())
}
