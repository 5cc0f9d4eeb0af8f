package generic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapValues(t *testing.T) {
	mapA := map[string]int{"key1": 1, "key2": 2}
	mapB := map[string]int{"key3": 3}
	assert.ElementsMatch(t, []int{1, 2, 3}, MapValues(mapA, mapB))
}

func TestShuffle_KeepsElements(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	Shuffle(s)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, s)
}

func TestSyncMap_LoadAndDeleteOnce(t *testing.T) {
	m := SyncMap[int, string]{}
	m.Store(1, "one")

	var (
		wg     sync.WaitGroup
		mut    sync.Mutex
		loaded int
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, ok := m.LoadAndDelete(1); ok {
				mut.Lock()
				loaded++
				mut.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 1, loaded)
	require.Equal(t, 0, m.Len())
}
