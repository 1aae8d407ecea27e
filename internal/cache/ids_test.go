package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDIndex_SetAndGet_CaseInsensitive(t *testing.T) {
	idx := NewIDIndex()

	require.True(t, idx.Set("Tokyo", 3))

	i, ok := idx.Get("tokyo")
	require.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = idx.Get("  TOKYO ")
	require.True(t, ok)
	assert.Equal(t, 3, i)
}

func TestIDIndex_FirstWins(t *testing.T) {
	idx := NewIDIndex()

	assert.True(t, idx.Set("a", 1))
	assert.False(t, idx.Set("A", 2))

	i, _ := idx.Get("a")
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, idx.Len())
}

func TestIDIndex_NotFound(t *testing.T) {
	idx := NewIDIndex()
	_, ok := idx.Get("missing")
	assert.False(t, ok)
}

func TestIDIndex_Reset(t *testing.T) {
	idx := NewIDIndex()
	idx.Set("a", 1)
	idx.Reset()
	assert.Equal(t, 0, idx.Len())
}

func TestIDIndex_ConcurrentAccess(t *testing.T) {
	idx := NewIDIndex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			idx.Set(string(rune('a'+n%26)), n)
			idx.Get("a")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, idx.Len())
}
