package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapBasicOps(t *testing.T) {
	m := NewMap[int]()

	m.Set("a", 1)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestMapSetIfAbsent(t *testing.T) {
	m := NewMap[string]()

	assert.True(t, m.SetIfAbsent("k", "first"))
	assert.False(t, m.SetIfAbsent("k", "second"))

	v, _ := m.Get("k")
	assert.Equal(t, "first", v)
}

func TestMapUpdateSerializesPerKey(t *testing.T) {
	m := NewMap[int]()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update("counter", func(cur int, ok bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	v, _ := m.Get("counter")
	assert.Equal(t, 100, v)
}

func TestMapDeleteIf(t *testing.T) {
	m := NewMap[int]()
	for i := 0; i < 20; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	removed := m.DeleteIf(func(_ string, v int) bool { return v%2 == 0 })
	assert.Equal(t, 10, removed)
	assert.Equal(t, 10, m.Len())
}

func TestMapRange(t *testing.T) {
	m := NewMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}
