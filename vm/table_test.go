package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	table := NewTable()
	strings := NewTable()
	heap := NewHeap()
	a := InternString(strings, heap, "a")
	b := InternString(strings, heap, "b")

	assert.True(t, table.Set(a, Number(1)))
	assert.False(t, table.Set(a, Number(2)), "re-setting an existing key is not a new insert")

	v, ok := table.Get(a)
	require.True(t, ok)
	assert.Equal(t, 2.0, v.AsNumber())

	_, ok = table.Get(b)
	assert.False(t, ok, "b was never set")

	assert.True(t, table.Delete(a))
	_, ok = table.Get(a)
	assert.False(t, ok, "deleted key must not be found")
}

func TestTableTombstoneKeepsProbeChainIntact(t *testing.T) {
	table := NewTable()
	heap := NewHeap()
	// Force several keys into the same small table to build a probe
	// chain, then delete one from the middle of it.
	keys := make([]*ObjString, 0, 8)
	for i := 0; i < 8; i++ {
		keys = append(keys, InternString(table, heap, string(rune('a'+i))))
		table.Set(keys[i], Number(float64(i)))
	}

	require.True(t, table.Delete(keys[3]))

	for i, k := range keys {
		if i == 3 {
			continue
		}
		v, ok := table.Get(k)
		require.True(t, ok, "key %d should still be reachable past the tombstone", i)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

func TestTableGrowsAndRehashes(t *testing.T) {
	table := NewTable()
	heap := NewHeap()
	for i := 0; i < 100; i++ {
		key := InternString(table, heap, string(rune(i))+"-key")
		table.Set(key, Number(float64(i)))
	}
	for i := 0; i < 100; i++ {
		key := InternString(table, heap, string(rune(i))+"-key")
		v, ok := table.Get(key)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

func TestInternStringCanonicalizes(t *testing.T) {
	table := NewTable()
	heap := NewHeap()
	a := InternString(table, heap, "shared")
	b := InternString(table, heap, "shared")
	assert.Same(t, a, b, "equal-content strings must intern to the same object")

	c := InternString(table, heap, "different")
	assert.NotSame(t, a, c)
}

func TestAddAllCopiesLiveEntriesOnly(t *testing.T) {
	src := NewTable()
	dst := NewTable()
	heap := NewHeap()
	a := InternString(src, heap, "a")
	b := InternString(src, heap, "b")
	src.Set(a, Number(1))
	src.Set(b, Number(2))
	src.Delete(b)

	dst.AddAll(src)

	_, ok := dst.Get(a)
	assert.True(t, ok)
	_, ok = dst.Get(b)
	assert.False(t, ok, "tombstoned entries must not propagate")
}
