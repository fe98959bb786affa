package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeapTracksAndFrees(t *testing.T) {
	heap := NewHeap()
	heap.track(&ObjString{Chars: "a"})
	heap.track(&ObjString{Chars: "b"})
	assert.Equal(t, 2, heap.Count())

	heap.Free()
	assert.Equal(t, 0, heap.Count())
}
