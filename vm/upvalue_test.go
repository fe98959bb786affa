package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureUpvalueSharesSameSlot(t *testing.T) {
	machine := New(nil)
	machine.stack[5] = Number(1)

	a := machine.captureUpvalue(5)
	b := machine.captureUpvalue(5)
	assert.Same(t, a, b, "capturing the same still-open slot twice must share the upvalue")
}

func TestCaptureUpvalueKeepsListSortedDescending(t *testing.T) {
	machine := New(nil)
	machine.captureUpvalue(2)
	machine.captureUpvalue(7)
	machine.captureUpvalue(4)

	var order []int
	for up := machine.openUpvalues; up != nil; up = up.next {
		order = append(order, up.stackIndex)
	}
	assert.Equal(t, []int{7, 4, 2}, order)
}

func TestCloseUpvaluesCopiesValueAndDetaches(t *testing.T) {
	machine := New(nil)
	machine.stack[3] = Number(42)
	up := machine.captureUpvalue(3)

	machine.closeUpvalues(0)

	assert.True(t, up.isClosed)
	assert.Equal(t, 42.0, machine.readUpvalue(up).AsNumber())
	assert.Nil(t, machine.openUpvalues)
}

func TestCloseUpvaluesOnlyAboveBoundary(t *testing.T) {
	machine := New(nil)
	machine.stack[1] = Number(1)
	machine.stack[9] = Number(9)
	low := machine.captureUpvalue(1)
	high := machine.captureUpvalue(9)

	machine.closeUpvalues(5)

	assert.True(t, high.isClosed)
	assert.False(t, low.isClosed)
	assert.Same(t, low, machine.openUpvalues)
}

func TestWriteUpvalueAfterClose(t *testing.T) {
	machine := New(nil)
	machine.stack[0] = Number(1)
	up := machine.captureUpvalue(0)
	machine.closeUpvalues(0)

	machine.writeUpvalue(up, Number(99))
	assert.Equal(t, 99.0, machine.readUpvalue(up).AsNumber())
}
