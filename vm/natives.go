package vm

import "time"

// defineNatives installs the VM's native function ABI. Native calls
// are infallible at this layer: a host function always returns some
// Value, even if it ignores its arguments.
func defineNatives(vm *VM) {
	vm.defineNative("clock", func(_ *VM, args []Value) Value {
		return Number(float64(time.Now().UnixNano()) / float64(time.Second))
	})
}

func (vm *VM) defineNative(name string, fn NativeFn) {
	native := &ObjNative{Name: name, Fn: fn}
	vm.heap.track(native)
	nameStr := InternString(vm.strings, vm.heap, name)
	vm.globals.Set(nameStr, ObjValue(native))
}
