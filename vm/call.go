package vm

// call pushes a new frame for closure, validating arity and call
// depth.
func (vm *VM) call(closure *ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == FramesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return true
}

// callValue dispatches a call to whatever callee actually is.
func (vm *VM) callValue(callee Value, argCount int) bool {
	if callee.IsObj() {
		switch c := callee.AsObj().(type) {
		case *ObjClosure:
			return vm.call(c, argCount)
		case *ObjNative:
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result := c.Fn(vm, args)
			vm.stackTop -= argCount + 1
			vm.push(result)
			return true
		}
	}
	vm.runtimeError("Can only call functions and classes.")
	return false
}
