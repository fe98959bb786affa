package vm

import "fmt"

// run is the dispatcher: it decodes one instruction at a time from
// the current frame's chunk and executes it. This is the single hot
// path of the interpreter; it is written as a plain switch over the
// opcode enumeration.
func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readUint16 := func() uint16 {
		hi := readByte()
		lo := readByte()
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *ObjString {
		return readConstant().AsObj().(*ObjString)
	}

	for {
		if vm.trace {
			vm.traceInstruction(frame)
		}

		instruction := OpCode(readByte())
		switch instruction {
		case OpConstant:
			vm.push(readConstant())

		case OpNil:
			vm.push(Nil())

		case OpTrue:
			vm.push(Bool(true))

		case OpFalse:
			vm.push(Bool(false))

		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.slots+int(slot)])

		case OpSetLocal:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case OpGetGlobal:
			name := readString()
			value, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)

		case OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			slot := readByte()
			vm.push(vm.readUpvalue(frame.closure.Upvalues[slot]))

		case OpSetUpvalue:
			slot := readByte()
			vm.writeUpvalue(frame.closure.Upvalues[slot], vm.peek(0))

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(Bool(Equal(a, b)))

		case OpGreater:
			if res, ok := vm.numericCompare(func(a, b float64) bool { return a > b }); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be numbers.")
			}

		case OpLess:
			if res, ok := vm.numericCompare(func(a, b float64) bool { return a < b }); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be numbers.")
			}

		case OpAdd:
			if res, ok := vm.add(); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case OpSubtract:
			if res, ok := vm.numericBinary(func(a, b float64) float64 { return a - b }); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be numbers.")
			}

		case OpMultiply:
			if res, ok := vm.numericBinary(func(a, b float64) float64 { return a * b }); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be numbers.")
			}

		case OpDivide:
			if res, ok := vm.numericBinary(func(a, b float64) float64 { return a / b }); ok {
				vm.push(res)
			} else {
				return vm.runtimeError("Operands must be numbers.")
			}

		case OpNot:
			vm.push(Bool(vm.pop().IsFalsey()))

		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(Number(-vm.pop().AsNumber()))

		case OpPrint:
			fmt.Fprintln(vm.out, Print(vm.pop()))

		case OpJump:
			offset := readUint16()
			frame.ip += int(offset)

		case OpJumpIfFalse:
			offset := readUint16()
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}

		case OpLoop:
			offset := readUint16()
			frame.ip -= int(offset)

		case OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := readConstant().AsObj().(*ObjFunction)
			closure := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
			vm.heap.track(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(ObjValue(closure))

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			return vm.runtimeError("Unknown opcode %d.", instruction)
		}
	}
}

func (vm *VM) numericCompare(cmp func(a, b float64) bool) (Value, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return Value{}, false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	return Bool(cmp(a, b)), true
}

func (vm *VM) numericBinary(op func(a, b float64) float64) (Value, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return Value{}, false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	return Number(op(a, b)), true
}

func (vm *VM) add() (Value, bool) {
	bIsStr := isObjString(vm.peek(0))
	aIsStr := isObjString(vm.peek(1))
	switch {
	case aIsStr && bIsStr:
		b := vm.pop().AsObj().(*ObjString)
		a := vm.pop().AsObj().(*ObjString)
		concatenated := InternString(vm.strings, vm.heap, a.Chars+b.Chars)
		return ObjValue(concatenated), true
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		return Number(a + b), true
	default:
		return Value{}, false
	}
}

func isObjString(v Value) bool {
	if !v.IsObj() {
		return false
	}
	_, ok := v.AsObj().(*ObjString)
	return ok
}
