package vm

import "fmt"

// ObjType tags the concrete shape of a heap Object.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeUpvalue
	ObjTypeClosure
)

// Object is implemented by every heap-allocated value. Rather than an
// intrusive next-pointer linked list threading every allocation into
// a process-wide chain, allocations are tracked by a Heap arena (see
// heap.go) and otherwise left to the host garbage collector.
type Object interface {
	ObjType() ObjType
	String() string
}

// ObjString is an immutable, interned byte sequence.
type ObjString struct {
	Chars string
	Hash  uint32
}

func (s *ObjString) ObjType() ObjType { return ObjTypeString }
func (s *ObjString) String() string   { return s.Chars }

// ObjFunction is an immutable, compiled function: its arity, its
// number of captured upvalues, and the chunk of bytecode that
// implements its body. Name is nil for the implicit top-level script.
type ObjFunction struct {
	Name         *ObjString
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
}

func (f *ObjFunction) ObjType() ObjType { return ObjTypeFunction }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature of a host function exposed to script code.
// It receives the owning VM explicitly, never through global state, so
// a native can intern strings or allocate heap objects of its own.
type NativeFn func(vm *VM, args []Value) Value

// ObjNative wraps a host callable so it can be stored in a Value and
// invoked by OP_CALL like any other callee.
type ObjNative struct {
	Name string
	Fn   NativeFn
}

func (n *ObjNative) ObjType() ObjType { return ObjTypeNative }
func (n *ObjNative) String() string   { return "<native fn>" }

// ObjUpvalue is the indirection cell bridging a captured local's
// lifetime from stack-resident to heap-resident. While open, it
// refers to a slot in the owning VM's value stack by index rather
// than by raw pointer: the VM's stack is a fixed-size array for the
// life of the VM, so the index remains a stable, comparable identity
// even though Go does not allow ordering comparisons on pointers.
// Once closed, the value has been copied into closed and the upvalue
// no longer depends on the stack.
type ObjUpvalue struct {
	stackIndex int
	closed     Value
	isClosed   bool
	next       *ObjUpvalue // open-upvalue list link, descending by stackIndex
}

func (u *ObjUpvalue) ObjType() ObjType { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string   { return "<upvalue>" }

// ObjClosure pairs a Function with the upvalues it closed over, one
// per slot the compiler recorded in the function's upvalue list.
type ObjClosure struct {
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) ObjType() ObjType { return ObjTypeClosure }
func (c *ObjClosure) String() string   { return c.Function.String() }
