// Package driver wires the compiler's output into the VM's call stack
// and dispatcher. It is the thinnest possible glue, kept separate from
// package vm so that vm never needs to import the compiler.
package driver

import (
	"io"

	"loxvm/compiler"
	"loxvm/vm"
)

// New returns a VM ready to interpret Lox source, printing program
// output to out.
func New(out io.Writer) *vm.VM {
	return vm.New(out)
}

// Run compiles and executes source against machine, returning the
// three-way outcome: OK, CompileError, or RuntimeError.
func Run(machine *vm.VM, source string) vm.InterpretResult {
	return machine.Interpret(source, compiler.Compile)
}

// Trace toggles the per-instruction disassembly trace.
func Trace(machine *vm.VM, on bool) {
	machine.SetTrace(on)
}
