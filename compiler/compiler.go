// Package compiler implements the single-pass compiler the VM
// consumes: a Pratt-parsing front end that scans tokens with
// loxvm/lexer and emits loxvm/vm bytecode directly, with no
// intermediate AST. Every constant it references is declared in the
// chunk, every path ends in OP_RETURN, and OP_CLOSURE's upvalue
// operands match the function's declared upvalue count. It also
// interns every identifier and string literal through the VM's
// string table.
package compiler

import (
	"fmt"
	"strconv"

	"loxvm/lexer"
	"loxvm/vm"
)

type functionType int

const (
	typeFunction functionType = iota
	typeScript
)

type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// Compiler holds one function scope's worth of compile-time state: the
// chunk being built, the lexical locals declared in it, and a link to
// the enclosing scope so nested functions can resolve free variables
// as upvalues.
type Compiler struct {
	enclosing *Compiler
	function  *vm.ObjFunction
	fnType    functionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	parser *parser
}

// parser is the shared scanning/error state threaded through every
// nested Compiler for one compilation.
type parser struct {
	scanner *lexer.Scanner
	vm      *vm.VM

	current   lexer.Token
	previous  lexer.Token
	hadError  bool
	panicMode bool
}

// Compile turns source into a top-level ObjFunction, or reports a
// compile error. It matches the signature vm.Interpret expects for
// its compile callback.
func Compile(v *vm.VM, source string) (*vm.ObjFunction, bool) {
	p := &parser{scanner: lexer.New(source), vm: v}

	c := newCompiler(p, nil, typeScript, "")

	p.advance()
	for !p.match(lexer.EOF) {
		c.declaration()
	}

	fn := c.end()
	return fn, !p.hadError
}

func newCompiler(p *parser, enclosing *Compiler, fnType functionType, name string) *Compiler {
	c := &Compiler{
		enclosing: enclosing,
		fnType:    fnType,
		parser:    p,
		function:  &vm.ObjFunction{Chunk: vm.NewChunk()},
	}
	if name != "" {
		c.function.Name = vm.InternString(p.vm.Strings(), p.vm.Heap(), name)
	}
	// Slot 0 of every frame is reserved for the called value itself.
	c.locals = append(c.locals, local{name: "", depth: 0})
	return c
}

func (c *Compiler) chunk() *vm.Chunk { return c.function.Chunk }

func (c *Compiler) end() *vm.ObjFunction {
	c.emitReturn()
	return c.function
}

// --- token plumbing -------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.ScanToken()
		if p.current.Type != lexer.Error {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(t lexer.TokenType) bool { return p.current.Type == t }

func (p *parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t lexer.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *parser) error(message string)          { p.errorAt(p.previous, message) }

func (p *parser) errorAt(tok lexer.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	w := p.vm.ErrorOutput()
	fmt.Fprintf(w, "[line %d] Error", tok.Line)
	switch tok.Type {
	case lexer.EOF:
		fmt.Fprint(w, " at end")
	case lexer.Error:
		// lexeme is already the message
	default:
		fmt.Fprintf(w, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(w, ": %s\n", message)
	p.hadError = true
}

func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Type != lexer.EOF {
		if p.previous.Type == lexer.Semicolon {
			return
		}
		switch p.current.Type {
		case lexer.Class, lexer.Fun, lexer.Var, lexer.For, lexer.If, lexer.While, lexer.Print, lexer.Return:
			return
		}
		p.advance()
	}
}

// --- emitting bytecode ----------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.parser.previous.Line)
}

func (c *Compiler) emitOp(op vm.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(op vm.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(vm.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.parser.error("Loop body too large.")
	}
	c.chunk().WriteUint16(uint16(offset), c.parser.previous.Line)
}

func (c *Compiler) emitJump(op vm.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.parser.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitReturn() {
	c.emitOp(vm.OpNil)
	c.emitOp(vm.OpReturn)
}

func (c *Compiler) makeConstant(v vm.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.parser.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v vm.Value) {
	c.emitBytes(vm.OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(name string) byte {
	s := vm.InternString(c.parser.vm.Strings(), c.parser.vm.Heap(), name)
	return c.makeConstant(vm.ObjValue(s))
}

// --- scopes and locals ------------------------------------------------

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		if c.locals[len(c.locals)-1].isCaptured {
			c.emitOp(vm.OpCloseUpvalue)
		} else {
			c.emitOp(vm.OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) declareVariable(name string) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := &c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.parser.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.locals) >= 256 {
		c.parser.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				c.parser.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := c.enclosing.resolveLocal(name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(byte(local), true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(index byte, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= 256 {
		c.parser.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

// --- declarations and statements --------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.parser.match(lexer.Fun):
		c.funDeclaration()
	case c.parser.match(lexer.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.parser.panicMode {
		c.parser.synchronize()
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function_(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) function_(fnType functionType) {
	p := c.parser
	name := p.previous.Lexeme
	inner := newCompiler(p, c, fnType, name)

	inner.beginScope()
	p.consume(lexer.LeftParen, "Expect '(' after function name.")
	if !p.check(lexer.RightParen) {
		for {
			inner.function.Arity++
			if inner.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := inner.parseVariable("Expect parameter name.")
			inner.defineVariable(constant)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after parameters.")
	p.consume(lexer.LeftBrace, "Expect '{' before function body.")
	inner.block()

	fn := inner.end()

	c.emitBytes(vm.OpClosure, c.makeConstant(vm.ObjValue(fn)))
	for _, u := range inner.upvalues {
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.parser.match(lexer.Equal) {
		c.expression()
	} else {
		c.emitOp(vm.OpNil)
	}
	c.parser.consume(lexer.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) parseVariable(message string) byte {
	c.parser.consume(lexer.Identifier, message)
	name := c.parser.previous.Lexeme
	c.declareVariable(name)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(vm.OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	p := c.parser
	switch {
	case p.match(lexer.Print):
		c.printStatement()
	case p.match(lexer.For):
		c.forStatement()
	case p.match(lexer.If):
		c.ifStatement()
	case p.match(lexer.Return):
		c.returnStatement()
	case p.match(lexer.While):
		c.whileStatement()
	case p.match(lexer.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	p := c.parser
	for !p.check(lexer.RightBrace) && !p.check(lexer.EOF) {
		c.declaration()
	}
	p.consume(lexer.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.parser.consume(lexer.Semicolon, "Expect ';' after value.")
	c.emitOp(vm.OpPrint)
}

func (c *Compiler) returnStatement() {
	p := c.parser
	if c.fnType == typeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(lexer.Semicolon) {
		c.emitReturn()
		return
	}
	c.expression()
	p.consume(lexer.Semicolon, "Expect ';' after return value.")
	c.emitOp(vm.OpReturn)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.parser.consume(lexer.Semicolon, "Expect ';' after expression.")
	c.emitOp(vm.OpPop)
}

func (c *Compiler) ifStatement() {
	p := c.parser
	p.consume(lexer.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()

	elseJump := c.emitJump(vm.OpJump)
	c.patchJump(thenJump)
	c.emitOp(vm.OpPop)

	if p.match(lexer.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	p := c.parser
	loopStart := len(c.chunk().Code)
	p.consume(lexer.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(vm.OpPop)
}

func (c *Compiler) forStatement() {
	p := c.parser
	c.beginScope()
	p.consume(lexer.LeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(lexer.Semicolon):
		// no initializer
	case p.match(lexer.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !p.match(lexer.Semicolon) {
		c.expression()
		p.consume(lexer.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(vm.OpJumpIfFalse)
		c.emitOp(vm.OpPop)
	}

	if !p.match(lexer.RightParen) {
		bodyJump := c.emitJump(vm.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(vm.OpPop)
		p.consume(lexer.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(vm.OpPop)
	}

	c.endScope()
}

// --- expressions -------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.parser.previous.Lexeme, 64)
	if err != nil {
		c.parser.error("Invalid number literal.")
		return
	}
	c.emitConstant(vm.Number(n))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	lexeme := c.parser.previous.Lexeme
	raw := lexeme[1 : len(lexeme)-1] // strip surrounding quotes
	s := vm.InternString(c.parser.vm.Strings(), c.parser.vm.Heap(), raw)
	c.emitConstant(vm.ObjValue(s))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.parser.previous.Type {
	case lexer.False:
		c.emitOp(vm.OpFalse)
	case lexer.Nil:
		c.emitOp(vm.OpNil)
	case lexer.True:
		c.emitOp(vm.OpTrue)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.parser.consume(lexer.RightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.parser.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case lexer.Bang:
		c.emitOp(vm.OpNot)
	case lexer.Minus:
		c.emitOp(vm.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.parser.previous.Type
	rule := ruleFor(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.BangEqual:
		c.emitOp(vm.OpEqual)
		c.emitOp(vm.OpNot)
	case lexer.EqualEqual:
		c.emitOp(vm.OpEqual)
	case lexer.Greater:
		c.emitOp(vm.OpGreater)
	case lexer.GreaterEqual:
		c.emitOp(vm.OpLess)
		c.emitOp(vm.OpNot)
	case lexer.Less:
		c.emitOp(vm.OpLess)
	case lexer.LessEqual:
		c.emitOp(vm.OpGreater)
		c.emitOp(vm.OpNot)
	case lexer.Plus:
		c.emitOp(vm.OpAdd)
	case lexer.Minus:
		c.emitOp(vm.OpSubtract)
	case lexer.Star:
		c.emitOp(vm.OpMultiply)
	case lexer.Slash:
		c.emitOp(vm.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	endJump := c.emitJump(vm.OpJump)

	c.patchJump(elseJump)
	c.emitOp(vm.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitBytes(vm.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	p := c.parser
	var count int
	if !p.check(lexer.RightParen) {
		for {
			c.expression()
			if count == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.parser.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp vm.OpCode
	arg := c.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = vm.OpGetLocal, vm.OpSetLocal
	} else if up := c.resolveUpvalue(name); up != -1 {
		arg = up
		getOp, setOp = vm.OpGetUpvalue, vm.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = vm.OpGetGlobal, vm.OpSetGlobal
	}

	if canAssign && c.parser.match(lexer.Equal) {
		c.expression()
		c.emitBytes(setOp, byte(arg))
	} else {
		c.emitBytes(getOp, byte(arg))
	}
}
