package compiler

import "loxvm/lexer"

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		lexer.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		lexer.Plus:         {infix: (*Compiler).binary, precedence: precTerm},
		lexer.Slash:        {infix: (*Compiler).binary, precedence: precFactor},
		lexer.Star:         {infix: (*Compiler).binary, precedence: precFactor},
		lexer.Bang:         {prefix: (*Compiler).unary},
		lexer.BangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
		lexer.EqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
		lexer.Greater:      {infix: (*Compiler).binary, precedence: precComparison},
		lexer.GreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
		lexer.Less:         {infix: (*Compiler).binary, precedence: precComparison},
		lexer.LessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
		lexer.Identifier:   {prefix: (*Compiler).variable},
		lexer.String:       {prefix: (*Compiler).stringLiteral},
		lexer.Number:       {prefix: (*Compiler).number},
		lexer.And:          {infix: (*Compiler).and_, precedence: precAnd},
		lexer.Or:           {infix: (*Compiler).or_, precedence: precOr},
		lexer.False:        {prefix: (*Compiler).literal},
		lexer.Nil:          {prefix: (*Compiler).literal},
		lexer.True:         {prefix: (*Compiler).literal},
	}
}

func ruleFor(t lexer.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}

// parsePrecedence is the core of the Pratt parser: it consumes a
// prefix expression, then keeps folding in infix operators as long as
// their precedence is at least minPrec.
func (c *Compiler) parsePrecedence(minPrec precedence) {
	p := c.parser
	p.advance()
	prefix := ruleFor(p.previous.Type).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := minPrec <= precAssignment
	prefix(c, canAssign)

	for minPrec <= ruleFor(p.current.Type).precedence {
		p.advance()
		infix := ruleFor(p.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && p.match(lexer.Equal) {
		p.error("Invalid assignment target.")
	}
}
