package compiler

import "github.com/wisteria-lang/wisteria/lang/token"

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {(*Compiler).grouping, (*Compiler).call, precCall},
		token.DOT:           {nil, (*Compiler).dot, precCall},
		token.MINUS:         {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.PLUS:          {nil, (*Compiler).binary, precTerm},
		token.SLASH:         {nil, (*Compiler).binary, precFactor},
		token.STAR:          {nil, (*Compiler).binary, precFactor},
		token.BANG:          {(*Compiler).unary, nil, precNone},
		token.BANG_EQUAL:    {nil, (*Compiler).binary, precEquality},
		token.EQUAL_EQUAL:   {nil, (*Compiler).binary, precEquality},
		token.GREATER:       {nil, (*Compiler).binary, precComparison},
		token.GREATER_EQUAL: {nil, (*Compiler).binary, precComparison},
		token.LESS:          {nil, (*Compiler).binary, precComparison},
		token.LESS_EQUAL:    {nil, (*Compiler).binary, precComparison},
		token.IDENTIFIER:    {(*Compiler).variable, nil, precNone},
		token.STRING:        {(*Compiler).string_, nil, precNone},
		token.NUMBER:        {(*Compiler).number, nil, precNone},
		token.AND:           {nil, (*Compiler).and_, precAnd},
		token.FALSE:         {(*Compiler).literal, nil, precNone},
		token.NIL:           {(*Compiler).literal, nil, precNone},
		token.OR:            {nil, (*Compiler).or_, precOr},
		token.SUPER:         {(*Compiler).super_, nil, precNone},
		token.THIS:          {(*Compiler).this_, nil, precNone},
		token.TRUE:          {(*Compiler).literal, nil, precNone},
	}
}

func getRule(k token.Kind) parseRule {
	if r, ok := rules[k]; ok {
		return r
	}
	return parseRule{precedence: precNone}
}
