// Grammar
//
// expression: term ( ("+" | "-") term )*
// term:       factor ( ("*" | "/") factor )*
// factor:     "-" factor | operand
// operand:    NUMBER | "(" expression ")" | "$" SOURCE "." FIELD
//           | ENTITY "." ATTRIBUTE | VARIABLE

package mathexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// ParseError is returned by Parse for malformed expressions.
type ParseError struct {
	// Position is the zero-based column where the error was detected.
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at column %d: %s", e.Position, e.Message)
}

type parser struct {
	lexer *lexer
	pos   int
	tok   token
	val   string
}

// Parse builds an expression tree from src. Operators of equal precedence
// associate to the left.
func Parse(src string) (expr Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			expr, err = nil, pe
		}
	}()

	p := &parser{lexer: newLexer([]byte(src))}
	p.next()

	expr = p.expression()
	if p.tok != tokEOL {
		panic(p.errorf("unexpected %s after expression", p.describe()))
	}
	return expr, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) expression() Expr {
	left := p.term()
	for p.tok == tokPlus || p.tok == tokMinus {
		op := Add
		if p.tok == tokMinus {
			op = Sub
		}
		p.next()
		left = Binary{Op: op, Left: left, Right: p.term()}
	}
	return left
}

func (p *parser) term() Expr {
	left := p.factor()
	for p.tok == tokStar || p.tok == tokSlash {
		op := Mul
		if p.tok == tokSlash {
			op = Div
		}
		p.next()
		left = Binary{Op: op, Left: left, Right: p.factor()}
	}
	return left
}

func (p *parser) factor() Expr {
	if p.tok == tokMinus {
		p.next()
		return Neg{X: p.factor()}
	}
	return p.operand()
}

func (p *parser) operand() Expr {
	switch p.tok {
	case tokNumber:
		v, err := strconv.ParseFloat(p.val, 64)
		if err != nil {
			panic(p.errorf("invalid number %q", p.val))
		}
		p.next()
		return Number{Value: v}
	case tokLParen:
		p.next()
		e := p.expression()
		if p.tok != tokRParen {
			panic(p.errorf("expected ')' instead of %s", p.describe()))
		}
		p.next()
		return e
	case tokRest:
		source, field, ok := strings.Cut(p.val, ".")
		if !ok || source == "" || field == "" {
			panic(p.errorf("REST reference %q must be $Source.field", "$"+p.val))
		}
		p.next()
		return Ref{Ref: scope.RestRef{Source: source, Field: field}}
	case tokIdent:
		name := p.val
		p.next()
		if ent, attr, ok := strings.Cut(name, "."); ok {
			if ent == "" || attr == "" {
				panic(p.errorf("malformed attribute reference %q", name))
			}
			return Ref{Ref: scope.AttrRef{Entity: ent, Attribute: attr}}
		}
		return Ref{Ref: scope.VarRef{Name: name}}
	default:
		panic(p.errorf("expected operand instead of %s", p.describe()))
	}
}

func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.scan()
}

func (p *parser) describe() string {
	if p.tok == tokIllegal {
		return fmt.Sprintf("%q", p.val)
	}
	return p.tok.String()
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Position: p.pos, Message: fmt.Sprintf(format, args...)}
}
