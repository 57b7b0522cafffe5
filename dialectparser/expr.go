package dialectparser

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub003/tokenizer"
)

// parseExpr parses a full expression at OR precedence, the entry point
// used by every clause.
func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("OR") {
		p.advance()

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("AND") {
		p.advance()

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()

		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{Op: "NOT", Operand: operand}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.cur().Type == tokenizer.EQUAL, p.cur().Type == tokenizer.NOT_EQUAL,
			p.cur().Type == tokenizer.LESS_THAN, p.cur().Type == tokenizer.GREATER_THAN,
			p.cur().Type == tokenizer.LESS_EQUAL, p.cur().Type == tokenizer.GREATER_EQUAL:
			op := p.advance().Value

			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			left = &BinaryExpr{Op: op, Left: left, Right: right}
		case p.isKeyword("BETWEEN"):
			p.advance()

			low, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			if err := p.expectKeyword("AND"); err != nil {
				return nil, err
			}

			high, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			left = &BetweenExpr{Expr: left, Low: low, High: high}
		case p.isKeyword("NOT") && p.peekAt(1).Type == tokenizer.KEYWORD && strings.EqualFold(p.peekAt(1).Value, "BETWEEN"):
			p.advance()
			p.advance()

			low, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			if err := p.expectKeyword("AND"); err != nil {
				return nil, err
			}

			high, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			left = &BetweenExpr{Negated: true, Expr: left, Low: low, High: high}
		case p.isKeyword("IN"):
			p.advance()

			in, err := p.parseInTail(left, false)
			if err != nil {
				return nil, err
			}

			left = in
		case p.isKeyword("NOT") && p.peekAt(1).Type == tokenizer.KEYWORD && strings.EqualFold(p.peekAt(1).Value, "IN"):
			p.advance()
			p.advance()

			in, err := p.parseInTail(left, true)
			if err != nil {
				return nil, err
			}

			left = in
		case p.isKeyword("LIKE"):
			p.advance()

			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			left = &BinaryExpr{Op: "LIKE", Left: left, Right: right}
		case p.isKeyword("IS"):
			p.advance()

			negated := false

			if p.isKeyword("NOT") {
				p.advance()

				negated = true
			}

			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}

			op := "IS NULL"
			if negated {
				op = "IS NOT NULL"
			}

			left = &UnaryExpr{Op: op, Operand: left}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseInTail(subject Expr, negated bool) (Expr, error) {
	if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
		return nil, err
	}

	if p.isKeyword("SELECT") {
		stmt, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		return &InExpr{Negated: negated, Expr: subject, Stmt: stmt}, nil
	}

	var list []Expr

	for {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		list = append(list, item)

		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
		return nil, err
	}

	return &InExpr{Negated: negated, Expr: subject, List: list}, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.cur().Type == tokenizer.PLUS || p.cur().Type == tokenizer.MINUS || p.cur().Type == tokenizer.CONCAT {
		op := p.advance().Value

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.cur().Type == tokenizer.MULTIPLY || p.cur().Type == tokenizer.DIVIDE {
		op := p.advance().Value

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur().Type == tokenizer.MINUS {
		p.advance()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{Op: "-", Operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch {
	case p.isKeyword("EXISTS"):
		p.advance()

		if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
			return nil, err
		}

		stmt, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		return &ExistsExpr{Stmt: stmt}, nil

	case p.isKeyword("CASE"):
		return p.parseCase()

	case p.isKeyword("CAST"):
		return p.parseCast()

	case p.isKeyword("NULL"):
		p.advance()
		return &Literal{Kind: LiteralNull}, nil

	case p.isKeyword("TRUE"):
		p.advance()
		return &Literal{Kind: LiteralBool, Value: "true"}, nil

	case p.isKeyword("FALSE"):
		p.advance()
		return &Literal{Kind: LiteralBool, Value: "false"}, nil

	case p.cur().Type == tokenizer.STRING:
		v := p.advance().Value
		return &Literal{Kind: LiteralString, Value: v}, nil

	case p.cur().Type == tokenizer.NUMBER:
		v := p.advance().Value
		return &Literal{Kind: LiteralNumber, Value: v}, nil

	case p.cur().Type == tokenizer.OPENED_PARENS:
		p.advance()

		if p.isKeyword("SELECT") || p.isKeyword("WITH") {
			stmt, err := p.parseSelectStatement()
			if err != nil {
				return nil, err
			}

			if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
				return nil, err
			}

			return &SubqueryExpr{Stmt: stmt}, nil
		}

		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		return inner, nil

	case p.cur().Type == tokenizer.IDENTIFIER || p.cur().Type == tokenizer.QUOTED_IDENTIFIER:
		return p.parseIdentOrCall()

	default:
		return nil, p.errf("unexpected token %s %q in expression", p.cur().Type, p.cur().Value)
	}
}

func (p *parser) parseIdentOrCall() (Expr, error) {
	first, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}

	if p.cur().Type == tokenizer.DOT {
		p.advance()

		second, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}

		if p.cur().Type == tokenizer.OPENED_PARENS {
			return p.parseCallTail(second)
		}

		return &ColumnRef{Table: first, Name: second}, nil
	}

	if p.cur().Type == tokenizer.OPENED_PARENS {
		return p.parseCallTail(first)
	}

	return &ColumnRef{Name: first}, nil
}

func (p *parser) parseCallTail(name string) (Expr, error) {
	p.advance() // consume '('

	call := &FuncCall{Name: name}

	if p.cur().Type == tokenizer.MULTIPLY {
		p.advance()

		call.Star = true
	} else if p.cur().Type != tokenizer.CLOSED_PARENS {
		if p.isKeyword("DISTINCT") {
			p.advance()

			call.Distinct = true
		}

		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			call.Args = append(call.Args, arg)

			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}

			break
		}
	}

	if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
		return nil, err
	}

	if p.isKeyword("OVER") {
		p.advance()

		spec, err := p.parseWindowSpec()
		if err != nil {
			return nil, err
		}

		call.Over = spec
	}

	return call, nil
}

func (p *parser) parseWindowSpec() (*WindowSpec, error) {
	if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
		return nil, err
	}

	spec := &WindowSpec{}

	if p.isKeyword("PARTITION") {
		p.advance()

		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}

		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			spec.PartitionBy = append(spec.PartitionBy, expr)

			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}

			break
		}
	}

	if p.isKeyword("ORDER") {
		p.advance()

		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}

		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}

		spec.OrderBy = items
	}

	// Frame clause (ROWS/RANGE BETWEEN ... AND ...) is consumed but not
	// modeled: it does not affect lineage or type inference.
	if p.isAnyKeyword("ROWS", "RANGE") {
		p.advance()

		depth := 1
		for depth > 0 && !p.atEOF() {
			if p.cur().Type == tokenizer.CLOSED_PARENS {
				depth--

				if depth == 0 {
					break
				}
			}

			p.advance()
		}
	}

	if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
		return nil, err
	}

	return spec, nil
}

func (p *parser) parseCase() (Expr, error) {
	p.advance() // CASE

	ce := &CaseExpr{}

	if !p.isKeyword("WHEN") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		ce.Operand = operand
	}

	for p.isKeyword("WHEN") {
		p.advance()

		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}

		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		ce.Whens = append(ce.Whens, WhenClause{Condition: cond, Result: result})
	}

	if p.isKeyword("ELSE") {
		p.advance()

		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		ce.Else = elseExpr
	}

	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}

	return ce, nil
}

func (p *parser) parseCast() (Expr, error) {
	p.advance() // CAST

	if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
		return nil, err
	}

	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}

	typeName, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
		return nil, err
	}

	return &CastExpr{Expr: inner, TypeName: typeName}, nil
}

func (p *parser) parseTypeName() (string, error) {
	var b strings.Builder

	name, err := p.expectIdentLike()
	if err != nil {
		if p.cur().Type == tokenizer.KEYWORD {
			name = p.advance().Value
		} else {
			return "", err
		}
	}

	b.WriteString(name)

	if p.cur().Type == tokenizer.OPENED_PARENS {
		b.WriteString("(")
		p.advance()

		for p.cur().Type != tokenizer.CLOSED_PARENS {
			b.WriteString(p.advance().Value)
		}

		p.advance()
		b.WriteString(")")
	}

	if strings.EqualFold(name, "DOUBLE") && p.isKeyword("PRECISION") {
		b.WriteString(" " + p.advance().Value)
	}

	return b.String(), nil
}
