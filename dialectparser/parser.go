package dialectparser

import (
	"fmt"
	"strings"

	"github.com/datastx/Feather-Flow-sub003/tokenizer"
)

// Parse tokenizes and parses sql into an ordered list of statement trees.
func Parse(sql string) ([]Statement, error) {
	toks, err := collectTokens(sql)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}

	var statements []Statement

	for {
		p.skipSemicolons()

		if p.atEOF() {
			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		statements = append(statements, stmt)
	}

	return statements, nil
}

func collectTokens(sql string) ([]tokenizer.Token, error) {
	tok := tokenizer.New(sql, tokenizer.Options{SkipWhitespace: true, SkipComments: true})

	var toks []tokenizer.Token

	for t, err := range tok.Tokens() {
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}

		toks = append(toks, t)

		if t.Type == tokenizer.EOF {
			break
		}
	}

	return toks, nil
}

type parser struct {
	toks []tokenizer.Token
	pos  int
}

func (p *parser) cur() tokenizer.Token {
	if p.pos >= len(p.toks) {
		return tokenizer.Token{Type: tokenizer.EOF}
	}

	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) tokenizer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return tokenizer.Token{Type: tokenizer.EOF}
	}

	return p.toks[idx]
}

func (p *parser) advance() tokenizer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return t
}

func (p *parser) atEOF() bool {
	return p.cur().Type == tokenizer.EOF
}

func (p *parser) skipSemicolons() {
	for p.cur().Type == tokenizer.SEMICOLON {
		p.advance()
	}
}

func (p *parser) errf(format string, args ...any) error {
	c := p.cur()
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: c.Position.Line, Column: c.Position.Column}
}

func (p *parser) isKeyword(word string) bool {
	c := p.cur()
	return c.Type == tokenizer.KEYWORD && strings.EqualFold(c.Value, word)
}

func (p *parser) isAnyKeyword(words ...string) bool {
	for _, w := range words {
		if p.isKeyword(w) {
			return true
		}
	}

	return false
}

func (p *parser) expectKeyword(word string) error {
	if !p.isKeyword(word) {
		return p.errf("expected keyword %s, got %q", word, p.cur().Value)
	}

	p.advance()

	return nil
}

func (p *parser) expectType(tt tokenizer.TokenType) (tokenizer.Token, error) {
	if p.cur().Type != tt {
		return tokenizer.Token{}, p.errf("expected %s, got %s %q", tt, p.cur().Type, p.cur().Value)
	}

	return p.advance(), nil
}

// parseStatement parses one top-level statement up to (but not
// consuming) its trailing semicolon or EOF.
func (p *parser) parseStatement() (Statement, error) {
	if p.isAnyKeyword("SELECT", "WITH") {
		return p.parseSelectStatement()
	}

	return p.parseOtherStatement()
}

func (p *parser) parseOtherStatement() (Statement, error) {
	keyword := strings.ToUpper(p.cur().Value)

	var tables []TableRef

	for !p.atEOF() && p.cur().Type != tokenizer.SEMICOLON {
		if p.isKeyword("FROM") || p.isKeyword("INTO") || p.isKeyword("UPDATE") || p.isKeyword("JOIN") {
			p.advance()

			ref, err := p.parseTableRefPrimary()
			if err == nil {
				tables = append(tables, ref)
				continue
			}
		}

		if p.isKeyword("SELECT") {
			sub, err := p.parseSelectStatement()
			if err == nil {
				tables = append(tables, collectSubqueryTables(sub)...)
				continue
			}
		}

		p.advance()
	}

	return &OtherStatement{Keyword: keyword, Tables: tables}, nil
}

func collectSubqueryTables(stmt *SelectStatement) []TableRef {
	var out []TableRef

	var walkBody func(b SelectBody)

	walkBody = func(b SelectBody) {
		switch v := b.(type) {
		case *SimpleSelect:
			out = append(out, v.From...)
		case *SetOpSelect:
			walkBody(v.Left)
			walkBody(v.Right)
		}
	}

	walkBody(stmt.Body)

	for _, cte := range stmt.CTEs {
		out = append(out, collectSubqueryTables(cte.Stmt)...)
	}

	return out
}

func (p *parser) parseSelectStatement() (*SelectStatement, error) {
	stmt := &SelectStatement{}

	if p.isKeyword("WITH") {
		p.advance()

		if p.isKeyword("RECURSIVE") {
			p.advance()
		}

		for {
			name, err := p.expectType(tokenizer.IDENTIFIER)
			if err != nil {
				return nil, err
			}

			if err := p.expectKeyword("AS"); err != nil {
				return nil, err
			}

			if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
				return nil, err
			}

			inner, err := p.parseSelectStatement()
			if err != nil {
				return nil, err
			}

			if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
				return nil, err
			}

			stmt.CTEs = append(stmt.CTEs, CTE{Name: name.Value, Stmt: inner})

			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}

			break
		}
	}

	body, err := p.parseSetOpChain()
	if err != nil {
		return nil, err
	}

	stmt.Body = body

	if p.isKeyword("ORDER") {
		p.advance()

		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}

		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}

		stmt.OrderBy = items
	}

	if p.isKeyword("LIMIT") {
		p.advance()

		limit, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Limit = limit

		if p.cur().Type == tokenizer.COMMA {
			p.advance()

			offset, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			stmt.Offset = stmt.Limit
			stmt.Limit = offset
		}
	}

	if p.isKeyword("OFFSET") {
		p.advance()

		offset, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Offset = offset
	}

	return stmt, nil
}

func (p *parser) parseOrderByList() ([]OrderItem, error) {
	var items []OrderItem

	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		desc := false

		if p.isKeyword("ASC") {
			p.advance()
		} else if p.isKeyword("DESC") {
			p.advance()

			desc = true
		}

		if p.isKeyword("NULLS") {
			p.advance()

			if p.isAnyKeyword("FIRST", "LAST") {
				p.advance()
			}
		}

		items = append(items, OrderItem{Expr: expr, Descending: desc})

		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}

		break
	}

	return items, nil
}

// parseSetOpChain parses a left-associative chain of
// UNION/INTERSECT/EXCEPT over simple selects.
func (p *parser) parseSetOpChain() (SelectBody, error) {
	left, err := p.parseSimpleSelectOrParen()
	if err != nil {
		return nil, err
	}

	for p.isAnyKeyword("UNION", "INTERSECT", "EXCEPT") {
		var kind SetOpKind

		switch {
		case p.isKeyword("UNION"):
			p.advance()

			kind = SetOpUnion

			if p.isKeyword("ALL") {
				p.advance()

				kind = SetOpUnionAll
			}
		case p.isKeyword("INTERSECT"):
			p.advance()

			kind = SetOpIntersect
		case p.isKeyword("EXCEPT"):
			p.advance()

			kind = SetOpExcept
		}

		right, err := p.parseSimpleSelectOrParen()
		if err != nil {
			return nil, err
		}

		left = &SetOpSelect{Left: left, Right: right, Kind: kind}
	}

	return left, nil
}

func (p *parser) parseSimpleSelectOrParen() (SelectBody, error) {
	if p.cur().Type == tokenizer.OPENED_PARENS {
		p.advance()

		body, err := p.parseSetOpChain()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		return body, nil
	}

	return p.parseSimpleSelect()
}

func (p *parser) parseSimpleSelect() (*SimpleSelect, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	sel := &SimpleSelect{}

	if p.isKeyword("DISTINCT") {
		p.advance()

		sel.Distinct = true
	} else if p.isKeyword("ALL") {
		p.advance()
	}

	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}

	sel.Columns = items

	if p.isKeyword("FROM") {
		p.advance()

		from, err := p.parseFromList()
		if err != nil {
			return nil, err
		}

		sel.From = from
	}

	if p.isKeyword("WHERE") {
		p.advance()

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		sel.Where = expr
	}

	if p.isKeyword("GROUP") {
		p.advance()

		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}

		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			sel.GroupBy = append(sel.GroupBy, expr)

			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}

			break
		}
	}

	if p.isKeyword("HAVING") {
		p.advance()

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		sel.Having = expr
	}

	return sel, nil
}

func (p *parser) parseSelectItems() ([]SelectItem, error) {
	var items []SelectItem

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}

		items = append(items, item)

		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}

		break
	}

	return items, nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	if p.cur().Type == tokenizer.MULTIPLY {
		p.advance()
		return SelectItem{Star: true}, nil
	}

	if p.cur().Type == tokenizer.IDENTIFIER && p.peekAt(1).Type == tokenizer.DOT && p.peekAt(2).Type == tokenizer.MULTIPLY {
		qualifier := p.advance().Value
		p.advance()
		p.advance()

		return SelectItem{Star: true, StarQualifier: qualifier}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}

	alias := ""

	if p.isKeyword("AS") {
		p.advance()

		tok, err := p.expectIdentLike()
		if err != nil {
			return SelectItem{}, err
		}

		alias = tok
	} else if p.cur().Type == tokenizer.IDENTIFIER {
		alias = p.advance().Value
	}

	return SelectItem{Expr: expr, Alias: alias}, nil
}

// expectIdentLike accepts an IDENTIFIER or QUOTED_IDENTIFIER token,
// returning its text.
func (p *parser) expectIdentLike() (string, error) {
	c := p.cur()

	if c.Type == tokenizer.IDENTIFIER || c.Type == tokenizer.QUOTED_IDENTIFIER {
		p.advance()
		return c.Value, nil
	}

	return "", p.errf("expected identifier, got %s %q", c.Type, c.Value)
}

func (p *parser) parseFromList() ([]TableRef, error) {
	var refs []TableRef

	for {
		ref, err := p.parseJoinChain()
		if err != nil {
			return nil, err
		}

		refs = append(refs, ref)

		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}

		break
	}

	return refs, nil
}

func (p *parser) parseJoinChain() (TableRef, error) {
	left, err := p.parseTableRefPrimary()
	if err != nil {
		return nil, err
	}

	for {
		kind, ok, natural := p.peekJoinKind()
		if !ok {
			break
		}

		p.consumeJoinKeywords()

		right, err := p.parseTableRefPrimary()
		if err != nil {
			return nil, err
		}

		join := &Join{Left: left, Right: right, Kind: kind}

		if natural {
			left = join
			continue
		}

		if p.isKeyword("ON") {
			p.advance()

			cond, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			join.On = cond
		} else if p.isKeyword("USING") {
			p.advance()

			if _, err := p.expectType(tokenizer.OPENED_PARENS); err != nil {
				return nil, err
			}

			for {
				name, err := p.expectIdentLike()
				if err != nil {
					return nil, err
				}

				join.Using = append(join.Using, name)

				if p.cur().Type == tokenizer.COMMA {
					p.advance()
					continue
				}

				break
			}

			if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
				return nil, err
			}
		}

		left = join
	}

	return left, nil
}

// peekJoinKind inspects the upcoming tokens for a join keyword sequence
// without consuming them.
func (p *parser) peekJoinKind() (JoinKind, bool, bool) {
	switch {
	case p.isKeyword("JOIN"):
		return JoinInner, true, false
	case p.isKeyword("INNER"):
		return JoinInner, true, false
	case p.isKeyword("LEFT"):
		return JoinLeftOuter, true, false
	case p.isKeyword("RIGHT"):
		return JoinRightOuter, true, false
	case p.isKeyword("FULL"):
		return JoinFullOuter, true, false
	case p.isKeyword("CROSS"):
		return JoinCross, true, false
	case p.isKeyword("NATURAL"):
		return JoinInner, true, true
	default:
		return 0, false, false
	}
}

func (p *parser) consumeJoinKeywords() {
	natural := false

	if p.isKeyword("NATURAL") {
		p.advance()

		natural = true
	}

	switch {
	case p.isKeyword("INNER"):
		p.advance()
	case p.isKeyword("LEFT"):
		p.advance()

		if p.isKeyword("OUTER") {
			p.advance()
		}
	case p.isKeyword("RIGHT"):
		p.advance()

		if p.isKeyword("OUTER") {
			p.advance()
		}
	case p.isKeyword("FULL"):
		p.advance()

		if p.isKeyword("OUTER") {
			p.advance()
		}
	case p.isKeyword("CROSS"):
		p.advance()
	}

	if natural && p.isKeyword("JOIN") {
		p.advance()
		return
	}

	if p.isKeyword("JOIN") {
		p.advance()
	}
}

func (p *parser) parseTableRefPrimary() (TableRef, error) {
	if p.cur().Type == tokenizer.OPENED_PARENS && p.looksLikeSubquery() {
		p.advance()

		stmt, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		alias := p.parseOptionalAlias()

		return &SubqueryTable{Stmt: stmt, Alias: alias}, nil
	}

	if p.cur().Type == tokenizer.OPENED_PARENS {
		p.advance()

		inner, err := p.parseJoinChain()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(tokenizer.CLOSED_PARENS); err != nil {
			return nil, err
		}

		return inner, nil
	}

	parts, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}

	alias := p.parseOptionalAlias()

	return &TableName{Parts: parts, Alias: alias}, nil
}

func (p *parser) looksLikeSubquery() bool {
	return p.peekAt(1).Type == tokenizer.KEYWORD && strings.EqualFold(p.peekAt(1).Value, "SELECT") ||
		p.peekAt(1).Type == tokenizer.KEYWORD && strings.EqualFold(p.peekAt(1).Value, "WITH")
}

func (p *parser) parseOptionalAlias() string {
	if p.isKeyword("AS") {
		p.advance()

		name, err := p.expectIdentLike()
		if err != nil {
			return ""
		}

		return name
	}

	if p.cur().Type == tokenizer.IDENTIFIER {
		return p.advance().Value
	}

	return ""
}

func (p *parser) parseDottedName() ([]string, error) {
	first, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}

	parts := []string{first}

	for p.cur().Type == tokenizer.DOT {
		p.advance()

		next, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}

		parts = append(parts, next)
	}

	return parts, nil
}
