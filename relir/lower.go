package relir

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// Catalog maps a (case-insensitive) relation name to its schema. It is
// the input to Lower and is typically seeded from upstream models'
// recorded output schemas plus declared source/seed schemas.
type Catalog map[string]sqltype.RelationSchema

func (c Catalog) lookup(name string) (sqltype.RelationSchema, bool) {
	schema, ok := c[strings.ToLower(name)]
	return schema, ok
}

// Lower converts a parsed statement into a RelOp tree against catalog.
// Only *dialectparser.SelectStatement lowers; anything else returns
// ErrUnsupportedStatement.
func Lower(stmt dialectparser.Statement, catalog Catalog) (RelOp, error) {
	sel, ok := stmt.(*dialectparser.SelectStatement)
	if !ok {
		return nil, ErrUnsupportedStatement
	}

	return lowerSelectStatement(sel, catalog)
}

func lowerSelectStatement(stmt *dialectparser.SelectStatement, catalog Catalog) (RelOp, error) {
	local := make(Catalog, len(catalog)+len(stmt.CTEs))
	for k, v := range catalog {
		local[k] = v
	}

	for _, cte := range stmt.CTEs {
		op, err := lowerSelectStatement(cte.Stmt, local)
		if err != nil {
			return nil, err
		}

		local[strings.ToLower(cte.Name)] = op.Schema()
	}

	body, err := lowerSelectBody(stmt.Body, local)
	if err != nil {
		return nil, err
	}

	if len(stmt.OrderBy) > 0 {
		body = &Sort{Input: body, Keys: stmt.OrderBy}
	}

	if stmt.Limit != nil || stmt.Offset != nil {
		body = &Limit{Input: body, LimitExpr: stmt.Limit, OffsetExpr: stmt.Offset}
	}

	return body, nil
}

func lowerSelectBody(body dialectparser.SelectBody, catalog Catalog) (RelOp, error) {
	switch b := body.(type) {
	case *dialectparser.SimpleSelect:
		return lowerSimpleSelect(b, catalog)
	case *dialectparser.SetOpSelect:
		left, err := lowerSelectBody(b.Left, catalog)
		if err != nil {
			return nil, err
		}

		right, err := lowerSelectBody(b.Right, catalog)
		if err != nil {
			return nil, err
		}

		return &SetOp{Left: left, Right: right, Kind: b.Kind}, nil
	default:
		return nil, ErrUnsupportedStatement
	}
}

func lowerSimpleSelect(sel *dialectparser.SimpleSelect, catalog Catalog) (RelOp, error) {
	var input RelOp

	for _, ref := range sel.From {
		next, err := lowerTableRef(ref, catalog)
		if err != nil {
			return nil, err
		}

		if input == nil {
			input = next
			continue
		}

		input = &Join{Left: input, Right: next, Kind: dialectparser.JoinCross}
	}

	if input == nil {
		input = &Scan{schema: sqltype.RelationSchema{}}
	}

	if sel.Where != nil {
		input = &Filter{Input: input, Predicate: sel.Where}
	}

	if len(sel.GroupBy) > 0 || hasAggregateCall(sel.Columns) {
		input = &Aggregate{Input: input, GroupBy: sel.GroupBy, Aggregates: projectItemsFrom(sel.Columns)}

		if sel.Having != nil {
			input = &Filter{Input: input, Predicate: sel.Having}
		}

		return input, nil
	}

	return &Project{Input: input, Items: projectItemsFrom(sel.Columns)}, nil
}

func hasAggregateCall(items []dialectparser.SelectItem) bool {
	for _, item := range items {
		if fn, ok := item.Expr.(*dialectparser.FuncCall); ok && isAggregateName(fn.Name) {
			return true
		}
	}

	return false
}

func isAggregateName(name string) bool {
	switch strings.ToUpper(name) {
	case "SUM", "AVG", "COUNT", "MIN", "MAX":
		return true
	default:
		return false
	}
}

func projectItemsFrom(items []dialectparser.SelectItem) []ProjectItem {
	out := make([]ProjectItem, len(items))
	for i, item := range items {
		out[i] = ProjectItem{Star: item.Star, StarQualifier: item.StarQualifier, Expr: item.Expr, Alias: item.Alias}
	}

	return out
}

func lowerTableRef(ref dialectparser.TableRef, catalog Catalog) (RelOp, error) {
	switch r := ref.(type) {
	case *dialectparser.TableName:
		name := strings.Join(r.Parts, ".")

		relation, ok := catalog.lookup(name)
		if !ok {
			return nil, &UnknownTable{Table: name}
		}

		alias := r.Alias
		if alias == "" {
			alias = r.Parts[len(r.Parts)-1]
		}

		return NewScan(name, alias, relation), nil
	case *dialectparser.SubqueryTable:
		op, err := lowerSelectStatement(r.Stmt, catalog)
		if err != nil {
			return nil, err
		}

		return NewScan(r.Alias, r.Alias, op.Schema()), nil
	case *dialectparser.Join:
		left, err := lowerTableRef(r.Left, catalog)
		if err != nil {
			return nil, err
		}

		right, err := lowerTableRef(r.Right, catalog)
		if err != nil {
			return nil, err
		}

		condition := r.On
		if condition == nil && len(r.Using) > 0 {
			condition = desugarUsing(r.Left, r.Right, r.Using)
		}

		return &Join{Left: left, Right: right, Kind: r.Kind, Condition: condition}, nil
	default:
		return nil, ErrUnsupportedStatement
	}
}

// desugarUsing builds `left.c1 = right.c1 AND left.c2 = right.c2 ...` from
// a USING column list, qualifying each side with its scan alias. When
// either side of the join is itself a composite join (a chain), no single
// alias identifies it and the condition is left nil — the same documented
// limitation as NATURAL JOIN.
func desugarUsing(left, right dialectparser.TableRef, columns []string) dialectparser.Expr {
	leftAlias, ok := tableQualifier(left)
	if !ok {
		return nil
	}

	rightAlias, ok := tableQualifier(right)
	if !ok {
		return nil
	}

	var condition dialectparser.Expr

	for _, col := range columns {
		eq := &dialectparser.BinaryExpr{
			Op:    "=",
			Left:  &dialectparser.ColumnRef{Table: leftAlias, Name: col},
			Right: &dialectparser.ColumnRef{Table: rightAlias, Name: col},
		}

		if condition == nil {
			condition = eq
			continue
		}

		condition = &dialectparser.BinaryExpr{Op: "AND", Left: condition, Right: eq}
	}

	return condition
}

func tableQualifier(ref dialectparser.TableRef) (string, bool) {
	switch r := ref.(type) {
	case *dialectparser.TableName:
		if r.Alias != "" {
			return r.Alias, true
		}

		return r.Parts[len(r.Parts)-1], true
	case *dialectparser.SubqueryTable:
		return r.Alias, true
	default:
		return "", false
	}
}
