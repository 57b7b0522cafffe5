package dialectparser

import "strings"

// ExtractDependencies walks a list of parsed statements and returns the
// set of dot-joined table names referenced anywhere in them, including
// inside CTEs, derived tables, subqueries in predicates, set operations,
// and correlated scalar expressions. CTE names are excluded: a reference
// to a CTE is not an external dependency.
func ExtractDependencies(statements []Statement) map[string]bool {
	deps := make(map[string]bool)

	for _, stmt := range statements {
		switch s := stmt.(type) {
		case *SelectStatement:
			cteNames := cteNameSet(s)
			walkSelectStatement(s, cteNames, deps)
		case *OtherStatement:
			for _, t := range s.Tables {
				walkTableRef(t, map[string]bool{}, deps)
			}
		}
	}

	return deps
}

func cteNameSet(stmt *SelectStatement) map[string]bool {
	names := make(map[string]bool, len(stmt.CTEs))

	for _, cte := range stmt.CTEs {
		names[strings.ToLower(cte.Name)] = true
	}

	return names
}

func walkSelectStatement(stmt *SelectStatement, cteNames map[string]bool, deps map[string]bool) {
	for _, cte := range stmt.CTEs {
		inner := cteNameSet(cte.Stmt)
		for k := range cteNames {
			inner[k] = true
		}

		walkSelectStatement(cte.Stmt, inner, deps)
	}

	walkSelectBody(stmt.Body, cteNames, deps)

	for _, item := range stmt.OrderBy {
		walkExpr(item.Expr, cteNames, deps)
	}

	walkExpr(stmt.Limit, cteNames, deps)
	walkExpr(stmt.Offset, cteNames, deps)
}

func walkSelectBody(body SelectBody, cteNames map[string]bool, deps map[string]bool) {
	switch b := body.(type) {
	case *SimpleSelect:
		for _, from := range b.From {
			walkTableRef(from, cteNames, deps)
		}

		for _, item := range b.Columns {
			walkExpr(item.Expr, cteNames, deps)
		}

		walkExpr(b.Where, cteNames, deps)

		for _, g := range b.GroupBy {
			walkExpr(g, cteNames, deps)
		}

		walkExpr(b.Having, cteNames, deps)
	case *SetOpSelect:
		walkSelectBody(b.Left, cteNames, deps)
		walkSelectBody(b.Right, cteNames, deps)
	}
}

func walkTableRef(ref TableRef, cteNames map[string]bool, deps map[string]bool) {
	switch r := ref.(type) {
	case *TableName:
		name := strings.Join(r.Parts, ".")
		if len(r.Parts) == 1 && cteNames[strings.ToLower(r.Parts[0])] {
			return
		}

		deps[name] = true
	case *Join:
		walkTableRef(r.Left, cteNames, deps)
		walkTableRef(r.Right, cteNames, deps)
		walkExpr(r.On, cteNames, deps)
	case *SubqueryTable:
		walkSelectStatement(r.Stmt, cteNames, deps)
	}
}

func walkExpr(expr Expr, cteNames map[string]bool, deps map[string]bool) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *BinaryExpr:
		walkExpr(e.Left, cteNames, deps)
		walkExpr(e.Right, cteNames, deps)
	case *UnaryExpr:
		walkExpr(e.Operand, cteNames, deps)
	case *FuncCall:
		for _, a := range e.Args {
			walkExpr(a, cteNames, deps)
		}

		if e.Over != nil {
			for _, p := range e.Over.PartitionBy {
				walkExpr(p, cteNames, deps)
			}

			for _, o := range e.Over.OrderBy {
				walkExpr(o.Expr, cteNames, deps)
			}
		}
	case *SubqueryExpr:
		walkSelectStatement(e.Stmt, cteNames, deps)
	case *ExistsExpr:
		walkSelectStatement(e.Stmt, cteNames, deps)
	case *InExpr:
		walkExpr(e.Expr, cteNames, deps)

		for _, item := range e.List {
			walkExpr(item, cteNames, deps)
		}

		if e.Stmt != nil {
			walkSelectStatement(e.Stmt, cteNames, deps)
		}
	case *BetweenExpr:
		walkExpr(e.Expr, cteNames, deps)
		walkExpr(e.Low, cteNames, deps)
		walkExpr(e.High, cteNames, deps)
	case *CaseExpr:
		walkExpr(e.Operand, cteNames, deps)

		for _, w := range e.Whens {
			walkExpr(w.Condition, cteNames, deps)
			walkExpr(w.Result, cteNames, deps)
		}

		walkExpr(e.Else, cteNames, deps)
	case *CastExpr:
		walkExpr(e.Expr, cteNames, deps)
	}
}
