package compiler

// checkCalls verifies every call site before code generation: calls to
// functions defined in the unit must pass exactly as many arguments as the
// function declares, calls to kue imports are taken on trust, and anything
// else is unresolved. Duplicate function definitions are rejected too.
func checkCalls(stmts []Stmt) error {
	funcs := make(map[string]*FunctionDecl)
	imports := make(map[string]bool)
	for _, s := range stmts {
		switch n := s.(type) {
		case *FunctionDecl:
			if _, ok := funcs[n.Name]; ok {
				return newError(SemanticError, n.Pos, "Duplication cersva name: %s", n.Name)
			}
			funcs[n.Name] = n
		case *ImportDecl:
			imports[n.Name] = true
		}
	}

	var calls []*FunctionCall
	for _, s := range stmts {
		findCallsStmt(s, &calls)
	}

	for _, call := range calls {
		fn, ok := funcs[call.Name]
		if !ok {
			if imports[call.Name] {
				continue
			}
			return newError(SemanticError, call.Pos, "Not found cersva name: %s", call.Name)
		}
		if len(call.Args) != len(fn.Params) {
			return newError(SemanticError, call.Pos,
				"Invalid arguments: fenxe %s takes %d argument(s), got %d", call.Name, len(fn.Params), len(call.Args))
		}
	}
	return nil
}

// findCallsExpr appends every call in e, outermost first.
func findCallsExpr(e Expr, calls *[]*FunctionCall) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *FunctionCall:
		*calls = append(*calls, n)
		for _, arg := range n.Args {
			findCallsExpr(arg, calls)
		}
	case *BinaryExpr:
		findCallsExpr(n.Left, calls)
		findCallsExpr(n.Right, calls)
	case *UnaryExpr:
		findCallsExpr(n.Right, calls)
	case *Literal, *VarRef:
	}
}

// findCallsStmt appends every call reachable from s.
func findCallsStmt(s Stmt, calls *[]*FunctionCall) {
	switch n := s.(type) {
	case *VariableDecl:
		findCallsExpr(n.Init, calls)
	case *Assignment:
		findCallsExpr(n.Target, calls)
		findCallsExpr(n.Value, calls)
	case *ReturnStmt:
		findCallsExpr(n.Expr, calls)
	case *IfStmt:
		findCallsExpr(n.Condition, calls)
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *WhileStmt:
		findCallsExpr(n.Condition, calls)
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *FunctionDecl:
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *ExportDecl, *ImportDecl:
	}
}
