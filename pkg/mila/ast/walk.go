package ast

// Walk traverses the tree rooted at node depth-first, calling fn for each
// node before its children. Children are skipped when fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Walk(s, fn)
		}
	case *LetStatement:
		Walk(n.Name, fn)
		walkExpr(n.Value, fn)
	case *VarStatement:
		Walk(n.Name, fn)
		walkExpr(n.Value, fn)
	case *ReturnStatement:
		walkExpr(n.ReturnValue, fn)
	case *ExpressionStatement:
		walkExpr(n.Expression, fn)
	case *BlockStatement:
		for _, s := range n.Statements {
			Walk(s, fn)
		}
	case *ArrayLiteral:
		for _, e := range n.Elements {
			walkExpr(e, fn)
		}
	case *HashLiteral:
		for _, p := range n.Pairs {
			walkExpr(p.Value, fn)
		}
	case *PrefixExpression:
		walkExpr(n.Right, fn)
	case *InfixExpression:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	case *AssignExpression:
		walkExpr(n.Target, fn)
		walkExpr(n.Value, fn)
	case *IfExpression:
		walkExpr(n.Condition, fn)
		Walk(n.Consequence, fn)
		if n.ElseIf != nil {
			Walk(n.ElseIf, fn)
		}
		if n.Alternative != nil {
			Walk(n.Alternative, fn)
		}
	case *WhileExpression:
		walkExpr(n.Condition, fn)
		Walk(n.Body, fn)
	case *FunctionLiteral:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		for _, p := range n.Parameters {
			Walk(p, fn)
		}
		Walk(n.Body, fn)
	case *CallExpression:
		walkExpr(n.Function, fn)
		for _, a := range n.Arguments {
			walkExpr(a, fn)
		}
	case *IndexExpression:
		walkExpr(n.Left, fn)
		walkExpr(n.Index, fn)
	}
}

// walkExpr skips absent optional expressions such as a bare ret.
func walkExpr(e Expression, fn func(Node) bool) {
	if e != nil {
		Walk(e, fn)
	}
}
