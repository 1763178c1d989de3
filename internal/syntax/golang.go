package syntax

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

type goExtractor struct{}

func (goExtractor) Extract(path string, src []byte) ([]Literal, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			return nil, &SyntaxError{Line: list[0].Pos.Line, Msg: list[0].Msg}
		}
		return nil, &SyntaxError{Msg: err.Error()}
	}

	skip := make(map[*ast.BasicLit]bool)
	bindings := make(map[*ast.BasicLit]string)

	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ImportSpec:
			skip[n.Path] = true
		case *ast.Field:
			if n.Tag != nil {
				skip[n.Tag] = true
			}
		case *ast.AssignStmt:
			if len(n.Lhs) == len(n.Rhs) {
				for i, rhs := range n.Rhs {
					bind(bindings, rhs, exprName(n.Lhs[i]))
				}
			}
		case *ast.ValueSpec:
			for i, v := range n.Values {
				if i < len(n.Names) {
					bind(bindings, v, n.Names[i].Name)
				}
			}
		case *ast.KeyValueExpr:
			bind(bindings, n.Value, exprName(n.Key))
		}
		return true
	})

	var out []Literal
	ast.Inspect(file, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if !ok || skip[lit] {
			return true
		}
		value, numeric, ok := goLiteralValue(lit)
		if !ok {
			return true
		}
		out = append(out, Literal{
			Value:   value,
			Line:    fset.Position(lit.Pos()).Line,
			Numeric: numeric,
			Binding: bindings[lit],
		})
		return true
	})
	return out, nil
}

func bind(bindings map[*ast.BasicLit]string, expr ast.Expr, name string) {
	if name == "" {
		return
	}
	if lit, ok := astutil.Unparen(expr).(*ast.BasicLit); ok {
		bindings[lit] = name
	}
}

func exprName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		if e.Name == "_" {
			return ""
		}
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		if lit, ok := e.Index.(*ast.BasicLit); ok && lit.Kind == token.STRING {
			if s, err := strconv.Unquote(lit.Value); err == nil {
				return s
			}
		}
		return exprName(e.X)
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			if s, err := strconv.Unquote(e.Value); err == nil {
				return s
			}
		}
	}
	return ""
}

func goLiteralValue(lit *ast.BasicLit) (string, bool, bool) {
	switch lit.Kind {
	case token.STRING:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return "", false, false
		}
		return s, false, true
	case token.INT:
		if n, err := strconv.ParseInt(lit.Value, 0, 64); err == nil {
			return strconv.FormatInt(n, 10), true, true
		}
		return lit.Value, true, true
	case token.FLOAT:
		return lit.Value, true, true
	}
	return "", false, false
}
