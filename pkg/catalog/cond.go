package catalog

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// condition is a compiled `when` expression.
type condition struct {
	src  string
	prog *vm.Program
	refs []string
}

func compileCondition(src string) (*condition, error) {
	refs, err := conditionRefs(src)
	if err != nil {
		return nil, err
	}
	prog, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", src, err)
	}
	return &condition{src: src, prog: prog, refs: refs}, nil
}

// eval runs the condition against env. A runtime error (comparing a missing
// answer with a number, say) counts as false.
func (c *condition) eval(env map[string]any) bool {
	if c == nil {
		return true
	}
	out, err := expr.Run(c.prog, env)
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}

// identVisitor collects free identifiers, ignoring names used as callees.
type identVisitor struct {
	idents  map[string]bool
	callees map[string]bool
}

func (v *identVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.idents[n.Value] = true
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			v.callees[id.Value] = true
		}
	}
}

// conditionRefs returns the sorted identifiers an expression reads.
func conditionRefs(src string) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse condition %q: %w", src, err)
	}
	v := &identVisitor{idents: map[string]bool{}, callees: map[string]bool{}}
	ast.Walk(&tree.Node, v)

	var refs []string
	for id := range v.idents {
		if !v.callees[id] {
			refs = append(refs, id)
		}
	}
	sort.Strings(refs)
	return refs, nil
}
