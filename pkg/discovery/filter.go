package discovery

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterEnv is the variable set visible to filter expressions.
type FilterEnv struct {
	Path string `expr:"path"` // absolute model path
	Dir  string `expr:"dir"`  // containing directory
	Name string `expr:"name"` // bare file name
}

// Filter is a compiled boolean selection expression over discovered models,
// e.g.
//
//	name startsWith "awbm" and not (dir contains "archive")
type Filter struct {
	source  string
	program *vm.Program
}

// NewFilter compiles src into a Filter. Empty or whitespace-only source
// returns a nil Filter, which matches everything. Expressions that do not
// produce a bool are rejected here, not at match time.
func NewFilter(src string) (*Filter, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Filter{source: src, program: program}, nil
}

// Match reports whether m satisfies the filter expression.
func (f *Filter) Match(m Model) (bool, error) {
	env := FilterEnv{Path: m.Path, Dir: m.Dir, Name: m.Name}
	output, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", f.source, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not return bool (got %T: %v)", f.source, output, output)
	}
	return result, nil
}
