// Package filter implements an optional rule deciding which discovered
// bucket entries are surfaced by the mount. Rules are expr-lang scripts
// evaluated against each candidate child, e.g.
//
//	!hasPrefix(name, ".") && (dir || size < 100 * MB)
package filter

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Env is the evaluation environment of a rule: the absolute filesystem
// path of the candidate, its leaf name, whether it is a simulated
// directory and the object size in bytes (zero for directories).
type Env struct {
	Path string `expr:"path"`
	Name string `expr:"name"`
	Dir  bool   `expr:"dir"`
	Size int64  `expr:"size"`

	KB int64 `expr:"KB"`
	MB int64 `expr:"MB"`
	GB int64 `expr:"GB"`
}

type Filter struct {
	script  string
	program *vm.Program
}

// New compiles the given script. The script must evaluate to a boolean.
func New(script string) (*Filter, error) {
	program, err := expr.Compile(script, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "could not compile filter '%s'", script)
	}

	return &Filter{
		script:  script,
		program: program,
	}, nil
}

// Match reports whether the entry passes the rule.
func (f *Filter) Match(path string, name string, dir bool, size int64) (bool, error) {
	env := Env{
		Path: path,
		Name: name,
		Dir:  dir,
		Size: size,

		KB: 1024,
		MB: 1024 * 1024,
		GB: 1024 * 1024 * 1024,
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.WithStack(err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("unexpected filter '%s' result type '%T', expected boolean", f.script, result)
	}

	return matched, nil
}

func (f *Filter) String() string {
	return f.script
}
