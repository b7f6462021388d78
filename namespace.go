package pypage

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// Namespace is the single mutable mapping shared by every Code node,
// every block condition, every For iterable and every user-defined
// macro within one Process call, per spec.md §3. It wraps a persisted
// starlark.StringDict the same way the canonical starlark-go REPL
// threads its "globals" variable from one Eval/ExecFile call to the
// next, so that top-level bindings made by one {{ }} tag are visible to
// every tag that follows.
type Namespace struct {
	vars   starlark.StringDict
	thread *starlark.Thread

	buffers []*strings.Builder

	inject  func(path string) (string, error)
	include func(path string) (string, error)

	logger *Logger
}

func newNamespace(seed map[string]any, opts *config) (*Namespace, error) {
	ns := &Namespace{
		vars:    make(starlark.StringDict, len(seed)+4),
		thread:  &starlark.Thread{Name: "pypage"},
		inject:  opts.inject,
		include: opts.include,
		logger:  opts.logger,
	}
	ns.buffers = []*strings.Builder{{}}

	for k, v := range seed {
		sv, err := toStarlark(v)
		if err != nil {
			return nil, newError(ErrEvaluate, Loc{}, "seed value %q: %v", k, err)
		}
		ns.vars[k] = sv
	}
	ns.installBuiltins()
	return ns, nil
}

func (ns *Namespace) installBuiltins() {
	ns.vars["write"] = starlark.NewBuiltin("write", ns.builtinWrite)
	ns.vars["exists"] = starlark.NewBuiltin("exists", ns.builtinExists)
	if ns.inject != nil {
		ns.vars["inject"] = starlark.NewBuiltin("inject", ns.builtinInject)
	}
	if ns.include != nil {
		ns.vars["include"] = starlark.NewBuiltin("include", ns.builtinInclude)
	}
}

// write(*objs, sep=' ', end='\n') appends the stringified, joined
// arguments to the currently active output buffer.
func (ns *Namespace) builtinWrite(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	sep, end := " ", "\n"
	for _, kw := range kwargs {
		key, _ := starlark.AsString(kw[0])
		switch key {
		case "sep":
			sep, _ = starlark.AsString(kw[1])
		case "end":
			end, _ = starlark.AsString(kw[1])
		default:
			return nil, fmt.Errorf("write() got an unexpected keyword argument %q", key)
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = stringify(a)
	}
	ns.writeString(strings.Join(parts, sep) + end)
	return starlark.None, nil
}

// exists(name) reports whether name is currently bound.
func (ns *Namespace) builtinExists(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs("exists", args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	return starlark.Bool(ns.has(name)), nil
}

func (ns *Namespace) builtinInject(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs("inject", args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	s, err := ns.inject(path)
	if err != nil {
		return nil, err
	}
	return starlark.String(s), nil
}

func (ns *Namespace) builtinInclude(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs("include", args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	s, err := ns.include(path)
	if err != nil {
		return nil, err
	}
	return starlark.String(s), nil
}

// pushBuffer opens a fresh output buffer as the active one (used by
// Capture, Def, and multi-line Code re-indentation); the caller reads
// its contents back with popBuffer.
func (ns *Namespace) pushBuffer() {
	ns.buffers = append(ns.buffers, &strings.Builder{})
}

// popBuffer closes the active output buffer and returns its contents.
func (ns *Namespace) popBuffer() string {
	n := len(ns.buffers)
	b := ns.buffers[n-1]
	ns.buffers = ns.buffers[:n-1]
	return b.String()
}

func (ns *Namespace) writeString(s string) {
	ns.buffers[len(ns.buffers)-1].WriteString(s)
}

// snapshot records the current bindings of names (defined or not), for
// later restoration by restore. This is the mechanism For and Def use
// to shadow names without introducing lexical scopes.
func (ns *Namespace) snapshot(names []string) map[string]starlark.Value {
	snap := make(map[string]starlark.Value, len(names))
	for _, n := range names {
		if v, ok := ns.get(n); ok {
			snap[n] = v
		}
	}
	return snap
}

// restore reinstates exactly the bindings snapshot recorded: names that
// were undefined before become undefined again, names that were
// defined are reset to their prior values.
func (ns *Namespace) restore(names []string, snap map[string]starlark.Value) {
	for _, n := range names {
		if v, ok := snap[n]; ok {
			ns.set(n, v)
		} else {
			ns.del(n)
		}
	}
}

// get, set, del and has are the namespace-mediating bridge primitives
// of spec.md §4.6: snapshot, restore, the exists() builtin and State
// read and write individual bindings through these. Seeding,
// installBuiltins and the Starlark calls in starlark_bridge.go use
// ns.vars directly.
func (ns *Namespace) get(name string) (starlark.Value, bool) {
	v, ok := ns.vars[name]
	return v, ok
}

func (ns *Namespace) set(name string, v starlark.Value) {
	ns.vars[name] = v
}

func (ns *Namespace) del(name string) {
	delete(ns.vars, name)
}

func (ns *Namespace) has(name string) bool {
	_, ok := ns.vars[name]
	return ok
}

// State returns the namespace's current bindings converted to plain Go
// values, for a caller that wants to inspect what a render bound or
// mutated (e.g. a capture variable, or a seed value a while-loop
// incremented).
func (ns *Namespace) State() map[string]any {
	out := make(map[string]any, len(ns.vars))
	for name := range ns.vars {
		v, _ := ns.get(name)
		out[name] = fromStarlark(v)
	}
	return out
}
