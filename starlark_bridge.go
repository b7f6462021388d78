package pypage

import (
	"fmt"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
)

// This file is the Python bridge of spec.md §4.6, realized with
// go.starlark.net (see SPEC_FULL.md §1 for why Starlark stands in for a
// full Python runtime). Every call into the embedded language routes
// through these six primitives and the namespace's persisted
// starlark.StringDict.

func init() {
	// Every Code node is executed as a top-level Starlark module against
	// the namespace's persisted globals, so a name bound by one {{ }}
	// tag must be reassignable by a later one (spec.md §4.5.1's
	// statement mode, and {{ x = x + 1 }}-style mutation in general).
	// The default resolver treats top-level names as bind-once and
	// rejects if/for/while outside a function body; this flag lifts
	// both restrictions.
	resolve.AllowGlobalReassign = true
}

// evalExpr evaluates src as a single Starlark expression against the
// namespace, without mutating it (expression evaluation binds no
// globals of its own, though a call like write(...) may still append to
// the active output buffer as a side effect).
func evalExpr(ns *Namespace, filename, src string) (starlark.Value, error) {
	return starlark.Eval(ns.thread, filename, src, ns.vars)
}

// execStmts executes src as a Starlark statement block. Any top-level
// bindings it makes are merged back into the namespace, following the
// starlark-go REPL idiom of re-threading "globals" through successive
// calls so that assignments persist across calls within one Process
// invocation.
func execStmts(ns *Namespace, filename, src string) error {
	newGlobals, err := starlark.ExecFile(ns.thread, filename, src, ns.vars)
	if err != nil {
		return err
	}
	for k, v := range newGlobals {
		ns.vars[k] = v
	}
	return nil
}

// truthy implements Python-style truthiness via Starlark's own Truth.
func truthy(v starlark.Value) bool {
	if v == nil {
		return false
	}
	return bool(v.Truth())
}

// stringify implements the host's standard str()-like conversion: Go
// strings render unquoted (unlike Starlark's quoted Value.String()),
// None renders as the empty string, everything else uses Starlark's
// own textual form.
func stringify(v starlark.Value) string {
	if v == nil || v == starlark.None {
		return ""
	}
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}

// iterateTuples drives a Starlark iterable expected to yield one tuple
// (or tuple-like iterable) per step, calling fn with each yielded
// element unpacked positionally by iterating it rather than indexing
// it, so that any iterable Python value works as a yielded row
// (spec.md §4.5.3). Iteration stops early if fn returns a non-nil
// error, which is then returned to the caller.
func iterateTuples(seq starlark.Value, arity int, fn func(row []starlark.Value) error) error {
	it, err := starlark.Iterate(seq)
	if err != nil {
		return err
	}
	defer it.Done()

	var item starlark.Value
	for it.Next(&item) {
		row, err := unpackRow(item, arity)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func unpackRow(item starlark.Value, arity int) ([]starlark.Value, error) {
	rowIt, err := starlark.Iterate(item)
	if err != nil {
		return nil, fmt.Errorf("for-loop row is not iterable: %w", err)
	}
	defer rowIt.Done()

	row := make([]starlark.Value, 0, arity)
	var v starlark.Value
	for rowIt.Next(&v) {
		row = append(row, v)
	}
	if len(row) != arity {
		return nil, fmt.Errorf("for-loop expected %d values, got %d", arity, len(row))
	}
	return row, nil
}

// toStarlark converts a Go value of the kinds a caller-supplied seed
// may contain into a Starlark value.
func toStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return x, nil
	case bool:
		return starlark.Bool(x), nil
	case string:
		return starlark.String(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case []any:
		elems := make([]starlark.Value, len(x))
		for i, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		d := starlark.NewDict(len(x))
		for k, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported seed value type %T", v)
	}
}

// fromStarlark converts a Starlark value back into a plain Go value,
// for callers that want to inspect captured/returned state.
func fromStarlark(v starlark.Value) any {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(x)
	case starlark.String:
		return string(x)
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i
		}
		return x.String()
	case starlark.Float:
		return float64(x)
	case *starlark.List:
		out := make([]any, x.Len())
		for i := 0; i < x.Len(); i++ {
			out[i] = fromStarlark(x.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromStarlark(e)
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			k := stringify(item[0])
			out[k] = fromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}
