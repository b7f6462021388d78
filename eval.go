package pypage

import (
	"fmt"
	"strings"
	"time"

	"go.starlark.net/starlark"
)

// whileGuard is the wall-clock budget a non-slow while-loop is allowed
// before it is forcibly truncated (spec.md §4.5.4, §9).
const whileGuard = 2 * time.Second

func (n *CodeNode) Execute(ns *Namespace) error {
	if !strings.Contains(n.S, "\n") {
		return execSingleLineCode(ns, n)
	}
	return execMultiLineCode(ns, n)
}

func codeFilename(loc Loc) string {
	return fmt.Sprintf("<code:%d:%d>", loc.Line, loc.Column)
}

// execSingleLineCode implements spec.md §4.5.1's single-line mode: try
// expression evaluation first; on failure, retry as a statement block;
// propagate the second failure if that also raises. Any write() calls
// made during evaluation have already appended to the active buffer as
// a side effect by the time the expression's own value (if any, and if
// not None) is appended after them.
func execSingleLineCode(ns *Namespace, n *CodeNode) error {
	filename := codeFilename(n.Loc)
	val, err := evalExpr(ns, filename, n.S)
	if err == nil {
		if val != starlark.None {
			ns.writeString(stringify(val))
		}
		return nil
	}

	if execErr := execStmts(ns, filename, n.S); execErr != nil {
		return wrapError(ErrEvaluate, n.Loc, execErr)
	}
	return nil
}

// execMultiLineCode implements spec.md §4.5.1's multi-line mode:
// dedent, execute as statements into a private buffer, then re-indent
// the captured output to align with the template's surrounding
// indentation before splicing it into the active buffer.
func execMultiLineCode(ns *Namespace, n *CodeNode) error {
	dedented, err := dedentCode(n.S, n.Loc)
	if err != nil {
		return err
	}

	filename := codeFilename(n.Loc)
	ns.pushBuffer()
	execErr := execStmts(ns, filename, dedented)
	out := ns.popBuffer()
	if execErr != nil {
		return wrapError(ErrEvaluate, n.Loc, execErr)
	}

	indent := n.Loc.Column - 1
	ns.writeString(reindentOutput(out, indent))
	return nil
}

// dedentCode implements the dedent rule of spec.md §4.5.1/§9: the first
// line is taken verbatim; the indentation of the first non-empty line
// thereafter is the common prefix every later non-empty line must
// start with, on pain of a mismatching-indentation error.
func dedentCode(src string, loc Loc) (string, error) {
	lines := strings.Split(src, "\n")
	if len(lines) < 2 {
		return src, nil
	}
	first, rest := lines[0], lines[1:]

	var prefix string
	havePrefix := false
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		prefix = leadingHSpace(l)
		havePrefix = true
		break
	}
	if !havePrefix {
		return first, nil
	}

	out := make([]string, 0, len(lines))
	out = append(out, first)
	for i, l := range rest {
		if strings.TrimSpace(l) == "" {
			out = append(out, "")
			continue
		}
		if !strings.HasPrefix(l, prefix) {
			return "", newError(ErrEvaluate, Loc{Line: loc.Line + i + 1, Column: loc.Column},
				"mismatching indentation in code block at line %d", loc.Line+i+1)
		}
		out = append(out, strings.TrimPrefix(l, prefix))
	}
	return strings.Join(out, "\n"), nil
}

func leadingHSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// reindentOutput prefixes every non-empty line but the first with
// `indent` spaces of padding, matching the column of whitespace that
// preceded the opening delimiter (an approximation using the
// delimiter's column as a space count, since the lexer does not retain
// the exact preceding character run).
func reindentOutput(s string, indent int) string {
	if indent <= 0 || s == "" {
		return s
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

// Execute implements the conditional-chain semantics of spec.md §4.5.2:
// at most one link's children are walked.
func (n *IfNode) Execute(ns *Namespace) error {
	for cur := n; cur != nil; cur = cur.Continuation {
		if cur.Kind == KindElse {
			return walkChildren(ns, cur.Children)
		}
		filename := fmt.Sprintf("<%s:%d:%d>", cur.Kind, cur.Loc.Line, cur.Loc.Column)
		val, err := evalExpr(ns, filename, cur.Expr)
		if err != nil {
			return wrapError(ErrEvaluate, cur.Loc, err)
		}
		if truthy(val) {
			return walkChildren(ns, cur.Children)
		}
	}
	return nil
}

// Execute implements spec.md §4.5.3: snapshot, bind each yielded row to
// the targets, walk children, restore on every exit path.
func (n *ForNode) Execute(ns *Namespace) error {
	snap := ns.snapshot(n.Targets)
	defer ns.restore(n.Targets, snap)

	filename := fmt.Sprintf("<for:%d:%d>", n.Loc.Line, n.Loc.Column)
	seq, err := evalExpr(ns, filename, n.Genexpr)
	if err != nil {
		return wrapError(ErrEvaluate, n.Loc, err)
	}

	err = iterateTuples(seq, len(n.Targets), func(row []starlark.Value) error {
		for i, t := range n.Targets {
			ns.set(t, row[i])
		}
		return walkChildren(ns, n.Children)
	})
	if err != nil {
		if perr, ok := err.(*Error); ok {
			return perr
		}
		return wrapError(ErrEvaluate, n.Loc, err)
	}
	return nil
}

// Execute implements spec.md §4.5.4: an optional first pass, then
// condition/body ticks guarded by a two-second wall clock unless slow.
func (n *WhileNode) Execute(ns *Namespace) error {
	start := time.Now()
	filename := fmt.Sprintf("<while:%d:%d>", n.Loc.Line, n.Loc.Column)

	if n.Dofirst {
		if err := walkChildren(ns, n.Children); err != nil {
			return err
		}
	}

	for {
		val, err := evalExpr(ns, filename, n.Expr)
		if err != nil {
			return wrapError(ErrEvaluate, n.Loc, err)
		}
		if !truthy(val) {
			return nil
		}
		if !n.Slow && time.Since(start) > whileGuard {
			ns.logger.Printf("while-loop at line %d exceeded the %s wall-clock guard; output truncated", n.Loc.Line, whileGuard)
			return nil
		}
		if err := walkChildren(ns, n.Children); err != nil {
			return err
		}
	}
}

// maxMacroDepth bounds recursive macro invocation the way the teacher's
// tagMacroNode bounds recursive {% macro %} calls, protecting against a
// macro that calls itself without a base case.
const maxMacroDepth = 1000

// Execute implements spec.md §4.5.5: installs a callable in the
// namespace that snapshots/binds/restores its parameters and returns
// its captured output.
func (n *DefNode) Execute(ns *Namespace) error {
	depth := 0
	fn := func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("macro %q does not accept keyword arguments", n.Name)
		}
		if len(args) != len(n.Params) {
			return nil, fmt.Errorf("macro %q called with %d argument(s), expected %d", n.Name, len(args), len(n.Params))
		}
		depth++
		defer func() { depth-- }()
		if depth > maxMacroDepth {
			return nil, fmt.Errorf("macro %q exceeded max recursion depth (%d)", n.Name, maxMacroDepth)
		}

		snap := ns.snapshot(n.Params)
		defer ns.restore(n.Params, snap)
		for i, p := range n.Params {
			ns.set(p, args[i])
		}

		ns.pushBuffer()
		err := walkChildren(ns, n.Children)
		out := ns.popBuffer()
		if err != nil {
			return nil, err
		}
		return starlark.String(out), nil
	}
	ns.set(n.Name, starlark.NewBuiltin(n.Name, fn))
	return nil
}

// Execute implements spec.md §4.5.6: redirect writes into a local
// buffer, then bind the captured string on exit and emit nothing.
func (n *CaptureNode) Execute(ns *Namespace) error {
	ns.pushBuffer()
	err := walkChildren(ns, n.Children)
	out := ns.popBuffer()
	if err != nil {
		return err
	}
	ns.set(n.Varname, starlark.String(out))
	return nil
}

// Execute implements spec.md §4.5.7: emit nothing; children are never
// walked (they exist only so the builder could find the matching end
// tag).
func (n *CommentNode) Execute(_ *Namespace) error {
	return nil
}
