package pypage

import "fmt"

// ErrorKind classifies the stage that produced an *Error.
type ErrorKind int

const (
	// ErrTokenize covers incomplete tags and multi-line block tags.
	ErrTokenize ErrorKind = iota
	// ErrClassify covers unknown tags, missing/forbidden expressions and
	// malformed identifiers or for-targets.
	ErrClassify
	// ErrStructure covers unbound/mismatching end tags, elif/else
	// without if, and unclosed tags.
	ErrStructure
	// ErrEvaluate covers indentation mismatches, embedded-code failures
	// and macro arity mismatches.
	ErrEvaluate
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTokenize:
		return "tokenize"
	case ErrClassify:
		return "classify"
	case ErrStructure:
		return "structure"
	case ErrEvaluate:
		return "evaluate"
	default:
		return "error"
	}
}

// Error is the single typed error surfaced to callers of Process. It
// carries the source location of the failure, following the teacher's
// pongo2.Error (Filename/Line/Column/Sender/ErrorMsg), trimmed to the
// fields this engine needs and augmented with Unwrap so that wrapped
// *starlark.EvalError values remain inspectable by callers.
type Error struct {
	Kind    ErrorKind
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s error | Line %d Col %d] %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("[%s error] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, loc Loc, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Line:    loc.Line,
		Column:  loc.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func wrapError(kind ErrorKind, loc Loc, err error) *Error {
	return &Error{
		Kind:    kind,
		Line:    loc.Line,
		Column:  loc.Column,
		Message: err.Error(),
		Err:     err,
	}
}
