package pypage

import (
	"sort"
	"strings"
)

// BlockTagKind identifies which of the fixed block-tag vocabulary a
// classified Block token represents.
type BlockTagKind int

const (
	KindIf BlockTagKind = iota
	KindElif
	KindElse
	KindFor
	KindWhile
	KindDef
	KindCapture
	KindComment
	KindEnd
)

func (k BlockTagKind) String() string {
	switch k {
	case KindIf:
		return "if"
	case KindElif:
		return "elif"
	case KindElse:
		return "else"
	case KindFor:
		return "for"
	case KindWhile:
		return "while"
	case KindDef:
		return "def"
	case KindCapture:
		return "capture"
	case KindComment:
		return "comment"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// BlockTag is the classified interior of a Block token.
type BlockTag struct {
	Kind BlockTagKind
	Loc  Loc

	Expr string // If, Elif, While

	ForTargets []string // For
	ForGenexpr string   // For: rewritten Starlark list comprehension

	WhileDofirst bool // While
	WhileSlow    bool // While

	DefName   string   // Def
	DefParams []string // Def

	CaptureVar string // Capture

	EndTarget string // End: the text after "end" ("if" for "endif"); "" for a bare "end"
}

// classify dispatches the trimmed interior of a Block token by its
// leading keyword, per spec.md §4.3.
func classify(tok Token) (BlockTag, error) {
	s := strings.TrimSpace(tok.Val)
	loc := tok.Loc

	word, rest := splitWord(s)

	switch {
	case s == "":
		return BlockTag{Kind: KindEnd, Loc: loc, EndTarget: ""}, nil

	case word == "end" || strings.HasPrefix(word, "end"):
		return BlockTag{Kind: KindEnd, Loc: loc, EndTarget: strings.TrimPrefix(word, "end")}, nil

	case word == "if":
		if strings.TrimSpace(rest) == "" {
			return BlockTag{}, newError(ErrClassify, loc, "missing expression after 'if'")
		}
		return BlockTag{Kind: KindIf, Loc: loc, Expr: rest}, nil

	case word == "elif":
		if strings.TrimSpace(rest) == "" {
			return BlockTag{}, newError(ErrClassify, loc, "missing expression after 'elif'")
		}
		return BlockTag{Kind: KindElif, Loc: loc, Expr: rest}, nil

	case word == "else":
		if strings.TrimSpace(rest) != "" {
			return BlockTag{}, newError(ErrClassify, loc, "expression not allowed after 'else'")
		}
		return BlockTag{Kind: KindElse, Loc: loc}, nil

	case word == "for":
		return classifyFor(s, loc)

	case word == "while":
		return classifyWhile(rest, loc)

	case word == "def":
		return classifyDef(rest, loc)

	case word == "capture":
		name := strings.TrimSpace(rest)
		if !isIdentifier(name) {
			return BlockTag{}, newError(ErrClassify, loc, "'capture' requires a single identifier, got %q", name)
		}
		return BlockTag{Kind: KindCapture, Loc: loc, CaptureVar: name}, nil

	case word == "comment":
		if strings.TrimSpace(rest) != "" {
			return BlockTag{}, newError(ErrClassify, loc, "'comment' takes no arguments")
		}
		return BlockTag{Kind: KindComment, Loc: loc}, nil
	}

	return BlockTag{}, newError(ErrClassify, loc, "unknown block tag %q", word)
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx+1:], " \t")
}

// classifyFor extracts the ordered, deduplicated target list from a
// `for` header with possibly multiple `for ... in ...` clauses, and
// rewrites the header into a Starlark list-comprehension literal that
// yields one tuple per iteration (see SPEC_FULL.md §4.3 for the
// genexpr-to-list-comprehension mapping this engine uses in place of
// Python's lazy generator expressions).
func classifyFor(interior string, loc Loc) (BlockTag, error) {
	targets, err := extractForTargets(interior, loc)
	if err != nil {
		return BlockTag{}, err
	}

	tuple := "(" + strings.Join(targets, ", ")
	if len(targets) == 1 {
		tuple += ","
	}
	tuple += ")"

	return BlockTag{
		Kind:       KindFor,
		Loc:        loc,
		ForTargets: targets,
		ForGenexpr: "[" + tuple + " " + interior + "]",
	}, nil
}

func extractForTargets(interior string, loc Loc) ([]string, error) {
	seen := map[string]bool{}
	var targets []string

	rem := interior
	for {
		forIdx := indexWord(rem, "for")
		if forIdx < 0 {
			break
		}
		after := rem[forIdx+len("for"):]
		inIdx := indexWord(after, "in")
		if inIdx < 0 {
			return nil, newError(ErrClassify, loc, "malformed 'for': missing 'in'")
		}
		clause := after[:inIdx]
		for _, raw := range strings.Split(stripNonIdentPunct(clause), ",") {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			if !isIdentifier(name) {
				return nil, newError(ErrClassify, loc, "malformed 'for' target %q", name)
			}
			if !seen[name] {
				seen[name] = true
				targets = append(targets, name)
			}
		}
		rem = after[inIdx+len("in"):]
	}

	if len(targets) == 0 {
		return nil, newError(ErrClassify, loc, "'for' requires at least one target")
	}
	sort.Strings(targets)
	return targets, nil
}

// stripNonIdentPunct removes characters that cannot appear in a bare
// identifier list, other than the comma separator, so that
// destructuring punctuation like parentheses is tolerated and stripped.
func stripNonIdentPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ',' || r == ' ' || r == '\t' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func indexWord(s, word string) int {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] != word {
			continue
		}
		leftOK := i == 0 || !isIdentByte(s[i-1])
		rightOK := i+len(word) == len(s) || !isIdentByte(s[i+len(word)])
		if leftOK && rightOK {
			return i
		}
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// classifyWhile strips the optional leading "dofirst" and trailing
// "slow" modifiers, leaving the loop condition.
func classifyWhile(s string, loc Loc) (BlockTag, error) {
	dofirst := false
	if strings.HasPrefix(s, "dofirst ") || s == "dofirst" {
		dofirst = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "dofirst"))
	}
	slow := false
	if strings.HasSuffix(s, " slow") {
		slow = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "slow"))
	}
	if strings.TrimSpace(s) == "" {
		return BlockTag{}, newError(ErrClassify, loc, "missing expression after 'while'")
	}
	return BlockTag{Kind: KindWhile, Loc: loc, Expr: s, WhileDofirst: dofirst, WhileSlow: slow}, nil
}

// classifyDef parses `<name> <p1> ... <pn>` following the `def` keyword.
func classifyDef(s string, loc Loc) (BlockTag, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return BlockTag{}, newError(ErrClassify, loc, "'def' requires a name")
	}
	name := fields[0]
	if !isIdentifier(name) {
		return BlockTag{}, newError(ErrClassify, loc, "'def' name %q is not a valid identifier", name)
	}
	params := fields[1:]
	seen := map[string]bool{}
	for _, p := range params {
		if !isIdentifier(p) {
			return BlockTag{}, newError(ErrClassify, loc, "'def' parameter %q is not a valid identifier", p)
		}
		if seen[p] {
			return BlockTag{}, newError(ErrClassify, loc, "'def' parameter %q repeated", p)
		}
		seen[p] = true
	}
	return BlockTag{Kind: KindDef, Loc: loc, DefName: name, DefParams: params}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}
