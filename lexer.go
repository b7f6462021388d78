package pypage

import (
	"strings"
)

// lexer is a single-pass state machine that segments a document into
// Text, Code, Comment and Block tokens, tracking source locations as it
// goes. It is modeled on the teacher's rune-scanning lexer (next/
// backup/peek/accept), generalized from two delimiter pairs to three
// and taught escape sequences and nestable comments.
type lexer struct {
	input  string
	delims Delims

	pos  int // byte offset of the scan cursor
	line int // 1-based line of pos
	col  int // 1-based column of pos

	tokens []Token
}

func newLexer(input string, delims Delims) *lexer {
	return &lexer{
		input:  input,
		delims: delims,
		line:   1,
		col:    1,
	}
}

// loc returns the current source location.
func (l *lexer) loc() Loc {
	return Loc{Line: l.line, Column: l.col}
}

// advance consumes n bytes from the input, updating line/col bookkeeping.
func (l *lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.pos+i < len(l.input) && l.input[l.pos+i] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.pos += n
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

// lex tokenizes the whole input and returns the ordered token list, or a
// tokenization error carrying the offending location.
func lex(input string, delims Delims) ([]Token, error) {
	l := newLexer(input, delims)
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) run() error {
	var textBuf strings.Builder
	textLoc := l.loc()

	flushText := func() {
		if textBuf.Len() > 0 {
			l.tokens = append(l.tokens, Token{Typ: TokenTextKind, Val: textBuf.String(), Loc: textLoc})
			textBuf.Reset()
		}
	}

	for !l.eof() {
		switch {
		case l.hasPrefix(l.delims.CodeOpen):
			flushText()
			tok, err := l.scanDelimited(TokenCodeKind, l.delims.CodeOpen, l.delims.CodeClose, true)
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, tok)
			textLoc = l.loc()

		case l.hasPrefix(l.delims.CommentOpen):
			flushText()
			tok, err := l.scanComment()
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, tok)
			textLoc = l.loc()

		case l.hasPrefix(l.delims.BlockOpen):
			flushText()
			tok, err := l.scanDelimited(TokenBlockKind, l.delims.BlockOpen, l.delims.BlockClose, false)
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, tok)
			textLoc = l.loc()

		default:
			if textBuf.Len() == 0 {
				textLoc = l.loc()
			}
			textBuf.WriteByte(l.input[l.pos])
			l.advance(1)
		}
	}
	flushText()
	return nil
}

// scanDelimited scans the interior of a {{ ... }} or {% ... %} pair,
// honoring the \{ and \} escape sequences. allowNewline controls
// whether an embedded newline is permitted (Code) or fatal (Block).
func (l *lexer) scanDelimited(typ TokenType, open, close string, allowNewline bool) (Token, error) {
	openLoc := l.loc()
	l.advance(len(open))

	var interior strings.Builder
	for {
		if l.eof() {
			return Token{}, newError(ErrTokenize, openLoc, "unmatched %q: reached end of input", open)
		}
		if l.hasPrefix(close) {
			l.advance(len(close))
			return Token{Typ: typ, Val: interior.String(), Loc: openLoc}, nil
		}
		if l.hasPrefix(`\{`) {
			interior.WriteByte('{')
			l.advance(2)
			continue
		}
		if l.hasPrefix(`\}`) {
			interior.WriteByte('}')
			l.advance(2)
			continue
		}
		if l.input[l.pos] == '\n' {
			if !allowNewline {
				return Token{}, newError(ErrTokenize, openLoc, "block tag must be single-line")
			}
		}
		interior.WriteByte(l.input[l.pos])
		l.advance(1)
	}
}

// scanComment scans the interior of a {# ... #} pair, permitting nested
// {# ... #} pairs by tracking a depth counter; only the closer at depth
// zero terminates the token. Nested delimiters are preserved in the
// accumulated (and later discarded) interior.
func (l *lexer) scanComment() (Token, error) {
	openLoc := l.loc()
	open, close := l.delims.CommentOpen, l.delims.CommentClose
	l.advance(len(open))

	depth := 0
	var interior strings.Builder
	for {
		if l.eof() {
			return Token{}, newError(ErrTokenize, openLoc, "unmatched %q: reached end of input", open)
		}
		if l.hasPrefix(open) {
			depth++
			interior.WriteString(open)
			l.advance(len(open))
			continue
		}
		if l.hasPrefix(close) {
			if depth == 0 {
				l.advance(len(close))
				return Token{Typ: TokenCommentKind, Val: interior.String(), Loc: openLoc}, nil
			}
			depth--
			interior.WriteString(close)
			l.advance(len(close))
			continue
		}
		interior.WriteByte(l.input[l.pos])
		l.advance(1)
	}
}
