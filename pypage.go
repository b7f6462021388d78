// Package pypage implements a text-template engine: a tokenizer splits
// a document into Text/Code({{ }})/Comment({# #})/Block({% %}) tokens,
// a tree builder folds them into a block-structured AST, and a tree
// walker executes the AST against a single namespace shared by the
// whole document, with the embedded expression/statement language
// realized by go.starlark.net (see SPEC_FULL.md §1, §4.6).
package pypage

// Version identifies this build of the engine.
const Version = "v1"

// Must panics if err is non-nil. Meant for package-level template
// variables that must parse correctly at init time:
//
//	var base = pypage.Must(pypage.FromFile("templates/base.txt"))
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Process parses src and executes it against seed in one step.
func Process(src string, seed map[string]any, opts ...Option) (string, error) {
	t, err := FromString(src, opts...)
	if err != nil {
		return "", err
	}
	return t.Execute(seed, opts...)
}
