package pypage

import "os"

// Template is a parsed document: a lexed, pruned and tree-built Root
// ready to be walked against any number of namespaces.
type Template struct {
	name string
	src  string
	root *Root
}

func newTemplate(name, src string, delims Delims) (*Template, error) {
	if err := delims.validate(); err != nil {
		return nil, err
	}
	tokens, err := lex(src, delims)
	if err != nil {
		return nil, err
	}
	tokens = prune(tokens)
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Template{name: name, src: src, root: root}, nil
}

// FromString parses src as an in-memory template.
func FromString(src string, opts ...Option) (*Template, error) {
	c := newConfig(opts...)
	return newTemplate("<string>", src, c.delims)
}

// FromFile reads and parses the template at path.
func FromFile(path string, opts ...Option) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := newConfig(opts...)
	return newTemplate(path, string(b), c.delims)
}

// Execute renders the template against seed and returns the output.
// Each call gets a fresh Namespace: nothing persists between calls.
func (t *Template) Execute(seed map[string]any, opts ...Option) (string, error) {
	out, _, err := t.ExecuteState(seed, opts...)
	return out, err
}

// ExecuteState renders the template like Execute, additionally
// returning the namespace's final bindings as plain Go values, for a
// caller that wants to inspect what the render bound or mutated (a
// capture variable, a seeded counter a while-loop incremented, a
// macro's closed-over state).
func (t *Template) ExecuteState(seed map[string]any, opts ...Option) (string, map[string]any, error) {
	c := newConfig(opts...)
	ns, err := newNamespace(seed, c)
	if err != nil {
		return "", nil, err
	}
	if err := t.root.Execute(ns); err != nil {
		return "", nil, err
	}
	out := ns.popBuffer()
	return out, ns.State(), nil
}
