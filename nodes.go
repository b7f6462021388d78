package pypage

// Node is the common interface every AST node implements: walking it
// against an execution Namespace produces the rendered text it stands
// for, appended to the namespace's currently active output buffer.
type Node interface {
	Execute(ns *Namespace) error
}

// Root is the document root; its children are walked in order.
type Root struct {
	Children []Node
}

// TextNode emits its string verbatim.
type TextNode struct {
	S string
}

// CodeNode is a {{ ... }} tag: an expression (single line) or a
// statement block (multi-line), evaluated against the shared namespace.
type CodeNode struct {
	S   string
	Loc Loc
}

// IfNode is one link (If, Elif or Else) of a conditional chain. Kind
// identifies the link; an Else link has an empty Expr. Continuation
// points to the next link, or nil if this is the chain's end.
type IfNode struct {
	Kind         BlockTagKind // KindIf, KindElif or KindElse
	Expr         string
	Loc          Loc
	Children     []Node
	Continuation *IfNode
}

// ForNode is a {% for %} block, holding the ordered target list and the
// rewritten comprehension used to drive iteration.
type ForNode struct {
	Targets  []string
	Genexpr  string
	Loc      Loc
	Children []Node
}

// WhileNode is a {% while %} block.
type WhileNode struct {
	Expr     string
	Dofirst  bool
	Slow     bool
	Loc      Loc
	Children []Node
}

// DefNode installs a callable macro bound to Name in the namespace.
type DefNode struct {
	Name     string
	Params   []string
	Loc      Loc
	Children []Node
}

// CaptureNode walks Children into a private buffer and binds the result
// to Varname on exit.
type CaptureNode struct {
	Varname  string
	Loc      Loc
	Children []Node
}

// CommentNode is a block-level {% comment %} ... {% endcomment %}; its
// children are parsed (to find the matching end tag) but never walked.
type CommentNode struct {
	Children []Node
}

func (n *Root) Execute(ns *Namespace) error {
	for _, c := range n.Children {
		if err := c.Execute(ns); err != nil {
			return err
		}
	}
	return nil
}

func (n *TextNode) Execute(ns *Namespace) error {
	ns.writeString(n.S)
	return nil
}

func walkChildren(ns *Namespace, children []Node) error {
	for _, c := range children {
		if err := c.Execute(ns); err != nil {
			return err
		}
	}
	return nil
}
