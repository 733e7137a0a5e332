package lr

import (
	"fmt"
	"strings"

	"github.com/npillmayer/relex"
)

// --- AST nodes -------------------------------------------------------------

// Node is a node of an abstract syntax tree. Leaves carry a token, inner nodes
// carry the rule which produced them and the matched child nodes.
//
// Nodes are immutable, except for a per-occurrence name override and the
// lazily computed value.
type Node struct {
	Symbol    *Symbol
	Rule      *Rule       // nil for leaves
	Token     relex.Token // nil for inner nodes
	children  []*Node
	parent    *Node
	name      string
	span      relex.Span
	err       error
	value     interface{}
	evaluated bool
}

// NewLeaf creates a terminal node for a token.
func NewLeaf(A *Symbol, tok relex.Token) *Node {
	return &Node{
		Symbol: A,
		Token:  tok,
		span:   tok.Span(),
		err:    relex.Diagnostic(tok),
	}
}

// NewInner creates a non-terminal node for a reduction of rule r over children.
func NewInner(r *Rule, children []*Node) *Node {
	n := &Node{
		Symbol:   r.LHS,
		Rule:     r,
		children: make([]*Node, len(children)),
	}
	copy(n.children, children)
	for _, ch := range children {
		n.span = n.span.Extend(ch.span)
	}
	return n
}

// IsLeaf is true for terminal nodes.
func (n *Node) IsLeaf() bool {
	return n.Rule == nil
}

// Children returns the child nodes, in order.
func (n *Node) Children() []*Node {
	return n.children
}

// Child returns the child with a given name. Children are named by the label of
// their position in the rule, or by an override set with SetName.
func (n *Node) Child(name string) *Node {
	for i, ch := range n.children {
		if ch.name == name {
			return ch
		}
		if ch.name == "" && n.Rule != nil && n.Rule.rhs[i].label == name {
			return ch
		}
	}
	return nil
}

// Name returns the name of a node occurrence.
func (n *Node) Name() string {
	if n.name != "" {
		return n.name
	}
	if n.parent != nil && n.parent.Rule != nil {
		for i, ch := range n.parent.children {
			if ch == n {
				return n.parent.Rule.rhs[i].label
			}
		}
	}
	return ""
}

// SetName overrides the name of a node occurrence. A name may be set once.
func (n *Node) SetName(name string) error {
	if n.name != "" {
		return fmt.Errorf("node %v already named %q", n, n.name)
	}
	n.name = name
	return nil
}

// Parent returns the parent node, or nil for the root of a tree. Parent links
// are established when a parse has been accepted.
func (n *Node) Parent() *Node {
	return n.parent
}

// Span returns the input positions covered by the node.
func (n *Node) Span() relex.Span {
	return n.span
}

// Lexeme returns the input text of a leaf, or "" for inner nodes.
func (n *Node) Lexeme() string {
	if n.Token == nil {
		return ""
	}
	return n.Token.Lexeme()
}

// Errors returns the recoverable errors attached to the leaves of the subtree
// rooted at n.
func (n *Node) Errors() []error {
	var errs []error
	n.Walk(func(m *Node) bool {
		if m.err != nil {
			errs = append(errs, m.err)
		}
		return true
	})
	return errs
}

// Value returns the value of a node. It is computed on first access: using the
// rule's evaluator if present, else for leaves the token value or lexeme, else
// the value of a single child.
func (n *Node) Value() interface{} {
	if n.evaluated {
		return n.value
	}
	switch {
	case n.Rule != nil && n.Rule.hooks.Eval != nil:
		n.value = n.Rule.hooks.Eval(n)
	case n.Token != nil:
		if v := n.Token.Value(); v != nil {
			n.value = v
		} else {
			n.value = n.Token.Lexeme()
		}
	case len(n.children) == 1:
		n.value = n.children[0].Value()
	}
	n.evaluated = true
	return n.value
}

// Walk traverses the subtree rooted at n in pre-order. If f returns false,
// the children of the current node are skipped.
func (n *Node) Walk(f func(*Node) bool) {
	if !f(n) {
		return
	}
	for _, ch := range n.children {
		ch.Walk(f)
	}
}

// link sets the parent pointers of the subtree.
func (n *Node) link() {
	for _, ch := range n.children {
		ch.parent = n
		ch.link()
	}
}

// Link establishes the parent links of a finished tree.
func Link(root *Node) {
	root.parent = nil
	root.link()
}

func (n *Node) String() string {
	if n.Token != nil {
		return fmt.Sprintf("%v[%q]", n.Symbol, n.Token.Lexeme())
	}
	var b strings.Builder
	b.WriteString(n.Symbol.Name)
	b.WriteString("(")
	for i, ch := range n.children {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(ch.String())
	}
	b.WriteString(")")
	return b.String()
}

// --- Reduction context -----------------------------------------------------

// ReductionContext is handed to rule hooks and resolvers when a reduction is
// attempted.
type ReductionContext struct {
	Rule      *Rule
	Matched   []*Node // nodes matched by the rule's right hand side
	Before    []*Node // sibling nodes left of the match
	Lookahead *Node   // next node behind the match, or nil
	Node      *Node   // the node produced, set once the reduction is accepted
	State     *State  // the state the reduction is tried in, if known
	src       relex.TokenSource
}

// NewReductionContext creates a context for a reduction of r. src is the token
// source positioned behind the lookahead.
func NewReductionContext(r *Rule, matched, before []*Node, la *Node, src relex.TokenSource) *ReductionContext {
	return &ReductionContext{
		Rule:      r,
		Matched:   matched,
		Before:    before,
		Lookahead: la,
		src:       src,
	}
}

// Remaining returns a clone of the token source, positioned at the first
// input not yet seen by the parser. Reading from it does not affect the parse.
func (ctx *ReductionContext) Remaining() relex.TokenSource {
	if ctx.src == nil {
		return nil
	}
	return ctx.src.Clone()
}

// Arg returns the value of the i-th matched node.
func (ctx *ReductionContext) Arg(i int) interface{} {
	if i < 0 || i >= len(ctx.Matched) {
		return nil
	}
	return ctx.Matched[i].Value()
}
