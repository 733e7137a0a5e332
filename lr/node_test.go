package lr

import (
	"errors"
	"strconv"
	"testing"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type testToken struct {
	typ    relex.TokType
	lexeme string
	span   relex.Span
	diag   error
}

func (t testToken) TokType() relex.TokType { return t.typ }
func (t testToken) Lexeme() string          { return t.lexeme }
func (t testToken) Value() interface{}      { return nil }
func (t testToken) Span() relex.Span        { return t.span }
func (t testToken) Diagnostic() error       { return t.diag }

func TestNodeTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Sum")
	sum := b.LHS("S").N("N").As("left").L("+", '+').N("N").As("right").Eval(func(n *Node) interface{} {
		return n.Child("left").Value().(int) + n.Child("right").Value().(int)
	}).End()
	num := b.LHS("N").T("num", 'n').Eval(func(n *Node) interface{} {
		i, _ := strconv.Atoi(n.Children()[0].Lexeme())
		return i
	}).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	nterm := g.Terminal('n', "")
	leaf := func(lexeme string, pos uint64, diag error) *Node {
		tok := testToken{typ: 'n', lexeme: lexeme, span: relex.Span{pos, pos + uint64(len(lexeme))}, diag: diag}
		return NewLeaf(nterm, tok)
	}
	plus := NewLeaf(g.Terminal('+', "+"), testToken{typ: '+', lexeme: "+", span: relex.Span{2, 3}})
	left := NewInner(num, []*Node{leaf("12", 0, nil)})
	right := NewInner(num, []*Node{leaf("30", 3, errors.New("suspicious"))})
	root := NewInner(sum, []*Node{left, plus, right})
	if root.Value() != 42 {
		t.Errorf("expected 12+30 to evaluate to 42, is %v", root.Value())
	}
	if root.Span() != (relex.Span{0, 5}) {
		t.Errorf("expected root to span (0…5), spans %v", root.Span())
	}
	if len(root.Errors()) != 1 {
		t.Errorf("expected 1 diagnostic in tree, have %v", root.Errors())
	}
	if left.Parent() != nil {
		t.Errorf("parents should not be linked before acceptance")
	}
	Link(root)
	if left.Parent() != root || left.Name() != "left" {
		t.Errorf("expected left child to be linked and named, is %v %q", left.Parent(), left.Name())
	}
	if err := plus.SetName("op"); err != nil {
		t.Error(err)
	}
	if err := plus.SetName("operator"); err == nil {
		t.Errorf("expected name to be settable only once")
	}
	if root.Child("op") != plus {
		t.Errorf("expected to find child by name override")
	}
	cnt := 0
	root.Walk(func(*Node) bool { cnt++; return true })
	if cnt != 6 {
		t.Errorf("expected 6 nodes in tree, walked %d", cnt)
	}
	if root.String() != `S(N(num["12"]) '+'["+"] N(num["30"]))` {
		t.Errorf("unexpected tree display %s", root)
	}
}
