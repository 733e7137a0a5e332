package lr

import (
	"strings"
	"testing"

	"github.com/npillmayer/relex/lr/scanner"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// We use a small unambiguous expression grammar for testing.
//
//     Sum     = Sum     '+' Product
//             | Product
//     Product = Product '*' Factor
//             | Factor
//     Factor  = '(' Sum ')'
//             | number
//
func makeExprGrammar(t *testing.T) *Grammar {
	b := NewGrammarBuilder("Expressions")
	b.LHS("Sum").N("Sum").T("+", '+').N("Product").End()
	b.LHS("Sum").N("Product").End()
	b.LHS("Product").N("Product").T("*", '*').N("Factor").End()
	b.LHS("Product").N("Factor").End()
	b.LHS("Factor").T("(", '(').N("Sum").T(")", ')').End()
	b.LHS("Factor").T("number", scanner.Int).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGrammarBuilder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	g := makeExprGrammar(t)
	g.Dump()
	if g.Size() != 6 {
		t.Errorf("expected grammar to have 6 rules, has %d", g.Size())
	}
	if len(g.Entries()) != 1 || g.Entries()[0].Name != "Sum" {
		t.Errorf("expected entry to default to Sum, is %v", g.Entries())
	}
	if r := g.Rule(0); r.String() != "Sum ➞ Sum + Product" {
		t.Errorf("unexpected rule 0: %q", r.String())
	}
	if len(g.RulesFor(g.SymbolByName("Factor"))) != 2 {
		t.Errorf("expected 2 rules for Factor")
	}
	if g.Terminal(scanner.Int, "") == nil {
		t.Errorf("expected to find terminal 'number'")
	}
	nonterms := 0
	g.EachNonTerminal(func(A *Symbol) { nonterms++ })
	if nonterms != 3 {
		t.Errorf("expected 3 non-terminals, have %d", nonterms)
	}
}

func TestGrammarErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Broken")
	b.LHS("S").N("A").N("B").End()
	b.LHS("A").T("a", 'a').End()
	b.LHS("E").End()
	b.Entry("S", "X")
	_, err := b.Grammar()
	if err == nil {
		t.Fatalf("expected grammar to be rejected")
	}
	for _, msg := range []string{"non-terminal B", "entry non-terminal X", "empty rule for E"} {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("expected error to report %q, is: %v", msg, err)
		}
	}
}

func TestSymbolInterning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Labels")
	r := b.LHS("S").N("A").As("left").L("-", '-').N("A").As("right").End()
	b.LHS("A").T("id", scanner.Ident).End()
	b.LHS("A").L("--", '-').End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	left, right := r.At(0), r.At(2)
	if left == right {
		t.Errorf("labelled occurrences should be distinct symbols")
	}
	if left.Base() != right.Base() || left.Base() != g.SymbolByName("A") {
		t.Errorf("labelled occurrences should share a base symbol")
	}
	minus, dminus := g.Terminal('-', "-"), g.Terminal('-', "--")
	if minus == nil || dminus == nil || minus == dminus {
		t.Fatalf("expected two distinct pinned terminals, have %v and %v", minus, dminus)
	}
	if minus.Key() != dminus.Key() {
		t.Errorf("pinned terminals of one token type should share their key")
	}
	if minus.Unpinned() != g.Terminal('-', "") {
		t.Errorf("expected unpinned counterpart for '-'")
	}
	if minus.Matches(dminus) || dminus.Matches(minus) {
		t.Errorf("pinned terminals with different literals must not match")
	}
	if !minus.Unpinned().Matches(minus) {
		t.Errorf("unpinned terminal should match a pinned one of the same type")
	}
	if minus.String() != "'-'" || left.String() != "A:left" {
		t.Errorf("unexpected symbol display: %s, %s", minus, left)
	}
}
