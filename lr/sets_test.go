package lr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestClosure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	g := makeExprGrammar(t)
	ga := Analysis(g)
	R := ga.Closure(g.SymbolByName("Sum"))
	if len(R) != 6 {
		t.Errorf("expected closure(Sum) to contain all 6 rules, has %d", len(R))
	}
	R = ga.Closure(g.SymbolByName("Factor"))
	if len(R) != 2 {
		t.Errorf("expected closure(Factor) to contain 2 rules, has %d", len(R))
	}
	for i := 1; i < len(R); i++ {
		if R[i-1].Serial > R[i].Serial {
			t.Errorf("closure should be sorted by rule serial")
		}
	}
}

func TestFirstSets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	g := makeExprGrammar(t)
	ga := Analysis(g)
	first := names(ga.First(g.SymbolByName("Sum")))
	for _, n := range []string{"Sum", "Product", "Factor", "(", "number"} {
		if !first[n] {
			t.Errorf("expected %s in FIRST(Sum) = %v", n, first)
		}
	}
	if len(ga.FirstTerminals(g.SymbolByName("Product"))) != 2 {
		t.Errorf("expected 2 terminals in FIRST(Product)")
	}
}

func TestFollowSets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("S-A-B")
	b.LHS("S").N("A").N("B").End()
	b.LHS("A").T("x", 'x').End()
	b.LHS("B").T("y", 'y').End()
	g, _ := b.Grammar()
	ga := Analysis(g)
	A := g.SymbolByName("A")
	follow := ga.Follow(A)
	if len(follow) != 1 || follow[0].Name != "y" {
		t.Errorf("expected FOLLOW(A) = {y}, is %v", follow)
	}
	if ga.FollowsEOF(A) {
		t.Errorf("end of input should not follow A")
	}
	if !ga.FollowsEOF(g.SymbolByName("B")) {
		t.Errorf("end of input should follow B")
	}
}

func TestFollowSetUnion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Contexts")
	b.LHS("S").N("A").T("y", 'y').End()
	b.LHS("S").T("z", 'z').N("A").T("w", 'w').End()
	b.LHS("A").T("v", 'v').End()
	g, _ := b.Grammar()
	ga := Analysis(g)
	A := g.SymbolByName("A")
	follow := names(ga.Follow(A))
	if len(follow) != 2 || !follow["y"] || !follow["w"] {
		t.Errorf("expected FOLLOW(A) = {y, w}, is %v", follow)
	}
	if !ga.InFollow(A, g.Terminal('w', "")) || ga.InFollow(A, g.Terminal('z', "")) {
		t.Errorf("membership test for FOLLOW(A) is broken")
	}
	if ga.InFollow(A, nil) {
		t.Errorf("end of input should not follow A")
	}
}

func TestFollowSetsSameTokenType(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("S-A-B")
	b.LHS("S").N("A").N("B").End()
	b.LHS("A").L("x", 1).End()
	b.LHS("B").L("y", 1).End()
	g, _ := b.Grammar()
	ga := Analysis(g)
	A := g.SymbolByName("A")
	follow := ga.Follow(A)
	if len(follow) != 1 || follow[0].Literal() != "y" {
		t.Errorf("expected FOLLOW(A) = {'y'}, is %v", follow)
	}
	if ga.FollowsEOF(A) {
		t.Errorf("end of input should not follow A")
	}
	if !ga.InFollow(A, g.Terminal(1, "y")) || ga.InFollow(A, g.Terminal(1, "x")) {
		t.Errorf("literals of one token type should be told apart in FOLLOW(A)")
	}
}

func TestFollowSetsPinnedOperators(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := NewGrammarBuilder("Minus")
	b.LHS("E").T("num", 'n').End()
	b.LHS("E").N("E").L("--", '-').End()
	b.LHS("E").L("-", '-').N("E").End()
	b.LHS("E").N("E").L("-", '-').N("E").End()
	g, _ := b.Grammar()
	ga := Analysis(g)
	E := g.SymbolByName("E")
	follow := ga.Follow(E)
	if len(follow) != 2 || follow[0].Literal() != "--" || follow[1].Literal() != "-" {
		t.Errorf("expected FOLLOW(E) = {'--', '-'}, is %v", follow)
	}
	if !ga.FollowsEOF(E) {
		t.Errorf("end of input should follow E")
	}
	if ga.InFollow(E, g.Terminal('n', "")) {
		t.Errorf("num must not follow E")
	}
	minus := g.Terminal('-', "-")
	if f := names(ga.Follow(minus)); len(f) != 2 || !f["num"] || !f["-"] {
		t.Errorf("expected FOLLOW('-') = {num, '-'}, is %v", ga.Follow(minus))
	}
}

func names(S []*Symbol) map[string]bool {
	m := make(map[string]bool, len(S))
	for _, A := range S {
		m[A.Name] = true
	}
	return m
}
