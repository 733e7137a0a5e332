package ebnf

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"go.uber.org/multierr"
)

func rulesOf(g *lr.Grammar) []string {
	var R []string
	for i := 0; i < g.Size(); i++ {
		R = append(R, g.Rule(i).String())
	}
	return R
}

func TestTranslate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	src := `
	Expr = Term { ( "+" | "-" ) Term } .
	Term = int | "(" Expr ")" | "-" Term .
	`
	g, rules, err := Grammar("Expr", "expr.ebnf", strings.NewReader(src), GoTokenClasses)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{
		"Expr ➞ Term",
		"Expr ➞ Term Expr{1}",
		"Expr{1} ➞ '+' Term",
		"Expr{1} ➞ '-' Term",
		"Expr{1} ➞ Expr{1} '+' Term",
		"Expr{1} ➞ Expr{1} '-' Term",
		"Term ➞ int",
		"Term ➞ '(' Expr ')'",
		"Term ➞ '-' Term",
	}
	have := rulesOf(g)
	if len(have) != len(expected) {
		t.Fatalf("expected %d rules, have %d: %v", len(expected), len(have), have)
	}
	for i, r := range expected {
		if have[i] != r {
			t.Errorf("expected rule #%d to be %s, is %s", i, r, have[i])
		}
	}
	if len(rules["Expr{1}"]) != 4 || len(rules["Term"]) != 3 {
		t.Errorf("unexpected rules per production: %v", rules)
	}
	if E := g.Entries(); len(E) != 1 || E[0].Name != "Expr" {
		t.Errorf("expected Expr to be the entry, is %v", E)
	}
	if minus := rules["Term"][2].At(0); minus.TokenType() != '-' || minus.Literal() != "-" {
		t.Errorf("expected '-' to be typed by its rune, is %v", minus.TokenType())
	}
}

func TestOptionsAndLiterals(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	src := `
	Stmt = "var" ident [ "=" Value ] ";" .
	Value = int | "--" int .
	`
	literals := map[string]relex.TokType{"--": '-'}
	g, rules, err := Grammar("Var", "var.ebnf", strings.NewReader(src), GoTokenClasses,
		Literals(literals), Start("Stmt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rules["Stmt"]) != 2 || g.Size() != 4 {
		t.Errorf("expected option to expand into 2 rules, have %v", rulesOf(g))
	}
	kw := rules["Stmt"][0].At(0)
	if kw.Literal() != "var" || kw.TokenType() != relex.TokType(GoTokenClasses["ident"]) {
		t.Errorf("expected keyword to be a pinned identifier, is %v", kw)
	}
	if dd := rules["Value"][1].At(0); dd.TokenType() != '-' {
		t.Errorf("expected '--' to have token type '-', is %d", dd.TokenType())
	}
}

func TestTranslationErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	for _, x := range []struct {
		caption string
		src     string
		errs    int
	}{
		{"empty derivation", `List = [ int ] .`, 1},
		{"unknown token class", `A = int number .`, 1},
		{"undefined production", `A = B int | C .`, 2},
		{"character range", `A = "a" … "z" .`, 1},
		{"lexical production", `a = int .`, 1},
	} {
		b := lr.NewGrammarBuilder(x.caption)
		_, err := Translate(b, "bad.ebnf", strings.NewReader(x.src), GoTokenClasses)
		if err == nil {
			t.Errorf("%s: expected translation to fail", x.caption)
			continue
		}
		if n := len(multierr.Errors(err)); n != x.errs {
			t.Errorf("%s: expected %d errors, have %d: %v", x.caption, x.errs, n, err)
		}
	}
}

func TestSyntaxError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("Bad")
	_, err := Translate(b, "bad.ebnf", strings.NewReader(`A = int `), GoTokenClasses)
	if err == nil {
		t.Fatalf("expected missing period to be reported")
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected parse error to be wrapped, is %v", err)
	}
}

func TestBuildFromEBNF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.lr")
	defer teardown()
	//
	src := `
	Call = ident "(" [ Args ] ")" .
	Args = Arg { "," Arg } .
	Arg  = ident | int .
	`
	g, _, err := Grammar("Calls", "calls.ebnf", strings.NewReader(src), GoTokenClasses)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = lr.Build(g); err == nil {
		t.Errorf("expected conflict between Args ➞ Arg and Args ➞ Arg Args{1}")
	}
	a, err := lr.Build(g, lr.DefaultResolution(true))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.States()) == 0 {
		t.Errorf("expected automaton to have states")
	}
}
