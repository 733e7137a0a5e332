package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/relex/lr/scanner"
	"github.com/npillmayer/relex/lr/scanner/lexmach"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/sync/errgroup"
)

// counters records calls of the hooks of the postfix rule.
type counters struct {
	accepted   int32
	rolledBack int32
}

func intValue(n *lr.Node) int {
	return n.Value().(int)
}

// makeMinusGrammar creates a grammar with three flavours of '-':
//
//	exp ➞ num | exp -- | - exp | exp - exp
//
// Input "2--1" is ambiguous for the scanner, as "--" may be a single token
// or two tokens.
func makeMinusGrammar(t *testing.T, cnt *counters, commit bool) *lr.Automaton {
	b := lr.NewGrammarBuilder("Minus")
	b.LHS("exp").T("num", scanner.Int).Eval(func(n *lr.Node) interface{} {
		i, _ := strconv.Atoi(n.Children()[0].Lexeme())
		return i
	}).End()
	rb := b.LHS("exp").N("exp").L("--", '-').Eval(func(n *lr.Node) interface{} {
		return intValue(n.Children()[0]) - 1
	})
	if cnt != nil {
		rb.OnAccept(func(*lr.ReductionContext) {
			atomic.AddInt32(&cnt.accepted, 1)
		}).Rollback(func(*lr.ReductionContext) {
			atomic.AddInt32(&cnt.rolledBack, 1)
		})
	}
	if commit {
		rb.Commit(func(*lr.ReductionContext) bool { return true })
	}
	post := rb.End()
	neg := b.LHS("exp").L("-", '-').N("exp").Eval(func(n *lr.Node) interface{} {
		return -intValue(n.Children()[1])
	}).End()
	sub := b.LHS("exp").N("exp").L("-", '-').N("exp").Eval(func(n *lr.Node) interface{} {
		return intValue(n.Children()[0]) - intValue(n.Children()[2])
	}).End()
	b.Resolve(neg, lr.Resolver{Other: sub, Any: true, AtEnd: true, Accept: true})
	b.Resolve(neg, lr.Resolver{Other: post, Any: true, Accept: true})
	b.Resolve(sub, lr.Resolver{Other: sub, Lookahead: []*lr.Symbol{sub.At(1)}, Accept: true})
	b.Resolve(sub, lr.Resolver{Other: post, Lookahead: []*lr.Symbol{post.At(1)}, Accept: false})
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	a, err := lr.Build(g)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func makeMinusLexer(t *testing.T) *lexmach.LMAdapter {
	patterns := []lexmach.Pattern{
		{Regex: `0[0-9]+`, Token: "NUM", Diagnose: "leading zero"},
		{Regex: `[0-9]+`, Token: "NUM"},
		{Regex: `( |\t|\n)+`},
	}
	tokenIds := map[string]int{
		"NUM": scanner.Int,
		"-":   '-',
		"--":  '-',
	}
	LM, err := lexmach.NewLMAdapter(patterns, []string{"-", "--"}, nil, tokenIds)
	if err != nil {
		t.Fatal(err)
	}
	return LM
}

func TestNewParser(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("Minus")
	b.LHS("exp").T("num", scanner.Int).End()
	b.LHS("exp").N("exp").L("-", '-').N("exp").End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	a := lr.Construct(g)
	if _, err = NewParser(a); !errors.Is(err, ErrNotValidated) {
		t.Errorf("expected parser creation to fail for unvalidated automaton, have %v", err)
	}
	if _, err = NewParser(nil); err == nil {
		t.Errorf("expected parser creation to fail without automaton")
	}
}

func TestSimpleExpression(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	LM := makeMinusLexer(t)
	for input, value := range map[string]int{
		"7":     7,
		"5-3":   2,
		"-4":    -4,
		"8-2-1": 5,
		"3--":   2,
	} {
		result, err := p.Parse(LM.Source(input))
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if !result.Accepted {
			t.Errorf("expected %q to be accepted", input)
			continue
		}
		if v := result.Root.Value(); v != value {
			t.Errorf("expected %q to evaluate to %d, is %v", input, value, v)
		}
	}
}

func TestReLex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	cnt := &counters{}
	p, err := NewParser(makeMinusGrammar(t, cnt, false))
	if err != nil {
		t.Fatal(err)
	}
	src := makeMinusLexer(t).Source("2--1")
	result, err := p.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted {
		t.Fatalf("expected 2--1 to be accepted")
	}
	if v := result.Root.Value(); v != 3 {
		t.Errorf("expected 2--1 to evaluate to 2-(-1) = 3, is %v", v)
	}
	t.Logf("tree = %v", result.Root)
	if cnt.accepted != 1 || cnt.rolledBack != 1 {
		t.Errorf("expected postfix reduction to be accepted and rolled back once, have %d/%d",
			cnt.accepted, cnt.rolledBack)
	}
	if !src.AtEnd() || src.Pos() != 4 {
		t.Errorf("expected source to be consumed, is at %d", src.Pos())
	}
	if result.Root.Parent() != nil || result.Root.Children()[0].Parent() != result.Root {
		t.Errorf("expected tree to be linked")
	}
}

func TestReLexDisabled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false), ReLex(false))
	if err != nil {
		t.Fatal(err)
	}
	src := makeMinusLexer(t).Source("2--1")
	result, err := p.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if result.Accepted && result.Root.Value() == 3 {
		t.Errorf("expected parser not to find 2-(-1) without re-lexing")
	}
}

func TestCommit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	cnt := &counters{}
	p, err := NewParser(makeMinusGrammar(t, cnt, true))
	if err != nil {
		t.Fatal(err)
	}
	src := makeMinusLexer(t).Source("2--1")
	result, err := p.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted {
		t.Fatalf("expected 2-- to be accepted as a prefix")
	}
	if v := result.Root.Value(); v != 1 {
		t.Errorf("expected 2-- to evaluate to 1, is %v", v)
	}
	if cnt.rolledBack != 0 {
		t.Errorf("committed reduction must not be rolled back")
	}
	if src.Pos() != 3 || src.AtEnd() {
		t.Errorf("expected '1' to be left in the source, source is at %d", src.Pos())
	}
	if !result.Partial {
		t.Errorf("expected result to be flagged as partial")
	}
}

func TestTrailingInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	LM := makeMinusLexer(t)
	for _, commit := range []bool{false, true} {
		p, err := NewParser(makeMinusGrammar(t, nil, commit))
		if err != nil {
			t.Fatal(err)
		}
		for _, input := range []string{"2 3", "4-2 7", "-", "3---"} {
			src := LM.Source(input)
			result, err := p.Parse(src)
			if err != nil {
				t.Fatal(err)
			}
			if result.Accepted || result.Root != nil {
				t.Errorf("commit=%v: expected %q to be rejected, is %v", commit, input, result.Root)
			}
			if src.Pos() != 0 {
				t.Errorf("expected rejected parse to leave the source untouched")
			}
		}
	}
}

func TestDiagnostics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	result, err := p.Parse(makeMinusLexer(t).Source("5-03"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted {
		t.Fatalf("expected recoverable error not to abort the parse")
	}
	if v := result.Root.Value(); v != 2 {
		t.Errorf("expected 5-03 to evaluate to 2, is %v", v)
	}
	if len(result.Errors) != 1 || len(result.Root.Errors()) != 1 {
		t.Errorf("expected one recoverable error, have %v", result.Errors)
	}
}

func TestReject(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	src := makeMinusLexer(t).Source("x")
	result, err := p.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if result.Accepted || result.Root != nil {
		t.Errorf("expected unscannable input to be rejected")
	}
	if src.Pos() != 0 {
		t.Errorf("expected rejected parse to leave the source untouched")
	}
}

func makeStatementGrammar(t *testing.T) *lr.Automaton {
	b := lr.NewGrammarBuilder("Statements")
	b.LHS("stmt").L("kw", scanner.Ident).T("id", scanner.Ident).L("(", '(').L(")", ')').L(";", ';').End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	a, err := lr.Build(g)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestIgnoreEntryFollow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	a := makeStatementGrammar(t)
	input := "kw id(); kw id2();"
	p, err := NewParser(a, IgnoreEntryFollow(false))
	if err != nil {
		t.Fatal(err)
	}
	result, err := p.Parse(scanner.NewGoSource("stmt", input))
	if err != nil {
		t.Fatal(err)
	}
	if result.Accepted {
		t.Errorf("expected multi-statement input to be rejected, is %v", result.Root)
	}
	//
	p, err = NewParser(a, IgnoreEntryFollow(true))
	if err != nil {
		t.Fatal(err)
	}
	src := scanner.NewGoSource("stmt", input)
	for i, id := range []string{"id", "id2"} {
		result, err = p.Parse(src)
		if err != nil {
			t.Fatal(err)
		}
		if !result.Accepted {
			t.Fatalf("expected statement #%d to be accepted", i+1)
		}
		if lexeme := result.Root.Children()[1].Lexeme(); lexeme != id {
			t.Errorf("expected statement #%d to call %s, calls %s", i+1, id, lexeme)
		}
	}
	if !src.AtEnd() {
		t.Errorf("expected both statements to be consumed")
	}
}

func TestSteps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	ps := p.NewParsingState(makeMinusLexer(t).Source("2--1"))
	steps, speculating := 0, false
	for !ps.Done() {
		if _, err := p.Step(ps); err != nil {
			t.Fatal(err)
		}
		speculating = speculating || ps.Depth() > 0
		steps++
		if steps > 100 {
			t.Fatalf("parser does not terminate")
		}
	}
	if !speculating {
		t.Errorf("expected parser to record an alternative for '--'")
	}
	if !ps.Result().Accepted {
		t.Errorf("expected input to be accepted")
	}
	if done, _ := p.Step(ps); !done {
		t.Errorf("expected step on finished parse to report done")
	}
}

func TestCancel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = p.ParseContext(ctx, makeMinusLexer(t).Source("1-2")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected parse to be canceled, have %v", err)
	}
}

func TestConcurrentParses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	p, err := NewParser(makeMinusGrammar(t, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	LM := makeMinusLexer(t)
	inputs := []string{"2--1", "5-3", "-4", "8-2-1", "3--", "1-1-1-1"}
	values := []int{3, 2, -4, 5, 2, -2}
	results := make([]interface{}, len(inputs))
	var group errgroup.Group
	for i := range inputs {
		i := i
		group.Go(func() error {
			result, err := p.Parse(LM.Source(inputs[i]))
			if err != nil {
				return err
			}
			if !result.Accepted {
				return fmt.Errorf("%q not accepted", inputs[i])
			}
			results[i] = result.Root.Value()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, v := range results {
		if v != values[i] {
			t.Errorf("expected %q to evaluate to %d, is %v", inputs[i], values[i], v)
		}
	}
}

func TestHydratedAutomaton(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "relex.engine")
	defer teardown()
	//
	a := makeMinusGrammar(t, nil, false)
	data, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	h, err := lr.Hydrate(a.Grammar(), data)
	if err != nil {
		t.Fatal(err)
	}
	LM := makeMinusLexer(t)
	for _, input := range []string{"2--1", "8-2-1", "-3--"} {
		var trees []string
		for _, aut := range []*lr.Automaton{a, h} {
			p, err := NewParser(aut)
			if err != nil {
				t.Fatal(err)
			}
			result, err := p.Parse(LM.Source(input))
			if err != nil || !result.Accepted {
				t.Fatalf("expected %q to be accepted, error = %v", input, err)
			}
			trees = append(trees, result.Root.String())
		}
		if trees[0] != trees[1] {
			t.Errorf("trees for %q differ: %s vs %s", input, trees[0], trees[1])
		}
	}
}
