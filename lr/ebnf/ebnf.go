/*
Package ebnf translates grammars written in EBNF into rules of package lr.

Grammars use the EBNF dialect of the Go language specification:

	Expr   = Term { ( "+" | "-" ) Term } .
	Term   = num | "(" Expr ")" .

Names starting with an upper-case letter denote non-terminals. Lower-case names
denote token classes, which are looked up in a TokenClasses map. Quoted strings
are terminals pinned to a literal. Options, repetitions, groups and
alternatives are expanded into plain productions. Productions deriving the
empty string are not supported, so options and repetitions must not make up
a whole alternative.

A repetition { X } within production N introduces a helper non-terminal "N{k}",
which derives one or more occurrences of X.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ebnf

import (
	"fmt"
	"io"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/relex/lr/scanner"
	"github.com/npillmayer/schuko/tracing"
	"go.uber.org/multierr"
	"golang.org/x/exp/ebnf"
)

// tracer traces with key 'relex.lr'.
func tracer() tracing.Trace {
	return tracing.Select("relex.lr")
}

// TokenClasses maps lower-case names of a grammar to token types.
type TokenClasses map[string]relex.TokType

// GoTokenClasses are the token classes of the Go token source of package scanner.
var GoTokenClasses = TokenClasses{
	"ident":     scanner.Ident,
	"int":       scanner.Int,
	"float":     scanner.Float,
	"char":      scanner.Char,
	"string":    scanner.String,
	"rawstring": scanner.RawString,
}

// Rules holds the rules created for each production, including helper
// productions for repetitions.
type Rules map[string][]*lr.Rule

// Option configures a translation.
type Option func(*translator)

// Start sets the entry production. Default is the first production of the grammar.
func Start(name string) Option {
	return func(t *translator) {
		t.start = name
	}
}

// Literals sets token types for literals. Literals not found in m are typed as
// identifiers if they start with a letter, otherwise by their first rune.
func Literals(m map[string]relex.TokType) Option {
	return func(t *translator) {
		t.literals = m
	}
}

// Translate parses an EBNF grammar from src and adds its productions as rules
// to b. It returns the rules created per production.
//
// All problems found are reported, combined into one error.
func Translate(b *lr.GrammarBuilder, filename string, src io.Reader, classes TokenClasses, opts ...Option) (Rules, error) {
	g, err := ebnf.Parse(filename, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	t := newTranslator(b, g, classes, opts)
	for _, p := range t.order {
		t.production(p)
	}
	if t.err != nil {
		return nil, t.err
	}
	if t.start != "" {
		b.Entry(t.start)
	}
	return t.rules, nil
}

// Grammar parses an EBNF grammar and builds an lr.Grammar from it.
func Grammar(name, filename string, src io.Reader, classes TokenClasses, opts ...Option) (*lr.Grammar, Rules, error) {
	b := lr.NewGrammarBuilder(name)
	rules, err := Translate(b, filename, src, classes, opts...)
	if err != nil {
		return nil, nil, err
	}
	g, err := b.Grammar()
	if err != nil {
		return nil, nil, err
	}
	return g, rules, nil
}

// --- Translation -----------------------------------------------------------

// symbol is a symbol reference within an expanded right hand side.
type symbol struct {
	name    string
	nonterm bool
	tok     relex.TokType
	literal string
}

type sequence []symbol

type translator struct {
	b        *lr.GrammarBuilder
	grammar  ebnf.Grammar
	order    []*ebnf.Production
	classes  TokenClasses
	literals map[string]relex.TokType
	start    string
	rules    Rules
	helpers  int
	pending  []func() // helper productions, defined after the current production
	err      error
}

func newTranslator(b *lr.GrammarBuilder, g ebnf.Grammar, classes TokenClasses, opts []Option) *translator {
	t := &translator{
		b:       b,
		grammar: g,
		classes: classes,
		rules:   make(Rules),
	}
	for _, p := range g {
		t.order = append(t.order, p)
	}
	sort.Slice(t.order, func(i, j int) bool {
		return t.order[i].Pos().Offset < t.order[j].Pos().Offset
	})
	for _, opt := range opts {
		opt(t)
	}
	if t.start == "" && len(t.order) > 0 {
		t.start = t.order[0].Name.String
	}
	return t
}

func (t *translator) errorf(pos fmt.Stringer, format string, args ...interface{}) {
	t.err = multierr.Append(t.err, fmt.Errorf("%s: %s", pos, fmt.Sprintf(format, args...)))
}

func (t *translator) production(p *ebnf.Production) {
	name := p.Name.String
	if !isNonTerminal(name) {
		t.errorf(p.Pos(), "production %s must start with an upper-case letter", name)
		return
	}
	if p.Expr == nil {
		t.errorf(p.Pos(), "production %s is empty", name)
		return
	}
	t.define(name, t.expand(name, p.Expr), p.Pos())
	for len(t.pending) > 0 {
		f := t.pending[0]
		t.pending = t.pending[1:]
		f()
	}
}

// define adds a rule for each alternative.
func (t *translator) define(name string, alts []sequence, pos fmt.Stringer) {
	for _, seq := range alts {
		if len(seq) == 0 {
			t.errorf(pos, "production %s may derive the empty string", name)
			continue
		}
		rb := t.b.LHS(name)
		for _, A := range seq {
			switch {
			case A.nonterm:
				rb.N(A.name)
			case A.literal != "":
				rb.L(A.literal, int(A.tok))
			default:
				rb.T(A.name, int(A.tok))
			}
		}
		r := rb.End()
		tracer().Debugf("%v", r)
		t.rules[name] = append(t.rules[name], r)
	}
}

// expand returns all alternative right hand sides an expression derives.
func (t *translator) expand(prod string, x ebnf.Expression) []sequence {
	switch x := x.(type) {
	case nil:
		return []sequence{{}}
	case *ebnf.Name:
		A, ok := t.reference(x)
		if !ok {
			return nil
		}
		return []sequence{{A}}
	case *ebnf.Token:
		if x.String == "" {
			t.errorf(x.Pos(), "empty literal")
			return nil
		}
		return []sequence{{symbol{name: x.String, tok: t.literalType(x.String), literal: x.String}}}
	case ebnf.Sequence:
		alts := []sequence{{}}
		for _, y := range x {
			alts = cross(alts, t.expand(prod, y))
		}
		return alts
	case ebnf.Alternative:
		var alts []sequence
		for _, y := range x {
			alts = append(alts, t.expand(prod, y)...)
		}
		return alts
	case *ebnf.Group:
		return t.expand(prod, x.Body)
	case *ebnf.Option:
		return append([]sequence{{}}, t.expand(prod, x.Body)...)
	case *ebnf.Repetition:
		t.helpers++
		name := fmt.Sprintf("%s{%d}", prod, t.helpers)
		body := t.expand(prod, x.Body)
		alts := append([]sequence(nil), body...)
		rec := symbol{name: name, nonterm: true}
		for _, seq := range body {
			alts = append(alts, append(sequence{rec}, seq...))
		}
		pos := x.Pos()
		t.pending = append(t.pending, func() { t.define(name, alts, pos) })
		return []sequence{{}, {rec}}
	case *ebnf.Range:
		t.errorf(x.Pos(), "character ranges are not supported")
	case *ebnf.Bad:
		t.errorf(x.Pos(), "%s", x.Error)
	default:
		t.errorf(x.Pos(), "unexpected expression %T", x)
	}
	return nil
}

func (t *translator) reference(x *ebnf.Name) (symbol, bool) {
	if isNonTerminal(x.String) {
		if _, ok := t.grammar[x.String]; !ok {
			t.errorf(x.Pos(), "undefined production %s", x.String)
			return symbol{}, false
		}
		return symbol{name: x.String, nonterm: true}, true
	}
	tok, ok := t.classes[x.String]
	if !ok {
		t.errorf(x.Pos(), "unknown token class %s", x.String)
		return symbol{}, false
	}
	return symbol{name: x.String, tok: tok}, true
}

func (t *translator) literalType(lit string) relex.TokType {
	if tok, ok := t.literals[lit]; ok {
		return tok
	}
	r, _ := utf8.DecodeRuneInString(lit)
	if unicode.IsLetter(r) || r == '_' {
		return scanner.Ident
	}
	return relex.TokType(r)
}

func isNonTerminal(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// cross concatenates every sequence of x with every sequence of y.
func cross(x, y []sequence) []sequence {
	var z []sequence
	for _, s := range x {
		for _, t := range y {
			u := make(sequence, 0, len(s)+len(t))
			u = append(append(u, s...), t...)
			z = append(z, u)
		}
	}
	return z
}
