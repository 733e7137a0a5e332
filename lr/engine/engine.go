/*
Package engine provides a speculative LR parser, driving an automaton of
package lr over a token source.

The parser scans tokens on demand: in every state it asks the token source
for the terminals the state expects. If more than one terminal could be
scanned at a position, the parser takes the first one and records a
snapshot. Should the parse get stuck later, the parser backtracks to the
snapshot, undoes reductions done since (calling their rollback hooks),
and re-scans the input with the next alternative ("re-lexing").
A rule may commit its reductions, making them irrevocable: committing
discards all pending alternatives.

Usage

Clients construct a grammar, usually by using a grammar builder, and build
an automaton for it:

	b := lr.NewGrammarBuilder("Expressions")
	b.LHS("exp").T("num", scanner.Int).End()
	sub := b.LHS("exp").N("exp").L("-", '-').N("exp").End()
	…
	g, err := b.Grammar()
	a, err := lr.Build(g)

Then parse some input:

	p, err := engine.NewParser(a)
	result, err := p.Parse(scanner.NewGoSource("input", "1-2"))
	if result.Accepted {
		fmt.Println(result.Root.Value())
	}

Parsers are safe for concurrent use, as long as every parse uses its own
token source.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'relex.engine'.
func tracer() tracing.Trace {
	return tracing.Select("relex.engine")
}

// ErrNotValidated is returned for automata which have not passed validation.
var ErrNotValidated = errors.New("automaton has not been validated")

// Parser is a speculative LR parser for an automaton. Create one with NewParser.
type Parser struct {
	a                 *lr.Automaton
	relexing          bool
	ignoreEntryFollow bool
	trace             bool
}

// Option configures a parser.
type Option func(*Parser)

// ReLex enables or disables re-lexing. Without re-lexing, the parser always
// sticks to the first token scanned at a position.
func ReLex(b bool) Option {
	return func(p *Parser) {
		p.relexing = b
	}
}

// IgnoreEntryFollow lets the parser reduce rules for entry non-terminals
// regardless of the lookahead. This way input may be consumed one top-level
// unit at a time.
//
// Caution: an entry rule may be accepted too early if its match is also
// a valid prefix of a longer alternative.
func IgnoreEntryFollow(b bool) Option {
	return func(p *Parser) {
		p.ignoreEntryFollow = b
	}
}

// Trace makes the parser log every step at level Info.
func Trace(b bool) Option {
	return func(p *Parser) {
		p.trace = b
	}
}

// NewParser creates a parser for a validated automaton. Defaults for the
// options are taken from the global configuration keys "relex-disable" and
// "ignore-entry-follow".
func NewParser(a *lr.Automaton, opts ...Option) (*Parser, error) {
	if a == nil || !a.Valid() {
		return nil, ErrNotValidated
	}
	p := &Parser{
		a:                 a,
		relexing:          !gconf.GetBool("relex-disable"),
		ignoreEntryFollow: gconf.GetBool("ignore-entry-follow"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Automaton returns the automaton of the parser.
func (p *Parser) Automaton() *lr.Automaton {
	return p.a
}

// NewParsingState creates the state for a new parse of src. The parser works
// on a clone of src; src is moved only when the parse is accepted.
func (p *Parser) NewParsingState(src relex.TokenSource) *ParsingState {
	work := src.Clone()
	return &ParsingState{
		stack:    []*lr.State{p.a.S0},
		src:      work,
		caller:   src,
		probed:   make(map[*lr.Symbol]bool),
		probedAt: work.Pos(),
	}
}

// Parse parses input from src until the input is accepted or rejected.
// On acceptance, src is positioned behind the input consumed by the
// resulting tree.
func (p *Parser) Parse(src relex.TokenSource) (*Result, error) {
	return p.ParseContext(context.Background(), src)
}

// ParseContext is like Parse, but checks ctx for cancellation between steps.
func (p *Parser) ParseContext(ctx context.Context, src relex.TokenSource) (*Result, error) {
	tracer().Debugf("~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~")
	ps := p.NewParsingState(src)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done, err := p.Step(ps)
		if err != nil {
			return nil, err
		}
		if done {
			return ps.result, nil
		}
	}
}

// Step performs one step of a parse: a shift, a reduction or a backtrack, each
// preceded by scanning a token, if necessary. It returns true when the parse is
// finished; the result is then available from ps.Result().
func (p *Parser) Step(ps *ParsingState) (bool, error) {
	if ps.result != nil {
		return true, nil
	}
	if p.trace {
		tracer().Infof("%v", ps)
	} else {
		tracer().Debugf("%v", ps)
	}
	if n := ps.at(); n != nil && !n.Symbol.IsTerminal() {
		return p.shift(ps, n)
	}
	if ps.at() == nil && !ps.src.AtEnd() {
		p.lex(ps)
	}
	if reduced, err := p.reduce(ps); reduced || err != nil {
		return ps.result != nil, err
	}
	if n := ps.at(); n != nil {
		return p.shift(ps, n)
	}
	return p.stuck(ps), nil
}

// lex probes the terminals expected in the current state, in order, and
// consumes the first one found. If another terminal would have matched as
// well, a snapshot is recorded.
func (p *Parser) lex(ps *ParsingState) {
	var first *lr.Symbol
	var probed map[*lr.Symbol]bool
	alternatives := false
	for _, A := range ps.top().Expected() {
		if ps.isProbed(A) {
			continue
		}
		ps.probed[A] = true
		if _, ok := ps.src.Peek(A); !ok {
			continue
		}
		if first != nil {
			alternatives = true
			break
		}
		first = A
		probed = make(map[*lr.Symbol]bool, len(ps.probed))
		for B := range ps.probed {
			probed[B] = true
		}
	}
	if first == nil {
		tracer().Debugf("no expected token at %d", ps.src.Pos())
		return
	}
	if alternatives && p.relexing {
		tracer().Debugf("speculating on %v at %d", first, ps.src.Pos())
		ps.relex = append(ps.relex, ps.snapshot(probed))
	}
	tok, _ := ps.src.Next(first)
	leaf := lr.NewLeaf(first, tok)
	if err := relex.Diagnostic(tok); err != nil {
		ps.errors = append(ps.errors, err)
	}
	ps.buffer = append(ps.buffer, leaf)
}

// reduce tries the completed items of the current state in declaration order.
func (p *Parser) reduce(ps *ParsingState) (bool, error) {
	la := ps.at()
	if la != nil && !la.Symbol.IsTerminal() {
		return false, nil
	}
	atEnd := la == nil && ps.src.AtEnd()
	var laSym *lr.Symbol
	if la != nil {
		laSym = la.Symbol
	}
	g := p.a.Grammar()
	for _, item := range ps.top().Items() {
		if !item.Complete() {
			continue
		}
		r := item.Rule()
		n := r.Len()
		if n > ps.cursor || n >= len(ps.stack) {
			return false, p.fault(fmt.Errorf("cannot reduce %v in %v", r, ps))
		}
		entry := g.IsEntry(r.LHS)
		if !(entry && p.ignoreEntryFollow) {
			if la == nil && !atEnd {
				// No expected terminal scans. Reduce only while speculating:
				// if this path fails, the parser will backtrack.
				if len(ps.relex) == 0 {
					continue
				}
			} else if !p.a.Analysis().InFollow(r.LHS, laSym) {
				continue
			}
		}
		ctx := lr.NewReductionContext(r, ps.buffer[ps.cursor-n:ps.cursor], ps.buffer[:ps.cursor-n], la, ps.src)
		ctx.State = ps.top()
		if !p.a.Resolve(r, ctx, laSym, atEnd) {
			continue
		}
		if r.Rejects(ctx) {
			tracer().Debugf("reduction of %v rejected", r)
			continue
		}
		p.perform(ps, r, ctx)
		if ps.cursor == 0 && entry && (p.ignoreEntryFollow || len(ps.buffer) == 1 && ps.src.AtEnd()) {
			p.accept(ps)
		}
		return true, nil
	}
	return false, nil
}

func (p *Parser) perform(ps *ParsingState, r *lr.Rule, ctx *lr.ReductionContext) {
	n := r.Len()
	node := lr.NewInner(r, ctx.Matched)
	ctx.Node = node
	tracer().Debugf("reduce %v", r)
	r.Accepted(ctx)
	buf := make([]*lr.Node, 0, len(ps.buffer)-n+1)
	buf = append(buf, ps.buffer[:ps.cursor-n]...)
	buf = append(buf, node)
	buf = append(buf, ps.buffer[ps.cursor:]...)
	ps.buffer = buf
	ps.cursor -= n
	ps.stack = ps.stack[:len(ps.stack)-n]
	if r.Commits(ctx) {
		tracer().Debugf("%v commits, dropping %d alternatives", r, len(ps.relex))
		if len(ps.relex) > 0 {
			ps.committed = true
		}
		ps.relex = ps.relex[:0]
		ps.rollback = ps.rollback[:0]
		return
	}
	if r.Hooks().Rollback != nil {
		ps.rollback = append(ps.rollback, &RollbackState{Rule: r, Context: ctx})
	}
}

// shift moves the node at the cursor onto the stack. Tokens scanned for an
// unpinned terminal may as well be shifted as a pinned terminal with the same
// literal.
func (p *Parser) shift(ps *ParsingState, n *lr.Node) (bool, error) {
	next, err := p.a.Transition(ps.top(), n.Symbol)
	if err != nil {
		return false, p.fault(err)
	}
	if next == nil && n.Symbol.IsTerminal() && !n.Symbol.IsPinned() {
		if A := p.a.Grammar().Terminal(n.Symbol.TokenType(), n.Lexeme()); A != nil {
			if next, _ = p.a.Transition(ps.top(), A); next != nil {
				n = lr.NewLeaf(A, n.Token)
				ps.buffer[ps.cursor] = n
			}
		}
	}
	if next == nil {
		return p.stuck(ps), nil
	}
	tracer().Debugf("shift %v, goto state %d", n.Symbol, next.ID)
	ps.stack = append(ps.stack, next)
	ps.cursor++
	return false, nil
}

// stuck is called if neither a reduction nor a shift is possible. The parser
// backtracks if possible, otherwise the input is rejected. The one exception
// is a parse where a commit has discarded alternatives: then no other
// interpretation of the input remains, and a single entry non-terminal
// followed by at most one unconsumed token is accepted as a partial result.
func (p *Parser) stuck(ps *ParsingState) bool {
	if len(ps.relex) > 0 {
		ps.backtrack()
		return false
	}
	if ps.committed && len(ps.buffer) > 0 && len(ps.buffer) <= 2 && ps.cursor <= 1 {
		head := ps.buffer[0]
		if !head.Symbol.IsTerminal() && p.a.Grammar().IsEntry(head.Symbol) &&
			(len(ps.buffer) == 1 || ps.buffer[1].Symbol.IsTerminal()) {
			tracer().Infof("accepting committed %v, input left unconsumed", head.Symbol)
			p.accept(ps)
			ps.result.Partial = true
			return true
		}
	}
	tracer().Infof("parser stuck: %v", ps)
	ps.result = &Result{Accepted: false, Errors: ps.errors}
	return true
}

func (p *Parser) accept(ps *ParsingState) {
	root := ps.buffer[0]
	lr.Link(root)
	if len(ps.buffer) == 1 && ps.src.AtEnd() {
		ps.caller.Seek(ps.src.Pos())
	} else {
		ps.caller.Seek(root.Span().To())
	}
	ps.result = &Result{
		Accepted: true,
		Root:     root,
		Nodes:    []*lr.Node{root},
		Errors:   ps.errors,
	}
	tracer().Infof("accept %v", root.Symbol)
}

func (p *Parser) fault(err error) error {
	tracer().Errorf("internal fault: %v", err)
	if gconf.GetBool("panic-on-internal-fault") {
		panic(fmt.Sprintf(`parser encountered an internal fault: %v

Configuration flag panic-on-internal-fault is set to true. It is aimed at helping
to debug a parser and do a post-mortem of what went wrong. If this is a production
environment, please unset panic-on-internal-fault to its default (false).`, err))
	}
	return err
}
