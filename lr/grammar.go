package lr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/npillmayer/relex"
	"go.uber.org/multierr"
)

// --- Rules -----------------------------------------------------------------

// Hooks are optional per-rule operations called by a parser.
type Hooks struct {
	OnAccept func(*ReductionContext)      // called when a reduction is accepted
	Reject   func(*ReductionContext) bool // veto a reduction by returning true
	Rollback func(*ReductionContext)      // undo side effects of a discarded reduction
	Commit   func(*ReductionContext) bool // returning true makes a reduction irrevocable
	Eval     func(*Node) interface{}      // compute the value of an AST node
}

// Rule is a type for rules of a grammar. Rules cannot be shared between grammars.
// Rules are immutable after the grammar has been built.
type Rule struct {
	Serial    int     // order number of this rule within a grammar
	LHS       *Symbol // symbol of left hand side
	rhs       []*Symbol
	hooks     Hooks
	resolvers []Resolver
	g         *Grammar
}

// RHS gets the right hand side of a rule as a shallow copy. Clients should treat
// it as read-only.
func (r *Rule) RHS() []*Symbol {
	dup := make([]*Symbol, len(r.rhs))
	copy(dup, r.rhs)
	return dup
}

// Len returns the number of symbols of the right hand side.
func (r *Rule) Len() int {
	return len(r.rhs)
}

// At returns the symbol at position i of the right hand side.
func (r *Rule) At(i int) *Symbol {
	return r.rhs[i]
}

// Resolvers returns the resolvers declared for conflicts of r.
func (r *Rule) Resolvers() []Resolver {
	return r.resolvers
}

// Hooks returns the operations attached to r.
func (r *Rule) Hooks() Hooks {
	return r.hooks
}

// Grammar returns the grammar this rule belongs to.
func (r *Rule) Grammar() *Grammar {
	return r.g
}

func (r *Rule) String() string {
	var b bytes.Buffer
	b.WriteString(r.LHS.Name)
	b.WriteString(" ➞")
	for _, A := range r.rhs {
		b.WriteString(" ")
		b.WriteString(A.String())
	}
	return b.String()
}

// Accepted calls the acceptance callback, if any.
func (r *Rule) Accepted(ctx *ReductionContext) {
	if r.hooks.OnAccept != nil {
		r.hooks.OnAccept(ctx)
	}
}

// Rejects asks the rejecter of r, if any.
func (r *Rule) Rejects(ctx *ReductionContext) bool {
	return r.hooks.Reject != nil && r.hooks.Reject(ctx)
}

// Commits asks the commit predicate of r, if any.
func (r *Rule) Commits(ctx *ReductionContext) bool {
	return r.hooks.Commit != nil && r.hooks.Commit(ctx)
}

// --- Grammar ---------------------------------------------------------------

// Grammar is a type for a grammar. Usually created using a GrammarBuilder.
type Grammar struct {
	Name    string
	rules   []*Rule
	symbols *symbolRepo
	entries []*Symbol
}

// Rule gets a grammar rule.
func (g *Grammar) Rule(no int) *Rule {
	if no < 0 || no >= len(g.rules) {
		return nil
	}
	return g.rules[no]
}

// Size returns the number of rules in the grammar.
func (g *Grammar) Size() int {
	return len(g.rules)
}

// Entries returns the entry non-terminals of g.
func (g *Grammar) Entries() []*Symbol {
	return g.entries
}

// IsEntry is true if A is an entry non-terminal of g.
func (g *Grammar) IsEntry(A *Symbol) bool {
	for _, e := range g.entries {
		if e == A.base {
			return true
		}
	}
	return false
}

// EachSymbol iterates over all unlabelled symbols of the grammar, in order of
// their serial number.
func (g *Grammar) EachSymbol(mapper func(A *Symbol)) {
	for _, A := range g.symbols.symbols {
		if A.base == A {
			mapper(A)
		}
	}
}

// EachNonTerminal iterates over all non-terminals of the grammar.
func (g *Grammar) EachNonTerminal(mapper func(A *Symbol)) {
	g.EachSymbol(func(A *Symbol) {
		if !A.IsTerminal() {
			mapper(A)
		}
	})
}

// EachTerminal iterates over all terminals of the grammar.
func (g *Grammar) EachTerminal(mapper func(A *Symbol)) {
	g.EachSymbol(func(A *Symbol) {
		if A.IsTerminal() {
			mapper(A)
		}
	})
}

// SymbolByName returns the non-terminal with a given name, or nil.
func (g *Grammar) SymbolByName(name string) *Symbol {
	return g.symbols.lookup(SymbolKey{Kind: NonTermKind, NT: name}, "")
}

// Terminal returns the terminal for a token type and a literal, or nil.
// Use an empty literal to get the unpinned terminal.
func (g *Grammar) Terminal(t relex.TokType, literal string) *Symbol {
	return g.symbols.lookup(SymbolKey{Kind: TerminalKind, Token: t}, literal)
}

// RulesFor returns all rules with left hand side A.
func (g *Grammar) RulesFor(A *Symbol) []*Rule {
	var R []*Rule
	for _, r := range g.rules {
		if r.LHS == A.base {
			R = append(R, r)
		}
	}
	return R
}

// Dump is a debugging helper.
func (g *Grammar) Dump() {
	tracer().Debugf("--- %s --------------------------------------------", g.Name)
	for _, r := range g.rules {
		tracer().Debugf("%3d: %s", r.Serial, r)
	}
	tracer().Debugf("entries: %v", g.entries)
	tracer().Debugf("-------------------------------------------------------")
}

// --- Grammar Builder -------------------------------------------------------

// GrammarBuilder is a builder type for grammars. Create one with NewGrammarBuilder.
//
//    b := NewGrammarBuilder("G")
//    b.LHS("S").N("A").L("+", '+').N("A").End()
//    b.LHS("A").T("num", scanner.Int).End()
//    g, err := b.Grammar()
//
type GrammarBuilder struct {
	g         *Grammar
	entries   []string
	resolvers []pendingResolver
	errs      []error
	done      bool
}

type pendingResolver struct {
	rule *Rule
	res  Resolver
}

// NewGrammarBuilder gets a new grammar builder, given the name of the grammar to build.
func NewGrammarBuilder(gname string) *GrammarBuilder {
	gb := &GrammarBuilder{
		g: &Grammar{
			Name:    gname,
			symbols: newSymbolRepo(),
		},
	}
	return gb
}

// LHS starts a rule given the left hand side symbol (non-terminal).
func (gb *GrammarBuilder) LHS(s string) *RuleBuilder {
	rb := &RuleBuilder{gb: gb}
	rb.rule = &Rule{
		LHS: gb.g.symbols.nonterminal(s, ""),
		g:   gb.g,
	}
	return rb
}

// Entry declares the entry non-terminals of the grammar. If no entry is
// declared, the left hand side of the first rule is used.
func (gb *GrammarBuilder) Entry(nonterms ...string) *GrammarBuilder {
	gb.entries = append(gb.entries, nonterms...)
	return gb
}

// Resolve declares a resolver for the conflicts of rule r with res.Other.
func (gb *GrammarBuilder) Resolve(r *Rule, res Resolver) *GrammarBuilder {
	if r == nil {
		gb.errs = append(gb.errs, errors.New("resolver declared for nil rule"))
		return gb
	}
	gb.resolvers = append(gb.resolvers, pendingResolver{rule: r, res: res})
	return gb
}

// Grammar returns the (completed) grammar. It checks that every non-terminal
// used on a right hand side has at least one rule.
func (gb *GrammarBuilder) Grammar() (*Grammar, error) {
	if gb.done {
		return gb.g, nil
	}
	g := gb.g
	if len(g.rules) == 0 {
		return nil, fmt.Errorf("grammar %q has no rules", g.Name)
	}
	heads := make(map[*Symbol]bool)
	for _, r := range g.rules {
		heads[r.LHS] = true
	}
	for _, r := range g.rules {
		for _, A := range r.rhs {
			if !A.IsTerminal() && !heads[A.base] {
				gb.errs = append(gb.errs, fmt.Errorf("non-terminal %s has no rules", A.Name))
			}
		}
	}
	if len(gb.entries) == 0 {
		g.entries = []*Symbol{g.rules[0].LHS}
	}
	for _, name := range gb.entries {
		E := g.SymbolByName(name)
		if E == nil || !heads[E] {
			gb.errs = append(gb.errs, fmt.Errorf("entry non-terminal %s has no rules", name))
			continue
		}
		g.entries = append(g.entries, E)
	}
	for _, p := range gb.resolvers {
		p.rule.resolvers = append(p.rule.resolvers, p.res)
	}
	if len(gb.errs) > 0 {
		return nil, fmt.Errorf("grammar %q: %w", g.Name, multierr.Combine(gb.errs...))
	}
	gb.done = true
	return g, nil
}

func (gb *GrammarBuilder) appendRule(r *Rule) *Rule {
	if gb.done {
		gb.errs = append(gb.errs, fmt.Errorf("rule %v added after grammar has been built", r))
		return r
	}
	if len(r.rhs) == 0 {
		gb.errs = append(gb.errs, fmt.Errorf("empty rule for %s: epsilon-productions are not supported", r.LHS.Name))
		return r
	}
	r.Serial = len(gb.g.rules)
	gb.g.rules = append(gb.g.rules, r)
	return r
}

// RuleBuilder is a builder type for rules.
type RuleBuilder struct {
	gb   *GrammarBuilder
	rule *Rule
}

// N appends a non-terminal to the builder.
func (rb *RuleBuilder) N(s string) *RuleBuilder {
	rb.rule.rhs = append(rb.rule.rhs, rb.gb.g.symbols.nonterminal(s, ""))
	return rb
}

// T appends a terminal to the builder. It will match any token of type tokval.
func (rb *RuleBuilder) T(s string, tokval int) *RuleBuilder {
	A := rb.gb.g.symbols.terminal(s, relex.TokType(tokval), "", "")
	rb.rule.rhs = append(rb.rule.rhs, A)
	return rb
}

// L appends a terminal pinned to an exact literal text.
func (rb *RuleBuilder) L(literal string, tokval int) *RuleBuilder {
	if literal == "" {
		return rb.T("", tokval)
	}
	A := rb.gb.g.symbols.terminal(literal, relex.TokType(tokval), literal, "")
	rb.rule.rhs = append(rb.rule.rhs, A)
	return rb
}

// As labels the symbol appended last.
func (rb *RuleBuilder) As(label string) *RuleBuilder {
	n := len(rb.rule.rhs)
	if n == 0 {
		rb.gb.errs = append(rb.gb.errs, fmt.Errorf("label %q without symbol in rule for %s",
			label, rb.rule.LHS.Name))
		return rb
	}
	A := rb.rule.rhs[n-1]
	rb.rule.rhs[n-1] = rb.gb.g.symbols.intern(A.Name, A.key, A.literal, label)
	return rb
}

// OnAccept sets the acceptance callback.
func (rb *RuleBuilder) OnAccept(f func(*ReductionContext)) *RuleBuilder {
	rb.rule.hooks.OnAccept = f
	return rb
}

// Reject sets the rejecter. A rejecter returning true vetoes a reduction.
func (rb *RuleBuilder) Reject(f func(*ReductionContext) bool) *RuleBuilder {
	rb.rule.hooks.Reject = f
	return rb
}

// Rollback sets the rollback hook.
func (rb *RuleBuilder) Rollback(f func(*ReductionContext)) *RuleBuilder {
	rb.rule.hooks.Rollback = f
	return rb
}

// Commit sets the commit predicate.
func (rb *RuleBuilder) Commit(f func(*ReductionContext) bool) *RuleBuilder {
	rb.rule.hooks.Commit = f
	return rb
}

// Eval sets the evaluator for AST nodes produced by this rule.
func (rb *RuleBuilder) Eval(f func(*Node) interface{}) *RuleBuilder {
	rb.rule.hooks.Eval = f
	return rb
}

// End ends a rule and appends it to the grammar.
func (rb *RuleBuilder) End() *Rule {
	return rb.gb.appendRule(rb.rule)
}
