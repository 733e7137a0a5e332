package lr

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/relex/lr/sparse"
)

// ErrNoTransition is returned when a transition is requested for a symbol
// which is not part of the grammar. This always indicates an internal fault.
var ErrNoTransition = errors.New("no such transition")

// === States ================================================================

// State is a state within the automaton for a grammar: a set of items.
// States are deduplicated by the sorted identity of their items.
type State struct {
	ID       int     // serial ID of this state
	Accept   bool    // contains a completed rule of an entry non-terminal
	items    []*Item // sorted in declaration order
	ident    string
	next     map[*Symbol]*State // transitions, nil entries for "no transition"
	expected []*Symbol          // terminals to probe for, in item order
}

// Items returns the items of a state in declaration order.
func (s *State) Items() []*Item {
	return s.items
}

// Ident returns the canonical identity string of a state.
func (s *State) Ident() string {
	return s.ident
}

// Expected returns the terminals a parser should probe for in this state:
// for every item in declaration order, the terminal after the dot or, for
// completed items, the FOLLOW set of the rule's left hand side.
func (s *State) Expected() []*Symbol {
	return s.expected
}

// Shifts is true if s has a transition for A.
func (s *State) Shifts(A *Symbol) bool {
	return A != nil && s.next[A.base] != nil
}

func (s *State) String() string {
	return fmt.Sprintf("(state %d | [%d])", s.ID, len(s.items))
}

// Dump is a debugging helper
func (s *State) Dump() {
	tracer().Debugf("--- state %03d -----------", s.ID)
	for _, i := range s.items {
		tracer().Debugf("   %v", i)
	}
	tracer().Debugf("-------------------------")
}

// === Automaton =============================================================

// Automaton is the characteristic finite state machine for a grammar.
// It is built once and is read-only thereafter.
type Automaton struct {
	g         *Grammar
	ga        *LRAnalysis
	items     *itemRepo
	states    []*State
	index     map[string]*State
	S0        *State // entry state
	alphabet  []*Symbol
	symbols   map[*Symbol]bool
	conflicts map[*Rule][]*Conflict
	defaulted map[*Conflict]*Resolver
	policy    *policy // default resolution, if any
	valid     bool
	hydrated  bool
	hash      string
}

// BuildOption configures automaton construction.
type BuildOption func(*Automaton)

// DefaultResolution installs a resolution policy for every conflict not
// covered by a user resolver. For a reduce/shift conflict, the policy
// decides if a lookahead which would continue the longer rule lets the
// shorter rule reduce: with accept=true it does, with accept=false the
// parser prefers shifting the lookahead, wherever the current state permits.
// Reduce/reduce conflicts are left to the declaration order of the rules.
// Without a lookahead, the policy never vetoes a reduction.
func DefaultResolution(accept bool) BuildOption {
	return func(a *Automaton) {
		a.policy = &policy{reduce: accept}
	}
}

// Build analyses a grammar, constructs its automaton, detects conflicts and
// validates resolvers. An automaton is returned only if validation succeeds.
func Build(g *Grammar, opts ...BuildOption) (*Automaton, error) {
	a := Construct(g, opts...)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Construct analyses a grammar and constructs its automaton, including conflict
// detection, but does not validate it. Parsers will not accept automata which
// have not been validated. Construct is useful for inspecting a grammar.
func Construct(g *Grammar, opts ...BuildOption) *Automaton {
	a := newAutomaton(Analysis(g), opts...)
	a.construct()
	a.detectConflicts()
	tracer().Infof("automaton for %q has %d states and %d conflicts",
		g.Name, len(a.states), len(a.Conflicts()))
	return a
}

func newAutomaton(ga *LRAnalysis, opts ...BuildOption) *Automaton {
	a := &Automaton{
		g:         ga.g,
		ga:        ga,
		items:     newItemRepo(),
		index:     make(map[string]*State),
		symbols:   make(map[*Symbol]bool),
		conflicts: make(map[*Rule][]*Conflict),
		defaulted: make(map[*Conflict]*Resolver),
	}
	for _, opt := range opts {
		opt(a)
	}
	ga.g.EachSymbol(func(A *Symbol) {
		a.alphabet = append(a.alphabet, A)
		a.symbols[A] = true
	})
	return a
}

// Grammar returns the grammar of the automaton.
func (a *Automaton) Grammar() *Grammar {
	return a.g
}

// Analysis returns the grammar analysis the automaton has been built from.
func (a *Automaton) Analysis() *LRAnalysis {
	return a.ga
}

// States returns all states, indexed by ID.
func (a *Automaton) States() []*State {
	return a.states
}

// Items returns all items, indexed by ID.
func (a *Automaton) Items() []*Item {
	return a.items.items
}

// Hydrated is true if the automaton has been re-created from a serialized table.
func (a *Automaton) Hydrated() bool {
	return a.hydrated
}

// Valid is true if the automaton has been validated and may be used for parsing.
func (a *Automaton) Valid() bool {
	return a.valid
}

// Transition returns the state reached from s by shifting A, or nil if there
// is no such transition. Requesting a transition for a symbol not belonging to
// the grammar is an error.
func (a *Automaton) Transition(s *State, A *Symbol) (*State, error) {
	if A == nil || !a.symbols[A.base] {
		return nil, fmt.Errorf("%w: state %d on %v", ErrNoTransition, s.ID, A)
	}
	return s.next[A.base], nil
}

// construct builds the states: seed the entry state from the closures of
// the entry non-terminals, then compute successors for every state and every
// symbol until no new state appears.
func (a *Automaton) construct() {
	tracer().Debugf("=== build automaton ============================================")
	for _, r := range a.g.rules {
		a.items.get(r, 0)
	}
	seed := treeset.NewWith(itemComparator)
	for _, E := range a.g.entries {
		for _, r := range a.ga.closure(E) {
			seed.Add(a.items.get(r, 0))
		}
	}
	a.S0, _ = a.register(seed)
	worklist := arraylist.New()
	worklist.Add(a.S0)
	for !worklist.Empty() {
		x, _ := worklist.Get(0)
		worklist.Remove(0)
		s := x.(*State)
		s.next = make(map[*Symbol]*State, len(a.alphabet))
		for _, A := range a.alphabet {
			succ := a.successors(s, A)
			if succ.Empty() {
				s.next[A] = nil
				continue
			}
			t, isNew := a.register(succ)
			s.next[A] = t
			if isNew {
				worklist.Add(t)
			}
			tracer().Debugf("goto(%d) --%v--> %d", s.ID, A, t.ID)
		}
	}
}

// successors computes the direct successors of s over A (advance the dot on
// every matching item), plus the closure of every non-terminal pending in a
// direct successor.
func (a *Automaton) successors(s *State, A *Symbol) *treeset.Set {
	set := treeset.NewWith(itemComparator)
	for _, i := range s.items {
		if next := a.items.advance(i, A); next != nil {
			set.Add(next)
		}
	}
	for _, x := range set.Values() {
		B := x.(*Item).PeekSymbol()
		if B == nil || B.IsTerminal() {
			continue
		}
		for _, r := range a.ga.closure(B) {
			set.Add(a.items.get(r, 0))
		}
	}
	return set
}

// register finds a state by its canonical identity or creates a new one.
func (a *Automaton) register(set *treeset.Set) (*State, bool) {
	values := set.Values()
	items := make([]*Item, len(values))
	ids := make([]string, len(values))
	for n, x := range values {
		items[n] = x.(*Item)
		ids[n] = items[n].ident()
	}
	ident := joinIdents(ids)
	if s, ok := a.index[ident]; ok {
		return s, false
	}
	s := &State{ID: len(a.states), items: items, ident: ident}
	s.expected = a.expectations(s)
	for _, i := range items {
		if i.Complete() && a.g.IsEntry(i.rule.LHS) {
			s.Accept = true
		}
	}
	a.states = append(a.states, s)
	a.index[ident] = s
	s.Dump()
	return s, true
}

func joinIdents(ids []string) string {
	return strings.Join(ids, "|")
}

func (a *Automaton) expectations(s *State) []*Symbol {
	var T []*Symbol
	seen := make(map[*Symbol]bool)
	add := func(A *Symbol) {
		if !seen[A] {
			seen[A] = true
			T = append(T, A)
		}
	}
	for _, i := range s.items {
		if i.Complete() {
			for _, A := range a.ga.Follow(i.rule.LHS) {
				add(A)
			}
		} else if B := i.PeekSymbol(); B.IsTerminal() {
			add(B.base)
		}
	}
	return T
}

// ShiftTable returns the transitions of the automaton as a sparse matrix,
// indexed by state ID and symbol value.
func (a *Automaton) ShiftTable() *sparse.IntMatrix {
	m := sparse.NewIntMatrix(len(a.states), len(a.g.symbols.symbols), sparse.DefaultNullValue)
	for _, s := range a.states {
		for _, A := range a.alphabet {
			if t := s.next[A]; t != nil {
				m.Set(s.ID, A.Value, int32(t.ID))
			}
		}
	}
	return m
}

// Dump is a debugging helper.
func (a *Automaton) Dump() {
	a.g.Dump()
	for _, s := range a.states {
		s.Dump()
	}
	for _, c := range a.Conflicts() {
		tracer().Debugf("conflict: %v", c)
	}
}

// ToGraphViz exports the automaton to the Graphviz Dot format.
func (a *Automaton) ToGraphViz(w io.Writer) error {
	var b strings.Builder
	b.WriteString(`digraph {
graph [splines=true, fontname=Helvetica, fontsize=10];
node [shape=Mrecord, style=filled, fontname=Helvetica, fontsize=10];
edge [fontname=Helvetica, fontsize=10];

`)
	for _, s := range a.states {
		b.WriteString(fmt.Sprintf("s%03d [fillcolor=%s label=\"{%03d | %s}\"]\n",
			s.ID, nodecolor(s), s.ID, forGraphviz(s.items)))
	}
	for _, s := range a.states {
		for _, A := range a.alphabet {
			if t := s.next[A]; t != nil {
				b.WriteString(fmt.Sprintf("s%03d -> s%03d [label=\"%s\"]\n", s.ID, t.ID,
					escapeGraphviz(A.String())))
			}
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func nodecolor(state *State) string {
	if state.Accept {
		return "lightgray"
	}
	return "white"
}

func forGraphviz(items []*Item) string {
	var b strings.Builder
	for n, i := range items {
		if n > 0 {
			b.WriteString("\\l")
		}
		b.WriteString(escapeGraphviz(i.String()))
	}
	b.WriteString("\\l")
	return b.String()
}

var graphvizEscaper = strings.NewReplacer(`"`, `\"`, `{`, `\{`, `}`, `\}`,
	`|`, `\|`, `<`, `\<`, `>`, `\>`)

func escapeGraphviz(s string) string {
	return graphvizEscaper.Replace(s)
}
