package lr

import (
	"errors"
	"fmt"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/fxamacker/cbor/v2"
	"github.com/npillmayer/relex/lr/sparse"
)

// ErrStaleTable is returned when a serialized table does not belong to the
// current definition of a grammar.
var ErrStaleTable = errors.New("stale table: grammar has changed")

// --- Grammar definition hash -----------------------------------------------

type symbolDef struct {
	Name    string
	Kind    uint8
	Token   int
	NT      string
	Literal string
	Label   string
}

type resolverDef struct {
	Other       int
	Lookahead   []int
	Any         bool
	AtEnd       bool
	Accept      bool
	HasAccepter bool
}

type ruleDef struct {
	LHS       int
	RHS       []int
	Resolvers []resolverDef
}

type grammarDef struct {
	Name    string
	Symbols []symbolDef
	Rules   []ruleDef
	Entries []int
}

func definitionOf(g *Grammar) grammarDef {
	def := grammarDef{Name: g.Name}
	for _, A := range g.symbols.symbols {
		def.Symbols = append(def.Symbols, symbolDef{
			Name:    A.Name,
			Kind:    uint8(A.key.Kind),
			Token:   int(A.key.Token),
			NT:      A.key.NT,
			Literal: A.literal,
			Label:   A.label,
		})
	}
	for _, r := range g.rules {
		rd := ruleDef{LHS: r.LHS.Value, RHS: valuesOf(r.rhs)}
		for _, res := range r.resolvers {
			other := -1
			if res.Other != nil {
				other = res.Other.Serial
			}
			rd.Resolvers = append(rd.Resolvers, resolverDef{
				Other:       other,
				Lookahead:   valuesOf(res.Lookahead),
				Any:         res.Any,
				AtEnd:       res.AtEnd,
				Accept:      res.Accept,
				HasAccepter: res.Accepter != nil,
			})
		}
		def.Rules = append(def.Rules, rd)
	}
	def.Entries = valuesOf(g.entries)
	return def
}

// Hash returns a content hash of the definition of g: symbols, rules and
// resolvers. Hooks other than resolver predicates do not contribute.
func Hash(g *Grammar) (string, error) {
	return structhash.Hash(definitionOf(g), 1)
}

func valuesOf(S []*Symbol) []int {
	V := make([]int, len(S))
	for i, A := range S {
		if A == nil {
			V[i] = -1
			continue
		}
		V[i] = A.Value
	}
	return V
}

// --- Table dump ------------------------------------------------------------

type itemDump struct {
	Rule, Dot int
}

type stateDump struct {
	Items  []int
	Accept bool
}

type setDump struct {
	Symbol  int
	Members []int
	EOF     bool
}

type conflictDump struct {
	Kind    uint8
	Rule    int
	Other   int
	Overlap int
}

type tableDump struct {
	Hash      string
	Grammar   string
	States    []stateDump
	Items     []itemDump
	Rows      int
	Cols      int
	Shift     []sparse.Entry
	First     []setDump
	Follow    []setDump
	Conflicts []conflictDump
}

// Serialize dumps the automaton in a binary format, tagged with the hash of
// the grammar definition.
func (a *Automaton) Serialize() ([]byte, error) {
	h, err := Hash(a.g)
	if err != nil {
		return nil, err
	}
	dump := tableDump{Hash: h, Grammar: a.g.Name}
	for _, i := range a.items.items {
		dump.Items = append(dump.Items, itemDump{Rule: i.rule.Serial, Dot: i.dot})
	}
	for _, s := range a.states {
		sd := stateDump{Accept: s.Accept}
		for _, i := range s.items {
			sd.Items = append(sd.Items, i.ID)
		}
		dump.States = append(dump.States, sd)
	}
	shift := a.ShiftTable()
	dump.Rows, dump.Cols, dump.Shift = shift.M(), shift.N(), shift.Entries()
	for _, A := range a.alphabet {
		if set, ok := a.ga.first[A]; ok {
			dump.First = append(dump.First, setDump{Symbol: A.Value, Members: valuesOf(symbolsOf(set))})
		}
		if f, ok := a.ga.follow[A]; ok && A == A.base {
			dump.Follow = append(dump.Follow, setDump{
				Symbol:  A.Value,
				Members: valuesOf(symbolsOf(f.symbols)),
				EOF:     f.eof,
			})
		}
	}
	for _, c := range a.Conflicts() {
		dump.Conflicts = append(dump.Conflicts, conflictDump{
			Kind:    uint8(c.Kind),
			Rule:    c.Rule.Serial,
			Other:   c.Other.Serial,
			Overlap: c.Overlap,
		})
	}
	return cbor.Marshal(dump)
}

// Hydrate re-creates an automaton for g from serialized data. If g has
// changed since the table was serialized, ErrStaleTable is returned.
// The hydrated automaton is validated like a freshly built one.
func Hydrate(g *Grammar, data []byte, opts ...BuildOption) (*Automaton, error) {
	var dump tableDump
	if err := cbor.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("cannot decode table: %w", err)
	}
	h, err := Hash(g)
	if err != nil {
		return nil, err
	}
	if h != dump.Hash {
		return nil, fmt.Errorf("%w (table for %q)", ErrStaleTable, dump.Grammar)
	}
	symbols := g.symbols.symbols
	symbol := func(v int) (*Symbol, error) {
		if v < 0 || v >= len(symbols) {
			return nil, fmt.Errorf("corrupt table: no symbol %d", v)
		}
		return symbols[v], nil
	}
	ga := &LRAnalysis{
		g:        g,
		closures: make(map[*Symbol][]*Rule),
		first:    make(map[*Symbol]*linkedhashset.Set),
		follow:   make(map[*Symbol]*followSet),
	}
	g.EachNonTerminal(func(A *Symbol) {
		ga.closure(A)
	})
	for _, sd := range dump.First {
		A, err := symbol(sd.Symbol)
		if err != nil {
			return nil, err
		}
		set := linkedhashset.New()
		for _, v := range sd.Members {
			B, err := symbol(v)
			if err != nil {
				return nil, err
			}
			set.Add(B)
		}
		ga.first[A] = set
	}
	for _, sd := range dump.Follow {
		A, err := symbol(sd.Symbol)
		if err != nil {
			return nil, err
		}
		f := ga.followOf(A)
		f.eof = sd.EOF
		for _, v := range sd.Members {
			B, err := symbol(v)
			if err != nil {
				return nil, err
			}
			f.add(B)
		}
	}
	a := newAutomaton(ga, opts...)
	for _, id := range dump.Items {
		r := g.Rule(id.Rule)
		if r == nil || id.Dot < 0 || id.Dot > len(r.rhs) {
			return nil, fmt.Errorf("corrupt table: item %v", id)
		}
		a.items.get(r, id.Dot)
	}
	for _, sd := range dump.States {
		s := &State{ID: len(a.states), Accept: sd.Accept}
		ids := make([]string, len(sd.Items))
		for n, iid := range sd.Items {
			if iid < 0 || iid >= len(a.items.items) {
				return nil, fmt.Errorf("corrupt table: no item %d", iid)
			}
			s.items = append(s.items, a.items.items[iid])
			ids[n] = a.items.items[iid].ident()
		}
		s.ident = joinIdents(ids)
		s.expected = a.expectations(s)
		s.next = make(map[*Symbol]*State, len(a.alphabet))
		for _, A := range a.alphabet {
			s.next[A] = nil
		}
		a.states = append(a.states, s)
		a.index[s.ident] = s
	}
	if len(a.states) == 0 {
		return nil, errors.New("corrupt table: no states")
	}
	a.S0 = a.states[0]
	shift := sparse.FromEntries(dump.Rows, dump.Cols, sparse.DefaultNullValue, dump.Shift)
	var serr error
	shift.Each(func(i, j int, target, _ int32) {
		A, err := symbol(j)
		if err != nil || i >= len(a.states) || int(target) >= len(a.states) || target < 0 {
			serr = fmt.Errorf("corrupt table: transition (%d,%d)", i, j)
			return
		}
		a.states[i].next[A] = a.states[target]
	})
	if serr != nil {
		return nil, serr
	}
	for _, cd := range dump.Conflicts {
		r, other := g.Rule(cd.Rule), g.Rule(cd.Other)
		if r == nil || other == nil {
			return nil, fmt.Errorf("corrupt table: conflict %v", cd)
		}
		a.record(&Conflict{Kind: ConflictKind(cd.Kind), Rule: r, Other: other, Overlap: cd.Overlap})
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.hydrated = true
	tracer().Infof("hydrated automaton for %q with %d states", g.Name, len(a.states))
	return a, nil
}

// LoadOrBuild hydrates an automaton from data, if possible. If data is empty
// or stale, the automaton is built from scratch.
func LoadOrBuild(g *Grammar, data []byte, opts ...BuildOption) (*Automaton, error) {
	if len(data) > 0 {
		a, err := Hydrate(g, data, opts...)
		if err == nil {
			return a, nil
		}
		tracer().Infof("cannot use table for %q: %v", g.Name, err)
	}
	return Build(g, opts...)
}
