package lr

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
)

// LRAnalysis is an object for grammar analysis (compute FIRST and FOLLOW sets).
type LRAnalysis struct {
	g        *Grammar
	closures map[*Symbol][]*Rule
	first    map[*Symbol]*linkedhashset.Set // FIRST(N) for non-terminals N
	follow   map[*Symbol]*followSet
}

// Analysis creates an analyser for a grammar. The analyser immediately
// computes rule closures and the FIRST and FOLLOW sets. The analysis is
// read-only afterwards.
func Analysis(g *Grammar) *LRAnalysis {
	ga := &LRAnalysis{
		g:        g,
		closures: make(map[*Symbol][]*Rule),
		first:    make(map[*Symbol]*linkedhashset.Set),
		follow:   make(map[*Symbol]*followSet),
	}
	g.EachNonTerminal(func(A *Symbol) {
		ga.closure(A)
	})
	ga.computeFirstSets()
	ga.computeFollowSets()
	return ga
}

// Grammar returns the grammar this analyser operates on.
func (ga *LRAnalysis) Grammar() *Grammar {
	return ga.g
}

// --- FIRST -----------------------------------------------------------------

func (ga *LRAnalysis) computeFirstSets() {
	ga.g.EachNonTerminal(func(A *Symbol) {
		set := linkedhashset.New()
		for _, r := range ga.closure(A) {
			set.Add(r.rhs[0].base)
		}
		ga.first[A] = set
	})
}

// First returns the FIRST set of a symbol: for a non-terminal the first
// symbols of all the rules in its closure, for a terminal the terminal itself.
// The result contains terminals and non-terminals, in order of discovery.
func (ga *LRAnalysis) First(A *Symbol) []*Symbol {
	if A.IsTerminal() {
		return []*Symbol{A.base}
	}
	set, ok := ga.first[A.base]
	if !ok {
		return nil
	}
	return symbolsOf(set)
}

// FirstTerminals returns the terminals of FIRST(A).
func (ga *LRAnalysis) FirstTerminals(A *Symbol) []*Symbol {
	var T []*Symbol
	for _, B := range ga.First(A) {
		if B.IsTerminal() {
			T = append(T, B)
		}
	}
	return T
}

// --- FOLLOW ----------------------------------------------------------------

// followSet is a set of terminals, plus a flag for 'end of input'.
// Keys of the members are tracked as well, for a quick membership test.
type followSet struct {
	symbols *linkedhashset.Set
	keys    map[SymbolKey]bool
	eof     bool
}

func newFollowSet() *followSet {
	return &followSet{
		symbols: linkedhashset.New(),
		keys:    make(map[SymbolKey]bool),
	}
}

func (f *followSet) add(A *Symbol) bool {
	if f.symbols.Contains(A) {
		return false
	}
	f.symbols.Add(A)
	f.keys[A.key] = true
	return true
}

func (f *followSet) merge(other *followSet) bool {
	if f == other {
		return false
	}
	changed := false
	for _, x := range other.symbols.Values() {
		if f.add(x.(*Symbol)) {
			changed = true
		}
	}
	if other.eof && !f.eof {
		f.eof = true
		changed = true
	}
	return changed
}

// contains is true if la may be scanned for a member of f. Terminals pinned
// to different literals are different members, even if they share a token type.
func (f *followSet) contains(la *Symbol) bool {
	if !f.keys[la.key] {
		return false
	}
	for _, x := range f.symbols.Values() {
		if x.(*Symbol).overlaps(la) {
			return true
		}
	}
	return false
}

// followOf returns the FOLLOW set of the base symbol of A. Labels do not
// matter for FOLLOW, literal pins do.
func (ga *LRAnalysis) followOf(A *Symbol) *followSet {
	f, ok := ga.follow[A.base]
	if !ok {
		f = newFollowSet()
		ga.follow[A.base] = f
	}
	return f
}

// computeFollowSets first adds, for every pair of adjacent symbols (a,b)
// of a right hand side, b (or FIRST(b)) to FOLLOW(a). Then it merges
// FOLLOW(lhs) and FOLLOW(last symbol) of every rule until nothing changes.
func (ga *LRAnalysis) computeFollowSets() {
	for _, E := range ga.g.entries {
		ga.followOf(E).eof = true
	}
	for _, r := range ga.g.rules {
		for i := 0; i+1 < len(r.rhs); i++ {
			a, b := r.rhs[i], r.rhs[i+1]
			f := ga.followOf(a)
			if b.IsTerminal() {
				f.add(b.base)
				continue
			}
			for _, B := range ga.FirstTerminals(b) {
				f.add(B)
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for _, r := range ga.g.rules {
			head := ga.followOf(r.LHS)
			last := ga.followOf(r.rhs[len(r.rhs)-1])
			if last.merge(head) {
				changed = true
			}
			if head.merge(last) {
				changed = true
			}
		}
	}
}

// Follow returns the FOLLOW set of a symbol, i.e. all terminals which may
// appear immediately after A.
func (ga *LRAnalysis) Follow(A *Symbol) []*Symbol {
	f, ok := ga.follow[A.base]
	if !ok {
		return nil
	}
	return symbolsOf(f.symbols)
}

// FollowsEOF is true if the end of input may follow A.
func (ga *LRAnalysis) FollowsEOF(A *Symbol) bool {
	f, ok := ga.follow[A.base]
	return ok && f.eof
}

// InFollow is true if a lookahead symbol la is compatible with FOLLOW(A).
// A lookahead matches a member with the same literal, or an unpinned member
// of its token type. A nil lookahead stands for end of input.
func (ga *LRAnalysis) InFollow(A *Symbol, la *Symbol) bool {
	f, ok := ga.follow[A.base]
	if !ok {
		return false
	}
	if la == nil {
		return f.eof
	}
	return f.contains(la)
}

func symbolsOf(set *linkedhashset.Set) []*Symbol {
	vals := set.Values()
	S := make([]*Symbol, len(vals))
	for i, x := range vals {
		S[i] = x.(*Symbol)
	}
	return S
}
