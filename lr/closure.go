package lr

import (
	"sort"
)

// === Rule Closures =========================================================

// closure computes every rule which can directly or indirectly produce A as
// the next leftmost symbol: rules for A, then every rule for a non-terminal
// occurring as the first symbol of a rule already in the set. The result is
// sorted by rule serial.
//
// Refer to "Crafting A Compiler" by Charles N. Fisher & Richard J. LeBlanc, Jr.
// Section 6.2.1 LR(0) Parsing
func (ga *LRAnalysis) closure(A *Symbol) []*Rule {
	A = A.base
	if R, ok := ga.closures[A]; ok {
		return R
	}
	in := make(map[*Rule]bool)
	var R []*Rule
	worklist := []*Symbol{A}
	seen := map[*Symbol]bool{A: true}
	for len(worklist) > 0 {
		N := worklist[0]
		worklist = worklist[1:]
		for _, r := range ga.g.RulesFor(N) {
			if in[r] {
				continue
			}
			in[r] = true
			R = append(R, r)
			if first := r.rhs[0].base; !first.IsTerminal() && !seen[first] {
				seen[first] = true
				worklist = append(worklist, first)
			}
		}
	}
	sort.Slice(R, func(i, j int) bool { return R[i].Serial < R[j].Serial })
	tracer().Debugf("closure(%s) = %v", A, R)
	ga.closures[A] = R
	return R
}

// Closure returns all rules which may produce A as the next leftmost symbol.
func (ga *LRAnalysis) Closure(A *Symbol) []*Rule {
	if A.IsTerminal() {
		return nil
	}
	if R, ok := ga.closures[A.base]; ok {
		return R
	}
	return nil
}
