package lr

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// --- Conflicts -------------------------------------------------------------

// ConflictKind is the type of a conflict between two rules.
type ConflictKind uint8

// Kinds of conflicts.
const (
	ReduceShift ConflictKind = iota + 1
	ReduceReduce
)

func (k ConflictKind) String() string {
	switch k {
	case ReduceShift:
		return "reduce/shift"
	case ReduceReduce:
		return "reduce/reduce"
	}
	return "?"
}

// Conflict is a statically detected overlap between two rules which share a
// state. A conflict is recorded against Rule: reducing Rule may cut off a
// match of Other.
//
// For reduce/shift conflicts, Overlap is the number of trailing symbols of
// Rule which equal leading symbols of Other.
type Conflict struct {
	Kind    ConflictKind
	Rule    *Rule
	Other   *Rule
	Overlap int
}

func (c *Conflict) String() string {
	if c.Kind == ReduceShift {
		return fmt.Sprintf("%v conflict (k=%d) between [%v] and [%v]", c.Kind, c.Overlap, c.Rule, c.Other)
	}
	return fmt.Sprintf("%v conflict between [%v] and [%v]", c.Kind, c.Rule, c.Other)
}

// Conflicts returns all detected conflicts, ordered by rule serial.
func (a *Automaton) Conflicts() []*Conflict {
	var C []*Conflict
	for _, r := range a.g.rules {
		C = append(C, a.conflicts[r]...)
	}
	return C
}

// ConflictsOf returns the conflicts recorded against rule r.
func (a *Automaton) ConflictsOf(r *Rule) []*Conflict {
	return a.conflicts[r]
}

// detectConflicts checks every ordered pair of rules sharing a state.
func (a *Automaton) detectConflicts() {
	checked := make(map[[2]*Rule]bool)
	for _, s := range a.states {
		var R []*Rule
		in := make(map[*Rule]bool)
		for _, i := range s.items {
			if !in[i.rule] {
				in[i.rule] = true
				R = append(R, i.rule)
			}
		}
		for _, A := range R {
			for _, B := range R {
				if checked[[2]*Rule{A, B}] {
					continue
				}
				checked[[2]*Rule{A, B}] = true
				a.checkPair(A, B)
			}
		}
	}
}

func (a *Automaton) checkPair(A, B *Rule) {
	for k := 1; k <= len(A.rhs) && k < len(B.rhs); k++ {
		if overlapping(A.rhs[len(A.rhs)-k:], B.rhs[:k]) {
			a.record(&Conflict{Kind: ReduceShift, Rule: A, Other: B, Overlap: k})
		}
	}
	// A rule paired with itself is checked for reduce/shift overlaps only, which
	// is where self-ambiguous nesting like E ➞ E - E shows. Every body is a
	// suffix of itself, so a reduce/reduce conflict of a rule with itself
	// would be recorded for every rule, and no lookahead could ever tell the
	// two reductions apart.
	if A != B && len(A.rhs) <= len(B.rhs) && overlapping(A.rhs, B.rhs[len(B.rhs)-len(A.rhs):]) {
		a.record(&Conflict{Kind: ReduceReduce, Rule: A, Other: B})
	}
}

func (a *Automaton) record(c *Conflict) {
	tracer().Debugf("%v", c)
	a.conflicts[c.Rule] = append(a.conflicts[c.Rule], c)
}

func overlapping(x, y []*Symbol) bool {
	for i := range x {
		if !x[i].overlaps(y[i]) {
			return false
		}
	}
	return true
}

// Lookahead returns the lookahead terminals relevant for a conflict and a flag
// telling if the conflict may occur at end of input. For a reduce/shift
// conflict this is FIRST of the symbol of Other after the overlap. For a
// reduce/reduce conflict it is FOLLOW of the left hand side of Rule.
func (a *Automaton) Lookahead(c *Conflict) ([]*Symbol, bool) {
	if c.Kind == ReduceShift {
		return a.ga.FirstTerminals(c.Other.rhs[c.Overlap]), false
	}
	return a.ga.Follow(c.Rule.LHS), a.ga.FollowsEOF(c.Rule.LHS)
}

// --- Resolvers -------------------------------------------------------------

// Resolver is a user-declared decision for the conflicts of a rule with Other.
//
// A resolver applies to a lookahead terminal contained in Lookahead, or to
// any lookahead if Any is set. AtEnd makes it apply to reduce/reduce conflicts
// at end of input. At end of input nothing is left to shift, thus reduce/shift
// conflicts are never decided there. If a resolver applies, Accepter decides
// whether the reduction may proceed; without an Accepter the fixed decision
// Accept is used.
type Resolver struct {
	Other     *Rule
	Lookahead []*Symbol
	Any       bool
	AtEnd     bool
	Accept    bool
	Accepter  func(*ReductionContext) bool
}

// covers is true if the resolver may apply to conflict c, given its lookahead.
func (res Resolver) covers(c *Conflict, la []*Symbol, eof bool) bool {
	if res.Other != c.Other {
		return false
	}
	if res.Any || (c.Kind == ReduceReduce && res.AtEnd && eof) {
		return true
	}
	for _, L := range res.Lookahead {
		for _, B := range la {
			if L.overlaps(B) {
				return true
			}
		}
	}
	return false
}

// appliesTo is true if the resolver decides a conflict for lookahead la.
// la is nil if no lookahead is known, atEnd tells if the input is exhausted.
// Without a lookahead, only resolvers for reduce/reduce conflicts at end of
// input apply.
func (res Resolver) appliesTo(c *Conflict, la *Symbol, atEnd bool) bool {
	if res.Other != c.Other {
		return false
	}
	if la == nil {
		return c.Kind == ReduceReduce && atEnd && res.AtEnd
	}
	if res.Any {
		return true
	}
	for _, L := range res.Lookahead {
		if L.Matches(la) {
			return true
		}
	}
	return false
}

func (res Resolver) decide(ctx *ReductionContext) bool {
	if res.Accepter != nil {
		return res.Accepter(ctx)
	}
	return res.Accept
}

// policy is a default decision for conflicts without a user resolver.
type policy struct {
	reduce bool
}

// resolverFor creates a resolver for conflict c, applying to the lookahead
// of c. Preferring reductions, the resolver always accepts. Preferring shifts,
// it vetoes a reduction if the state it is tried in can shift the lookahead.
// Reduce/reduce conflicts are left to the declaration order of the rules.
func (p policy) resolverFor(c *Conflict, la []*Symbol, eof bool) *Resolver {
	res := &Resolver{Other: c.Other, Lookahead: la, Accept: true}
	if c.Kind == ReduceReduce {
		res.AtEnd = eof
		return res
	}
	if !p.reduce {
		res.Accept = false
		res.Accepter = shiftless
	}
	return res
}

// shiftless is true if the lookahead of a reduction cannot be shifted in
// the state the reduction is tried in.
func shiftless(ctx *ReductionContext) bool {
	if ctx == nil || ctx.State == nil || ctx.Lookahead == nil {
		return false
	}
	return !ctx.State.Shifts(ctx.Lookahead.Symbol)
}

// Resolve evaluates the resolvers for all conflicts recorded against r.
// la is the lookahead terminal, or nil if none could be scanned. It returns
// false if any applicable resolver vetoes the reduction. Conflicts without an
// applicable resolver do not influence the result.
func (a *Automaton) Resolve(r *Rule, ctx *ReductionContext, la *Symbol, atEnd bool) bool {
	for _, c := range a.conflicts[r] {
		res := a.resolverFor(c, la, atEnd)
		if res == nil {
			continue
		}
		if !res.decide(ctx) {
			tracer().Debugf("resolver vetoes reduction of %v for lookahead %v", r, la)
			return false
		}
	}
	return true
}

func (a *Automaton) resolverFor(c *Conflict, la *Symbol, atEnd bool) *Resolver {
	for i := range c.Rule.resolvers {
		if c.Rule.resolvers[i].appliesTo(c, la, atEnd) {
			return &c.Rule.resolvers[i]
		}
	}
	if res := a.defaulted[c]; res != nil && res.appliesTo(c, la, atEnd) {
		return res
	}
	return nil
}

// --- Validation ------------------------------------------------------------

// ConflictError is reported for a conflict without a covering resolver.
type ConflictError struct {
	Conflict  *Conflict
	Lookahead []*Symbol
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unresolved %v, lookahead %s", e.Conflict, symbolList(e.Lookahead))
}

// ResolverError is reported for a resolver which cannot be applied.
type ResolverError struct {
	Rule     *Rule
	Resolver Resolver
	Reason   string
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolver for [%v]: %s", e.Rule, e.Reason)
}

// Validate checks that every conflict is covered by at least one resolver and
// that every resolver refers to a rule of the grammar and to lookaheads
// contained in FOLLOW of its rule's left hand side. All problems found are
// reported, combined into one error.
func (a *Automaton) Validate() error {
	var err error
	for _, r := range a.g.rules {
		for _, res := range r.resolvers {
			err = multierr.Append(err, a.checkResolver(r, res))
		}
	}
	for _, c := range a.Conflicts() {
		la, eof := a.Lookahead(c)
		covered := false
		for _, res := range c.Rule.resolvers {
			if res.covers(c, la, eof) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if a.policy != nil {
			a.defaulted[c] = a.policy.resolverFor(c, la, eof)
			continue
		}
		err = multierr.Append(err, &ConflictError{Conflict: c, Lookahead: la})
	}
	a.valid = err == nil
	return err
}

func (a *Automaton) checkResolver(r *Rule, res Resolver) error {
	if res.Other == nil || res.Other.g != a.g || a.g.Rule(res.Other.Serial) != res.Other {
		return &ResolverError{Rule: r, Resolver: res, Reason: "counterpart is not a rule of this grammar"}
	}
	var err error
	for _, L := range res.Lookahead {
		if L == nil || !L.IsTerminal() || !a.ga.InFollow(r.LHS, L) {
			err = multierr.Append(err, &ResolverError{Rule: r, Resolver: res,
				Reason: fmt.Sprintf("lookahead %v not in FOLLOW(%s)", L, r.LHS.Name)})
		}
	}
	return err
}

func symbolList(S []*Symbol) string {
	names := make([]string, len(S))
	for i, A := range S {
		names[i] = A.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
