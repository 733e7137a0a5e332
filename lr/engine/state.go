package engine

import (
	"fmt"
	"strings"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/relex/lr"
)

// ParsingState is the state of one parse. It is created by Parser.NewParsingState
// and threaded through calls to Parser.Step.
//
// The node buffer holds the nodes shifted so far (left of the cursor), plus at
// most one node not yet shifted: either a lookahead token or a non-terminal
// produced by the latest reduction.
type ParsingState struct {
	stack     []*lr.State // states entered so far
	buffer    []*lr.Node
	cursor    int
	errors    []error
	src       relex.TokenSource // working clone of the caller's source
	caller    relex.TokenSource
	probed    map[*lr.Symbol]bool // symbols probed at position probedAt
	probedAt  uint64
	relex     []*ReLexState
	rollback  []*RollbackState
	committed bool // a commit has discarded alternatives
	result    *Result
}

// ReLexState is a snapshot of a ParsingState, taken at a point where more than
// one token could have been scanned. Backtracking to it will rewind the token
// source and try the remaining alternatives.
type ReLexState struct {
	stack        []*lr.State
	buffer       []*lr.Node
	cursor       int
	errors       []error
	pos          uint64
	probed       map[*lr.Symbol]bool
	rollbackMark int // height of the rollback stack at snapshot time
}

// RollbackState records an accepted reduction which may have to be undone if
// the parser backtracks beyond it.
type RollbackState struct {
	Rule    *lr.Rule
	Context *lr.ReductionContext
}

// Result is the outcome of a parse. Rejected parses carry no tree.
type Result struct {
	Accepted bool
	Partial  bool // accepted after a commit, with input left unconsumed
	Root     *lr.Node
	Nodes    []*lr.Node // AST buffer at acceptance
	Errors   []error    // recoverable errors
}

// Done is true if the parse has been accepted or rejected.
func (ps *ParsingState) Done() bool {
	return ps.result != nil
}

// Result returns the result of a finished parse, or nil.
func (ps *ParsingState) Result() *Result {
	return ps.result
}

// Depth returns the number of pending re-lex alternatives.
func (ps *ParsingState) Depth() int {
	return len(ps.relex)
}

func (ps *ParsingState) top() *lr.State {
	return ps.stack[len(ps.stack)-1]
}

// at returns the node at the cursor, if any.
func (ps *ParsingState) at() *lr.Node {
	if ps.cursor < len(ps.buffer) {
		return ps.buffer[ps.cursor]
	}
	return nil
}

func (ps *ParsingState) isProbed(A *lr.Symbol) bool {
	if ps.probedAt != ps.src.Pos() {
		ps.probed = make(map[*lr.Symbol]bool)
		ps.probedAt = ps.src.Pos()
	}
	return ps.probed[A]
}

func (ps *ParsingState) snapshot(probed map[*lr.Symbol]bool) *ReLexState {
	return &ReLexState{
		stack:        append([]*lr.State(nil), ps.stack...),
		buffer:       append([]*lr.Node(nil), ps.buffer...),
		cursor:       ps.cursor,
		errors:       append([]error(nil), ps.errors...),
		pos:          ps.src.Pos(),
		probed:       probed,
		rollbackMark: len(ps.rollback),
	}
}

// backtrack pops the latest snapshot, undoes all reductions accepted since
// then, in reverse order, and restores the snapshot.
func (ps *ParsingState) backtrack() {
	snap := ps.relex[len(ps.relex)-1]
	ps.relex = ps.relex[:len(ps.relex)-1]
	for len(ps.rollback) > snap.rollbackMark {
		rb := ps.rollback[len(ps.rollback)-1]
		ps.rollback = ps.rollback[:len(ps.rollback)-1]
		tracer().Debugf("rollback %v", rb.Rule)
		if h := rb.Rule.Hooks().Rollback; h != nil {
			h(rb.Context)
		}
	}
	ps.stack = snap.stack
	ps.buffer = snap.buffer
	ps.cursor = snap.cursor
	ps.errors = snap.errors
	ps.src.Seek(snap.pos)
	ps.probed = snap.probed
	ps.probedAt = snap.pos
	tracer().Debugf("backtracked to %d, %d alternatives left", snap.pos, len(ps.relex))
}

func (ps *ParsingState) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, n := range ps.buffer {
		if i == ps.cursor {
			b.WriteString(" •")
		}
		b.WriteString(" ")
		b.WriteString(n.Symbol.String())
	}
	if ps.cursor == len(ps.buffer) {
		b.WriteString(" •")
	}
	b.WriteString(fmt.Sprintf(" ] @%d, state %d", ps.src.Pos(), ps.top().ID))
	return b.String()
}
