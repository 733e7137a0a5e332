/*
Package lr implements the grammar model and the automaton construction for
speculative LR parsing.

Building a Grammar

Grammars are specified using a grammar builder object. Clients add
rules, consisting of non-terminal symbols and terminals. Terminals
carry a token type of type int and may be pinned to an exact literal text.
Grammars may not contain epsilon-productions.

Example:

    b := lr.NewGrammarBuilder("Calc")
    num := b.LHS("exp").T("num", NUM).End()                  // exp  ->  num
    post := b.LHS("exp").N("exp").L("--", OP).End()          // exp  ->  exp '--'
    neg := b.LHS("exp").L("-", OP).N("exp").End()            // exp  ->  '-' exp
    sub := b.LHS("exp").N("exp").As("l").L("-", OP).N("exp").As("r").End()

Labels (As) name a position within a rule and are used to select children of
AST nodes. Rules may carry hooks: a callback on acceptance, a rejecter, a
rollback hook for undoing side effects, a commit predicate and an evaluator.

Static Grammar Analysis

After the grammar is complete, it is subjected to an LRAnalysis object, which
computes rule closures, FIRST and FOLLOW sets. Terminals pinned to a literal
share their FOLLOW set with all other terminals of the same token type.

    ga := lr.Analysis(g)
    fmt.Printf("FOLLOW(exp) = %v", ga.Follow(g.SymbolByName("exp")))

Automaton Construction

Build constructs the automaton of LR states for a grammar, detects
reduce/shift and reduce/reduce conflicts between rules sharing a state and
validates that every conflict is covered by a user resolver.

    a, err := lr.Build(g)
    if err != nil { … }   // errors.As(err, &conflictError) for unresolved conflicts

The automaton is read-only after construction and may be shared between
concurrent parses (see package engine). It can be serialized and hydrated
again, and exported to Graphviz's Dot-format.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'relex.lr'.
func tracer() tracing.Trace {
	return tracing.Select("relex.lr")
}
