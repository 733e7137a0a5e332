/*
Package relex is a runtime for speculative LR parsing.

Grammars are built at runtime, analysed and turned into an automaton of LR-style
states. A parsing engine drives this automaton over a token source, re-lexing
ambiguous tokenizations and rolling back side effects of discarded reductions.
Package structure is as follows:

■ lr: Package lr implements the grammar model, the automaton construction,
first/follow sets, conflict detection and the resolver protocol.

■ lr/engine: Package engine implements the speculative parsing loop.

■ lr/scanner: Package scanner provides token sources for the engine.

■ lr/ebnf: Package ebnf expands a textual EBNF grammar into plain productions.

■ cmd/relex: Command relex describes grammars and parses inputs from the command line.

The base package contains the token contract used by all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package relex
