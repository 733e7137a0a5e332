/*
Package lexmach provides an adapter to use the lexmachine scanner generator as
a token source for the parsers of relex.

For more information on lexmachine, see e.g.
https://hackthology.com/how-to-tokenize-complex-strings-with-lexmachine.html

Package lexmach is very opinionated on how to do the setup of lexmachine.
Clients provide regular expressions for token classes, literals and keywords:

	var literals []string       // The tokens representing literal strings
	var keywords []string       // The keyword tokens
	var tokenIds map[string]int // A map from the token names to their int IDs

	patterns := []lexmach.Pattern{
		{Regex: `( |\t|\n)+`},                    // skipped
		{Regex: `[0-9]+`, Token: "NUM"},
		{Regex: `"[^"\n]*`, Token: "STRING", Diagnose: "unterminated string"},
	}

Having that, clients use `NewLMAdapter` to compile the DFAs.
NewLMAdapter will return an error if compiling a DFA failed.

	LM, err := lexmach.NewLMAdapter(patterns, literals, keywords, tokenIds)
	if err != nil {
		// do error handling
	}

A token source is instantiated for each concrete input sequence.
It implements the relex.TokenSource interface, i.e. it will scan for
a token type or a literal given by the parser.

	src := LM.Source("input string to tokenize")

Please refer to package relex/lr/engine on
how to create parsers and plug in a token source.

________________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lexmach
