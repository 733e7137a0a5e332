/*
Command relex is a command line front-end for grammars in EBNF notation.

It describes the automaton for a grammar, exports it in Dot format, and
parses input, either given as arguments or interactively.

	relex describe expr.ebnf
	relex dot expr.ebnf | dot -Tsvg > expr.svg
	relex parse expr.ebnf "1+2" "(3+4)-5"
	relex repl expr.ebnf

Grammars are written in Go-style EBNF (see package lr/ebnf), with token classes
ident, int, float, char, string and rawstring. Input is tokenized with the
Go token source of package lr/scanner. Conflicts of a grammar are decided
by a default policy (flag --prefer). With the default "shift", a reduction
is vetoed if the lookahead would continue a longer rule.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"os"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// tracer traces with key 'relex.cli'.
func tracer() tracing.Trace {
	return tracing.Select("relex.cli")
}

// settings are shared by all sub-commands.
type settings struct {
	traceLevel        string
	prefer            string
	table             string
	start             string
	relexing          bool
	ignoreEntryFollow bool
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:           "relex",
		Short:         "Build and run speculative LR parsers for EBNF grammars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initDisplay()
			initTracing(s.traceLevel)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&s.traceLevel, "trace", "Error", "Trace level [Debug|Info|Error]")
	flags.StringVar(&s.prefer, "prefer", "shift", "Default resolution for reduce/shift conflicts [shift|reduce]")
	flags.StringVar(&s.table, "table", "", "File caching the serialized parser table")
	flags.StringVar(&s.start, "start", "", "Entry production (default: first production)")
	flags.BoolVar(&s.relexing, "relex", true, "Re-scan ambiguous tokens on parse failure")
	flags.BoolVar(&s.ignoreEntryFollow, "ignore-entry-follow", false, "Accept top-level units one at a time")
	root.AddCommand(
		newDescribeCmd(s),
		newDotCmd(s),
		newParseCmd(s),
		newReplCmd(s),
	)
	return root
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// initTracing routes all tracers to a Go logger.
func initTracing(level string) {
	gtrace.SyntaxTracer = gologadapter.New()
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	tracer().SetTraceLevel(tracing.TraceLevelFromString(level))
	tracer().Infof("Trace level is %s", level)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}
