package main

import (
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/relex/lr/engine"
	"github.com/npillmayer/relex/lr/scanner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newReplCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "repl <grammar.ebnf>",
		Short: "Parse input lines interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newParser(s, args[0])
			if err != nil {
				return err
			}
			rl, err := readline.New(p.Automaton().Grammar().Name + "> ")
			if err != nil {
				return err
			}
			defer rl.Close()
			intp := &Intp{parser: p, repl: rl}
			pterm.Info.Println("Welcome to relex")
			tracer().Infof("Quit with <ctrl>D")
			intp.REPL()
			return nil
		},
	}
}

// Intp is our interactive parsing loop.
type Intp struct {
	parser *engine.Parser
	repl   *readline.Instance
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		intp.Eval(line)
	}
	println("Good bye!")
}

// Eval parses a line of input. With option ignore-entry-follow, a line may
// contain more than one top-level unit, each of which is displayed.
func (intp *Intp) Eval(line string) {
	src := scanner.NewGoSource("repl", line)
	for !src.AtEnd() {
		pos := src.Pos()
		result, err := intp.parser.Parse(src)
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		if !printResult(line[pos:], result) || src.Pos() == pos {
			return
		}
	}
}
