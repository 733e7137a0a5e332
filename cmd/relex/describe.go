package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/relex/lr"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDescribeCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <grammar.ebnf>",
		Short: "Print rules, states and conflicts of a grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAutomaton(s, args[0])
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func newDotCmd(s *settings) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dot <grammar.ebnf>",
		Short: "Write the automaton of a grammar in Dot format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAutomaton(s, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return a.ToGraphViz(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			return a.ToGraphViz(f)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func describe(w io.Writer, a *lr.Automaton) {
	g := a.Grammar()
	fmt.Fprintf(w, "Grammar %s\n\n", g.Name)
	table := newTable(w, "#", "RULE", "CONFLICTS")
	for i := 0; i < g.Size(); i++ {
		r := g.Rule(i)
		table.Append([]string{strconv.Itoa(r.Serial), r.String(), strconv.Itoa(len(a.ConflictsOf(r)))})
	}
	table.Render()
	fmt.Fprintln(w)
	table = newTable(w, "STATE", "ACCEPT", "ITEMS", "EXPECTS")
	for _, state := range a.States() {
		var items []string
		for _, i := range state.Items() {
			items = append(items, i.String())
		}
		accept := ""
		if state.Accept {
			accept = "✓"
		}
		table.Append([]string{
			strconv.Itoa(state.ID),
			accept,
			strings.Join(items, "\n"),
			symbols(state.Expected()),
		})
	}
	table.Render()
	if len(a.Conflicts()) == 0 {
		return
	}
	fmt.Fprintln(w)
	table = newTable(w, "KIND", "REDUCE", "OTHER", "LOOKAHEAD")
	for _, c := range a.Conflicts() {
		la, eof := a.Lookahead(c)
		lookahead := symbols(la)
		if eof {
			lookahead += " #eof"
		}
		table.Append([]string{c.Kind.String(), c.Rule.String(), c.Other.String(), lookahead})
	}
	table.Render()
}

func symbols(S []*lr.Symbol) string {
	names := make([]string, len(S))
	for i, A := range S {
		names[i] = A.String()
	}
	return strings.Join(names, " ")
}
