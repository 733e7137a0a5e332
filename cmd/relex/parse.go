package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/relex/lr/engine"
	"github.com/npillmayer/relex/lr/scanner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newParseCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <grammar.ebnf> <input>…",
		Short: "Parse inputs and print their syntax trees",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newParser(s, args[0])
			if err != nil {
				return err
			}
			results, err := parseAll(cmd.Context(), p, args[1:])
			if err != nil {
				return err
			}
			rejected := 0
			for i, result := range results {
				if !printResult(args[1+i], result) {
					rejected++
				}
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d inputs rejected", rejected, len(results))
			}
			return nil
		},
	}
}

// parseAll parses inputs concurrently, sharing a single parser.
func parseAll(ctx context.Context, p *engine.Parser, inputs []string) ([]*engine.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*engine.Result, len(inputs))
	group, ctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			src := scanner.NewGoSource(fmt.Sprintf("input#%d", i+1), input)
			result, err := p.ParseContext(ctx, src)
			if err != nil {
				return fmt.Errorf("input %q: %w", input, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// printResult displays the syntax tree of an accepted input, or the reasons for
// rejecting it.
func printResult(input string, result *engine.Result) bool {
	for _, err := range result.Errors {
		pterm.Warning.Println(err.Error())
	}
	if !result.Accepted {
		pterm.Error.Println(fmt.Sprintf("input %q rejected", input))
		return false
	}
	pterm.Info.Println(fmt.Sprintf("%q ⇒ %s", input, result.Root.Symbol))
	pterm.DefaultTree.WithRoot(treeOf(result.Root)).Render()
	return true
}

// treeOf converts a syntax tree into a pterm tree.
func treeOf(root *lr.Node) pterm.TreeNode {
	if root == nil {
		return pterm.TreeNode{}
	}
	var ll pterm.LeveledList
	var walk func(n *lr.Node, level int)
	walk = func(n *lr.Node, level int) {
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: label(n)})
		for _, ch := range n.Children() {
			walk(ch, level+1)
		}
	}
	walk(root, 0)
	tracer().Debugf("|ll| = %d", len(ll))
	return pterm.NewTreeFromLeveledList(ll)
}

func label(n *lr.Node) string {
	if n.IsLeaf() {
		return fmt.Sprintf("%s %q", n.Symbol, n.Lexeme())
	}
	var b strings.Builder
	b.WriteString(n.Name())
	if span := n.Span(); !span.IsNull() {
		b.WriteString(" ")
		b.WriteString(span.String())
	}
	return b.String()
}
