package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/relex/lr"
	"github.com/npillmayer/relex/lr/ebnf"
	"github.com/npillmayer/relex/lr/engine"
)

// loadGrammar reads an EBNF grammar file.
func loadGrammar(s *settings, filename string) (*lr.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var opts []ebnf.Option
	if s.start != "" {
		opts = append(opts, ebnf.Start(s.start))
	}
	g, _, err := ebnf.Grammar(name, filename, f, ebnf.GoTokenClasses, opts...)
	return g, err
}

// loadAutomaton builds the automaton for a grammar file. If a table file is
// configured, the automaton is hydrated from it, provided it is still
// up to date. A table file is (re-)written after every fresh build.
func loadAutomaton(s *settings, filename string) (*lr.Automaton, error) {
	g, err := loadGrammar(s, filename)
	if err != nil {
		return nil, err
	}
	var policy lr.BuildOption
	switch s.prefer {
	case "reduce":
		policy = lr.DefaultResolution(true)
	case "shift":
		policy = lr.DefaultResolution(false)
	default:
		return nil, fmt.Errorf("unknown conflict resolution %q", s.prefer)
	}
	if s.table == "" {
		return lr.Build(g, policy)
	}
	data, err := os.ReadFile(s.table)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	a, err := lr.LoadOrBuild(g, data, policy)
	if err != nil {
		return nil, err
	}
	if a.Hydrated() {
		tracer().Infof("using parser table %s", s.table)
		return a, nil
	}
	if data, err = a.Serialize(); err != nil {
		return nil, err
	}
	if err = os.WriteFile(s.table, data, 0o644); err != nil {
		return nil, fmt.Errorf("write parser table: %w", err)
	}
	return a, nil
}

func newParser(s *settings, filename string) (*engine.Parser, error) {
	a, err := loadAutomaton(s, filename)
	if err != nil {
		return nil, err
	}
	return engine.NewParser(a,
		engine.ReLex(s.relexing),
		engine.IgnoreEntryFollow(s.ignoreEntryFollow))
}
