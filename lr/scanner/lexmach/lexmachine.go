package lexmach

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/relex/lr/scanner"
	"github.com/npillmayer/schuko/tracing"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
	"go.uber.org/multierr"
)

// tracer traces with key 'relex.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("relex.scanner")
}

// Pattern is a regular expression for a token class. Patterns without a token
// name match input to be skipped, e.g. whitespace or comments. Patterns with
// a non-empty Diagnose text produce tokens carrying a recoverable error, e.g.
// for unterminated strings.
type Pattern struct {
	Regex    string
	Token    string
	Diagnose string
}

// LMAdapter is a lexmachine adapter to use lexmachine as a token source.
//
// Besides a lexer for all tokens, LMAdapter compiles one lexer per token type
// and one lexer for input to be skipped. This way a parser may ask for
// a specific token type at a given position.
type LMAdapter struct {
	Lexer *lexmachine.Lexer // matches any token
	kinds map[relex.TokType]*lexmachine.Lexer
	skip  *lexmachine.Lexer // nil if nothing is to be skipped
}

const skipToken = -1

// NewLMAdapter creates a new lexmachine adapter. It receives a list of
// token patterns, a list of literals ('[', ';', …), a list of keywords
// ("if", "for", …) and a map for translating token names to their values.
// Literals and keywords are token names as well.
//
// NewLMAdapter will return an error if compiling one of the DFAs failed.
func NewLMAdapter(patterns []Pattern, literals []string, keywords []string, tokenIds map[string]int) (*LMAdapter, error) {
	adapter := &LMAdapter{
		Lexer: lexmachine.NewLexer(),
		kinds: make(map[relex.TokType]*lexmachine.Lexer),
	}
	kind := func(name string) (relex.TokType, *lexmachine.Lexer, error) {
		id, ok := tokenIds[name]
		if !ok {
			return 0, nil, fmt.Errorf("no token id for %q", name)
		}
		t := relex.TokType(id)
		lexer, ok := adapter.kinds[t]
		if !ok {
			lexer = lexmachine.NewLexer()
			adapter.kinds[t] = lexer
		}
		return t, lexer, nil
	}
	var errs []error
	for _, lit := range literals {
		t, lexer, err := kind(lit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r := "\\" + strings.Join(strings.Split(lit, ""), "\\")
		adapter.Lexer.Add([]byte(r), MakeToken(lit, int(t)))
		lexer.Add([]byte(r), MakeToken(lit, int(t)))
	}
	for _, name := range keywords {
		t, lexer, err := kind(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		adapter.Lexer.Add([]byte(strings.ToLower(name)), MakeToken(name, int(t)))
		lexer.Add([]byte(strings.ToLower(name)), MakeToken(name, int(t)))
	}
	for _, p := range patterns {
		if p.Token == "" {
			adapter.Lexer.Add([]byte(p.Regex), Skip)
			if adapter.skip == nil {
				adapter.skip = lexmachine.NewLexer()
			}
			adapter.skip.Add([]byte(p.Regex), MakeToken("", skipToken))
			continue
		}
		t, lexer, err := kind(p.Token)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		action := MakeToken(p.Token, int(t))
		if p.Diagnose != "" {
			action = MakeDiagnosticToken(p.Token, int(t), p.Diagnose)
		}
		adapter.Lexer.Add([]byte(p.Regex), action)
		lexer.Add([]byte(p.Regex), action)
	}
	if len(errs) > 0 {
		return nil, multierr.Combine(errs...)
	}
	lexers := []*lexmachine.Lexer{adapter.Lexer}
	if adapter.skip != nil {
		lexers = append(lexers, adapter.skip)
	}
	for _, lexer := range adapter.kinds {
		lexers = append(lexers, lexer)
	}
	for _, lexer := range lexers {
		if err := lexer.Compile(); err != nil {
			tracer().Errorf("Error compiling DFA: %v", err)
			return nil, err
		}
	}
	return adapter, nil
}

// Source creates a token source for a given input.
func (lm *LMAdapter) Source(input string) *LMSource {
	return &LMSource{lm: lm, text: []byte(input)}
}

// LMSource is a token source backed by lexmachine DFAs, implementing the
// relex.TokenSource interface.
type LMSource struct {
	lm   *LMAdapter
	text []byte
	pos  uint64
}

var _ relex.TokenSource = (*LMSource)(nil)

// skipFrom returns the position of the first input at or after pos which is
// not to be skipped.
func (src *LMSource) skipFrom(pos uint64) uint64 {
	for src.lm.skip != nil && pos < uint64(len(src.text)) {
		s, err := src.lm.skip.Scanner(src.text)
		if err != nil {
			return pos
		}
		s.TC = int(pos)
		tok, err, eof := s.Next()
		if err != nil || eof || tok == nil {
			return pos
		}
		token := tok.(*lexmachine.Token)
		if len(token.Lexeme) == 0 {
			return pos
		}
		pos = uint64(token.TC + len(token.Lexeme))
	}
	return pos
}

// scan runs a lexer at pos and returns the first token, if any.
func (src *LMSource) scan(lexer *lexmachine.Lexer, pos uint64) (relex.Token, bool) {
	s, err := lexer.Scanner(src.text)
	if err != nil {
		tracer().Errorf("cannot create scanner: %v", err)
		return nil, false
	}
	s.TC = int(pos)
	tok, err, eof := s.Next()
	if err != nil {
		var ui *machines.UnconsumedInput
		if errors.As(err, &ui) {
			tracer().Debugf("no match at %d: %v", pos, err)
		}
		return nil, false
	}
	if eof || tok == nil {
		return nil, false
	}
	return tok.(scanner.DefaultToken), true
}

func (src *LMSource) match(expected relex.Terminal) (relex.Token, bool) {
	start := src.skipFrom(src.pos)
	if start >= uint64(len(src.text)) {
		return nil, false
	}
	if expected == nil {
		return src.scan(src.lm.Lexer, start)
	}
	if lit := expected.Literal(); lit != "" {
		if !scanner.HasLiteral(string(src.text[start:]), lit) {
			return nil, false
		}
		span := relex.Span{start, start + uint64(len(lit))}
		return scanner.MakeDefaultToken(expected.TokenType(), lit, span), true
	}
	lexer, ok := src.lm.kinds[expected.TokenType()]
	if !ok {
		return nil, false
	}
	return src.scan(lexer, start)
}

// Next is part of the relex.TokenSource interface.
func (src *LMSource) Next(expected relex.Terminal) (relex.Token, bool) {
	tok, ok := src.match(expected)
	if ok {
		src.pos = tok.Span().To()
		tracer().Debugf("token %v", tok)
	}
	return tok, ok
}

// Peek is part of the relex.TokenSource interface.
func (src *LMSource) Peek(expected relex.Terminal) (relex.Token, bool) {
	return src.match(expected)
}

// AtEnd is part of the relex.TokenSource interface.
func (src *LMSource) AtEnd() bool {
	return src.skipFrom(src.pos) >= uint64(len(src.text))
}

// Pos is part of the relex.TokenSource interface.
func (src *LMSource) Pos() uint64 {
	return src.pos
}

// Seek is part of the relex.TokenSource interface.
func (src *LMSource) Seek(pos uint64) {
	if pos > uint64(len(src.text)) {
		pos = uint64(len(src.text))
	}
	src.pos = pos
}

// Clone is part of the relex.TokenSource interface.
func (src *LMSource) Clone() relex.TokenSource {
	c := *src
	return &c
}

// ---------------------------------------------------------------------------

// Skip is a pre-defined action which ignores the scanned match.
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a pre-defined action which wraps a scanned match into a token.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		if id == skipToken {
			return s.Token(id, string(m.Bytes), m), nil
		}
		return matchedToken(id, m), nil
	}
}

// MakeDiagnosticToken is a pre-defined action which wraps a scanned match into
// a token carrying a recoverable error.
func MakeDiagnosticToken(name string, id int, msg string) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		err := fmt.Errorf("%s at %d: %s", name, m.TC, msg)
		return matchedToken(id, m).WithDiagnostic(err), nil
	}
}

func matchedToken(id int, m *machines.Match) scanner.DefaultToken {
	start := uint64(m.TC)
	return scanner.MakeDefaultToken(relex.TokType(id), string(m.Bytes),
		relex.Span{start, start + uint64(len(m.Bytes))})
}
