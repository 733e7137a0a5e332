/*
Package scanner provides token sources to be used with the parsers of package lr.

Two token sources are provided: (1) a thin wrapper over the Go std lib
'text/scanner', and (2) an adapter for lexmachine, living in sub-package `lexmach`.

Both implement relex.TokenSource. Parsers call a token source with a hint
(a token type, optionally pinned to a literal), and sources answer whether
the next token matches the hint. This lets a parser re-scan the same input
differently, e.g. "--" as a single token or as two tokens "-".

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"errors"
	"fmt"
	"strings"
	"text/scanner"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/relex"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'relex.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("relex.scanner")
}

// EOF is identical to text/scanner.EOF.
// Token types are replicated here for practical reasons.
const (
	EOF       = scanner.EOF
	Ident     = scanner.Ident
	Int       = scanner.Int
	Float     = scanner.Float
	Char      = scanner.Char
	String    = scanner.String
	RawString = scanner.RawString
	Comment   = scanner.Comment
)

// --- Default tokens --------------------------------------------------------

// DefaultToken is a very unsophisticated token type, used as default for the Go
// token source as well as the lexmachine token source.
type DefaultToken struct {
	kind   relex.TokType
	lexeme string
	Val    interface{}
	span   relex.Span
	diag   error
}

var _ relex.DiagnosticToken = DefaultToken{}

// MakeDefaultToken creates a token.
func MakeDefaultToken(typ relex.TokType, lexeme string, span relex.Span) DefaultToken {
	return DefaultToken{
		kind:   typ,
		lexeme: lexeme,
		span:   span,
	}
}

// WithDiagnostic returns a copy of t carrying a recoverable error.
func (t DefaultToken) WithDiagnostic(err error) DefaultToken {
	t.diag = err
	return t
}

func (t DefaultToken) TokType() relex.TokType {
	return t.kind
}

func (t DefaultToken) Value() interface{} {
	return t.Val
}

func (t DefaultToken) Lexeme() string {
	return t.lexeme
}

func (t DefaultToken) Span() relex.Span {
	return t.span
}

// Diagnostic returns the recoverable error the token has been scanned with, if any.
func (t DefaultToken) Diagnostic() error {
	return t.diag
}

func (t DefaultToken) String() string {
	return fmt.Sprintf("<%d|%q%v>", t.kind, t.lexeme, t.span)
}

// --- Go token source -------------------------------------------------------

// GoSource is a token source backed by text/scanner, accepting tokens similar
// to the Go language. Create one with NewGoSource.
type GoSource struct {
	name         string
	input        string
	pos          uint64
	mode         uint
	unifyStrings bool
}

var _ relex.TokenSource = (*GoSource)(nil)

// NewGoSource creates a token source for an input text.
func NewGoSource(sourceID string, input string, opts ...Option) *GoSource {
	src := &GoSource{
		name:  sourceID,
		input: input,
		mode:  scanner.GoTokens,
	}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// scan reads one token at the current position without consuming it.
func (src *GoSource) scan() (tok DefaultToken, start uint64) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src.input[src.pos:]))
	s.Filename = src.name
	s.Mode = src.mode
	var diag error
	s.Error = func(s *scanner.Scanner, msg string) {
		diag = errors.New(s.Position.String() + ": " + msg)
	}
	typ := s.Scan()
	if src.unifyStrings && (typ == scanner.RawString || typ == scanner.Char) {
		typ = scanner.String
	}
	start = src.pos + uint64(s.Position.Offset)
	end := src.pos + uint64(s.Pos().Offset)
	if typ == scanner.EOF {
		start, end = uint64(len(src.input)), uint64(len(src.input))
	}
	tok = MakeDefaultToken(relex.TokType(typ), s.TokenText(), relex.Span{start, end})
	if diag != nil {
		tracer().Infof("scanner error: %v", diag)
		tok = tok.WithDiagnostic(diag)
	}
	return tok, start
}

func (src *GoSource) match(expected relex.Terminal) (relex.Token, bool) {
	tok, start := src.scan()
	if tok.kind == scanner.EOF {
		return nil, false
	}
	if expected == nil {
		return tok, true
	}
	if lit := expected.Literal(); lit != "" {
		if !HasLiteral(src.input[start:], lit) {
			return nil, false
		}
		span := relex.Span{start, start + uint64(len(lit))}
		return MakeDefaultToken(expected.TokenType(), lit, span), true
	}
	if tok.kind != expected.TokenType() {
		return nil, false
	}
	return tok, true
}

// Next is part of the relex.TokenSource interface.
func (src *GoSource) Next(expected relex.Terminal) (relex.Token, bool) {
	tok, ok := src.match(expected)
	if ok {
		src.pos = tok.Span().To()
		tracer().Debugf("%s: token %v", src.name, tok)
	}
	return tok, ok
}

// Peek is part of the relex.TokenSource interface.
func (src *GoSource) Peek(expected relex.Terminal) (relex.Token, bool) {
	return src.match(expected)
}

// AtEnd is part of the relex.TokenSource interface.
func (src *GoSource) AtEnd() bool {
	tok, _ := src.scan()
	return tok.kind == scanner.EOF
}

// Pos is part of the relex.TokenSource interface.
func (src *GoSource) Pos() uint64 {
	return src.pos
}

// Seek is part of the relex.TokenSource interface.
func (src *GoSource) Seek(pos uint64) {
	if pos > uint64(len(src.input)) {
		pos = uint64(len(src.input))
	}
	src.pos = pos
}

// Clone is part of the relex.TokenSource interface.
func (src *GoSource) Clone() relex.TokenSource {
	c := *src
	return &c
}

// HasLiteral checks if text starts with a literal. Literals ending in a letter
// or digit have to end at a word boundary.
func HasLiteral(text, lit string) bool {
	if !strings.HasPrefix(text, lit) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(lit)
	if !isWordRune(last) || len(text) == len(lit) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[len(lit):])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// --- Options for the Go token source ---------------------------------------

// Option configures a Go token source.
type Option func(src *GoSource)

// SkipComments sets or clears mode-flag SkipComments.
func SkipComments(b bool) Option {
	return func(src *GoSource) {
		if b {
			src.mode |= scanner.SkipComments
		} else {
			src.mode &^= scanner.SkipComments
		}
	}
}

// UnifyStrings sets or clears option UnifyStrings:
// treat raw strings and single chars as strings.
func UnifyStrings(b bool) Option {
	return func(src *GoSource) {
		src.unifyStrings = b
	}
}
