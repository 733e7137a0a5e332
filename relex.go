package relex

import "fmt"

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. We do not define any constants here, as
// it is up to applications to define them.
type TokType int

// TokTypeStringer is a type to be provided by a scanner/parser combination to be able
// to print out token categories.
type TokTypeStringer func(TokType) string

// Token represents an input token. Tokens are produced by a token source and
// reflect terminals of a grammar.
//
// An example would be a token for a floating point numer:
//
//    TokType = Float       // identifier for this kind of tokens (appliation specific)
//    Lexeme  = "3.1316"    // lexeme how it appreared in the input stream
//    Value   = 3.1416      // is a float64 value
//    Span    = 67…73       // occured from position 67 in the input stream
//
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// DiagnosticToken is a token which has been scanned with a recoverable error,
// e.g. an unterminated string literal. The parser will accept it, but attach
// the diagnostic to the leaf node and to the list of errors of a parse.
type DiagnosticToken interface {
	Token
	Diagnostic() error
}

// Diagnostic returns the recoverable error attached to a token, if any.
func Diagnostic(t Token) error {
	if d, ok := t.(DiagnosticToken); ok {
		return d.Diagnostic()
	}
	return nil
}

// --- Token sources ---------------------------------------------------------

// Terminal is the hint a parser passes to a token source: a token category,
// optionally pinned to an exact literal text.
type Terminal interface {
	TokenType() TokType
	Literal() string // empty if not pinned
}

// TokenSource is the contract between a parser and a scanner.
//
// Next returns the next token matching the expected terminal and consumes it.
// If expected is nil, the source scans whatever token comes next. If no token
// matches, ok is false and the position is left unchanged.
// Peek does the same without consuming input.
//
// Pos and Seek expose the source cursor as a byte offset. Sources are cheap
// to Clone, clones share the input but not the cursor. This lets a parser
// speculate on a clone and seek the caller's source only when done.
type TokenSource interface {
	Next(expected Terminal) (tok Token, ok bool)
	Peek(expected Terminal) (tok Token, ok bool)
	AtEnd() bool
	Pos() uint64
	Seek(pos uint64)
	Clone() TokenSource
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a length of input token run. For every
// terminal and non-terminal, a parse tree will track which input positions
// this symbol covers. A span denotes a start position and the position just
// behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend returns the smallest span covering s and other. A null span is
// neutral.
func (s Span) Extend(other Span) Span {
	if s.IsNull() {
		return other
	}
	if other.IsNull() {
		return s
	}
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
