package lr

import (
	"fmt"
	"strings"

	"github.com/npillmayer/relex"
)

// SymbolKind tells terminals from non-terminals.
type SymbolKind uint8

// Kinds of grammar symbols.
const (
	TerminalKind SymbolKind = iota + 1
	NonTermKind
)

func (k SymbolKind) String() string {
	switch k {
	case TerminalKind:
		return "T"
	case NonTermKind:
		return "N"
	}
	return "?"
}

// SymbolKey is the category of a symbol: a token type for terminals, a name
// for non-terminals. Literal pins and labels are not part of the key.
type SymbolKey struct {
	Kind  SymbolKind
	Token relex.TokType // valid for terminals
	NT    string        // valid for non-terminals
}

func (k SymbolKey) String() string {
	if k.Kind == NonTermKind {
		return k.NT
	}
	return fmt.Sprintf("#%d", k.Token)
}

// Symbol is a grammar symbol, either a terminal or a non-terminal.
//
// Symbols are interned within a grammar: symbols with identical key, literal
// and label are the same object. Every labelled symbol has an unlabelled
// base symbol; comparing bases is equality ignoring labels.
type Symbol struct {
	Name     string // display name
	Value    int    // serial number within the grammar
	key      SymbolKey
	literal  string
	label    string
	base     *Symbol
	unpinned *Symbol // for literal-pinned terminals: the counterpart without literal
}

var _ relex.Terminal = (*Symbol)(nil)

// IsTerminal returns true if the symbol is a terminal.
func (A *Symbol) IsTerminal() bool {
	return A.key.Kind == TerminalKind
}

// TokenType returns the token type of a terminal. For non-terminals it returns -1.
func (A *Symbol) TokenType() relex.TokType {
	if A.key.Kind == NonTermKind {
		return -1
	}
	return A.key.Token
}

// Literal returns the literal a terminal is pinned to, or "".
func (A *Symbol) Literal() string {
	return A.literal
}

// Label returns the label of a symbol occurrence, or "".
func (A *Symbol) Label() string {
	return A.label
}

// Key returns the category of a symbol.
func (A *Symbol) Key() SymbolKey {
	return A.key
}

// Base returns the unlabelled version of a symbol.
func (A *Symbol) Base() *Symbol {
	return A.base
}

// IsPinned is true for terminals pinned to a literal.
func (A *Symbol) IsPinned() bool {
	return A.literal != ""
}

// Unpinned returns the counterpart of a literal-pinned terminal which matches
// any token of the same type. For all other symbols it returns the base symbol.
func (A *Symbol) Unpinned() *Symbol {
	if A.unpinned != nil {
		return A.unpinned
	}
	return A.base
}

// Matches is true if a state expecting A may advance over B.
// A terminal pinned to a literal advances candidates expecting the pinned
// terminal as well as candidates expecting the unpinned token type.
func (A *Symbol) Matches(B *Symbol) bool {
	if A.base == B.base {
		return true
	}
	return A.IsTerminal() && B.IsTerminal() && !A.IsPinned() && A.key == B.key
}

// overlaps is a symmetric version of Matches, used for conflict detection.
func (A *Symbol) overlaps(B *Symbol) bool {
	return A.Matches(B) || B.Matches(A)
}

func (A *Symbol) String() string {
	var s string
	if A.literal != "" {
		s = "'" + A.literal + "'"
	} else {
		s = A.Name
	}
	if A.label != "" {
		s += ":" + A.label
	}
	return s
}

// --- Symbol repository -----------------------------------------------------

type symIdent struct {
	key     SymbolKey
	literal string
	label   string
}

// symbolRepo interns the symbols of a grammar.
type symbolRepo struct {
	symbols []*Symbol
	index   map[symIdent]*Symbol
	names   map[relex.TokType]string // display names for token types
}

func newSymbolRepo() *symbolRepo {
	return &symbolRepo{
		index: make(map[symIdent]*Symbol),
		names: make(map[relex.TokType]string),
	}
}

func (repo *symbolRepo) intern(name string, key SymbolKey, literal, label string) *Symbol {
	id := symIdent{key: key, literal: literal, label: label}
	if A, ok := repo.index[id]; ok {
		return A
	}
	A := &Symbol{
		Name:    name,
		Value:   len(repo.symbols),
		key:     key,
		literal: literal,
		label:   label,
	}
	repo.symbols = append(repo.symbols, A)
	repo.index[id] = A
	if label == "" {
		A.base = A
	} else {
		A.base = repo.intern(name, key, literal, "")
	}
	if literal != "" && label == "" {
		A.unpinned = repo.intern(repo.tokenName(key.Token), key, "", "")
	}
	return A
}

func (repo *symbolRepo) nonterminal(name, label string) *Symbol {
	return repo.intern(name, SymbolKey{Kind: NonTermKind, NT: name}, "", label)
}

func (repo *symbolRepo) terminal(name string, tokval relex.TokType, literal, label string) *Symbol {
	if literal == "" {
		if _, ok := repo.names[tokval]; !ok {
			repo.names[tokval] = name
		}
	}
	if literal != "" && name == "" {
		name = literal
	}
	A := repo.intern(name, SymbolKey{Kind: TerminalKind, Token: tokval}, literal, label)
	if literal == "" && A.base.Name != name && strings.HasPrefix(A.base.Name, "#") {
		A.base.Name = name // counterpart has been created before its name was known
		A.Name = name
	}
	return A
}

func (repo *symbolRepo) tokenName(t relex.TokType) string {
	if n, ok := repo.names[t]; ok {
		return n
	}
	return fmt.Sprintf("#%d", t)
}

func (repo *symbolRepo) lookup(key SymbolKey, literal string) *Symbol {
	return repo.index[symIdent{key: key, literal: literal}]
}
