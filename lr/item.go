package lr

import (
	"bytes"
	"fmt"

	"github.com/emirpasic/gods/utils"
)

// Item is an LR item, i.e. a rule with a dot position. Items are deduplicated
// within an automaton: there is one instance per (rule, dot).
//
//    A  ->  B C • D
//
type Item struct {
	ID   int // serial number within the automaton
	rule *Rule
	dot  int
	next map[*Symbol]*Item // cached advances, nil entries for "no advance"
}

// Rule returns the rule of an item.
func (i *Item) Rule() *Rule {
	return i.rule
}

// Dot returns the dot position of an item.
func (i *Item) Dot() int {
	return i.dot
}

// PeekSymbol returns the symbol after the dot, or nil.
func (i *Item) PeekSymbol() *Symbol {
	if i.dot >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot]
}

// Complete is true if the dot is behind the last symbol.
func (i *Item) Complete() bool {
	return i.dot >= len(i.rule.rhs)
}

// Prefix returns a slice, so the result should probably be considered read-only.
// It returns the symbols of the rule before the dot.
func (i *Item) Prefix() []*Symbol {
	return i.rule.rhs[:i.dot]
}

func (i *Item) String() string {
	var b bytes.Buffer
	b.WriteString(i.rule.LHS.Name)
	b.WriteString(" ➞")
	for n, A := range i.rule.rhs {
		if n == i.dot {
			b.WriteString(" •")
		}
		b.WriteString(" ")
		b.WriteString(A.String())
	}
	if i.Complete() {
		b.WriteString(" •")
	}
	return b.String()
}

func (i *Item) ident() string {
	return fmt.Sprintf("%d.%d", i.rule.Serial, i.dot)
}

// itemComparator sorts items by rule serial, then by dot. This is declaration order.
func itemComparator(x1, x2 interface{}) int {
	i1, i2 := x1.(*Item), x2.(*Item)
	if c := utils.IntComparator(i1.rule.Serial, i2.rule.Serial); c != 0 {
		return c
	}
	return utils.IntComparator(i1.dot, i2.dot)
}

// --- Item repository -------------------------------------------------------

type itemKey struct {
	rule *Rule
	dot  int
}

type itemRepo struct {
	items []*Item
	index map[itemKey]*Item
}

func newItemRepo() *itemRepo {
	return &itemRepo{index: make(map[itemKey]*Item)}
}

func (repo *itemRepo) get(r *Rule, dot int) *Item {
	k := itemKey{rule: r, dot: dot}
	if i, ok := repo.index[k]; ok {
		return i
	}
	i := &Item{ID: len(repo.items), rule: r, dot: dot}
	repo.items = append(repo.items, i)
	repo.index[k] = i
	return i
}

// advance moves the dot of i over A, if the symbol after the dot matches A.
// Results are cached per symbol.
func (repo *itemRepo) advance(i *Item, A *Symbol) *Item {
	if next, ok := i.next[A]; ok {
		return next
	}
	var next *Item
	if B := i.PeekSymbol(); B != nil && B.Matches(A) {
		next = repo.get(i.rule, i.dot+1)
	}
	if i.next == nil {
		i.next = make(map[*Symbol]*Item)
	}
	i.next[A] = next
	return next
}
