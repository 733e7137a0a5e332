/*
Package sparse implements a simple type for sparse integer matrices.
It is used for the shift table of an automaton and for table dumps.
Every entry in the table is either a single int32 or a pair (int32,int32).

This implementation uses the COO algorithm (a.k.a. triplet-encoding),
with triplets kept in row-major order.

   https://medium.com/@jmaxg3/101-ways-to-store-a-sparse-matrix-c7f2bf15a229
   https://www.coin-or.org/Ipopt/documentation/node38.html


License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>

*/
package sparse

import (
	"fmt"
	"sort"
)

// IntMatrix is a type for a spare matrix of integer values. Construct with
//
//     M := NewIntMatrix(10, 10, -1)  // last parameter is M's null-value
//
// Now
//
//     M.Set(2, 3, 4711)              // set a value
//     v := M.Value(2, 3)             // returns 4711
//     M.Add(2, 3, 123)               // add a second value
//     cnt := M.ValueCount()          // still returns 1 (one position set)
//     v = M.Value(10, 10)            // returns -1, i.e. the null-value
//
// Values cannot be deleted, but may be overwritten with the null-value. Space for
// null-values is not re-claimed.
type IntMatrix struct {
	values  []Entry
	rowcnt  int
	colcnt  int
	nullval int32
}

// Entry is a stored position of a matrix. B is the matrix' null value if only
// one value is stored.
type Entry struct {
	Row, Col int
	A, B     int32
}

func (e Entry) String() string {
	return fmt.Sprintf("(%d,%d)=[%d,%d]", e.Row, e.Col, e.A, e.B)
}

func (e Entry) before(i, j int) bool {
	return e.Row < i || e.Row == i && e.Col < j
}

// NewIntMatrix creates a new matrix for int, size m x n. The 3rd argument is a null-value,
// indicating empty entries (use DefaultNullValue if you haven't any specific
// requirements).
func NewIntMatrix(m, n int, nullValue int32) *IntMatrix {
	return &IntMatrix{
		values:  []Entry{},
		rowcnt:  m,
		colcnt:  n,
		nullval: nullValue,
	}
}

// FromEntries re-creates a matrix from entries as returned by Entries.
func FromEntries(m, n int, nullValue int32, entries []Entry) *IntMatrix {
	M := NewIntMatrix(m, n, nullValue)
	for _, e := range entries {
		M.Set(e.Row, e.Col, e.A)
		if e.B != nullValue {
			M.Add(e.Row, e.Col, e.B)
		}
	}
	return M
}

// DefaultNullValue is the default empty-value for matrices (min int32).
const DefaultNullValue = -2147483648

// M returns the row count.
func (m *IntMatrix) M() int {
	return m.rowcnt
}

// N returns the column count.
func (m *IntMatrix) N() int {
	return m.colcnt
}

// NullValue returns this matrix' null value
func (m *IntMatrix) NullValue() int32 {
	return m.nullval
}

// ValueCount returns the number of values in the matrix.
func (m *IntMatrix) ValueCount() int {
	return len(m.values)
}

// Entries returns a copy of the stored positions, in row-major order.
func (m *IntMatrix) Entries() []Entry {
	E := make([]Entry, len(m.values))
	copy(E, m.values)
	return E
}

// Each calls f for every stored position, in row-major order.
func (m *IntMatrix) Each(f func(i, j int, a, b int32)) {
	for _, e := range m.values {
		f(e.Row, e.Col, e.A, e.B)
	}
}

// search returns the index of the first entry not stored before (i,j).
func (m *IntMatrix) search(i, j int) int {
	return sort.Search(len(m.values), func(k int) bool {
		return !m.values[k].before(i, j)
	})
}

// Value returns the primary value at position (i,j), or NullValue
func (m *IntMatrix) Value(i, j int) int32 {
	a, _ := m.Values(i, j)
	return a
}

// Values returns the pair of values at position (i,j), or (NullValue, NullValue)
func (m *IntMatrix) Values(i, j int) (int32, int32) {
	k := m.search(i, j)
	if k < len(m.values) && m.values[k].Row == i && m.values[k].Col == j {
		return m.values[k].A, m.values[k].B
	}
	return m.nullval, m.nullval
}

// Set a value in the matrix at position (i,j).
func (m *IntMatrix) Set(i, j int, value int32) *IntMatrix {
	return m.setOrAdd(i, j, value, false)
}

// Add a value in the matrix at position (i,j).
func (m *IntMatrix) Add(i, j int, value int32) *IntMatrix {
	return m.setOrAdd(i, j, value, true)
}

func (m *IntMatrix) setOrAdd(i, j int, value int32, doAdd bool) *IntMatrix {
	k := m.search(i, j)
	if k < len(m.values) && m.values[k].Row == i && m.values[k].Col == j {
		e := &m.values[k]
		switch {
		case !doAdd:
			e.A, e.B = value, m.nullval
		case e.A == m.nullval:
			e.A = value
		default: // a full entry gets its second value overwritten
			e.B = value
		}
		return m
	}
	m.values = append(m.values, Entry{})
	copy(m.values[k+1:], m.values[k:])
	m.values[k] = Entry{Row: i, Col: j, A: value, B: m.nullval}
	return m
}
