package sparse

import "testing"

func TestIntMatrix(t *testing.T) {
	M := NewIntMatrix(10, 10, -1)
	M.Set(2, 3, 4711)
	M.Set(0, 9, 1)
	M.Set(2, 1, 7)
	if v := M.Value(2, 3); v != 4711 {
		t.Errorf("expected (2,3) = 4711, is %d", v)
	}
	M.Add(2, 3, 123)
	if a, b := M.Values(2, 3); a != 4711 || b != 123 {
		t.Errorf("expected (2,3) = [4711,123], is [%d,%d]", a, b)
	}
	if M.ValueCount() != 3 {
		t.Errorf("expected 3 positions set, have %d", M.ValueCount())
	}
	if v := M.Value(9, 9); v != -1 {
		t.Errorf("expected null value for (9,9), is %d", v)
	}
	E := M.Entries()
	if E[0].Row != 0 || E[1].Col != 1 || E[2].Col != 3 {
		t.Errorf("entries should be in row-major order: %v", E)
	}
}

func TestFromEntries(t *testing.T) {
	M := NewIntMatrix(5, 5, DefaultNullValue)
	M.Set(1, 1, 11).Set(4, 0, 40).Add(4, 0, 41)
	N := FromEntries(M.M(), M.N(), M.NullValue(), M.Entries())
	n := 0
	N.Each(func(i, j int, a, b int32) {
		n++
		if x, y := M.Values(i, j); x != a || y != b {
			t.Errorf("(%d,%d) differs: [%d,%d] vs [%d,%d]", i, j, a, b, x, y)
		}
	})
	if n != 2 {
		t.Errorf("expected 2 entries, have %d", n)
	}
}
