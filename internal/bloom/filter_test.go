package bloom

import "testing"

func TestAddThenMaybePresent(t *testing.T) {
	f := New(1024)
	if f.MaybePresent([]byte("nope")) {
		t.Fatal("empty filter should report nothing present")
	}
	f.Add([]byte("hello"))
	if !f.MaybePresent([]byte("hello")) {
		t.Fatal("MaybePresent false for a key that was Added")
	}
}

func TestDefiniteAbsenceIsReliable(t *testing.T) {
	f := New(4096)
	keys := []string{"a", "b", "c", "foo", "bar"}
	for _, k := range keys {
		f.Add([]byte(k))
	}
	for _, k := range keys {
		if !f.MaybePresent([]byte(k)) {
			t.Fatalf("MaybePresent(%q) = false after Add", k)
		}
	}
}

func TestNeverCleared(t *testing.T) {
	f := New(64)
	f.Add([]byte("x"))
	// Adding other keys must never unset x's bit.
	for i := 0; i < 100; i++ {
		f.Add([]byte{byte(i)})
	}
	if !f.MaybePresent([]byte("x")) {
		t.Fatal("bit for x was cleared, filter must be additive-only")
	}
}

func TestDensity(t *testing.T) {
	f := New(64)
	if d := f.Density(); d != 0 {
		t.Fatalf("Density() on empty filter = %f, want 0", d)
	}
	f.Add([]byte("a"))
	if d := f.Density(); d <= 0 || d > 1 {
		t.Fatalf("Density() after one add = %f, want in (0,1]", d)
	}
}

func TestZeroWidthRoundsUpToOne(t *testing.T) {
	f := New(0)
	if f.Bits() != 1 {
		t.Fatalf("Bits() = %d, want 1", f.Bits())
	}
}
