package value

import (
	"testing"

	"github.com/rsms/go-testutil"
)

func TestStringBasic(t *testing.T) {
	assert := testutil.NewAssert(t)
	v := NewString([]byte("hello"))
	assert.Eq("kind", v.Kind(), KindString)
	assert.Eq("get", v.Get(), []byte("hello"))
	v.Set([]byte("bye"))
	assert.Eq("get after set", v.Get(), []byte("bye"))
}

func TestListPushPop(t *testing.T) {
	assert := testutil.NewAssert(t)
	v := NewList()
	assert.Eq("push_back x", v.PushBack([]byte("x")), 1)
	assert.Eq("push_back y", v.PushBack([]byte("y")), 2)
	assert.Eq("push_front z", v.PushFront([]byte("z")), 3)

	b, ok := v.PopFront()
	assert.Ok("pop_front ok", ok)
	assert.Eq("pop_front value", b, []byte("z"))

	b, ok = v.PopBack()
	assert.Ok("pop_back ok", ok)
	assert.Eq("pop_back value", b, []byte("y"))

	assert.Eq("len", v.Len(), 1)
}

func TestListIndex(t *testing.T) {
	v := NewList()
	v.PushBack([]byte("a"))
	v.PushBack([]byte("b"))
	v.PushBack([]byte("c"))

	cases := []struct {
		i    int
		want string
		ok   bool
	}{
		{0, "a", true},
		{2, "c", true},
		{-1, "c", true},
		{-3, "a", true},
		{3, "", false},
		{-4, "", false},
	}
	for _, c := range cases {
		b, ok := v.Index(c.i)
		if ok != c.ok {
			t.Fatalf("Index(%d) ok=%v want %v", c.i, ok, c.ok)
		}
		if ok && string(b) != c.want {
			t.Fatalf("Index(%d) = %q want %q", c.i, b, c.want)
		}
	}
}

func TestListRange(t *testing.T) {
	v := NewList()
	for _, s := range []string{"x", "y", "z"} {
		v.PushBack([]byte(s))
	}
	full := v.Range(0, -1)
	if len(full) != 3 || string(full[0]) != "x" || string(full[2]) != "z" {
		t.Fatalf("Range(0,-1) = %v", full)
	}
	if got := v.Range(5, 10); got != nil {
		t.Fatalf("Range(5,10) = %v, want nil", got)
	}
	if got := v.Range(2, 0); got != nil {
		t.Fatalf("Range(2,0) = %v, want nil (start>end)", got)
	}
}

func TestSetDedup(t *testing.T) {
	assert := testutil.NewAssert(t)
	v := NewSet()
	assert.Ok("first add", v.Add([]byte("a")))
	assert.Ok("second add is not new", !v.Add([]byte("a")))
	assert.Ok("contains", v.Contains([]byte("a")))
	assert.Ok("remove", v.Remove([]byte("a")))
	assert.Eq("card", v.Card(), 0)
	assert.Ok("is empty", v.IsEmpty())
}

func TestHashIdempotentSet(t *testing.T) {
	assert := testutil.NewAssert(t)
	v := NewHash()
	assert.Ok("first set is new", v.HSet([]byte("name"), []byte("alice")))
	assert.Ok("same value re-set is not new", !v.HSet([]byte("name"), []byte("alice")))
	assert.Eq("len unchanged", v.HLen(), 1)
	val, ok := v.HGet([]byte("name"))
	assert.Ok("hget ok", ok)
	assert.Eq("hget value", val, []byte("alice"))
}

func TestCodecRoundTrip(t *testing.T) {
	assert := testutil.NewAssert(t)

	s := NewString([]byte("hello, world"))
	s2, err := Decode(s.Tag(), s.Encode())
	if err != nil {
		t.Fatal(err)
	}
	assert.Eq("string round-trip", s2.Get(), s.Get())

	l := NewList()
	l.PushBack([]byte("a,b"))
	l.PushBack([]byte("c:d"))
	l2, err := Decode(l.Tag(), l.Encode())
	if err != nil {
		t.Fatal(err)
	}
	assert.Eq("list round-trip", l2.Range(0, -1), l.Range(0, -1))

	h := NewHash()
	h.HSet([]byte("f1"), []byte("v1"))
	h.HSet([]byte("f2"), []byte("v2"))
	h2, err := Decode(h.Tag(), h.Encode())
	if err != nil {
		t.Fatal(err)
	}
	assert.Eq("hash round-trip len", h2.HLen(), h.HLen())
	v1, ok := h2.HGet([]byte("f1"))
	assert.Ok("hget f1 ok", ok)
	assert.Eq("hget f1 value", v1, []byte("v1"))
}
