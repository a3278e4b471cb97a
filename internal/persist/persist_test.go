package persist

import (
	"path/filepath"
	"testing"

	"github.com/rsms/blinkdb/internal/store"
)

func TestLoadMissingFileLeavesEmptyStore(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	Load(filepath.Join(t.TempDir(), "nope.txt"), k, nil)
	if k.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", k.Len())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.txt")

	k := store.New(100, 1<<16, nil)
	k.Set("greet", []byte("hello"))
	if _, err := k.RPush("list", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := k.RPush("list", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := k.SAdd("set", []byte("m1")); err != nil {
		t.Fatal(err)
	}
	if _, err := k.HSet("hash", []byte("f"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	if err := Save(path, k, nil); err != nil {
		t.Fatal(err)
	}

	k2 := store.New(100, 1<<16, nil)
	Load(path, k2, nil)

	if k2.Len() != 4 {
		t.Fatalf("Len() after reload = %d, want 4", k2.Len())
	}
	if v, found, _ := k2.Get("greet"); !found || string(v) != "hello" {
		t.Fatalf("Get(greet) = %q, %v", v, found)
	}
	vals, err := k2.LRange("list", 0, -1)
	if err != nil || len(vals) != 2 || string(vals[0]) != "a" || string(vals[1]) != "b" {
		t.Fatalf("LRange(list) = %v, %v", vals, err)
	}
	if ok, _ := k2.SIsMember("set", []byte("m1")); !ok {
		t.Fatal("SIsMember(set, m1) = false after reload")
	}
	if v, found, _ := k2.HGet("hash", []byte("f")); !found || string(v) != "v" {
		t.Fatalf("HGet(hash, f) = %q, %v", v, found)
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte("X"),
		[]byte("S"),
		[]byte("Skey"),
		[]byte("Q key body"), // unknown tag
	}
	for _, c := range cases {
		if _, _, err := parseLine(c); err == nil {
			t.Fatalf("parseLine(%q) expected error, got nil", c)
		}
	}
}
