package dispatch

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/rsms/blinkdb/internal/proto"
	"github.com/rsms/blinkdb/internal/store"
)

func run(t *testing.T, k *store.Keyspace, tokens ...string) string {
	t.Helper()
	var buf bytes.Buffer
	w := proto.NewWriter(bufio.NewWriter(&buf))
	raw := make([][]byte, len(tokens))
	for i, tok := range tokens {
		raw[i] = []byte(tok)
	}
	if err := Dispatch(k, w, raw); err != nil {
		t.Fatalf("Dispatch(%v): %v", tokens, err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestStringScenario(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "SET", "greet", "hello"); got != "+OK\r\n" {
		t.Fatalf("SET = %q", got)
	}
	if got := run(t, k, "GET", "greet"); got != "$5\r\nhello\r\n" {
		t.Fatalf("GET = %q", got)
	}
	if got := run(t, k, "DEL", "greet"); got != ":1\r\n" {
		t.Fatalf("DEL = %q", got)
	}
	if got := run(t, k, "GET", "greet"); got != "$-1\r\n" {
		t.Fatalf("GET after DEL = %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	got := run(t, k, "FROB", "x")
	want := "-ERR unknown command 'FROB'\r\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestArityViolation(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	got := run(t, k, "SET", "onlykey")
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected an error reply, got %q", got)
	}
}

func TestWrongTypeWireReply(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	run(t, k, "SET", "k", "x")
	got := run(t, k, "LPUSH", "k", "y")
	want := "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestListScenario(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "RPUSH", "l", "a"); got != ":1\r\n" {
		t.Fatalf("RPUSH a = %q", got)
	}
	if got := run(t, k, "RPUSH", "l", "b"); got != ":2\r\n" {
		t.Fatalf("RPUSH b = %q", got)
	}
	if got := run(t, k, "LRANGE", "l", "0", "-1"); got != "*2\r\n$1\r\na\r\n$1\r\nb\r\n" {
		t.Fatalf("LRANGE = %q", got)
	}
}

func TestSetIdempotenceScenario(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "SADD", "s", "v"); got != ":1\r\n" {
		t.Fatalf("first SADD = %q", got)
	}
	if got := run(t, k, "SADD", "s", "v"); got != ":0\r\n" {
		t.Fatalf("second SADD = %q", got)
	}
	if got := run(t, k, "SISMEMBER", "s", "v"); got != ":1\r\n" {
		t.Fatalf("SISMEMBER = %q", got)
	}
	if got := run(t, k, "SREM", "s", "v"); got != ":1\r\n" {
		t.Fatalf("SREM = %q", got)
	}
	if got := run(t, k, "SCARD", "s"); got != ":0\r\n" {
		t.Fatalf("SCARD after last removal = %q", got)
	}
	if got := run(t, k, "TYPE", "s"); got != "+none\r\n" {
		t.Fatalf("TYPE after last removal = %q", got)
	}
}

func TestHashIdempotenceScenario(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "HSET", "h", "f", "v"); got != ":1\r\n" {
		t.Fatalf("first HSET = %q", got)
	}
	if got := run(t, k, "HSET", "h", "f", "v"); got != ":0\r\n" {
		t.Fatalf("re-HSET same value = %q", got)
	}
	if got := run(t, k, "HLEN", "h"); got != ":1\r\n" {
		t.Fatalf("HLEN = %q", got)
	}
}

func TestPing(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "PING"); got != "+PONG\r\n" {
		t.Fatalf("PING = %q", got)
	}
}

func TestMissingKeyReplies(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "LLEN", "absent"); got != ":0\r\n" {
		t.Fatalf("LLEN absent = %q", got)
	}
	if got := run(t, k, "SMEMBERS", "absent"); got != "*0\r\n" {
		t.Fatalf("SMEMBERS absent = %q", got)
	}
	if got := run(t, k, "HGETALL", "absent"); got != "*0\r\n" {
		t.Fatalf("HGETALL absent = %q", got)
	}
}

func TestCaseInsensitiveCommandName(t *testing.T) {
	k := store.New(100, 1<<16, nil)
	if got := run(t, k, "set", "k", "v"); got != "+OK\r\n" {
		t.Fatalf("lowercase set = %q", got)
	}
	if got := run(t, k, "GeT", "k"); got != "$1\r\nv\r\n" {
		t.Fatalf("mixed-case get = %q", got)
	}
}
