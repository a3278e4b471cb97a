// Package dispatch implements the command table: the mapping from a
// tokenized request line to a keyspace call and a reply (spec.md 4.6, 6).
// Each entry declares a name, minimum arity, and a handler; Dispatch looks
// the command up case-insensitively, checks arity, and lets the handler
// translate arguments into a store.Keyspace call and the call's result into
// a wire reply via proto.Writer.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rsms/blinkdb/internal/proto"
	"github.com/rsms/blinkdb/internal/store"
)

// handlerFunc executes one command. args excludes the command name itself.
type handlerFunc func(k *store.Keyspace, w *proto.Writer, args [][]byte) error

type command struct {
	name    string
	arity   int // minimum total token count, including the command name
	handler handlerFunc
}

var table = map[string]command{}

func register(name string, arity int, h handlerFunc) {
	table[name] = command{name: name, arity: arity, handler: h}
}

func init() {
	register("PING", 1, cmdPing)
	register("SET", 3, cmdSet)
	register("GET", 2, cmdGet)
	register("DEL", 2, cmdDel)
	register("TYPE", 2, cmdType)

	register("LPUSH", 3, cmdLPush)
	register("RPUSH", 3, cmdRPush)
	register("LPOP", 2, cmdLPop)
	register("RPOP", 2, cmdRPop)
	register("LINDEX", 3, cmdLIndex)
	register("LLEN", 2, cmdLLen)
	register("LRANGE", 4, cmdLRange)

	register("SADD", 3, cmdSAdd)
	register("SISMEMBER", 3, cmdSIsMember)
	register("SREM", 3, cmdSRem)
	register("SCARD", 2, cmdSCard)
	register("SMEMBERS", 2, cmdSMembers)

	register("HSET", 4, cmdHSet)
	register("HGET", 3, cmdHGet)
	register("HEXISTS", 3, cmdHExists)
	register("HDEL", 3, cmdHDel)
	register("HLEN", 2, cmdHLen)
	register("HKEYS", 2, cmdHKeys)
	register("HVALS", 2, cmdHVals)
	register("HGETALL", 2, cmdHGetAll)

	register("INFO", 1, cmdInfo)
}

// Dispatch looks up tokens[0] as a command name and runs it against k,
// writing the reply through w. tokens must be non-empty (the frontend is
// responsible for skipping empty lines per spec.md 6). The returned error
// is always nil unless writing to w itself failed; protocol-level failures
// (unknown command, bad arity, wrong type) are written as error replies,
// not returned, matching the "no error propagates across clients" policy
// of spec.md 7.
func Dispatch(k *store.Keyspace, w *proto.Writer, tokens [][]byte) error {
	name := strings.ToUpper(string(tokens[0]))
	cmd, ok := table[name]
	if !ok {
		return w.Error(fmt.Sprintf("ERR unknown command '%s'", tokens[0]))
	}
	if len(tokens) < cmd.arity {
		return w.Error(fmt.Sprintf("ERR wrong number of arguments for '%s'", cmd.name))
	}
	return cmd.handler(k, w, tokens[1:])
}

// mapErr writes err as a wire error reply if non-nil and returns true along
// with the write's own error, so callers can
// `if bad, werr := mapErr(w, err); bad { return werr }` after every keyspace call.
func mapErr(w *proto.Writer, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if err == store.ErrWrongType {
		return true, w.Error(err.Error())
	}
	return true, w.Error("ERR " + err.Error())
}

func parseInt64(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ERR value is not an integer or out of range")
	}
	return n, nil
}

// -----------------------------------------------------------------------
// Keyspace-wide

func cmdPing(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	return w.SimpleString("PONG")
}

func cmdSet(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	k.Set(string(args[0]), args[1])
	return w.SimpleString("OK")
}

func cmdGet(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	val, found, err := k.Get(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	if !found {
		return w.NilBulk()
	}
	return w.Bulk(val)
}

func cmdDel(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	k.Del(string(args[0]))
	return w.Integer(1)
}

func cmdType(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	return w.SimpleString(k.Type(string(args[0])))
}

func cmdInfo(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	info := fmt.Sprintf(
		"keys:%d\r\ncapacity:%d\r\nfilter_bits:%d\r\nfilter_density:%.4f",
		k.Len(), k.Capacity(), k.FilterBits(), k.FilterDensity(),
	)
	return w.Bulk([]byte(info))
}

// -----------------------------------------------------------------------
// List

func cmdLPush(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	n, err := k.LPush(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(n)
}

func cmdRPush(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	n, err := k.RPush(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(n)
}

func cmdLPop(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	val, found, err := k.LPop(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	if !found {
		return w.NilBulk()
	}
	return w.Bulk(val)
}

func cmdRPop(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	val, found, err := k.RPop(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	if !found {
		return w.NilBulk()
	}
	return w.Bulk(val)
}

func cmdLIndex(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	idx, err := parseInt64(args[1])
	if err != nil {
		return w.Error(err.Error())
	}
	val, found, err := k.LIndex(string(args[0]), idx)
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	if !found {
		return w.NilBulk()
	}
	return w.Bulk(val)
}

func cmdLLen(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	n, err := k.LLen(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(n)
}

func cmdLRange(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	start, err := parseInt64(args[1])
	if err != nil {
		return w.Error(err.Error())
	}
	end, err := parseInt64(args[2])
	if err != nil {
		return w.Error(err.Error())
	}
	vals, err := k.LRange(string(args[0]), start, end)
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.BulkArray(vals)
}

// -----------------------------------------------------------------------
// Set

func cmdSAdd(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	added, err := k.SAdd(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(added))
}

func cmdSIsMember(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	isMember, err := k.SIsMember(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(isMember))
}

func cmdSRem(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	removed, err := k.SRem(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(removed))
}

func cmdSCard(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	n, err := k.SCard(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(n)
}

func cmdSMembers(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	members, err := k.SMembers(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.BulkArray(members)
}

// -----------------------------------------------------------------------
// Hash

func cmdHSet(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	isNew, err := k.HSet(string(args[0]), args[1], args[2])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(isNew))
}

func cmdHGet(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	val, found, err := k.HGet(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	if !found {
		return w.NilBulk()
	}
	return w.Bulk(val)
}

func cmdHExists(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	exists, err := k.HExists(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(exists))
}

func cmdHDel(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	removed, err := k.HDel(string(args[0]), args[1])
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(boolInt(removed))
}

func cmdHLen(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	n, err := k.HLen(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.Integer(n)
}

func cmdHKeys(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	keys, err := k.HKeys(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.BulkArray(keys)
}

func cmdHVals(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	vals, err := k.HVals(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.BulkArray(vals)
}

func cmdHGetAll(k *store.Keyspace, w *proto.Writer, args [][]byte) error {
	entries, err := k.HGetAll(string(args[0]))
	if bad, werr := mapErr(w, err); bad {
		return werr
	}
	return w.BulkArray(entries)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
