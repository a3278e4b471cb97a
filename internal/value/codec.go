package value

import (
	"bytes"
	"fmt"
	"strconv"
)

// On-disk variant tags (spec.md 4.5). The set tag is 'E', not 'S', to avoid
// colliding with the string tag.
const (
	TagString byte = 'S'
	TagList   byte = 'L'
	TagSet    byte = 'E'
	TagHash   byte = 'H'
)

// Tag returns the on-disk variant tag for v.
func (v *Value) Tag() byte {
	switch v.kind {
	case KindString:
		return TagString
	case KindList:
		return TagList
	case KindSet:
		return TagSet
	case KindHash:
		return TagHash
	default:
		panic("value: unknown kind")
	}
}

// Encode renders v's body per its variant's self-describing grammar. The tag
// byte itself is not included; callers pair Encode's output with Tag().
func (v *Value) Encode() []byte {
	switch v.kind {
	case KindString:
		return v.str
	case KindList:
		buf := make([]byte, 0, 32)
		for e := v.list.Front(); e != nil; e = e.Next() {
			buf = appendLenPrefixed(buf, e.Value.([]byte))
		}
		return buf
	case KindSet:
		buf := make([]byte, 0, 32)
		for m := range v.set {
			buf = appendLenPrefixed(buf, []byte(m))
		}
		return buf
	case KindHash:
		buf := make([]byte, 0, 32)
		for f, val := range v.hash {
			buf = appendLenPrefixed(buf, []byte(f))
			buf = appendLenPrefixed(buf, val)
		}
		return buf
	default:
		panic("value: unknown kind")
	}
}

// appendLenPrefixed appends "<decimal-len>:<bytes>," to buf.
func appendLenPrefixed(buf, b []byte) []byte {
	buf = strconv.AppendInt(buf, int64(len(b)), 10)
	buf = append(buf, ':')
	buf = append(buf, b...)
	buf = append(buf, ',')
	return buf
}

// Decode parses a persisted record body for the variant identified by tag.
func Decode(tag byte, body []byte) (*Value, error) {
	switch tag {
	case TagString:
		cp := make([]byte, len(body))
		copy(cp, body)
		return NewString(cp), nil
	case TagList:
		elems, err := decodeChunks(body)
		if err != nil {
			return nil, fmt.Errorf("value: decode list: %w", err)
		}
		v := NewList()
		for _, e := range elems {
			v.list.PushBack(e)
		}
		return v, nil
	case TagSet:
		elems, err := decodeChunks(body)
		if err != nil {
			return nil, fmt.Errorf("value: decode set: %w", err)
		}
		v := NewSet()
		for _, e := range elems {
			v.set[string(e)] = struct{}{}
		}
		return v, nil
	case TagHash:
		elems, err := decodeChunks(body)
		if err != nil {
			return nil, fmt.Errorf("value: decode hash: %w", err)
		}
		if len(elems)%2 != 0 {
			return nil, fmt.Errorf("value: decode hash: odd chunk count")
		}
		v := NewHash()
		for i := 0; i < len(elems); i += 2 {
			v.hash[string(elems[i])] = elems[i+1]
		}
		return v, nil
	default:
		return nil, fmt.Errorf("value: unknown tag %q", tag)
	}
}

// decodeChunks parses a sequence of "<decimal-len>:<bytes>," chunks.
func decodeChunks(body []byte) ([][]byte, error) {
	var out [][]byte
	i := 0
	for i < len(body) {
		colon := bytes.IndexByte(body[i:], ':')
		if colon < 0 {
			return nil, fmt.Errorf("missing ':' at offset %d", i)
		}
		n, err := strconv.Atoi(string(body[i : i+colon]))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad length at offset %d: %w", i, err)
		}
		start := i + colon + 1
		end := start + n
		if end > len(body) {
			return nil, fmt.Errorf("chunk length %d overruns body", n)
		}
		chunk := make([]byte, n)
		copy(chunk, body[start:end])
		out = append(out, chunk)
		if end >= len(body) || body[end] != ',' {
			return nil, fmt.Errorf("missing ',' terminator at offset %d", end)
		}
		i = end + 1
	}
	return out, nil
}
