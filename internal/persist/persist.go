// Package persist implements the keyspace's on-disk snapshot: a full dump,
// not a log, written on clean shutdown and read back on start (spec.md 4.5).
// File access is guarded by an advisory lock from github.com/gofrs/flock so
// that two blinkdb processes never interleave writes to the same path,
// mirroring the "owned exclusively by the process" resource note in
// spec.md 5.
package persist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/rsms/blinkdb/internal/store"
	"github.com/rsms/blinkdb/internal/value"
	log "github.com/rsms/go-log"
)

// Load reads path into k. A missing file is not an error: the keyspace
// starts empty, matching "on start, read the persistence file if present."
// Malformed lines are skipped with a warning rather than aborting the load,
// and a read failure is reported and swallowed (IoFailure, spec.md 7):
// the caller always gets back a usable, possibly-empty keyspace.
func Load(path string, k *store.Keyspace, logger *log.Logger) {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		if logger != nil {
			logger.Warn("persist: could not lock %s: %v", path, err)
		}
		return
	}
	defer fl.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Warn("persist: open %s: %v", path, err)
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	lineNo := 0
	loaded := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		key, v, err := parseLine(line)
		if err != nil {
			if logger != nil {
				logger.Warn("persist: skipping malformed line %d in %s: %v", lineNo, path, err)
			}
			continue
		}
		k.LoadRecord(key, v)
		loaded++
	}
	if err := scanner.Err(); err != nil && logger != nil {
		logger.Warn("persist: reading %s: %v", path, err)
	}
	if logger != nil {
		logger.Info("persist: loaded %d keys from %s", loaded, path)
	}
}

// parseLine parses a single "<tag> <key> <body>" record. Fields are
// separated by a single space; the body runs to end of line and is handed
// to value.Decode uninterpreted, since bodies may themselves contain
// spaces (list/set/hash chunks) or arbitrary bytes (string bodies).
func parseLine(line []byte) (key string, v *value.Value, err error) {
	if len(line) < 3 || line[1] != ' ' {
		return "", nil, fmt.Errorf("malformed record header")
	}
	tag := line[0]
	rest := line[2:]
	sp := bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return "", nil, fmt.Errorf("missing body separator")
	}
	key = string(rest[:sp])
	body := rest[sp+1:]
	v, err = value.Decode(tag, body)
	if err != nil {
		return "", nil, err
	}
	return key, v, nil
}

// Save writes every live key in k to path in the spec.md 4.5 grammar,
// overwriting any existing file. The write goes to a temp file in the same
// directory followed by an atomic rename, so a crash mid-write never
// corrupts the previous snapshot -- the file a concurrent Load sees is
// always either the old one or the new one, never a partial write.
func Save(path string, k *store.Keyspace, logger *log.Logger) error {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		if logger != nil {
			logger.Warn("persist: could not lock %s: %v", path, err)
		}
		return err
	}
	defer fl.Unlock()

	tmp, err := os.CreateTemp(dirOf(path), "blinkdb-snapshot-*.tmp")
	if err != nil {
		if logger != nil {
			logger.Warn("persist: create temp file for %s: %v", path, err)
		}
		return err
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	records := k.Snapshot()
	for _, r := range records {
		if err := writeRecord(w, r); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			if logger != nil {
				logger.Warn("persist: writing %s: %v", path, err)
			}
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		if logger != nil {
			logger.Warn("persist: flushing %s: %v", path, err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		if logger != nil {
			logger.Warn("persist: closing %s: %v", path, err)
		}
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		if logger != nil {
			logger.Warn("persist: renaming into %s: %v", path, err)
		}
		return err
	}
	if logger != nil {
		logger.Info("persist: saved %d keys to %s", len(records), path)
	}
	return nil
}

func writeRecord(w io.Writer, r store.Record) error {
	if _, err := fmt.Fprintf(w, "%c %s ", r.Tag, r.Key); err != nil {
		return err
	}
	if _, err := w.Write(r.Body); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
