// Package jsondoc reads the single-document JSON exports produced by web chat
// providers: it locates the export file, peeks at it cheaply for detection,
// and streams its top-level array one element at a time.
package jsondoc

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// PeekSize bounds the bytes read by detection.
const PeekSize = 256 * 1024

// Resolve returns the export file for root: root itself when it is a file
// named name, or root/name when root is a directory containing it.
func Resolve(root, name string) (string, bool) {
	info, err := os.Stat(root)
	if err != nil {
		return "", false
	}
	if !info.IsDir() {
		return root, filepath.Base(root) == name
	}
	path := filepath.Join(root, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Sibling returns the path of name next to the export file at path, if it
// exists.
func Sibling(path, name string) (string, bool) {
	p := filepath.Join(filepath.Dir(path), name)
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

// Peek reads at most PeekSize bytes from the start of path.
func Peek(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, PeekSize))
}

// FirstHas reports whether the first element of the array stored at path has
// key. Only the leading PeekSize bytes are inspected, so a truncated first
// element still answers as long as the key appears early enough.
func FirstHas(path, key string) bool {
	head, err := Peek(path)
	if err != nil {
		return false
	}
	return gjson.GetBytes(head, "0."+key).Exists()
}

// Elements streams the elements of the top-level JSON array in path, decoding
// one per pull. A syntax error ends the stream; it is reported through errp
// when errp is non-nil.
func Elements(path string, errp *error) iter.Seq[json.RawMessage] {
	return func(yield func(json.RawMessage) bool) {
		setErr := func(err error) {
			if errp != nil {
				*errp = err
			}
		}

		f, err := os.Open(path)
		if err != nil {
			setErr(err)
			return
		}
		defer f.Close()

		dec := json.NewDecoder(f)
		tok, err := dec.Token()
		if err != nil {
			setErr(fmt.Errorf("read %s: %w", path, err))
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			setErr(fmt.Errorf("read %s: top-level value is not an array", path))
			return
		}
		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				setErr(fmt.Errorf("read %s: %w", path, err))
				return
			}
			if !yield(raw) {
				return
			}
		}
	}
}
