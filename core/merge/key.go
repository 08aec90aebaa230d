// Package merge joins supplementary metric tables onto a wide table by the
// composite key (repository, file).
package merge

import (
	"fmt"
	"strings"

	"github.com/huangsam/corpusmetrics/schema"
)

// Key is the composite join key. Repository is "owner/repo" and File is a
// repository-relative path with a leading slash.
type Key struct {
	Repository string
	File       string
}

// String renders the key as a single corpus-relative path.
func (k Key) String() string {
	return k.Repository + k.File
}

// KeyError reports a row key that could not be parsed.
type KeyError struct {
	Path   string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Path, e.Reason)
}

// ParseKey builds a key from separate repository and file fields.
// The repository must have exactly two non-empty segments.
func ParseKey(repository, file string) (Key, error) {
	raw := strings.TrimSuffix(repository, "/") + "/" + strings.TrimLeft(file, `/\`)
	owner, repo, ok := strings.Cut(repository, "/")
	switch {
	case !ok:
		return Key{}, &KeyError{Path: raw, Reason: "repository must be owner/repo"}
	case owner == "" || repo == "":
		return Key{}, &KeyError{Path: raw, Reason: "repository has an empty segment"}
	case strings.Contains(repo, "/"):
		return Key{}, &KeyError{Path: raw, Reason: "repository has more than two segments"}
	}

	rel, err := normalizeFile(file)
	if err != nil {
		return Key{}, &KeyError{Path: raw, Reason: err.Error()}
	}
	return Key{Repository: repository, File: rel}, nil
}

// ParsePathKey splits a single "owner/repo/rel/path" field into a key.
func ParsePathKey(path string) (Key, error) {
	normalized := strings.TrimPrefix(strings.ReplaceAll(path, `\`, "/"), "/")
	parts := strings.SplitN(normalized, "/", 3)
	if len(parts) < 3 {
		return Key{}, &KeyError{Path: path, Reason: "expected owner/repo/file"}
	}
	if parts[0] == "" || parts[1] == "" {
		return Key{}, &KeyError{Path: path, Reason: "repository has an empty segment"}
	}
	rel, err := normalizeFile(parts[2])
	if err != nil {
		return Key{}, &KeyError{Path: path, Reason: err.Error()}
	}
	return Key{Repository: parts[0] + "/" + parts[1], File: rel}, nil
}

// normalizeFile converts separators to forward slashes and ensures one leading slash.
func normalizeFile(file string) (string, error) {
	rel := strings.TrimLeft(strings.ReplaceAll(file, `\`, "/"), "/")
	if rel == "" {
		return "", fmt.Errorf("empty file path")
	}
	return "/" + rel, nil
}

// keyFromRow extracts the key and the remaining fields of a row under layout.
func keyFromRow(row []string, layout schema.KeyLayout) (Key, []string, error) {
	n := layout.KeyColumns()
	if len(row) < n {
		return Key{}, nil, &KeyError{Path: strings.Join(row, ","), Reason: fmt.Sprintf("row has %d fields, key needs %d", len(row), n)}
	}
	var (
		key Key
		err error
	)
	if layout == schema.PathLayout {
		key, err = ParsePathKey(row[0])
	} else {
		key, err = ParseKey(row[0], row[1])
	}
	return key, row[n:], err
}
