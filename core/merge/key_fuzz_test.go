package merge

import (
	"strings"
	"testing"
)

// FuzzParsePathKey checks that parsed keys are well-formed and stable.
func FuzzParsePathKey(f *testing.F) {
	seeds := []string{
		"acme/widget/src/A.src",
		"/acme/widget/src/sub/B.src",
		`acme\widget\x`,
		"acme//x",
		"",
		"a/b/",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, path string) {
		key, err := ParsePathKey(path)
		if err != nil {
			return
		}
		owner, repo, ok := strings.Cut(key.Repository, "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			t.Fatalf("malformed repository %q from %q", key.Repository, path)
		}
		if !strings.HasPrefix(key.File, "/") || strings.HasPrefix(key.File, "//") {
			t.Fatalf("malformed file %q from %q", key.File, path)
		}

		again, err := ParsePathKey(key.String())
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", key.String(), err)
		}
		if again != key {
			t.Fatalf("reparse changed key: %v != %v", again, key)
		}
	})
}
