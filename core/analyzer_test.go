package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordCounter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		strip   bool
		want    float64
	}{
		{"empty", "", false, 0},
		{"whole words only", "if (x == null) return nullable; nullify(null);", false, 2},
		{"comments counted by default", "a = null; // null\n/* null */", false, 3},
		{"line comment stripped", "a = null; // null\nb = null;", true, 2},
		{"block comment stripped", "a = /* null\nnull */ null;", true, 1},
		{"string literal kept", `s = "// null"; t = null;`, true, 2},
		{"escaped quote in literal", `s = "\" // null"; // null`, true, 1},
		{"char literal kept", `c = '/'; d = null; // null`, true, 1},
		{"unterminated block", "null /* null", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := NewKeywordCounter("null", tt.strip)
			require.NoError(t, err)
			got, err := counter.Analyze(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordCounterQuotesKeyword(t *testing.T) {
	counter, err := NewKeywordCounter("a.b", false)
	require.NoError(t, err)
	got, err := counter.Analyze("a.b axb a.b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestKeywordCounterEmptyKeyword(t *testing.T) {
	_, err := NewKeywordCounter("  ", false)
	assert.Error(t, err)
}

func TestStripCommentsKeepsLines(t *testing.T) {
	src := "a /* one\ntwo */ b // tail\nc"
	assert.Equal(t, "a  \n b \nc", StripComments(src))
}

func TestAnalyzerFunc(t *testing.T) {
	boom := errors.New("boom")
	var a Analyzer = AnalyzerFunc(func(content string) (float64, error) {
		if content == "bad" {
			return 0, boom
		}
		return float64(len(content)), nil
	})

	v, err := a.Analyze("abcd")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	_, err = a.Analyze("bad")
	assert.ErrorIs(t, err, boom)
}
