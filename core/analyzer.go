package core

import (
	"errors"
	"regexp"
	"strings"
)

// Analyzer turns the content of one file into a metric value.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(content string) (float64, error)
}

// AnalyzerFunc adapts a plain function to the Analyzer interface.
type AnalyzerFunc func(content string) (float64, error)

// Analyze implements the Analyzer interface.
func (f AnalyzerFunc) Analyze(content string) (float64, error) {
	return f(content)
}

// KeywordCounter counts whole-word occurrences of a keyword.
// It also matches identifiers inside string literals unless they are stripped first.
type KeywordCounter struct {
	pattern       *regexp.Regexp
	stripComments bool
}

var _ Analyzer = &KeywordCounter{} // Compile-time check

// NewKeywordCounter builds a counter for keyword. With stripComments, line and
// block comments are removed before counting.
func NewKeywordCounter(keyword string, stripComments bool) (*KeywordCounter, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.New("keyword must not be empty")
	}
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return nil, err
	}
	return &KeywordCounter{pattern: pattern, stripComments: stripComments}, nil
}

// Analyze implements the Analyzer interface.
func (k *KeywordCounter) Analyze(content string) (float64, error) {
	if k.stripComments {
		content = StripComments(content)
	}
	return float64(len(k.pattern.FindAllStringIndex(content, -1))), nil
}

// StripComments removes // line comments and /* */ block comments from C-family
// source. String and character literals are kept intact, and each removed comment
// leaves its newlines behind so tokens on either side stay apart.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	const (
		code = iota
		lineComment
		blockComment
		quoted
	)
	state := code
	var quote byte

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case code:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = lineComment
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = blockComment
				b.WriteByte(' ')
				i++
			case c == '"' || c == '\'':
				state, quote = quoted, c
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case lineComment:
			if c == '\n' {
				state = code
				b.WriteByte(c)
			}
		case blockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = code
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			}
		case quoted:
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				b.WriteByte(src[i])
			case c == quote, c == '\n':
				state = code
			}
		}
	}
	return b.String()
}
