package engine

import (
	"fmt"
	"strings"

	"github.com/gyeh/claimengine/internal/normalize"
)

// Pattern is an ICD-10 pattern: an exact code, or a prefix followed by a
// single trailing '*' that matches any suffix.
type Pattern struct {
	raw      string
	prefix   string
	wildcard bool
}

// CompilePattern parses a pattern. A '*' anywhere but the last position is
// rejected.
func CompilePattern(s string) (Pattern, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	star := strings.IndexByte(raw, '*')
	switch {
	case star < 0:
		return Pattern{raw: raw, prefix: normalize.ICD10(raw)}, nil
	case star != len(raw)-1:
		return Pattern{}, fmt.Errorf("pattern %q: '*' is only allowed as the final character", raw)
	}
	return Pattern{raw: raw, prefix: normalize.ICD10(raw[:star]), wildcard: true}, nil
}

// Match reports whether the diagnosis code matches. code is normalized first.
func (p Pattern) Match(code string) bool {
	c := normalize.ICD10(code)
	if c == "" {
		return false
	}
	if p.wildcard {
		return strings.HasPrefix(c, p.prefix)
	}
	return c == p.prefix
}

func (p Pattern) String() string {
	return p.raw
}
