package shopping

import (
	"fmt"
	"regexp"
	"strings"
)

// StapleMatcher tells whether an ingredient is a pantry staple.
// Each staple is a pattern matched case-insensitively on whole words.
type StapleMatcher struct {
	patterns []*regexp.Regexp
}

// NewStapleMatcher compiles staples. Blank entries and patterns that do not
// compile are dropped, so they never match anything.
func NewStapleMatcher(staples []string) StapleMatcher {
	var m StapleMatcher
	for _, s := range staples {
		re, err := compileStaple(s)
		if err != nil || re == nil {
			continue
		}
		m.patterns = append(m.patterns, re)
	}
	return m
}

// Match reports whether name contains any staple as a whole word.
func (m StapleMatcher) Match(name string) bool {
	for _, re := range m.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// ValidateStaple reports whether a staple pattern is usable.
func ValidateStaple(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: blank pattern", ErrInvalidStaple)
	}
	if _, err := compileStaple(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStaple, err)
	}
	return nil
}

func compileStaple(s string) (*regexp.Regexp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(?:` + s + `)\b`)
}
