package engine

import (
	"log/slog"
	"regexp"
)

// Rule is one compiled entry from the configured regex list.
type Rule struct {
	Pattern string
	re      *regexp.Regexp
}

// Matches reports whether the rule matches the given console line.
func (r *Rule) Matches(line string) bool {
	return r.re.MatchString(line)
}

// Matcher scans console output against an ordered regex list. Order is
// significant: the first rule that matches wins.
type Matcher struct {
	rules []Rule
}

// NewMatcher compiles the configured patterns in order. A pattern that
// fails to compile is skipped with a warning rather than disabling the
// remaining rules; the config loader rejects such patterns up front, so
// this only happens for configs written behind its back.
func NewMatcher(patterns []string, logger *slog.Logger) *Matcher {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("skipping regex rule that does not compile", "pattern", p, "error", err)
			continue
		}
		rules = append(rules, Rule{Pattern: p, re: re})
	}
	return &Matcher{rules: rules}
}

// Find returns the first rule, in configured order, that matches any line
// of the console output. Returns nil when nothing matches, the rule list
// is empty, or the console output is empty.
func (m *Matcher) Find(console []string) *Rule {
	if len(m.rules) == 0 || len(console) == 0 {
		return nil
	}
	for i := range m.rules {
		rule := &m.rules[i]
		for _, line := range console {
			if rule.Matches(line) {
				return rule
			}
		}
	}
	return nil
}
