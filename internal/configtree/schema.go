package configtree

import (
	"regexp"
	"strings"
)

// StarterPattern is a single anchored, case-insensitive, whole-line prefix
// matcher naming a keyword family that opens a nested block.
type StarterPattern struct {
	// Name documents which keyword family the pattern covers, e.g.
	// "interface". Not used for matching, only for diagnostics (the --ast
	// dump shows the forest, not the schema).
	Name string
	match func(sanitizedLine string) bool
}

// newStarter compiles an anchored, case-insensitive whole-line prefix
// pattern. Every pattern is anchored at the start and its quantifiers apply
// to disjoint character classes (\s+, \S+), so no pattern here can exhibit
// catastrophic backtracking (spec §4.2, "Implementation note").
func newStarter(name, pattern string) StarterPattern {
	re := regexp.MustCompile(`(?i)^` + pattern)
	return StarterPattern{Name: name, match: re.MatchString}
}

// newStarterExcluding is like newStarter but additionally rejects lines
// whose second whitespace-delimited token equals one of excluded
// (case-insensitive). spec §4.2 names the family `^router (?!router-id)\S+`
// using a negative lookahead; Go's regexp package is RE2-based and does not
// support lookahead, so the exclusion is expressed as a plain token check
// instead of a regex feature (see DESIGN.md).
func newStarterExcluding(name, pattern string, excluded ...string) StarterPattern {
	re := regexp.MustCompile(`(?i)^` + pattern)
	excludeSet := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		excludeSet[strings.ToLower(e)] = true
	}
	return StarterPattern{
		Name: name,
		match: func(line string) bool {
			if !re.MatchString(line) {
				return false
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return true
			}
			return !excludeSet[strings.ToLower(fields[1])]
		},
	}
}

// Schema is the closed, ordered collection of Block-Starter patterns
// consulted by the parser. It is pure data, not behavior (spec §2, row 2).
type Schema struct {
	patterns []StarterPattern
}

// DefaultSchema returns the illustrative, closed Block-Starter Schema named
// in spec §4.2. The set is enumerated at build time; there is no runtime
// extension of DefaultSchema itself — callers that need to extend the set
// build their own Schema via NewSchema/Extend (spec §6).
func DefaultSchema() *Schema {
	return NewSchema([]StarterPattern{
		newStarter("interface", `interface \S+`),
		newStarterExcluding("router", `router \S+`, "router-id"),
		newStarter("vlan", `vlan \d+`),
		newStarter("line", `line (?:vty|console|aux) \S+`),
		newStarter("ip-access-list", `ip access-list \S+`),
		newStarter("class-map", `class-map \S+`),
		newStarter("policy-map", `policy-map \S+`),
		newStarter("object-group", `object-group \S+`),
		newStarter("route-map", `route-map \S+`),
		newStarter("crypto", `crypto (?:map|isakmp|ipsec) \S+`),
		newStarter("dial-peer-voice", `dial-peer voice \S+`),
		newStarter("vrf-definition", `vrf definition \S+`),
		newStarter("banner", `banner (?:motd|login|exec)`),
		newStarter("control-plane", `control-plane`),
	})
}

// NewSchema builds a Schema from an explicit, ordered pattern list.
func NewSchema(patterns []StarterPattern) *Schema {
	cp := make([]StarterPattern, len(patterns))
	copy(cp, patterns)
	return &Schema{patterns: cp}
}

// Extend returns a new Schema with extra patterns appended after the
// receiver's own patterns. Extend always returns a fresh Schema rather than
// mutating the receiver, so a parse already running with the original
// Schema is unaffected; to use the extra patterns, pass the returned Schema
// to Parse via ParseOptions.Schema.
func (s *Schema) Extend(extra []StarterPattern) *Schema {
	combined := make([]StarterPattern, 0, len(s.patterns)+len(extra))
	combined = append(combined, s.patterns...)
	combined = append(combined, extra...)
	return NewSchema(combined)
}

// NewRegexStarter builds a StarterPattern from a raw, anchored,
// case-insensitive regular expression fragment (matched against the start
// of the sanitized line) for use with Extend. The fragment must not itself
// include the leading `^`.
func NewRegexStarter(name, pattern string) StarterPattern {
	return newStarter(name, pattern)
}

// IsBlockStarter reports whether any pattern in the schema matches the
// start of the sanitized line.
func (s *Schema) IsBlockStarter(sanitizedLine string) bool {
	for _, p := range s.patterns {
		if p.match(sanitizedLine) {
			return true
		}
	}
	return false
}

// Patterns returns the schema's patterns in order, for diagnostics.
func (s *Schema) Patterns() []StarterPattern {
	cp := make([]StarterPattern, len(s.patterns))
	copy(cp, s.patterns)
	return cp
}
