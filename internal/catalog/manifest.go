// Package catalog loads rule manifests from YAML and builds them into
// internal/rules.Rule values. It provides four built-in rule kinds (see
// BuiltinKinds) suited to plaintext-secret detection, insecure-protocol/
// telnet detection, and duplicate-name cross-reference checks; it ships no
// rule manifests of its own.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/rules"
)

// Manifest is the on-disk YAML shape of one rule. Kind selects which
// built-in check implementation Build uses; Params carries kind-specific
// configuration.
type Manifest struct {
	ID          string            `yaml:"id" validate:"required"`
	Selector    string            `yaml:"selector"`
	Level       string            `yaml:"level" validate:"required,oneof=error warning info"`
	OBU         string            `yaml:"obu"`
	Owner       string            `yaml:"owner" validate:"required"`
	Remediation string            `yaml:"remediation"`
	Kind        string            `yaml:"kind" validate:"required,oneof=forbidden-keyword regex-reject require-child duplicate-sibling-param"`
	Params      map[string]string `yaml:"params"`
}

// File is the top-level shape of one manifest file: a document containing
// a list of rules.
type File struct {
	Rules []Manifest `yaml:"rules"`
}

var validate = validator.New()

// LoadFile parses and validates one YAML manifest file.
func LoadFile(path string) ([]Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	for i, m := range f.Rules {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("manifest %s, rule %d (%s): %w", path, i, m.ID, err)
		}
	}
	return f.Rules, nil
}

// LoadDir loads every *.yaml/*.yml file directly under dir, in
// lexicographic filename order, and concatenates their rules. Duplicate
// ids are kept as separate entries here; a rule id defined in a later file
// overrides one with the same id from an earlier file when the result is
// passed to Build, which applies last-id-wins.
func LoadDir(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []Manifest
	for _, name := range names {
		ms, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, ms...)
	}
	return all, nil
}

// Build compiles manifests into rules.Rule values, using BuiltinKinds to
// resolve each manifest's Kind into a rules.CheckFunc. A later manifest
// with an id matching an earlier one replaces it, preserving the earlier
// one's position in the returned slice.
func Build(manifests []Manifest) ([]rules.Rule, error) {
	order := make([]string, 0, len(manifests))
	byID := make(map[string]rules.Rule, len(manifests))

	for _, m := range manifests {
		kind, ok := BuiltinKinds[m.Kind]
		if !ok {
			return nil, fmt.Errorf("rule %s: unknown kind %q", m.ID, m.Kind)
		}
		check, err := kind(m.Params)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", m.ID, err)
		}
		level := rules.Level(m.Level)
		check = stampMetadata(m.ID, level, m.Remediation, check)

		if _, exists := byID[m.ID]; !exists {
			order = append(order, m.ID)
		}
		byID[m.ID] = rules.Rule{
			ID:       m.ID,
			Selector: m.Selector,
			Metadata: rules.Metadata{
				Level:       level,
				OBU:         m.OBU,
				Owner:       m.Owner,
				Remediation: m.Remediation,
			},
			Check: check,
		}
	}

	out := make([]rules.Rule, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

// stampMetadata wraps check so the RuleID of its result is always set from
// the manifest, and on failure its Level and Remediation are filled from the
// manifest when the check left them empty, since the builtin kind functions
// don't know their own rule id.
func stampMetadata(ruleID string, level rules.Level, remediation string, check rules.CheckFunc) rules.CheckFunc {
	return func(n *configtree.ConfigNode, ctx rules.Context) rules.RuleResult {
		result := check(n, ctx)
		result.RuleID = ruleID
		if !result.Passed {
			if result.Level == "" {
				result.Level = level
			}
			if result.Remediation == "" {
				result.Remediation = remediation
			}
		}
		return result
	}
}
