// Package rules implements the rule evaluation engine: the Rule Contract,
// the depth-first Rule Engine with its per-rule failure barrier, and the
// Selector Matcher that decides which nodes a rule applies to.
package rules

import "github.com/evdanil/gecko/internal/configtree"

// Level is a RuleResult's severity.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Metadata carries a rule's non-behavioral attributes.
type Metadata struct {
	Level Level
	// OBU identifies the owning business unit, for routing findings back to
	// whichever team owns the affected configuration surface.
	OBU string
	// Owner is the individual or team responsible for the rule itself.
	Owner string
	// Remediation is optional canned guidance. Run does not read it;
	// internal/catalog's Build copies it into failing results whose check
	// left Remediation empty.
	Remediation string
}

// Context is the read-only handle passed to every rule invocation. AST
// exposes the whole forest for cross-reference rules; a rule must not
// mutate it.
type Context struct {
	PartialContext
	AST configtree.Forest
}

// PartialContext is everything about a run that doesn't depend on the
// forest being evaluated. Callers construct one and pass it to Run, which
// attaches AST to produce the full Context handed to each rule.
type PartialContext struct {
	// Extra carries caller-defined data (e.g. a file path, a ruleset
	// version) that individual check functions may read by key. Rules
	// must treat it as read-only.
	Extra map[string]any
}

// CheckFunc is a pure function evaluating one rule against one node. It
// must not mutate node, its ancestors, or ctx. It may read freely via
// ctx.AST. It returns a result for every invocation, including passes, so
// a report can show positive evidence.
type CheckFunc func(node *configtree.ConfigNode, ctx Context) RuleResult

// Rule is a named check with routing/severity metadata and an optional
// selector restricting which nodes it is applied to.
type Rule struct {
	// ID is non-empty and unique within a rule set; a later rule with the
	// same ID overriding an earlier one is a policy concern for whatever
	// assembles the rule set, not something the engine enforces.
	ID string
	// Selector restricts which nodes Check is invoked against. Empty
	// matches every node. See selector.go for matching rules.
	Selector string
	Metadata Metadata
	Check    CheckFunc
}

// RuleResult is the outcome of one (rule, node) evaluation.
type RuleResult struct {
	Passed      bool
	Message     string
	RuleID      string
	NodeID      string
	Level       Level
	Loc         configtree.Location
	Remediation string
}
