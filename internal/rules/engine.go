package rules

import (
	"fmt"
	"log/slog"

	"github.com/evdanil/gecko/internal/configtree"
)

// Run evaluates rs against every node of forest in depth-first pre-order,
// attaching forest to partial as ctx.AST. Within one node, rules run in
// the order given. Run is pure and performs no I/O of its own; it never
// panics out to the caller — a rule that panics is converted to a failing
// RuleResult by the failure barrier and evaluation continues. logger is
// nil-safe: pass nil to run silently, or a logger to have panic recoveries
// reported at Warn so a misbehaving rule is visible without aborting the
// scan that tripped it.
func Run(forest configtree.Forest, rs []Rule, partial PartialContext, logger *slog.Logger) []RuleResult {
	ctx := Context{PartialContext: partial, AST: forest}

	var results []RuleResult
	for _, root := range forest {
		visit(root, rs, ctx, logger, &results)
	}
	return results
}

func visit(n *configtree.ConfigNode, rs []Rule, ctx Context, logger *slog.Logger, out *[]RuleResult) {
	for _, r := range rs {
		if !selectorMatches(n.ID, r.Selector) {
			continue
		}
		*out = append(*out, invoke(r, n, ctx, logger))
	}
	for _, child := range n.Children {
		visit(child, rs, ctx, logger, out)
	}
}

// invoke runs one rule against one node behind a failure barrier: a panic
// inside r.Check is recovered and turned into a failing RuleResult instead
// of propagating, so one misbehaving rule can never abort the scan. If
// logger is non-nil the recovery is also reported at Warn, since a
// panicking rule is a defect in the rule catalog worth surfacing even
// though the scan itself continues.
func invoke(r Rule, n *configtree.ConfigNode, ctx Context, logger *slog.Logger) (result RuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = RuleResult{
				Passed:  false,
				Message: fmt.Sprintf("rule %q panicked: %v", r.ID, rec),
				RuleID:  r.ID,
				NodeID:  n.ID,
				Level:   LevelError,
				Loc:     n.Loc,
			}
			if logger != nil {
				logger.Warn("rule panic recovered",
					"rule_id", r.ID,
					"node_id", n.ID,
					"recovered", rec,
				)
			}
		}
	}()
	return r.Check(n, ctx)
}
