package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/rules"
)

// kindBuilder turns a manifest's Params into a CheckFunc. Returning an
// error at build time (rather than deferring to the failure barrier at
// run time) lets a malformed manifest be rejected before a scan starts.
type kindBuilder func(params map[string]string) (rules.CheckFunc, error)

// BuiltinKinds maps a manifest's Kind field to the builder that compiles
// it. The rule catalog has no plugin mechanism, so this set is closed.
var BuiltinKinds = map[string]kindBuilder{
	"forbidden-keyword":       buildForbiddenKeyword,
	"regex-reject":            buildRegexReject,
	"require-child":           buildRequireChild,
	"duplicate-sibling-param": buildDuplicateSiblingParam,
}

// buildForbiddenKeyword rejects a node whose id contains params["keyword"]
// (case-insensitive). Grounds the telnet/insecure-protocol family: e.g.
// `transport input telnet` under a `line vty` section.
func buildForbiddenKeyword(params map[string]string) (rules.CheckFunc, error) {
	keyword := strings.ToLower(params["keyword"])
	if keyword == "" {
		return nil, fmt.Errorf("forbidden-keyword: missing required param %q", "keyword")
	}
	message := params["message"]
	if message == "" {
		message = fmt.Sprintf("line contains forbidden keyword %q", keyword)
	}

	return func(n *configtree.ConfigNode, ctx rules.Context) rules.RuleResult {
		if strings.Contains(strings.ToLower(n.ID), keyword) {
			return rules.RuleResult{
				Passed:  false,
				Message: message,
				NodeID:  n.ID,
				Loc:     n.Loc,
			}
		}
		return rules.RuleResult{Passed: true, NodeID: n.ID, Loc: n.Loc}
	}, nil
}

// buildRegexReject rejects a node whose id matches params["pattern"].
// Grounds plaintext-secret detection: an anchored pattern catching
// `password 0 <cleartext>`-shaped lines, as opposed to `password 7
// <encrypted>`.
func buildRegexReject(params map[string]string) (rules.CheckFunc, error) {
	pattern := params["pattern"]
	if pattern == "" {
		return nil, fmt.Errorf("regex-reject: missing required param %q", "pattern")
	}
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return nil, fmt.Errorf("regex-reject: invalid pattern: %w", err)
	}
	message := params["message"]
	if message == "" {
		message = "line matches a disallowed pattern"
	}

	return func(n *configtree.ConfigNode, ctx rules.Context) rules.RuleResult {
		if re.MatchString(n.ID) {
			return rules.RuleResult{Passed: false, Message: message, NodeID: n.ID, Loc: n.Loc}
		}
		return rules.RuleResult{Passed: true, NodeID: n.ID, Loc: n.Loc}
	}, nil
}

// buildRequireChild passes iff at least one of n.Children has an id
// starting with params["prefix"] (case-insensitive). Selector-scoped to
// the parent's family, e.g. requiring every `interface` to carry a
// `description`.
func buildRequireChild(params map[string]string) (rules.CheckFunc, error) {
	prefix := strings.ToLower(params["prefix"])
	if prefix == "" {
		return nil, fmt.Errorf("require-child: missing required param %q", "prefix")
	}
	message := params["message"]
	if message == "" {
		message = fmt.Sprintf("missing a child line starting with %q", prefix)
	}

	return func(n *configtree.ConfigNode, ctx rules.Context) rules.RuleResult {
		for _, c := range n.Children {
			if strings.HasPrefix(strings.ToLower(c.ID), prefix) {
				return rules.RuleResult{Passed: true, NodeID: n.ID, Loc: n.Loc}
			}
		}
		return rules.RuleResult{Passed: false, Message: message, NodeID: n.ID, Loc: n.Loc}
	}, nil
}

// buildDuplicateSiblingParam is a cross-reference rule: it fails for the
// second and later sibling whose Params[index] (0-based) repeats a value
// already seen among n's earlier siblings under the same parent. It reads
// ctx.AST to find n's parent, which is why it must walk the full forest
// rather than relying on data passed to it directly.
func buildDuplicateSiblingParam(params map[string]string) (rules.CheckFunc, error) {
	index, err := parseParamIndex(params["index"])
	if err != nil {
		return nil, fmt.Errorf("duplicate-sibling-param: %w", err)
	}
	message := params["message"]
	if message == "" {
		message = "duplicate value among sibling lines"
	}

	return func(n *configtree.ConfigNode, ctx rules.Context) rules.RuleResult {
		if index >= len(n.Params) {
			return rules.RuleResult{Passed: true, NodeID: n.ID, Loc: n.Loc}
		}
		siblings := findSiblings(ctx.AST, n)
		value := n.Params[index]
		seenBefore := 0
		for _, s := range siblings {
			if s == n {
				break
			}
			if index < len(s.Params) && s.Params[index] == value {
				seenBefore++
			}
		}
		if seenBefore > 0 {
			return rules.RuleResult{Passed: false, Message: message, NodeID: n.ID, Loc: n.Loc}
		}
		return rules.RuleResult{Passed: true, NodeID: n.ID, Loc: n.Loc}
	}, nil
}

func parseParamIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing required param %q", "index")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("param %q must be a non-negative integer, got %q", "index", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// findSiblings returns the child slice that contains target, searching
// the whole forest (target's own list if it's top-level). Returns nil if
// target cannot be located, which callers treat as "no siblings".
func findSiblings(forest configtree.Forest, target *configtree.ConfigNode) []*configtree.ConfigNode {
	for _, root := range forest {
		if root == target {
			return forest
		}
		if found := findSiblingsIn(root.Children, target); found != nil {
			return found
		}
	}
	return nil
}

func findSiblingsIn(siblings []*configtree.ConfigNode, target *configtree.ConfigNode) []*configtree.ConfigNode {
	for _, n := range siblings {
		if n == target {
			return siblings
		}
		if found := findSiblingsIn(n.Children, target); found != nil {
			return found
		}
	}
	return nil
}
