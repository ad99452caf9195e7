package rules

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/evdanil/gecko/internal/configtree"
)

func alwaysPass(id string) CheckFunc {
	return func(n *configtree.ConfigNode, ctx Context) RuleResult {
		return RuleResult{
			Passed: true,
			RuleID: id,
			NodeID: n.ID,
			Level:  LevelInfo,
			Loc:    n.Loc,
		}
	}
}

func TestRun_PreOrderAndRuleOrder(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n description core\ninterface Gi0/2\n", configtree.ParseOptions{})

	var order []string
	record := func(tag string) CheckFunc {
		return func(n *configtree.ConfigNode, ctx Context) RuleResult {
			order = append(order, tag+":"+n.ID)
			return RuleResult{Passed: true, RuleID: tag, NodeID: n.ID}
		}
	}

	rs := []Rule{
		{ID: "a", Check: record("a")},
		{ID: "b", Check: record("b")},
	}
	Run(forest, rs, PartialContext{}, nil)

	want := []string{
		"a:interface Gi0/1", "b:interface Gi0/1",
		"a:description core", "b:description core",
		"a:interface Gi0/2", "b:interface Gi0/2",
	}
	if len(order) != len(want) {
		t.Fatalf("got %d invocations, want %d: %v", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("invocation %d = %q, want %q", i, order[i], want[i])
		}
	}
}

// A selector-less rule that always passes yields exactly one result per
// ConfigNode, including virtual_roots.
func TestRun_OneResultPerNodeIncludingVirtualRoot(t *testing.T) {
	forest := configtree.Parse("hostname R1\ninterface Gi0/1\n description core\n", configtree.ParseOptions{})

	var count int
	forest.Walk(func(n *configtree.ConfigNode) { count++ })

	results := Run(forest, []Rule{{ID: "always-pass", Check: alwaysPass("always-pass")}}, PartialContext{}, nil)
	if len(results) != count {
		t.Fatalf("got %d results, want %d (one per node)", len(results), count)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("expected all results to pass, got %+v", r)
		}
	}
}

func TestRun_FailureBarrierIsolatesPanic(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n description core\n", configtree.ParseOptions{})

	panics := func(n *configtree.ConfigNode, ctx Context) RuleResult {
		panic("boom")
	}
	rs := []Rule{
		{ID: "panicky", Check: panics},
		{ID: "fine", Check: alwaysPass("fine")},
	}
	results := Run(forest, rs, PartialContext{}, nil)

	var panickyResults, fineResults int
	for _, r := range results {
		switch r.RuleID {
		case "panicky":
			panickyResults++
			if r.Passed {
				t.Error("expected panicking rule result to be a failure")
			}
			if r.Level != LevelError {
				t.Errorf("expected level=error for recovered panic, got %s", r.Level)
			}
		case "fine":
			fineResults++
			if !r.Passed {
				t.Error("expected unrelated rule to still pass")
			}
		}
	}
	if panickyResults != 2 {
		t.Errorf("expected 2 panicky results (one per node), got %d", panickyResults)
	}
	if fineResults != 2 {
		t.Errorf("expected 2 fine results (one per node), got %d", fineResults)
	}
}

func TestRun_NilLoggerDoesNotPanicOnRecovery(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n", configtree.ParseOptions{})
	panics := func(n *configtree.ConfigNode, ctx Context) RuleResult { panic("boom") }

	Run(forest, []Rule{{ID: "panicky", Check: panics}}, PartialContext{}, nil)
}

func TestRun_LogsWarnOnPanicRecovery(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n", configtree.ParseOptions{})
	panics := func(n *configtree.ConfigNode, ctx Context) RuleResult { panic("boom") }

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Run(forest, []Rule{{ID: "panicky", Check: panics}}, PartialContext{}, logger)

	out := buf.String()
	if !strings.Contains(out, "rule panic recovered") {
		t.Fatalf("expected a Warn log for the recovered panic, got: %s", out)
	}
	if !strings.Contains(out, "rule_id=panicky") {
		t.Fatalf("expected the log line to carry rule_id=panicky, got: %s", out)
	}
}

func TestRun_SelectorFiltersNodes(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n description core\n", configtree.ParseOptions{})

	var matched []string
	rs := []Rule{{
		ID:       "interface-only",
		Selector: "interface",
		Check: func(n *configtree.ConfigNode, ctx Context) RuleResult {
			matched = append(matched, n.ID)
			return RuleResult{Passed: true, RuleID: "interface-only", NodeID: n.ID}
		},
	}}
	Run(forest, rs, PartialContext{}, nil)

	if len(matched) != 1 || matched[0] != "interface Gi0/1" {
		t.Fatalf("expected only the interface node matched, got %v", matched)
	}
}

func TestRun_ContextExposesFullForest(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\ninterface Gi0/2\n", configtree.ParseOptions{})

	var seenRoots int
	rs := []Rule{{
		ID: "cross-ref",
		Check: func(n *configtree.ConfigNode, ctx Context) RuleResult {
			seenRoots = len(ctx.AST)
			return RuleResult{Passed: true, RuleID: "cross-ref", NodeID: n.ID}
		},
	}}
	Run(forest, rs, PartialContext{}, nil)

	if seenRoots != 2 {
		t.Fatalf("expected ctx.AST to expose both roots, got %d", seenRoots)
	}
}

func TestRun_EmptyForestYieldsNoResults(t *testing.T) {
	results := Run(nil, []Rule{{ID: "x", Check: alwaysPass("x")}}, PartialContext{}, nil)
	if len(results) != 0 {
		t.Fatalf("expected no results for empty forest, got %d", len(results))
	}
}

func TestRun_NoRulesYieldsNoResults(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n", configtree.ParseOptions{})
	results := Run(forest, nil, PartialContext{}, nil)
	if len(results) != 0 {
		t.Fatalf("expected no results with no rules, got %d", len(results))
	}
}
