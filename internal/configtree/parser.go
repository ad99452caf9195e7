package configtree

import (
	"strings"
	"unicode"
)

// maxLineLength is the default line-length short-circuit above which
// block-starter detection may be skipped without changing the correctness
// of non-pathological inputs (spec §4.3, "Lines longer than a configurable
// maximum").
const maxLineLength = 4096

// ParseOptions configures a single parse.
type ParseOptions struct {
	// StartLine is added to every line's 0-based index to produce its
	// absolute line number. Default 0.
	StartLine int
	// Source tags every node produced by this parse. Default SourceBase.
	Source Source
	// Schema is the Block-Starter Schema consulted while parsing. Default
	// DefaultSchema().
	Schema *Schema
	// MaxLineLength overrides maxLineLength. Zero means use the default.
	MaxLineLength int
}

func (o ParseOptions) schema() *Schema {
	if o.Schema != nil {
		return o.Schema
	}
	return DefaultSchema()
}

func (o ParseOptions) maxLineLength() int {
	if o.MaxLineLength > 0 {
		return o.MaxLineLength
	}
	return maxLineLength
}

// surviving is one non-empty, non-comment input line after preprocessing.
type surviving struct {
	absLine       int
	indent        int
	sanitized     string
	raw           string
	isBlockStart  bool
}

// Parse consumes raw configuration text and yields a forest of ConfigNodes,
// reconstructing parent/child structure from measured indentation combined
// with the Block-Starter Schema even when indentation is missing, partial,
// or inconsistent (spec §4.3). Parse is pure and performs no I/O.
func Parse(text string, opts ParseOptions) Forest {
	if opts.Source == "" {
		opts.Source = SourceBase
	}
	schema := opts.schema()
	maxLen := opts.maxLineLength()

	lines := strings.Split(text, "\n")
	survivors := make([]surviving, 0, len(lines))

	for i, raw := range lines {
		indent := leadingColumns(raw)
		sanitized := Sanitize(raw)
		if sanitized == "" || strings.HasPrefix(sanitized, "!") {
			continue
		}

		isStart := false
		if len(sanitized) <= maxLen {
			isStart = schema.IsBlockStarter(sanitized)
		}

		survivors = append(survivors, surviving{
			absLine:      opts.StartLine + i,
			indent:       indent,
			sanitized:    sanitized,
			raw:          raw,
			isBlockStart: isStart,
		})
	}

	forest := buildTree(survivors, opts.Source)
	for _, root := range forest {
		fixupEndLines(root)
	}
	return WrapVirtualRoots(forest, opts.Source)
}

// leadingColumns counts the leading whitespace codepoints of the original
// (unsanitized) line. Tabs count as one column each; no tab-expansion is
// performed (spec §4.3, "Tabs").
func leadingColumns(raw string) int {
	n := 0
	for _, r := range raw {
		if unicode.IsSpace(r) {
			n++
			continue
		}
		break
	}
	return n
}

// buildTree runs the explicit-parent-stack algorithm of spec §4.3 over the
// surviving lines, in order.
func buildTree(survivors []surviving, source Source) Forest {
	var forest Forest
	var stack []*ConfigNode

	for _, l := range survivors {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			indentBreak := l.indent <= top.Indent
			starterPromotion := l.isBlockStart && top.Type != Section
			if indentBreak || starterPromotion {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}

		nodeType := Command
		if l.isBlockStart {
			nodeType = Section
		}

		node := &ConfigNode{
			ID:      l.sanitized,
			Type:    nodeType,
			RawText: l.raw,
			Params:  strings.Fields(l.sanitized),
			Source:  source,
			Loc:     Location{StartLine: l.absLine, EndLine: l.absLine},
			Indent:  l.indent,
		}

		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		} else {
			forest = append(forest, node)
		}

		stack = append(stack, node)
	}

	return forest
}

// fixupEndLines propagates loc.end_line = max(end_line of self, end_line of
// all descendants) via a post-order sweep, so a section's Loc always spans
// its last descendant (spec §4.3, "loc.end_line fix-up").
func fixupEndLines(n *ConfigNode) int {
	maxEnd := n.Loc.EndLine
	for _, c := range n.Children {
		childEnd := fixupEndLines(c)
		if childEnd > maxEnd {
			maxEnd = childEnd
		}
	}
	n.Loc.EndLine = maxEnd
	return maxEnd
}
