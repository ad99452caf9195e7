// Package configtree reconstructs a hierarchical syntax tree from
// indentation-ambiguous device configuration text.
package configtree

import "encoding/json"

// NodeType classifies a ConfigNode.
type NodeType string

const (
	// Section nodes open a nested block (e.g. "interface GigabitEthernet1").
	Section NodeType = "section"
	// Command nodes are leaves.
	Command NodeType = "command"
	// Comment is reserved: comments are filtered before tree construction
	// and never appear in a built forest.
	Comment NodeType = "comment"
	// VirtualRoot groups a maximal run of consecutive top-level orphan
	// commands so snippets without sections stay addressable.
	VirtualRoot NodeType = "virtual_root"
)

// Source tags whether a node came from a full file or an ad-hoc snippet.
type Source string

const (
	// SourceBase marks lines from a full configuration file.
	SourceBase Source = "base"
	// SourceSnippet marks lines from a partial, ad-hoc snippet.
	SourceSnippet Source = "snippet"
)

// Location is an inclusive line range (EndLine is the last line covered),
// 0-based in the core.
type Location struct {
	StartLine int
	EndLine   int
}

// ConfigNode is a node of the configuration tree.
//
// Nodes are created once during parsing and are immutable afterward; the
// forest lives for the duration of a single scan. Results refer to nodes by
// id, loc, and node-id string only, never by holding a live reference, so
// results outlive the tree (spec §9, "Tree ownership").
type ConfigNode struct {
	// ID is the sanitized textual identity of the line. Used by selectors.
	// Never synthesized except for VirtualRoot nodes.
	ID string
	// Type is one of Section, Command, Comment (reserved), VirtualRoot.
	Type NodeType
	// RawText is the original line exactly as read, including leading
	// whitespace. Never mutated after creation.
	RawText string
	// Params is the sanitized line split on whitespace runs. Params[0] is
	// the head keyword.
	Params []string
	// Children is ordered by ascending start line.
	Children []*ConfigNode
	// Source distinguishes full-file lines from ad-hoc snippet lines.
	Source Source
	// Loc covers the node and, for a section, extends to the last
	// descendant (see fixupEndLines).
	Loc Location
	// Indent is the leading whitespace column count of the originating
	// line, computed from the first non-whitespace codepoint of RawText.
	Indent int
}

// Forest is an ordered, top-level sequence of trees.
type Forest []*ConfigNode

// nodeWire is the JSON wire shape for a ConfigNode. All eight fields are
// serialized: Source and Indent are what a debug dump needs to explain an
// indentation promotion decision, so they are kept alongside the core
// id/type/raw_text/params/children/loc fields rather than trimmed.
type nodeWire struct {
	ID       string      `json:"id"`
	Type     NodeType    `json:"type"`
	RawText  string      `json:"raw_text"`
	Params   []string    `json:"params"`
	Children []*ConfigNode `json:"children"`
	Source   Source      `json:"source"`
	Loc      Location    `json:"loc"`
	Indent   int         `json:"indent"`
}

// MarshalJSON implements the §6 ConfigNode wire shape, recursively
// serializing Children.
func (n *ConfigNode) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return json.Marshal(nodeWire{
		ID:       n.ID,
		Type:     n.Type,
		RawText:  n.RawText,
		Params:   n.Params,
		Children: n.Children,
		Source:   n.Source,
		Loc:      n.Loc,
		Indent:   n.Indent,
	})
}

// Walk visits the forest in document order (pre-order, depth-first),
// invoking fn for every node including VirtualRoot containers.
func (f Forest) Walk(fn func(n *ConfigNode)) {
	for _, root := range f {
		walkNode(root, fn)
	}
}

func walkNode(n *ConfigNode, fn func(n *ConfigNode)) {
	fn(n)
	for _, c := range n.Children {
		walkNode(c, fn)
	}
}
