package configtree

import "fmt"

// WrapVirtualRoots post-processes a top-level forest so that every maximal
// run of consecutive top-level Command nodes is replaced by a single
// VirtualRoot node whose children are that run. A Section at the top level
// breaks the run and appears unchanged. VirtualRoot nodes are never
// introduced anywhere else in the tree (spec §4.4).
func WrapVirtualRoots(forest Forest, source Source) Forest {
	var wrapped Forest
	var run []*ConfigNode

	flush := func() {
		if len(run) == 0 {
			return
		}
		wrapped = append(wrapped, newVirtualRoot(run, source))
		run = nil
	}

	for _, n := range forest {
		if n.Type == Section {
			flush()
			wrapped = append(wrapped, n)
			continue
		}
		run = append(run, n)
	}
	flush()

	return wrapped
}

func newVirtualRoot(children []*ConfigNode, source Source) *ConfigNode {
	first := children[0]
	last := children[len(children)-1]
	return &ConfigNode{
		ID:       fmt.Sprintf("virtual_root_line_%d", first.Loc.StartLine),
		Type:     VirtualRoot,
		RawText:  "",
		Params:   nil,
		Children: children,
		Source:   source,
		Loc:      Location{StartLine: first.Loc.StartLine, EndLine: last.Loc.EndLine},
		Indent:   0,
	}
}
