// Package deppath computes rendered paths between two positions of a
// parent-pointer tree, typically a dependency parse.
//
// A path from start to end climbs from start to the least common ancestor
// (LCA) and descends to end:
//
//	foxnsubj<jumpsobl>dog
//
// Disconnected positions (no common ancestor) are an expected outcome and
// render as NoPath instead of producing an error.
package deppath

import (
	"strings"

	"github.com/happyhackingspace/featx/nlp"
)

// NoPath is the rendering of a path between disconnected positions.
const NoPath = "noPath"

// RootNode is the top of a path built with ToRoot.
const RootNode = "ROOT"

// Direction markers.
const (
	Up   = "<"
	Down = ">"
)

// NodeType selects how path nodes are rendered.
type NodeType int

const (
	NodeWord NodeType = iota
	NodeLemma
	NodePos
	NodeNone // "*" for every node
)

// NodeTypes lists every NodeType in declaration order.
var NodeTypes = []NodeType{NodeWord, NodeLemma, NodePos, NodeNone}

func (t NodeType) String() string {
	switch t {
	case NodeWord:
		return "Word"
	case NodeLemma:
		return "Lemma"
	case NodePos:
		return "Pos"
	case NodeNone:
		return "None"
	}
	return "NodeType(?)"
}

// EdgeType selects how path edges are rendered.
type EdgeType int

const (
	EdgeDep       EdgeType = iota // relation label followed by the direction marker
	EdgeDirection                 // direction marker only
)

// EdgeTypes lists every EdgeType in declaration order.
var EdgeTypes = []EdgeType{EdgeDep, EdgeDirection}

func (t EdgeType) String() string {
	switch t {
	case EdgeDep:
		return "Dep"
	case EdgeDirection:
		return "Direction"
	}
	return "EdgeType(?)"
}

// Kind tells a Node entry from an Edge entry.
type Kind int

const (
	Node Kind = iota
	Edge
)

// Entry is one element of a path: a node at Position, or the edge from
// Position to its parent (Upward) or from its parent to Position.
type Entry struct {
	Kind     Kind
	Position int
	Upward   bool
	Text     string
}

// Path is an alternating node/edge sequence between two positions.
type Path struct {
	entries   []Entry
	up, down  int
	connected bool
	rendered  string
}

// New computes the path from start to end in the tree given by deps,
// rendering nodes from sent.
func New(sent nlp.Sentence, deps nlp.DepParse, start, end int, nt NodeType, et EdgeType) *Path {
	return Between(sent.Len(), deps.Head, start, end, nodeRenderer(sent, nt), edgeRenderer(deps, et))
}

// ToRoot computes the path from head up to the root of its tree. The top
// node renders as RootNode.
func ToRoot(sent nlp.Sentence, deps nlp.DepParse, head int, nt NodeType, et EdgeType) *Path {
	n := sent.Len()
	node := nodeRenderer(sent, nt)
	edge := edgeRenderer(deps, et)
	p := &Path{connected: true}
	if head < 0 || head >= n {
		p.entries = []Entry{{Kind: Node, Position: nlp.Root, Text: RootNode}}
		return p
	}
	seen := make([]bool, n)
	for cur := head; cur >= 0 && cur < n && !seen[cur]; cur = deps.Head(cur) {
		seen[cur] = true
		p.entries = append(p.entries,
			Entry{Kind: Node, Position: cur, Text: node(cur)},
			Entry{Kind: Edge, Position: cur, Upward: true, Text: edge(cur, true)})
		p.up++
	}
	p.entries = append(p.entries, Entry{Kind: Node, Position: nlp.Root, Text: RootNode})
	return p
}

// Between is the general form of New: n is the number of valid positions,
// parent maps a position to its parent (anything outside [0,n) is the
// root), and node/edge render entries.
func Between(n int, parent func(int) int, start, end int, node func(int) string, edge func(i int, upward bool) string) *Path {
	p := &Path{}
	if start < 0 || start >= n || end < 0 || end >= n {
		return p
	}

	// Mark the chain from end to its root; order[i] is i's distance from end.
	order := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	var downChain []int
	for cur := end; cur >= 0 && cur < n && order[cur] < 0; cur = parent(cur) {
		order[cur] = len(downChain)
		downChain = append(downChain, cur)
	}

	// Climb from start until the marked chain is hit.
	seen := make([]bool, n)
	var upChain []int
	lca := -1
	for cur := start; cur >= 0 && cur < n && !seen[cur]; cur = parent(cur) {
		if order[cur] >= 0 {
			lca = cur
			break
		}
		seen[cur] = true
		upChain = append(upChain, cur)
	}
	if lca < 0 {
		return p
	}
	p.connected = true

	for _, i := range upChain {
		p.entries = append(p.entries,
			Entry{Kind: Node, Position: i, Text: node(i)},
			Entry{Kind: Edge, Position: i, Upward: true, Text: edge(i, true)})
	}
	p.up = len(upChain)
	p.entries = append(p.entries, Entry{Kind: Node, Position: lca, Text: node(lca)})
	for k := order[lca] - 1; k >= 0; k-- {
		i := downChain[k]
		p.entries = append(p.entries,
			Entry{Kind: Edge, Position: i, Text: edge(i, false)},
			Entry{Kind: Node, Position: i, Text: node(i)})
	}
	p.down = order[lca]
	return p
}

// Connected reports whether start and end share an ancestor.
func (p *Path) Connected() bool {
	return p.connected
}

// Entries returns the node/edge sequence. It is empty when disconnected.
func (p *Path) Entries() []Entry {
	return p.entries
}

// Len returns the number of edges on the path.
func (p *Path) Len() int {
	return p.up + p.down
}

// DeltaDepth returns the number of up edges minus the number of down edges.
func (p *Path) DeltaDepth() int {
	return p.up - p.down
}

// String renders the path, or NoPath when disconnected.
func (p *Path) String() string {
	if !p.connected {
		return NoPath
	}
	if p.rendered == "" {
		p.rendered = join(p.entries)
	}
	return p.rendered
}

// NGrams returns every window of k consecutive entries, rendered and
// prefixed, deduplicated in first-seen order. A path of L entries yields
// at most L-k+1 windows. Disconnected paths yield nil.
func (p *Path) NGrams(k int, prefix string) []string {
	L := len(p.entries)
	if !p.connected || k <= 0 || k > L {
		return nil
	}
	seen := make(map[string]struct{}, L-k+1)
	out := make([]string, 0, L-k+1)
	for s := 0; s+k <= L; s++ {
		g := prefix + join(p.entries[s:s+k])
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func join(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Text)
	}
	return sb.String()
}

func nodeRenderer(sent nlp.Sentence, nt NodeType) func(int) string {
	switch nt {
	case NodeLemma:
		return sent.Lemma
	case NodePos:
		return sent.Pos
	case NodeNone:
		return func(int) string { return "*" }
	default:
		return sent.Word
	}
}

func edgeRenderer(deps nlp.DepParse, et EdgeType) func(int, bool) string {
	if et == EdgeDirection {
		return func(_ int, upward bool) string {
			if upward {
				return Up
			}
			return Down
		}
	}
	return func(i int, upward bool) string {
		if upward {
			return deps.Label(i) + Up
		}
		return deps.Label(i) + Down
	}
}
