package domain

import "fmt"

// Edge records that its target node was derived from its source node.
type Edge struct {
	Source string
	Target string
}

// ProvenanceGraph is the append-only DAG of processing stages. Nodes live in
// an arena keyed by id; edges reference nodes by id only. The frontier
// (current) pointer is the sole mutable cursor: appending a node adds it to
// the arena, links it from the previous frontier, and advances the cursor.
// Nodes and edges are never removed.
type ProvenanceGraph struct {
	nodes   map[string]StageNode
	edges   []Edge
	current string
}

// NewGraph builds a graph containing exactly the given root node, no edges,
// with the frontier set to the root.
func NewGraph(root StageNode) (*ProvenanceGraph, error) {
	if root.ID == "" {
		return nil, fmt.Errorf("root node missing id")
	}
	return &ProvenanceGraph{
		nodes:   map[string]StageNode{root.ID: root},
		current: root.ID,
	}, nil
}

// GraphFromParts reassembles a graph loaded from a persisted document,
// checking the structural invariants the append path guarantees: the
// frontier id resolves to a node, and every edge endpoint exists.
func GraphFromParts(nodes map[string]StageNode, edges []Edge, current string) (*ProvenanceGraph, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	if _, ok := nodes[current]; !ok {
		return nil, fmt.Errorf("frontier id %s not present in nodes", current)
	}
	for _, e := range edges {
		if _, ok := nodes[e.Source]; !ok {
			return nil, fmt.Errorf("edge source %s not present in nodes", e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			return nil, fmt.Errorf("edge target %s not present in nodes", e.Target)
		}
	}
	g := &ProvenanceGraph{
		nodes:   make(map[string]StageNode, len(nodes)),
		edges:   append([]Edge(nil), edges...),
		current: current,
	}
	for id, n := range nodes {
		g.nodes[id] = n
	}
	return g, nil
}

// Append adds node to the arena, links it from the current frontier, and
// advances the frontier to it. This is the only mutation a graph undergoes
// after creation.
func (g *ProvenanceGraph) Append(node StageNode) error {
	if node.ID == "" {
		return fmt.Errorf("node missing id")
	}
	if _, exists := g.nodes[node.ID]; exists {
		return ErrDuplicateNode{ID: node.ID}
	}
	g.nodes[node.ID] = node
	g.edges = append(g.edges, Edge{Source: g.current, Target: node.ID})
	g.current = node.ID
	return nil
}

// CurrentID returns the frontier node id.
func (g *ProvenanceGraph) CurrentID() string { return g.current }

// NodeCount returns the number of nodes in the graph.
func (g *ProvenanceGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *ProvenanceGraph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given id.
func (g *ProvenanceGraph) Node(id string) (StageNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns a copy of the node arena.
func (g *ProvenanceGraph) Nodes() map[string]StageNode {
	out := make(map[string]StageNode, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = n
	}
	return out
}

// Edges returns a copy of the edge list in append order.
func (g *ProvenanceGraph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// ResolveFocus returns the node for id when given, else the frontier node.
func (g *ProvenanceGraph) ResolveFocus(id string) (StageNode, error) {
	if id == "" {
		id = g.current
	}
	n, ok := g.nodes[id]
	if !ok {
		return StageNode{}, ErrUnknownNode{ID: id}
	}
	return n, nil
}

// Chain walks source->target edges from the root to the frontier and returns
// the node ids in order. Under the linear append policy every graph is a
// single chain; if historical branching is encountered the walk follows the
// first outgoing edge in append order.
func (g *ProvenanceGraph) Chain() []string {
	targets := make(map[string]bool, len(g.edges))
	next := make(map[string]string, len(g.edges))
	for _, e := range g.edges {
		targets[e.Target] = true
		if _, seen := next[e.Source]; !seen {
			next[e.Source] = e.Target
		}
	}
	root := g.current
	for id := range g.nodes {
		if !targets[id] {
			root = id
			break
		}
	}
	chain := []string{root}
	seen := map[string]bool{root: true}
	for {
		n, ok := next[chain[len(chain)-1]]
		if !ok || seen[n] {
			break
		}
		chain = append(chain, n)
		seen[n] = true
	}
	return chain
}
