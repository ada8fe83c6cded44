// Package graph builds weighted character co-occurrence graphs from analyzed
// scenes. It performs no I/O.
package graph

// Node is one distinct character. Size counts the scenes the character
// appears in and drives downstream visualization sizing.
type Node struct {
	ID    string
	Label string
	Size  int
}

// Edge connects two characters that share at least one scene. Weight counts
// the shared scenes. Edges are undirected; Source/Target keep the orientation
// of first insertion.
type Edge struct {
	Source string
	Target string
	Weight int
}

type edgeKey struct {
	a, b string
}

func keyFor(source, target string) edgeKey {
	if target < source {
		source, target = target, source
	}
	return edgeKey{a: source, b: target}
}

// Graph keeps nodes and edges in insertion order so that serialization is
// deterministic for identical inputs.
type Graph struct {
	nodes     []*Node
	nodeIndex map[string]*Node
	edges     []*Edge
	edgeIndex map[edgeKey]*Edge
}

func New() *Graph {
	return &Graph{
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[edgeKey]*Edge),
	}
}

// AddAppearance registers one scene appearance for the named character,
// creating its node on first sight.
func (g *Graph) AddAppearance(name string) {
	node, ok := g.nodeIndex[name]
	if !ok {
		node = &Node{ID: name, Label: name}
		g.nodeIndex[name] = node
		g.nodes = append(g.nodes, node)
	}
	node.Size++
}

// IncrementEdge bumps the co-occurrence weight between two characters,
// creating the edge with weight 1 on first sight.
func (g *Graph) IncrementEdge(source, target string) {
	key := keyFor(source, target)
	edge, ok := g.edgeIndex[key]
	if !ok {
		edge = &Edge{Source: source, Target: target}
		g.edgeIndex[key] = edge
		g.edges = append(g.edges, edge)
	}
	edge.Weight++
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, node := range g.nodes {
		out[i] = *node
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, edge := range g.edges {
		out[i] = *edge
	}
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return len(g.edges) }
