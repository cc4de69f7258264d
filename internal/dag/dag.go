// SPDX-License-Identifier: MPL-2.0

// Package dag orders module dependency graphs. Boot order must start every
// module after the modules it depends on, and circular dependencies must be
// reported with the modules that take part in them.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle lists the nodes of one cycle in edge order; the first node is
		// repeated at the end ("a -> b -> a").
		Cycle []string
		// Blocked lists every node that could not be ordered, in insertion order.
		Blocked []string
	}

	// Graph is a directed graph over comparable keys. An edge from A to B
	// means A must come before B. Output order is deterministic: ties are
	// broken by the order in which nodes were first added.
	Graph[K comparable] struct {
		adjacency map[K][]K
		nodes     []K
		index     map[K]int
		edges     map[[2]K]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		adjacency: make(map[K][]K),
		index:     make(map[K]int),
		edges:     make(map[[2]K]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph[K]) AddNode(n K) {
	if _, ok := g.index[n]; ok {
		return
	}
	g.index[n] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

// AddEdge adds a directed edge from -> to, meaning "from" must come before "to".
// Both nodes are implicitly added. Duplicate edges are ignored.
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	key := [2]K{from, to}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.nodes) }

// Successors returns the nodes that must come after n, in edge insertion order.
func (g *Graph[K]) Successors(n K) []K {
	out := make([]K, len(g.adjacency[n]))
	copy(out, g.adjacency[n])
	return out
}

// TopologicalSort returns a valid order using Kahn's algorithm, or a
// *CycleError when the graph is cyclic.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[K]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]K, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var blocked []K
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				blocked = append(blocked, node)
			}
		}
		return nil, &CycleError{Cycle: names(g.findCycle(blocked, inDegree)), Blocked: names(blocked)}
	}

	return result, nil
}

// findCycle returns one cycle among the blocked nodes. Every blocked node
// still has a blocked predecessor, so walking predecessors must revisit a
// node; the revisited stretch, reversed, is a cycle in edge order.
func (g *Graph[K]) findCycle(blocked []K, inDegree map[K]int) []K {
	pred := make(map[K]K, len(blocked))
	for _, from := range blocked {
		for _, to := range g.adjacency[from] {
			if _, ok := pred[to]; !ok && inDegree[to] > 0 {
				pred[to] = from
			}
		}
	}

	onPath := map[K]int{}
	var path []K
	node := blocked[0]
	for {
		if i, seen := onPath[node]; seen {
			cycle := slices.Clone(path[i:])
			slices.Reverse(cycle)
			return append(cycle, cycle[0])
		}
		onPath[node] = len(path)
		path = append(path, node)
		node = pred[node]
	}
}

func names[K comparable](nodes []K) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = fmt.Sprint(n)
	}
	return out
}
