// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

type moduleKey struct{ name, slot string }

func (k moduleKey) String() string { return k.name + ":" + k.slot }

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New[string]().TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_Orders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		nodes []string
		want  []string
	}{
		{name: "single node", nodes: []string{"A"}, want: []string{"A"}},
		{name: "linear chain", edges: [][2]string{{"A", "B"}, {"B", "C"}}, want: []string{"A", "B", "C"}},
		{name: "diamond", edges: [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}}, want: []string{"A", "B", "C", "D"}},
		{name: "duplicate edges", edges: [][2]string{{"A", "B"}, {"A", "B"}}, want: []string{"A", "B"}},
		{
			name:  "disconnected keeps insertion order",
			edges: [][2]string{{"A", "B"}},
			nodes: []string{"C", "D"},
			want:  []string{"A", "C", "D", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New[string]()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			order, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(order, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, order)
			}
		})
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		edges       [][2]string
		wantCycle   []string
		wantBlocked []string
	}{
		{name: "self loop", edges: [][2]string{{"A", "A"}}, wantCycle: []string{"A", "A"}, wantBlocked: []string{"A"}},
		{name: "two nodes", edges: [][2]string{{"A", "B"}, {"B", "A"}}, wantCycle: []string{"B", "A", "B"}, wantBlocked: []string{"A", "B"}},
		{
			name:        "cycle with downstream node",
			edges:       [][2]string{{"root", "A"}, {"A", "B"}, {"B", "C"}, {"C", "A"}, {"C", "D"}},
			wantCycle:   []string{"B", "C", "A", "B"},
			wantBlocked: []string{"A", "B", "C", "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New[string]()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			_, err := g.TopologicalSort()
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if !slices.Equal(cycleErr.Cycle, tt.wantCycle) {
				t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, tt.wantCycle)
			}
			if !slices.Equal(cycleErr.Blocked, tt.wantBlocked) {
				t.Errorf("Blocked = %v, want %v", cycleErr.Blocked, tt.wantBlocked)
			}
		})
	}
}

func TestGraph_StructKeys(t *testing.T) {
	t.Parallel()

	api := moduleKey{"org.example.api", "main"}
	impl := moduleKey{"org.example.impl", "main"}
	g := New[moduleKey]()
	g.AddEdge(api, impl)
	g.AddEdge(impl, api)

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	want := "dependency cycle detected: org.example.impl:main -> org.example.api:main -> org.example.impl:main"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if g.Len() != 2 || !slices.Equal(g.Successors(api), []moduleKey{impl}) {
		t.Errorf("unexpected graph shape: len=%d successors=%v", g.Len(), g.Successors(api))
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"A", "B", "C"}}
	expected := "dependency cycle detected: A -> B -> C"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
