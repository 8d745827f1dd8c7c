package blueprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scenarioSession builds A(1) --[out 2]--L5--[in 4]--> B(3).
func scenarioSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	_, err := s.AddNode(Node{ID: 1, Name: "A", Outputs: []Pin{{ID: 2, Type: PinTypeFlow, Name: "exec"}}})
	require.NoError(t, err)
	_, err = s.AddNode(Node{ID: 3, Name: "B", Inputs: []Pin{{ID: 4, Type: PinTypeFlow, Name: "exec"}}})
	require.NoError(t, err)
	linkID, err := s.AddLink(2, 4)
	require.NoError(t, err)
	require.Equal(t, ID(5), linkID)
	return s
}

// passNode has one flow input and one flow output.
func passNode(name string) Node {
	return Node{
		Name:    name,
		Inputs:  []Pin{{Type: PinTypeFlow, Name: "in"}},
		Outputs: []Pin{{Type: PinTypeFlow, Name: "out"}},
	}
}

// chainGraph returns n linked nodes: node i has ID 3i+1, input 3i+2 and
// output 3i+3; link k joins output of node k to input of node k+1.
func chainGraph(n int) *Graph {
	g := &Graph{Nodes: make([]Node, n)}
	for i := 0; i < n; i++ {
		base := ID(3*i + 1)
		g.Nodes[i] = Node{
			ID:      base,
			Name:    "step",
			Inputs:  []Pin{{ID: base + 1, Type: PinTypeFlow}},
			Outputs: []Pin{{ID: base + 2, Type: PinTypeFlow}},
		}
	}
	next := ID(3*n + 1)
	for i := 0; i+1 < n; i++ {
		g.Links = append(g.Links, Link{
			ID:         next,
			StartPinID: g.Nodes[i].Outputs[0].ID,
			EndPinID:   g.Nodes[i+1].Inputs[0].ID,
		})
		next++
	}
	return g
}
