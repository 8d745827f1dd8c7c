package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAncestor_Scenario(t *testing.T) {
	s := scenarioSession(t)

	ok, err := s.IsAncestor(1, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAncestor(3, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAncestor_SelfWithoutLoop(t *testing.T) {
	s := scenarioSession(t)
	for _, id := range []ID{1, 3} {
		ok, err := s.IsAncestor(id, id)
		require.NoError(t, err)
		assert.False(t, ok, "node %d", id)
	}
}

func TestIsAncestor_SelfLoop(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(&Graph{
		Nodes: []Node{{
			ID:      1,
			Inputs:  []Pin{{ID: 2, Type: PinTypeFlow}},
			Outputs: []Pin{{ID: 3, Type: PinTypeFlow}},
		}},
		Links: []Link{{ID: 4, StartPinID: 3, EndPinID: 2}},
	}))

	ok, err := s.IsAncestor(1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAncestor_Diamond(t *testing.T) {
	//   a → b → d
	//   a → c → d      e is unrelated
	s := NewSession()
	ids := map[string]ID{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		id, err := s.AddNode(Node{
			Name:    name,
			Inputs:  []Pin{{Type: PinTypeFlow}, {Type: PinTypeFlow}},
			Outputs: []Pin{{Type: PinTypeFlow}},
		})
		require.NoError(t, err)
		ids[name] = id
	}
	link := func(from, to string, slot int) {
		f, _ := s.FindNode(ids[from])
		tn, _ := s.FindNode(ids[to])
		_, err := s.AddLink(f.Outputs[0].ID, tn.Inputs[slot].ID)
		require.NoError(t, err)
	}
	link("a", "b", 0)
	link("a", "c", 0)
	link("b", "d", 0)
	link("c", "d", 1)

	cases := []struct {
		anc, desc string
		want      bool
	}{
		{"a", "d", true},
		{"b", "d", true},
		{"c", "d", true},
		{"a", "b", true},
		{"d", "a", false},
		{"b", "c", false},
		{"e", "d", false},
		{"a", "e", false},
	}
	for _, tc := range cases {
		ok, err := s.IsAncestor(ids[tc.anc], ids[tc.desc])
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s ancestor of %s", tc.anc, tc.desc)
	}
}

func TestIsAncestor_DeepChain(t *testing.T) {
	const n = 10000
	s := NewSession()
	g := chainGraph(n)
	require.NoError(t, s.Load(g))

	first, last := g.Nodes[0].ID, g.Nodes[n-1].ID

	ok, err := s.IsAncestor(first, last)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAncestor(last, first)
	require.NoError(t, err)
	assert.False(t, ok)

	// Closing the chain is refused.
	_, err = s.AddLink(g.Nodes[n-1].Outputs[0].ID, g.Nodes[0].Inputs[0].ID)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestIsAncestor_TerminatesOnCyclicGraph(t *testing.T) {
	g := chainGraph(3)
	// Close the loop behind the session's back: 3 → 1.
	g.Links = append(g.Links, Link{ID: 100, StartPinID: g.Nodes[2].Outputs[0].ID, EndPinID: g.Nodes[0].Inputs[0].ID})
	s := NewSession()
	require.NoError(t, s.Load(g))

	_, err := s.AddNode(Node{ID: 200})
	require.NoError(t, err)

	ok, err := s.IsAncestor(200, g.Nodes[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAncestor_UnknownNodes(t *testing.T) {
	s := scenarioSession(t)

	_, err := s.IsAncestor(42, 3)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = s.IsAncestor(1, 42)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestIsAncestor_DanglingLinkFailsLoudly(t *testing.T) {
	s := scenarioSession(t)

	// Drop node A's pins without cascading its link.
	a, err := s.FindNode(1)
	require.NoError(t, err)
	a.Outputs = nil
	require.NoError(t, s.BuildNodes())

	_, err = s.IsAncestor(1, 3)
	assert.ErrorIs(t, err, ErrDanglingLink)
}

func TestIsAncestor_Uninitialized(t *testing.T) {
	var s *Session
	_, err := s.IsAncestor(1, 2)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.CanLink(1, 2), ErrNotInitialized)
}
