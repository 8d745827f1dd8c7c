package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeBlob_RoundTrip(t *testing.T) {
	s := scenarioSession(t)

	for _, blob := range [][]byte{
		{},
		[]byte("collapsed=1"),
		{0x00, 0xff, 0x00, 0x10},
	} {
		require.NoError(t, s.SaveNodeBlob(3, blob, SaveReasonNone))
		got, err := s.LoadNodeBlob(3)
		require.NoError(t, err)
		assert.Equal(t, blob, got)
	}
}

func TestNodeBlob_IsCopied(t *testing.T) {
	s := scenarioSession(t)
	blob := []byte("abc")
	require.NoError(t, s.SaveNodeBlob(1, blob, SaveReasonNone))
	blob[0] = 'z'

	got, err := s.LoadNodeBlob(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, _ := s.LoadNodeBlob(1)
	assert.Equal(t, []byte("abc"), again)
}

func TestNodeBlob_MissingNode(t *testing.T) {
	s := scenarioSession(t)

	err := s.SaveNodeBlob(42, []byte("x"), SaveReasonPosition)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.False(t, s.Dirty(), "a failed save must not dirty the graph")

	got, err := s.LoadNodeBlob(42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGraphBlob_OverwriteAndEmpty(t *testing.T) {
	s := NewSession()

	got, err := s.LoadGraphBlob()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveGraphBlob([]byte("first, longer layout"), SaveReasonNone))
	require.NoError(t, s.SaveGraphBlob([]byte("second"), SaveReasonNone))

	got, err = s.LoadGraphBlob()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestDirtyFlag(t *testing.T) {
	cases := []struct {
		name   string
		reason SaveReason
		dirty  bool
	}{
		{"none", SaveReasonNone, false},
		{"navigation", SaveReasonNavigation, false},
		{"selection", SaveReasonSelection, false},
		{"size", SaveReasonSize, false},
		{"position", SaveReasonPosition, true},
		{"position with selection", SaveReasonPosition | SaveReasonSelection, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := scenarioSession(t)
			require.NoError(t, s.SaveGraphBlob([]byte("layout"), tc.reason))
			assert.Equal(t, tc.dirty, s.Dirty())

			s = scenarioSession(t)
			require.NoError(t, s.SaveNodeBlob(1, []byte("state"), tc.reason))
			assert.Equal(t, tc.dirty, s.Dirty())
		})
	}
}

func TestDirtyFlag_ClearedOnlyByMarkSaved(t *testing.T) {
	s := scenarioSession(t)
	require.NoError(t, s.SaveGraphBlob(nil, SaveReasonPosition))
	require.NoError(t, s.SaveGraphBlob(nil, SaveReasonNavigation))
	assert.True(t, s.Dirty())

	s.MarkSaved()
	assert.False(t, s.Dirty())
}

func TestBlobs_Uninitialized(t *testing.T) {
	s := NewSession()
	s.Close()

	assert.ErrorIs(t, s.SaveGraphBlob(nil, SaveReasonNone), ErrNotInitialized)
	_, err := s.LoadGraphBlob()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.SaveNodeBlob(1, nil, SaveReasonNone), ErrNotInitialized)
	_, err = s.LoadNodeBlob(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSnapshotLoad_RoundTrip(t *testing.T) {
	s := scenarioSession(t)
	require.NoError(t, s.SaveGraphBlob([]byte("layout"), SaveReasonPosition))
	require.NoError(t, s.SaveNodeBlob(1, []byte("a-state"), SaveReasonNone))
	a, _ := s.FindNode(1)
	a.Properties.Set("speed", 2.5)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, ID(6), snap.NextID)

	restored := NewSession()
	require.NoError(t, restored.Load(snap))
	assert.False(t, restored.Dirty())

	layout, _ := restored.LoadGraphBlob()
	assert.Equal(t, []byte("layout"), layout)
	state, _ := restored.LoadNodeBlob(1)
	assert.Equal(t, []byte("a-state"), state)

	ra, _ := restored.FindNode(1)
	v, ok := ra.Properties.Get("speed")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	ok, err = restored.IsAncestor(1, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	p, _ := restored.FindPin(4)
	assert.Equal(t, ID(3), p.NodeID)
}

func TestLoad_ReservesRestoredIDs(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(&Graph{
		Nodes: []Node{
			{ID: 100, Outputs: []Pin{{ID: 7}}},
			{ID: 50, Inputs: []Pin{{ID: 8}}},
		},
		Links: []Link{{ID: 60, StartPinID: 7, EndPinID: 8}},
	}))

	id, err := s.NextID()
	require.NoError(t, err)
	assert.Equal(t, ID(101), id)
}

func TestLoad_HonorsSavedCounter(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(&Graph{NextID: 900, Nodes: []Node{{ID: 3}}}))

	id, err := s.NextID()
	require.NoError(t, err)
	assert.Equal(t, ID(900), id)
}

func TestLoad_RejectsCorruptGraphs(t *testing.T) {
	cases := []struct {
		name string
		g    *Graph
		want error
	}{
		{"nil", nil, ErrGraphNotFound},
		{"duplicate node", &Graph{Nodes: []Node{{ID: 1}, {ID: 1}}}, ErrDuplicateID},
		{"pin clashes with node", &Graph{Nodes: []Node{{ID: 1, Inputs: []Pin{{ID: 1}}}}}, ErrDuplicateID},
		{"zero id", &Graph{Nodes: []Node{{}}}, ErrDuplicateID},
		{"dangling start", &Graph{
			Nodes: []Node{{ID: 1, Inputs: []Pin{{ID: 2}}}},
			Links: []Link{{ID: 3, StartPinID: 9, EndPinID: 2}},
		}, ErrDanglingLink},
		{"reversed link", &Graph{
			Nodes: []Node{{ID: 1, Outputs: []Pin{{ID: 2}}}, {ID: 3, Inputs: []Pin{{ID: 4}}}},
			Links: []Link{{ID: 5, StartPinID: 4, EndPinID: 2}},
		}, ErrDanglingLink},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := scenarioSession(t)
			err := s.Load(tc.g)
			assert.ErrorIs(t, err, tc.want)

			// The previous content is untouched.
			ok, err := s.IsAncestor(1, 3)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
