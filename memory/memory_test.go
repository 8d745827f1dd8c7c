package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/blueprint"
)

func TestStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &blueprint.Graph{
		ID:     "g1",
		NextID: 4,
		Layout: []byte("layout"),
		Nodes:  []blueprint.Node{{ID: 1, State: []byte("st"), Outputs: []blueprint.Pin{{ID: 2}}}},
	}
	require.NoError(t, s.SaveGraph(ctx, g))

	// Mutating the caller's copy does not leak into the store.
	g.Nodes[0].State[0] = 'x'
	g.Layout[0] = 'x'

	got, err := s.GetGraph(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("st"), got.Nodes[0].State)
	assert.Equal(t, []byte("layout"), got.Layout)

	require.NoError(t, s.SaveGraph(ctx, &blueprint.Graph{ID: "g2"}))
	require.NoError(t, s.SaveGraph(ctx, &blueprint.Graph{ID: "g1"}))
	ids, err := s.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, ids)

	require.NoError(t, s.DeleteGraph(ctx, "g1"))
	got, err = s.GetGraph(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.DropSchema(ctx))
	ids, _ = s.ListGraphs(ctx)
	assert.Empty(t, ids)
}

func TestStore_RequiresID(t *testing.T) {
	assert.Error(t, New().SaveGraph(context.Background(), &blueprint.Graph{}))
}
