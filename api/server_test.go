package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/blueprint"
	"github.com/meikuraledutech/blueprint/memory"
)

// gatedStore holds GetGraph until release is closed.
type gatedStore struct {
	blueprint.Store
	entered chan string
	release chan struct{}
}

func (g *gatedStore) GetGraph(ctx context.Context, id string) (*blueprint.Graph, error) {
	g.entered <- id
	<-g.release
	return g.Store.GetGraph(ctx, id)
}

func TestAcquire_ClosedWhileWaiting(t *testing.T) {
	srv := New(memory.New(), Options{})
	id, err := srv.create()
	require.NoError(t, err)

	// A request that found the graph in the map but reached h.mu only after
	// close ran sees a hosted entry without a session.
	srv.mu.Lock()
	h := srv.graphs[id]
	srv.mu.Unlock()
	require.NoError(t, srv.close(context.Background(), id, false))

	srv.mu.Lock()
	srv.graphs[id] = h
	srv.mu.Unlock()

	_, err = srv.acquire(context.Background(), id)
	assert.ErrorIs(t, err, blueprint.ErrGraphNotFound)
}

func TestAcquire_SlowLoadDoesNotBlockOtherGraphs(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.SaveGraph(ctx, &blueprint.Graph{ID: "slow", NextID: 1}))

	store := &gatedStore{Store: mem, entered: make(chan string, 2), release: make(chan struct{})}
	srv := New(store, Options{StoreTimeout: 5 * time.Second})
	other, err := srv.create()
	require.NoError(t, err)

	results := make(chan *hosted, 2)
	errs := make(chan error, 2)
	for range 2 {
		go func() {
			h, err := srv.acquire(ctx, "slow")
			if err != nil {
				errs <- err
				return
			}
			h.mu.Unlock()
			results <- h
		}()
	}
	for range 2 {
		select {
		case <-store.entered:
		case <-time.After(5 * time.Second):
			t.Fatal("load never reached the store")
		}
	}

	h, err := srv.acquire(ctx, other)
	require.NoError(t, err)
	h.mu.Unlock()

	close(store.release)
	var got []*hosted
	for range 2 {
		select {
		case h := <-results:
			got = append(got, h)
		case err := <-errs:
			t.Fatal(err)
		case <-time.After(5 * time.Second):
			t.Fatal("load did not finish")
		}
	}
	assert.Same(t, got[0], got[1], "concurrent loads host one session")
	assert.Len(t, srv.hostedIDs(), 2)
}
