// Package memory provides an in-process blueprint.Store for development
// and tests. Snapshots are deep-copied on the way in and out.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/meikuraledutech/blueprint"
)

// Store keeps graphs in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	graphs map[string]*blueprint.Graph
	order  []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{graphs: make(map[string]*blueprint.Graph)}
}

func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema forgets every stored graph.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs = make(map[string]*blueprint.Graph)
	s.order = nil
	return nil
}

func (s *Store) SaveGraph(ctx context.Context, g *blueprint.Graph) error {
	if g.ID == "" {
		return fmt.Errorf("blueprint: graph id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[g.ID]; !ok {
		s.order = append(s.order, g.ID)
	}
	s.graphs[g.ID] = clone(g)
	return nil
}

// GetGraph returns nil, nil if the graph doesn't exist.
func (s *Store) GetGraph(ctx context.Context, graphID string) (*blueprint.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return nil, nil
	}
	return clone(g), nil
}

func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.graphs, graphID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == graphID })
	return nil
}

// ListGraphs returns graph IDs in first-save order.
func (s *Store) ListGraphs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

func clone(g *blueprint.Graph) *blueprint.Graph {
	out := *g
	out.Layout = slices.Clone(g.Layout)
	out.Links = slices.Clone(g.Links)
	out.Nodes = make([]blueprint.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Inputs = slices.Clone(n.Inputs)
		n.Outputs = slices.Clone(n.Outputs)
		n.State = slices.Clone(n.State)
		n.Properties = slices.Clone(n.Properties)
		out.Nodes[i] = n
	}
	return &out
}

var _ blueprint.Store = (*Store)(nil)
