package blueprint

import (
	"fmt"
	"slices"

	"github.com/meikuraledutech/blueprint/metrics"
)

// SaveReason describes why the editor is saving. Values are bit flags and
// may be combined.
type SaveReason uint32

const (
	SaveReasonNone       SaveReason = 0
	SaveReasonNavigation SaveReason = 1 << (iota - 1)
	SaveReasonPosition
	SaveReasonSize
	SaveReasonSelection
	SaveReasonAddNode
	SaveReasonRemoveNode
	SaveReasonUser
)

// Has reports whether every bit of flag is set in r.
func (r SaveReason) Has(flag SaveReason) bool {
	return r&flag == flag
}

func (s *Session) markDirty(reason SaveReason) {
	if reason.Has(SaveReasonPosition) {
		if !s.dirty {
			s.logger.Debug("graph marked dirty", "reason", uint32(reason))
		}
		s.dirty = true
		metrics.DirtyMarks.Inc()
	}
}

// SaveGraphBlob overwrites the whole-graph layout blob. A reason carrying
// SaveReasonPosition marks the session dirty.
func (s *Session) SaveGraphBlob(data []byte, reason SaveReason) error {
	if err := s.check(); err != nil {
		return err
	}
	s.layout = slices.Clone(data)
	s.markDirty(reason)
	return nil
}

// LoadGraphBlob returns a copy of the layout blob, empty if none was saved.
func (s *Session) LoadGraphBlob() ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return cloneBytes(s.layout), nil
}

// SaveNodeBlob overwrites the opaque state of a node.
// Returns ErrNodeNotFound, leaving the session untouched, for unknown nodes.
func (s *Session) SaveNodeBlob(nodeID ID, data []byte, reason SaveReason) error {
	n, err := s.FindNode(nodeID)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNodeNotFound
	}
	n.State = cloneBytes(data)
	s.markDirty(reason)
	return nil
}

// LoadNodeBlob returns a copy of a node's state. Unknown nodes yield an
// empty blob, not an error: they simply have no saved state yet.
func (s *Session) LoadNodeBlob(nodeID ID) ([]byte, error) {
	n, err := s.FindNode(nodeID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return []byte{}, nil
	}
	return cloneBytes(n.State), nil
}

// Dirty reports unsaved position-affecting changes.
func (s *Session) Dirty() bool {
	return s.check() == nil && s.dirty
}

// MarkSaved clears the dirty flag after the caller persisted the graph.
func (s *Session) MarkSaved() {
	if s.check() == nil {
		s.dirty = false
	}
}

// Snapshot returns a deep copy of the session in its persisted form.
// The returned Graph has an empty ID.
func (s *Session) Snapshot() (*Graph, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	g := &Graph{
		NextID: s.ids.Peek(),
		Layout: cloneBytes(s.layout),
		Nodes:  make([]Node, len(s.nodes)),
		Links:  slices.Clone(s.links),
	}
	for i, n := range s.nodes {
		g.Nodes[i] = cloneNode(n)
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	return g, nil
}

// Load replaces the session content with g. The graph is validated first;
// on error the session is left unchanged. Every restored ID and the saved
// counter position are reserved before Load returns, so later allocations
// never collide with restored entities. The dirty flag is cleared.
func (s *Session) Load(g *Graph) error {
	if err := s.check(); err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrGraphNotFound)
	}

	seen := make(map[ID]bool)
	claim := func(id ID) error {
		if id == NoID {
			return fmt.Errorf("%w: zero id in persisted graph", ErrDuplicateID)
		}
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = true
		return nil
	}

	kinds := make(map[ID]PinKind)
	nodes := make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if err := claim(n.ID); err != nil {
			return err
		}
		for _, p := range n.Inputs {
			if err := claim(p.ID); err != nil {
				return err
			}
			kinds[p.ID] = PinKindInput
		}
		for _, p := range n.Outputs {
			if err := claim(p.ID); err != nil {
				return err
			}
			kinds[p.ID] = PinKindOutput
		}
		nodes[i] = cloneNode(n)
	}
	for _, l := range g.Links {
		if err := claim(l.ID); err != nil {
			return err
		}
		if k, ok := kinds[l.StartPinID]; !ok || k != PinKindOutput {
			return fmt.Errorf("%w: link %d start pin %d is not an output", ErrDanglingLink, l.ID, l.StartPinID)
		}
		if k, ok := kinds[l.EndPinID]; !ok || k != PinKindInput {
			return fmt.Errorf("%w: link %d end pin %d is not an input", ErrDanglingLink, l.ID, l.EndPinID)
		}
	}

	s.nodes = nodes
	s.links = slices.Clone(g.Links)
	s.layout = cloneBytes(g.Layout)
	s.dirty = false
	if err := s.BuildNodes(); err != nil {
		return err
	}

	for id := range seen {
		s.ids.Reserve(id)
	}
	if g.NextID > NoID {
		s.ids.Reserve(g.NextID - 1)
	}

	metrics.GraphsLoaded.Inc()
	s.logger.Debug("graph loaded", "id", g.ID, "nodes", len(nodes), "links", len(g.Links),
		"next_id", s.ids.Peek())
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return slices.Clone(b)
}

func cloneNode(n Node) Node {
	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)
	n.State = slices.Clone(n.State)
	n.Properties = n.Properties.clone()
	return n
}
