package blueprint

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// PinCompatibility reports whether a link may join pins a and b, ignoring
// graph topology. The editor registers its own rule; DefaultCompatibility is
// used otherwise.
type PinCompatibility func(a, b *Pin) bool

// DefaultCompatibility accepts pins of opposite direction and equal type.
func DefaultCompatibility(a, b *Pin) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind != b.Kind && a.Type == b.Type
}

// Session holds one editable graph: nodes in z-order, links, the ID
// namespace, the whole-graph layout blob and the dirty flag.
//
// A Session is single-threaded. Pointers returned by FindNode, FindPin and
// Nodes stay valid only until the next structural mutation.
type Session struct {
	nodes  []Node
	links  []Link
	ids    *Allocator
	layout []byte
	dirty  bool
	closed bool

	nodeIndex map[ID]int    // node ID → position in nodes
	pinOwner  map[ID]ID     // pin ID → owning node ID
	pinLinks  map[ID][]Link // pin ID → links starting or ending there

	compat PinCompatibility
	logger *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes session diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCompatibility replaces the pin compatibility rule used by CanLink and
// by render frames.
func WithCompatibility(fn PinCompatibility) Option {
	return func(s *Session) { s.compat = fn }
}

// WithFirstID sets the first ID the session allocates.
func WithFirstID(id ID) Option {
	return func(s *Session) { s.ids.Reset(id) }
}

// NewSession creates an empty, initialized session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		ids:       NewAllocator(),
		nodeIndex: make(map[ID]int),
		pinOwner:  make(map[ID]ID),
		pinLinks:  make(map[ID][]Link),
		compat:    DefaultCompatibility,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close tears the session down. Every later call reports ErrNotInitialized.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closed = true
	s.nodes, s.links, s.layout = nil, nil, nil
	s.nodeIndex, s.pinOwner, s.pinLinks = nil, nil, nil
}

func (s *Session) check() error {
	if s == nil || s.ids == nil || s.closed {
		return ErrNotInitialized
	}
	return nil
}

// NextID draws a fresh ID from the session namespace.
func (s *Session) NextID() (ID, error) {
	if err := s.check(); err != nil {
		return NoID, err
	}
	return s.ids.Next(), nil
}

// Nodes returns pointers to the stored nodes in z-order.
func (s *Session) Nodes() []*Node {
	if s.check() != nil {
		return nil
	}
	out := make([]*Node, len(s.nodes))
	for i := range s.nodes {
		out[i] = &s.nodes[i]
	}
	return out
}

// Links returns a copy of the stored links in insertion order.
func (s *Session) Links() []Link {
	if s.check() != nil {
		return nil
	}
	return slices.Clone(s.links)
}

// BuildNodes recomputes every pin's owner and direction from the node pin
// sequences, then rebuilds the lookup indexes. Call it after mutating a
// node's Inputs or Outputs directly.
func (s *Session) BuildNodes() error {
	if err := s.check(); err != nil {
		return err
	}
	s.nodeIndex = make(map[ID]int, len(s.nodes))
	s.pinOwner = make(map[ID]ID)
	for i := range s.nodes {
		s.nodeIndex[s.nodes[i].ID] = i
		s.buildNode(&s.nodes[i])
	}
	s.pinLinks = make(map[ID][]Link)
	for _, l := range s.links {
		s.indexLink(l)
	}
	return nil
}

func (s *Session) buildNode(n *Node) {
	for i := range n.Inputs {
		n.Inputs[i].NodeID = n.ID
		n.Inputs[i].Kind = PinKindInput
		s.pinOwner[n.Inputs[i].ID] = n.ID
	}
	for i := range n.Outputs {
		n.Outputs[i].NodeID = n.ID
		n.Outputs[i].Kind = PinKindOutput
		s.pinOwner[n.Outputs[i].ID] = n.ID
	}
}

func (s *Session) indexLink(l Link) {
	s.pinLinks[l.StartPinID] = append(s.pinLinks[l.StartPinID], l)
	if l.EndPinID != l.StartPinID {
		s.pinLinks[l.EndPinID] = append(s.pinLinks[l.EndPinID], l)
	}
}

func (s *Session) unindexLink(l Link) {
	for _, pin := range []ID{l.StartPinID, l.EndPinID} {
		kept := slices.DeleteFunc(s.pinLinks[pin], func(x Link) bool { return x.ID == l.ID })
		if len(kept) == 0 {
			delete(s.pinLinks, pin)
		} else {
			s.pinLinks[pin] = kept
		}
	}
}

func (s *Session) inUse(id ID) bool {
	if _, ok := s.nodeIndex[id]; ok {
		return true
	}
	if _, ok := s.pinOwner[id]; ok {
		return true
	}
	return slices.ContainsFunc(s.links, func(l Link) bool { return l.ID == id })
}

// checkExplicit rejects a caller-supplied ID already used by the session or
// seen earlier in the same call. NoID is skipped.
func (s *Session) checkExplicit(id ID, seen map[ID]bool) error {
	if id == NoID {
		return nil
	}
	if s.inUse(id) || seen[id] {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	seen[id] = true
	return nil
}

// AddNode appends n to the graph. Zero node and pin IDs are allocated from
// the session namespace; non-zero IDs are kept and reserved.
// Returns the node ID.
func (s *Session) AddNode(n Node) (ID, error) {
	if err := s.check(); err != nil {
		return NoID, err
	}

	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)
	n.State = slices.Clone(n.State)
	n.Properties = n.Properties.clone()

	// Explicit IDs are validated first, before anything is allocated, so a
	// fresh ID never takes a number named later in the same node.
	seen := make(map[ID]bool)
	if err := s.checkExplicit(n.ID, seen); err != nil {
		return NoID, err
	}
	for _, pins := range [][]Pin{n.Inputs, n.Outputs} {
		for _, p := range pins {
			if err := s.checkExplicit(p.ID, seen); err != nil {
				return NoID, err
			}
		}
	}
	for id := range seen {
		s.ids.Reserve(id)
	}

	if n.ID == NoID {
		n.ID = s.ids.Next()
	}
	for _, pins := range [][]Pin{n.Inputs, n.Outputs} {
		for i := range pins {
			if pins[i].ID == NoID {
				pins[i].ID = s.ids.Next()
			}
		}
	}

	s.nodes = append(s.nodes, n)
	s.nodeIndex[n.ID] = len(s.nodes) - 1
	s.buildNode(&s.nodes[len(s.nodes)-1])

	s.logger.Debug("node added", "id", n.ID, "type", n.Type, "name", n.Name,
		"inputs", len(n.Inputs), "outputs", len(n.Outputs))
	return n.ID, nil
}

// RemoveNode deletes a node and every link touching one of its pins.
func (s *Session) RemoveNode(id ID) error {
	if err := s.check(); err != nil {
		return err
	}
	idx, ok := s.nodeIndex[id]
	if !ok {
		return ErrNodeNotFound
	}
	n := s.nodes[idx]

	removed := 0
	for _, pins := range [][]Pin{n.Inputs, n.Outputs} {
		for _, p := range pins {
			for _, l := range slices.Clone(s.pinLinks[p.ID]) {
				s.deleteLink(l)
				removed++
			}
			delete(s.pinOwner, p.ID)
		}
	}

	s.nodes = slices.Delete(s.nodes, idx, idx+1)
	delete(s.nodeIndex, id)
	for i := idx; i < len(s.nodes); i++ {
		s.nodeIndex[s.nodes[i].ID] = i
	}

	s.logger.Debug("node removed", "id", id, "links", removed)
	return nil
}

// AddLink validates a link from an output pin to an input pin with CanLink
// and appends it. Returns the new link ID.
func (s *Session) AddLink(startPinID, endPinID ID) (ID, error) {
	if err := s.CanLink(startPinID, endPinID); err != nil {
		return NoID, err
	}
	l := Link{ID: s.ids.Next(), StartPinID: startPinID, EndPinID: endPinID}
	s.links = append(s.links, l)
	s.indexLink(l)

	s.logger.Debug("link added", "id", l.ID, "start", startPinID, "end", endPinID)
	return l.ID, nil
}

// RemoveLink deletes a link by its ID.
func (s *Session) RemoveLink(id ID) error {
	if err := s.check(); err != nil {
		return err
	}
	l, err := s.FindLink(id)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrLinkNotFound
	}
	s.deleteLink(*l)
	s.logger.Debug("link removed", "id", id)
	return nil
}

func (s *Session) deleteLink(l Link) {
	s.links = slices.DeleteFunc(s.links, func(x Link) bool { return x.ID == l.ID })
	s.unindexLink(l)
}
