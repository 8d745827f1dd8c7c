package blueprint

import (
	"fmt"
	"slices"
)

// Style is a node rendering strategy family. Several node types may share
// one style.
type Style int

const (
	StyleBlueprint Style = iota
	StyleTree
	StyleHoudini
	StyleComment
)

// Styles lists every style in the order the renderer draws them.
var Styles = []Style{StyleBlueprint, StyleTree, StyleHoudini, StyleComment}

func (s Style) String() string {
	switch s {
	case StyleBlueprint:
		return "blueprint"
	case StyleTree:
		return "tree"
	case StyleHoudini:
		return "houdini"
	case StyleComment:
		return "comment"
	}
	return "unknown"
}

// StyleOf maps a node type to the strategy that draws it. Simple nodes are
// header-less blueprint cards.
func StyleOf(t NodeType) (Style, bool) {
	switch t {
	case NodeTypeBlueprint, NodeTypeSimple:
		return StyleBlueprint, true
	case NodeTypeTree:
		return StyleTree, true
	case NodeTypeHoudini:
		return StyleHoudini, true
	case NodeTypeComment:
		return StyleComment, true
	}
	return 0, false
}

// Strategy draws every node of one style for the current frame.
type Strategy interface {
	Draw(nodes []*Node, f *Frame) error
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(nodes []*Node, f *Frame) error

func (fn StrategyFunc) Draw(nodes []*Node, f *Frame) error { return fn(nodes, f) }

// Frame answers the renderer's per-pin questions for one render pass. The
// graph must not change while a frame is alive; answers are cached.
type Frame struct {
	session   *Session
	candidate *Pin
	linked    map[ID]bool
}

// NewFrame starts a render pass. candidate is the pin the user is dragging
// a new link from, or nil.
func (s *Session) NewFrame(candidate *Pin) (*Frame, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return &Frame{session: s, candidate: candidate, linked: make(map[ID]bool)}, nil
}

// Candidate returns the dragged pin, or nil.
func (f *Frame) Candidate() *Pin { return f.candidate }

// IsPinLinked reports whether any link touches the pin.
func (f *Frame) IsPinLinked(id ID) bool {
	if v, ok := f.linked[id]; ok {
		return v
	}
	v, _ := f.session.IsPinLinked(id)
	f.linked[id] = v
	return v
}

// CanCreateLink reports whether a link between the candidate and pin would
// be accepted by the compatibility rule. Without a candidate every pin is
// valid; the candidate itself never is.
func (f *Frame) CanCreateLink(pin *Pin) bool {
	if f.candidate == nil {
		return true
	}
	if pin == nil || pin.ID == f.candidate.ID {
		return false
	}
	return f.session.compat(f.candidate, pin)
}

// PinType returns the semantic type of a pin.
func (f *Frame) PinType(id ID) (PinType, bool) {
	p, _ := f.session.FindPin(id)
	if p == nil {
		return 0, false
	}
	return p.Type, true
}

// Dispatcher routes each node to the strategy registered for its style.
type Dispatcher struct {
	strategies map[Style]Strategy
}

// NewDispatcher returns a dispatcher with no strategies.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{strategies: make(map[Style]Strategy)}
}

// Register installs the strategy for a style, replacing any previous one.
func (d *Dispatcher) Register(style Style, st Strategy) {
	d.strategies[style] = st
}

// Dispatch runs one render pass: nodes are grouped by style in z-order and
// each registered strategy is called once. Styles without a strategy are
// skipped.
func (d *Dispatcher) Dispatch(s *Session, candidate *Pin) error {
	f, err := s.NewFrame(candidate)
	if err != nil {
		return err
	}

	groups := make(map[Style][]*Node)
	for _, n := range s.Nodes() {
		style, ok := StyleOf(n.Type)
		if !ok {
			continue
		}
		groups[style] = append(groups[style], n)
	}

	for _, style := range Styles {
		st, ok := d.strategies[style]
		if !ok || len(groups[style]) == 0 {
			continue
		}
		if err := st.Draw(groups[style], f); err != nil {
			return fmt.Errorf("blueprint: draw %s nodes: %w", style, err)
		}
	}
	return nil
}

// PropertyEditor edits a node's properties in place.
type PropertyEditor interface {
	EditProperties(props *Properties) error
}

// PropertyEditorFunc adapts a function to PropertyEditor.
type PropertyEditorFunc func(props *Properties) error

func (fn PropertyEditorFunc) EditProperties(props *Properties) error { return fn(props) }

// PropertyEditors looks up editors by node display name and falls back to
// a generic editor.
type PropertyEditors struct {
	editors  map[string]PropertyEditor
	fallback PropertyEditor
}

// NewPropertyEditors creates a registry. fallback may be nil, in which case
// nodes without a registered editor are left alone.
func NewPropertyEditors(fallback PropertyEditor) *PropertyEditors {
	return &PropertyEditors{editors: make(map[string]PropertyEditor), fallback: fallback}
}

// Register installs the editor for nodes named name.
func (r *PropertyEditors) Register(name string, e PropertyEditor) {
	r.editors[name] = e
}

// Names lists registered node names, sorted.
func (r *PropertyEditors) Names() []string {
	names := make([]string, 0, len(r.editors))
	for name := range r.editors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Edit hands the node's properties to its editor by reference.
func (r *PropertyEditors) Edit(n *Node) error {
	e, ok := r.editors[n.Name]
	if !ok {
		e = r.fallback
	}
	if e == nil {
		return nil
	}
	return e.EditProperties(&n.Properties)
}
