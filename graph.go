// Package blueprint is the graph-integrity core of a node editor: nodes,
// pins, links, one shared ID namespace, cycle checks and persistence hooks.
package blueprint

// ID identifies a node, pin or link. All three kinds share one namespace.
// NoID is the null reference and is never issued by an Allocator.
type ID int64

const NoID ID = 0

// NodeType selects the rendering variant of a node.
type NodeType int

const (
	NodeTypeBlueprint NodeType = iota
	NodeTypeSimple
	NodeTypeTree
	NodeTypeHoudini
	NodeTypeComment
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeBlueprint:
		return "blueprint"
	case NodeTypeSimple:
		return "simple"
	case NodeTypeTree:
		return "tree"
	case NodeTypeHoudini:
		return "houdini"
	case NodeTypeComment:
		return "comment"
	}
	return "unknown"
}

// PinType is the semantic type carried by a pin.
type PinType int

const (
	PinTypeFlow PinType = iota
	PinTypeBool
	PinTypeInt
	PinTypeFloat
	PinTypeString
	PinTypeObject
	PinTypeFunction
	PinTypeDelegate
)

func (t PinType) String() string {
	switch t {
	case PinTypeFlow:
		return "flow"
	case PinTypeBool:
		return "bool"
	case PinTypeInt:
		return "int"
	case PinTypeFloat:
		return "float"
	case PinTypeString:
		return "string"
	case PinTypeObject:
		return "object"
	case PinTypeFunction:
		return "function"
	case PinTypeDelegate:
		return "delegate"
	}
	return "unknown"
}

// PinKind is the direction of a pin.
type PinKind int

const (
	PinKindInput PinKind = iota
	PinKindOutput
)

func (k PinKind) String() string {
	if k == PinKindOutput {
		return "output"
	}
	return "input"
}

// Color is an RGBA node tint.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Size is the node geometry as last reported by the renderer.
type Size struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// Pin is a typed connection point on a node.
// NodeID is derived: BuildNodes recomputes it (and Kind) from the owning
// node's Inputs/Outputs. Pins never know their links.
type Pin struct {
	ID     ID      `json:"id"`
	Type   PinType `json:"type"`
	Kind   PinKind `json:"kind"`
	Name   string  `json:"name"`
	NodeID ID      `json:"-"`
}

// Node is a graph vertex.
// State is an opaque blob owned by the node; Properties is handed to the
// property editor registered under Name.
type Node struct {
	ID         ID         `json:"id"`
	Type       NodeType   `json:"type"`
	Name       string     `json:"name"`
	Color      Color      `json:"color"`
	Size       Size       `json:"size"`
	Inputs     []Pin      `json:"inputs"`
	Outputs    []Pin      `json:"outputs"`
	State      []byte     `json:"state,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

// Link is a directed edge from an output pin to an input pin.
type Link struct {
	ID         ID `json:"id"`
	StartPinID ID `json:"start_pin_id"`
	EndPinID   ID `json:"end_pin_id"`
}

// Graph is the persisted form of a session.
// Layout is the whole-graph blob; NextID is the allocator position at
// snapshot time.
type Graph struct {
	ID     string `json:"id"`
	NextID ID     `json:"next_id"`
	Layout []byte `json:"layout,omitempty"`
	Nodes  []Node `json:"nodes"`
	Links  []Link `json:"links"`
}
