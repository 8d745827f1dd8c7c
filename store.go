package blueprint

import (
	"context"
	"errors"
)

var (
	// ErrNotInitialized means a session was used before NewSession or after
	// Close. It signals a programming error, never an expected miss.
	ErrNotInitialized = errors.New("blueprint: session not initialized")

	ErrNodeNotFound  = errors.New("blueprint: node not found")
	ErrPinNotFound   = errors.New("blueprint: pin not found")
	ErrLinkNotFound  = errors.New("blueprint: link not found")
	ErrGraphNotFound = errors.New("blueprint: graph not found")

	ErrCycleDetected = errors.New("blueprint: link would create a cycle")
	ErrInvalidLink   = errors.New("blueprint: invalid link")
	ErrDanglingLink  = errors.New("blueprint: link endpoint does not resolve")
	ErrDuplicateID   = errors.New("blueprint: duplicate id")
)

// Store defines the contract for persisting and retrieving graph snapshots.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// SaveGraph replaces any graph stored under g.ID.
	SaveGraph(ctx context.Context, g *Graph) error
	// GetGraph returns nil, nil when no graph is stored under graphID.
	GetGraph(ctx context.Context, graphID string) (*Graph, error)
	// DeleteGraph is a no-op for unknown IDs.
	DeleteGraph(ctx context.Context, graphID string) error
	ListGraphs(ctx context.Context) ([]string, error)
}
