package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/blueprint"
)

// SaveGraph saves a full graph snapshot (nodes, pins, links, layout blob)
// in one transaction, replacing whatever was stored under g.ID.
func (s *PGStore) SaveGraph(ctx context.Context, g *blueprint.Graph) error {
	if g.ID == "" {
		return fmt.Errorf("blueprint: graph id is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("blueprint: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO blueprint_graphs (id, next_id, layout) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET next_id = EXCLUDED.next_id, layout = EXCLUDED.layout, updated_at = NOW()`,
		g.ID, int64(g.NextID), g.Layout,
	); err != nil {
		return fmt.Errorf("blueprint: upsert graph: %w", err)
	}

	// Replace semantics: links and pins go first because of foreign keys.
	for _, table := range []string{"blueprint_links", "blueprint_pins", "blueprint_nodes"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE graph_id = $1`, g.ID); err != nil {
			return fmt.Errorf("blueprint: clear %s: %w", table, err)
		}
	}

	for i, n := range g.Nodes {
		if err := insertNode(ctx, tx, g.ID, i, n); err != nil {
			return err
		}
	}

	for i, l := range g.Links {
		if _, err := tx.Exec(ctx,
			`INSERT INTO blueprint_links (graph_id, id, position, start_pin_id, end_pin_id) VALUES ($1, $2, $3, $4, $5)`,
			g.ID, int64(l.ID), i, int64(l.StartPinID), int64(l.EndPinID),
		); err != nil {
			return fmt.Errorf("blueprint: insert link %d: %w", l.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("blueprint: commit: %w", err)
	}
	return nil
}

func insertNode(ctx context.Context, tx pgx.Tx, graphID string, position int, n blueprint.Node) error {
	color, err := json.Marshal(n.Color)
	if err != nil {
		return fmt.Errorf("blueprint: encode node %d color: %w", n.ID, err)
	}
	size, err := json.Marshal(n.Size)
	if err != nil {
		return fmt.Errorf("blueprint: encode node %d size: %w", n.ID, err)
	}
	props := n.Properties
	if props == nil {
		props = blueprint.Properties{}
	}
	properties, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("blueprint: encode node %d properties: %w", n.ID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO blueprint_nodes (graph_id, id, position, type, name, color, size, state, properties)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		graphID, int64(n.ID), position, int(n.Type), n.Name,
		json.RawMessage(color), json.RawMessage(size), n.State, json.RawMessage(properties),
	); err != nil {
		return fmt.Errorf("blueprint: insert node %d: %w", n.ID, err)
	}

	for kind, pins := range map[blueprint.PinKind][]blueprint.Pin{
		blueprint.PinKindInput:  n.Inputs,
		blueprint.PinKindOutput: n.Outputs,
	} {
		for slot, p := range pins {
			if _, err := tx.Exec(ctx,
				`INSERT INTO blueprint_pins (graph_id, id, node_id, kind, slot, type, name)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				graphID, int64(p.ID), int64(n.ID), int(kind), slot, int(p.Type), p.Name,
			); err != nil {
				return fmt.Errorf("blueprint: insert pin %d: %w", p.ID, err)
			}
		}
	}
	return nil
}

// GetGraph retrieves a full graph snapshot by its ID.
// Returns nil, nil if the graph doesn't exist.
func (s *PGStore) GetGraph(ctx context.Context, graphID string) (*blueprint.Graph, error) {
	g := &blueprint.Graph{ID: graphID, Nodes: []blueprint.Node{}, Links: []blueprint.Link{}}

	var nextID int64
	err := s.db.QueryRow(ctx,
		`SELECT next_id, layout FROM blueprint_graphs WHERE id = $1`, graphID,
	).Scan(&nextID, &g.Layout)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("blueprint: get graph: %w", err)
	}
	g.NextID = blueprint.ID(nextID)

	index, err := s.loadNodes(ctx, g)
	if err != nil {
		return nil, err
	}
	if err := s.loadPins(ctx, g, index); err != nil {
		return nil, err
	}
	if err := s.loadLinks(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *PGStore) loadNodes(ctx context.Context, g *blueprint.Graph) (map[blueprint.ID]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, name, color, size, state, properties
		 FROM blueprint_nodes WHERE graph_id = $1 ORDER BY position`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("blueprint: query nodes: %w", err)
	}
	defer rows.Close()

	index := make(map[blueprint.ID]int)
	for rows.Next() {
		var (
			id                      int64
			typ                     int32
			n                       blueprint.Node
			color, size, properties []byte
		)
		if err := rows.Scan(&id, &typ, &n.Name, &color, &size, &n.State, &properties); err != nil {
			return nil, fmt.Errorf("blueprint: scan node: %w", err)
		}
		n.ID = blueprint.ID(id)
		n.Type = blueprint.NodeType(typ)
		if err := json.Unmarshal(color, &n.Color); err != nil {
			return nil, fmt.Errorf("blueprint: decode node %d color: %w", id, err)
		}
		if err := json.Unmarshal(size, &n.Size); err != nil {
			return nil, fmt.Errorf("blueprint: decode node %d size: %w", id, err)
		}
		if err := json.Unmarshal(properties, &n.Properties); err != nil {
			return nil, fmt.Errorf("blueprint: decode node %d properties: %w", id, err)
		}
		if len(n.Properties) == 0 {
			n.Properties = nil
		}
		index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blueprint: rows nodes: %w", err)
	}
	return index, nil
}

func (s *PGStore) loadPins(ctx context.Context, g *blueprint.Graph, index map[blueprint.ID]int) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, node_id, kind, type, name
		 FROM blueprint_pins WHERE graph_id = $1 ORDER BY node_id, kind, slot`, g.ID)
	if err != nil {
		return fmt.Errorf("blueprint: query pins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, nodeID int64
			kind, typ  int32
			name       string
		)
		if err := rows.Scan(&id, &nodeID, &kind, &typ, &name); err != nil {
			return fmt.Errorf("blueprint: scan pin: %w", err)
		}
		idx, ok := index[blueprint.ID(nodeID)]
		if !ok {
			return fmt.Errorf("blueprint: pin %d references missing node %d", id, nodeID)
		}
		p := blueprint.Pin{
			ID:     blueprint.ID(id),
			Type:   blueprint.PinType(typ),
			Kind:   blueprint.PinKind(kind),
			Name:   name,
			NodeID: blueprint.ID(nodeID),
		}
		n := &g.Nodes[idx]
		if p.Kind == blueprint.PinKindOutput {
			n.Outputs = append(n.Outputs, p)
		} else {
			n.Inputs = append(n.Inputs, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("blueprint: rows pins: %w", err)
	}
	return nil
}

func (s *PGStore) loadLinks(ctx context.Context, g *blueprint.Graph) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, start_pin_id, end_pin_id FROM blueprint_links WHERE graph_id = $1 ORDER BY position`, g.ID)
	if err != nil {
		return fmt.Errorf("blueprint: query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, start, end int64
		if err := rows.Scan(&id, &start, &end); err != nil {
			return fmt.Errorf("blueprint: scan link: %w", err)
		}
		g.Links = append(g.Links, blueprint.Link{
			ID:         blueprint.ID(id),
			StartPinID: blueprint.ID(start),
			EndPinID:   blueprint.ID(end),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("blueprint: rows links: %w", err)
	}
	return nil
}

// DeleteGraph removes a graph and, by cascade, its nodes, pins and links.
// No error if the graph doesn't exist.
func (s *PGStore) DeleteGraph(ctx context.Context, graphID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM blueprint_graphs WHERE id = $1`, graphID); err != nil {
		return fmt.Errorf("blueprint: delete graph: %w", err)
	}
	return nil
}

// ListGraphs returns every stored graph ID, oldest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListGraphs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM blueprint_graphs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("blueprint: list graphs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("blueprint: scan graph id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blueprint: rows graphs: %w", err)
	}
	return ids, nil
}

var _ blueprint.Store = (*PGStore)(nil)
