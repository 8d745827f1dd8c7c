package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blueprint_graphs (
    id         TEXT PRIMARY KEY,
    next_id    BIGINT NOT NULL DEFAULT 1,
    layout     BYTEA,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS blueprint_nodes (
    graph_id   TEXT NOT NULL REFERENCES blueprint_graphs(id) ON DELETE CASCADE,
    id         BIGINT NOT NULL,
    position   INTEGER NOT NULL,
    type       INTEGER NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    color      JSONB NOT NULL DEFAULT '{}',
    size       JSONB NOT NULL DEFAULT '{}',
    state      BYTEA,
    properties JSONB NOT NULL DEFAULT '[]',
    PRIMARY KEY (graph_id, id)
);

CREATE TABLE IF NOT EXISTS blueprint_pins (
    graph_id TEXT NOT NULL,
    id       BIGINT NOT NULL,
    node_id  BIGINT NOT NULL,
    kind     INTEGER NOT NULL,
    slot     INTEGER NOT NULL,
    type     INTEGER NOT NULL,
    name     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (graph_id, id),
    FOREIGN KEY (graph_id, node_id) REFERENCES blueprint_nodes(graph_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS blueprint_links (
    graph_id     TEXT NOT NULL REFERENCES blueprint_graphs(id) ON DELETE CASCADE,
    id           BIGINT NOT NULL,
    position     INTEGER NOT NULL,
    start_pin_id BIGINT NOT NULL,
    end_pin_id   BIGINT NOT NULL,
    PRIMARY KEY (graph_id, id),
    FOREIGN KEY (graph_id, start_pin_id) REFERENCES blueprint_pins(graph_id, id) ON DELETE CASCADE,
    FOREIGN KEY (graph_id, end_pin_id)   REFERENCES blueprint_pins(graph_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_blueprint_pins_node    ON blueprint_pins(graph_id, node_id);
CREATE INDEX IF NOT EXISTS idx_blueprint_links_start  ON blueprint_links(graph_id, start_pin_id);
CREATE INDEX IF NOT EXISTS idx_blueprint_links_end    ON blueprint_links(graph_id, end_pin_id);
`

// CreateSchema creates the blueprint tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every blueprint table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS blueprint_links, blueprint_pins, blueprint_nodes, blueprint_graphs CASCADE;`)
	return err
}
