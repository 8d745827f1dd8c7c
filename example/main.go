package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/blueprint"
	"github.com/meikuraledutech/blueprint/memory"
	"github.com/meikuraledutech/blueprint/postgres"
)

func main() {
	ctx := context.Background()
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.DebugLevel, Prefix: "example"})

	// Postgres when DATABASE_URL is set, otherwise an in-memory store.
	var store blueprint.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("connect", "err", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		logger.Fatal("schema", "err", err)
	}

	s := blueprint.NewSession(blueprint.WithLogger(logger))
	defer s.Close()

	// ── Build: Begin Play → Branch → Print ────────────────────────────
	begin, err := s.AddNode(blueprint.Node{
		Type:    blueprint.NodeTypeBlueprint,
		Name:    "Begin Play",
		Outputs: []blueprint.Pin{{Type: blueprint.PinTypeFlow, Name: "exec"}},
	})
	if err != nil {
		logger.Fatal("add node", "err", err)
	}
	branch, err := s.AddNode(blueprint.Node{
		Type: blueprint.NodeTypeBlueprint,
		Name: "Branch",
		Inputs: []blueprint.Pin{
			{Type: blueprint.PinTypeFlow, Name: "exec"},
			{Type: blueprint.PinTypeBool, Name: "condition"},
		},
		Outputs: []blueprint.Pin{
			{Type: blueprint.PinTypeFlow, Name: "true"},
			{Type: blueprint.PinTypeFlow, Name: "false"},
		},
	})
	if err != nil {
		logger.Fatal("add node", "err", err)
	}
	printNode, err := s.AddNode(blueprint.Node{
		Type:       blueprint.NodeTypeSimple,
		Name:       "Print String",
		Inputs:     []blueprint.Pin{{Type: blueprint.PinTypeFlow, Name: "exec"}},
		Outputs:    []blueprint.Pin{{Type: blueprint.PinTypeFlow, Name: "then"}},
		Properties: blueprint.Properties{{Name: "text", Value: "Hello"}},
	})
	if err != nil {
		logger.Fatal("add node", "err", err)
	}

	b, _ := s.FindNode(begin)
	br, _ := s.FindNode(branch)
	p, _ := s.FindNode(printNode)

	mustLink(logger, s, b.Outputs[0].ID, br.Inputs[0].ID)
	mustLink(logger, s, br.Outputs[0].ID, p.Inputs[0].ID)

	// ── Validation ────────────────────────────────────────────────────
	// Print → Branch would close a loop.
	err = s.CanLink(p.Outputs[0].ID, br.Inputs[0].ID)
	fmt.Printf("print -> branch: cycle=%v\n", errors.Is(err, blueprint.ErrCycleDetected))

	// A flow output cannot feed a bool input.
	err = s.CanLink(b.Outputs[0].ID, br.Inputs[1].ID)
	fmt.Printf("exec -> condition: invalid=%v\n", errors.Is(err, blueprint.ErrInvalidLink))

	upstream, _ := s.IsAncestor(begin, printNode)
	fmt.Printf("begin is upstream of print: %v\n", upstream)

	// ── Persistence hooks ─────────────────────────────────────────────
	if err := s.SaveNodeBlob(branch, []byte(`{"collapsed":true}`), blueprint.SaveReasonSelection); err != nil {
		logger.Fatal("save node blob", "err", err)
	}
	if err := s.SaveGraphBlob([]byte(`{"zoom":1.5}`), blueprint.SaveReasonPosition|blueprint.SaveReasonNavigation); err != nil {
		logger.Fatal("save graph blob", "err", err)
	}
	fmt.Printf("dirty after moving the canvas: %v\n", s.Dirty())

	snap, err := s.Snapshot()
	if err != nil {
		logger.Fatal("snapshot", "err", err)
	}
	snap.ID = "hello-world"
	if err := store.SaveGraph(ctx, snap); err != nil {
		logger.Fatal("save graph", "err", err)
	}
	s.MarkSaved()
	fmt.Println("\ngraph saved:")
	printJSON(snap)

	// ── Restore into a fresh session ──────────────────────────────────
	stored, err := store.GetGraph(ctx, "hello-world")
	if err != nil || stored == nil {
		logger.Fatal("get graph", "err", err)
	}
	restored := blueprint.NewSession()
	if err := restored.Load(stored); err != nil {
		logger.Fatal("load", "err", err)
	}
	next, _ := restored.NextID()
	fmt.Printf("\nrestored %d nodes, next id %d\n", len(restored.Nodes()), next)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteGraph(ctx, "hello-world"); err != nil {
		logger.Fatal("delete", "err", err)
	}
	fmt.Println("graph deleted")
}

func mustLink(logger *log.Logger, s *blueprint.Session, start, end blueprint.ID) {
	if _, err := s.AddLink(start, end); err != nil {
		logger.Fatal("add link", "start", start, "end", end, "err", err)
	}
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
