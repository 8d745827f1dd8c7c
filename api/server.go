// Package api serves blueprint sessions over HTTP. Each graph is hosted as
// an in-memory session loaded from, and saved to, a blueprint.Store.
package api

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meikuraledutech/blueprint"
	"github.com/meikuraledutech/blueprint/metrics"
)

// ErrTooManySessions is returned when the hosted session cap is reached.
var ErrTooManySessions = errors.New("api: too many open graphs")

// Options tunes a Server.
type Options struct {
	MaxSessions  int
	StoreTimeout time.Duration
	Logger       *log.Logger
	// Compatibility overrides the pin compatibility rule of new sessions.
	Compatibility blueprint.PinCompatibility
}

// Server hosts graph sessions. Sessions are single-threaded, so every
// request holds the lock of the session it touches.
type Server struct {
	store  blueprint.Store
	opts   Options
	logger *log.Logger

	mu     sync.Mutex
	graphs map[string]*hosted
}

// hosted is one graph in memory. session is nil once the graph is closed.
type hosted struct {
	mu      sync.Mutex
	session *blueprint.Session
}

// New creates a Server persisting through store.
func New(store blueprint.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.StoreTimeout == 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Server{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		graphs: make(map[string]*hosted),
	}
}

func (s *Server) newSession() *blueprint.Session {
	opts := []blueprint.Option{blueprint.WithLogger(s.logger.WithPrefix("session"))}
	if s.opts.Compatibility != nil {
		opts = append(opts, blueprint.WithCompatibility(s.opts.Compatibility))
	}
	return blueprint.NewSession(opts...)
}

func (s *Server) full() bool {
	return s.opts.MaxSessions > 0 && len(s.graphs) >= s.opts.MaxSessions
}

// create opens a new, empty graph under a fresh UUID.
func (s *Server) create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full() {
		return "", ErrTooManySessions
	}
	id := uuid.NewString()
	s.graphs[id] = &hosted{session: s.newSession()}
	metrics.ActiveSessions.Set(float64(len(s.graphs)))
	s.logger.Info("graph created", "graph", id)
	return id, nil
}

// acquire returns the hosted graph locked, loading it from the store on
// first use. The caller must unlock the returned graph.
func (s *Server) acquire(ctx context.Context, id string) (*hosted, error) {
	s.mu.Lock()
	h, ok := s.graphs[id]
	s.mu.Unlock()

	if !ok {
		var err error
		if h, err = s.load(ctx, id); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	// close may have run between the map lookup and h.mu.
	if h.session == nil {
		h.mu.Unlock()
		return nil, blueprint.ErrGraphNotFound
	}
	return h, nil
}

// load reads a graph from the store without holding s.mu, then hosts it
// unless a concurrent request got there first.
func (s *Server) load(ctx context.Context, id string) (*hosted, error) {
	s.mu.Lock()
	full := s.full()
	s.mu.Unlock()
	if full {
		return nil, ErrTooManySessions
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	g, err := s.store.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, blueprint.ErrGraphNotFound
	}
	sess := s.newSession()
	if err := sess.Load(g); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.graphs[id]; ok {
		sess.Close()
		return h, nil
	}
	if s.full() {
		sess.Close()
		return nil, ErrTooManySessions
	}
	h := &hosted{session: sess}
	s.graphs[id] = h
	metrics.ActiveSessions.Set(float64(len(s.graphs)))
	s.logger.Info("graph loaded", "graph", id, "nodes", len(g.Nodes), "links", len(g.Links))
	return h, nil
}

// save persists the hosted graph and clears its dirty flag.
// The caller must hold h.mu.
func (s *Server) save(ctx context.Context, id string, h *hosted) error {
	g, err := h.session.Snapshot()
	if err != nil {
		return err
	}
	g.ID = id

	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	if err := s.store.SaveGraph(ctx, g); err != nil {
		return err
	}
	h.session.MarkSaved()
	s.logger.Info("graph saved", "graph", id, "nodes", len(g.Nodes), "links", len(g.Links))
	return nil
}

// close drops a graph from memory, optionally deleting it from the store.
func (s *Server) close(ctx context.Context, id string, purge bool) error {
	s.mu.Lock()
	h, ok := s.graphs[id]
	delete(s.graphs, id)
	metrics.ActiveSessions.Set(float64(len(s.graphs)))
	s.mu.Unlock()

	if ok {
		h.mu.Lock()
		h.session.Close()
		h.session = nil
		h.mu.Unlock()
	}
	if !purge {
		if !ok {
			return blueprint.ErrGraphNotFound
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.store.DeleteGraph(ctx, id)
}

// hostedIDs lists the graphs currently in memory.
func (s *Server) hostedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown saves every dirty graph. Errors are logged and the first one
// is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	var first error
	for _, id := range s.hostedIDs() {
		s.mu.Lock()
		h, ok := s.graphs[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		h.mu.Lock()
		if h.session != nil && h.session.Dirty() {
			if err := s.save(ctx, id, h); err != nil {
				s.logger.Error("save on shutdown failed", "graph", id, "err", err)
				if first == nil {
					first = err
				}
			}
		}
		h.mu.Unlock()
	}
	return first
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(s.requestLogger)

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	s.routes(app)
	return app
}

func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed", time.Since(start).Round(time.Microsecond),
	)
	return err
}
