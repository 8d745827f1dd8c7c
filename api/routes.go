package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/blueprint"
)

type linkRequest struct {
	StartPinID blueprint.ID `json:"start_pin_id"`
	EndPinID   blueprint.ID `json:"end_pin_id"`
}

// fail maps a blueprint error to a status code and JSON body.
func fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, blueprint.ErrGraphNotFound),
		errors.Is(err, blueprint.ErrNotInitialized),
		errors.Is(err, blueprint.ErrNodeNotFound),
		errors.Is(err, blueprint.ErrPinNotFound),
		errors.Is(err, blueprint.ErrLinkNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, blueprint.ErrCycleDetected):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, blueprint.ErrInvalidLink):
		status = fiber.StatusBadRequest
	case errors.Is(err, blueprint.ErrDuplicateID),
		errors.Is(err, blueprint.ErrDanglingLink):
		status = fiber.StatusConflict
	case errors.Is(err, ErrTooManySessions):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusGatewayTimeout
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parseID reads a numeric path parameter or query value.
func parseID(raw string) (blueprint.ID, bool) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return blueprint.NoID, false
	}
	return blueprint.ID(v), true
}

func parseReason(raw string) (blueprint.SaveReason, bool) {
	if raw == "" {
		return blueprint.SaveReasonNone, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return blueprint.SaveReason(v), true
}

// withGraph runs fn with the graph named by the :graph parameter locked.
func (s *Server) withGraph(c fiber.Ctx, fn func(h *hosted) error) error {
	h, err := s.acquire(c.Context(), c.Params("graph"))
	if err != nil {
		return fail(c, err)
	}
	defer h.mu.Unlock()
	return fn(h)
}

func (s *Server) routes(app *fiber.App) {
	// ── Graphs ────────────────────────────────────────────────────────
	app.Post("/graphs", func(c fiber.Ctx) error {
		id, err := s.create()
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	app.Get("/graphs", func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), s.opts.StoreTimeout)
		defer cancel()
		stored, err := s.store.ListGraphs(ctx)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"stored": stored, "open": s.hostedIDs()})
	})

	app.Get("/graphs/:graph", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			g, err := h.session.Snapshot()
			if err != nil {
				return fail(c, err)
			}
			g.ID = c.Params("graph")
			return c.JSON(g)
		})
	})

	app.Put("/graphs/:graph", func(c fiber.Ctx) error {
		var g blueprint.Graph
		if err := c.Bind().JSON(&g); err != nil {
			return badRequest(c, "invalid body")
		}
		return s.withGraph(c, func(h *hosted) error {
			if err := h.session.Load(&g); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	app.Delete("/graphs/:graph", func(c fiber.Ctx) error {
		purge := c.Query("purge") == "true"
		if err := s.close(c.Context(), c.Params("graph"), purge); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/graphs/:graph/save", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			if err := s.save(c.Context(), c.Params("graph"), h); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	app.Get("/graphs/:graph/dirty", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			return c.JSON(fiber.Map{"dirty": h.session.Dirty()})
		})
	})

	// ── Layout blob ───────────────────────────────────────────────────
	app.Get("/graphs/:graph/layout", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			data, err := h.session.LoadGraphBlob()
			if err != nil {
				return fail(c, err)
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
			return c.Send(data)
		})
	})

	app.Put("/graphs/:graph/layout", func(c fiber.Ctx) error {
		reason, ok := parseReason(c.Query("reason"))
		if !ok {
			return badRequest(c, "invalid reason")
		}
		return s.withGraph(c, func(h *hosted) error {
			if err := h.session.SaveGraphBlob(c.Body(), reason); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/graphs/:graph/nodes", func(c fiber.Ctx) error {
		var node blueprint.Node
		if err := c.Bind().JSON(&node); err != nil {
			return badRequest(c, "invalid body")
		}
		return s.withGraph(c, func(h *hosted) error {
			id, err := h.session.AddNode(node)
			if err != nil {
				return fail(c, err)
			}
			n, _ := h.session.FindNode(id)
			return c.Status(fiber.StatusCreated).JSON(n)
		})
	})

	app.Get("/graphs/:graph/nodes", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			return c.JSON(h.session.Nodes())
		})
	})

	app.Get("/graphs/:graph/nodes/:node", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("node"))
		if !ok {
			return badRequest(c, "invalid node id")
		}
		return s.withGraph(c, func(h *hosted) error {
			n, err := h.session.FindNode(id)
			if err != nil {
				return fail(c, err)
			}
			if n == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node not found"})
			}
			return c.JSON(n)
		})
	})

	app.Delete("/graphs/:graph/nodes/:node", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("node"))
		if !ok {
			return badRequest(c, "invalid node id")
		}
		return s.withGraph(c, func(h *hosted) error {
			if err := h.session.RemoveNode(id); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	app.Get("/graphs/:graph/nodes/:node/state", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("node"))
		if !ok {
			return badRequest(c, "invalid node id")
		}
		return s.withGraph(c, func(h *hosted) error {
			data, err := h.session.LoadNodeBlob(id)
			if err != nil {
				return fail(c, err)
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
			return c.Send(data)
		})
	})

	app.Put("/graphs/:graph/nodes/:node/state", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("node"))
		if !ok {
			return badRequest(c, "invalid node id")
		}
		reason, ok := parseReason(c.Query("reason"))
		if !ok {
			return badRequest(c, "invalid reason")
		}
		return s.withGraph(c, func(h *hosted) error {
			if err := h.session.SaveNodeBlob(id, c.Body(), reason); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	// ── Pins ──────────────────────────────────────────────────────────
	app.Get("/graphs/:graph/pins/:pin", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("pin"))
		if !ok {
			return badRequest(c, "invalid pin id")
		}
		return s.withGraph(c, func(h *hosted) error {
			p, err := h.session.FindPin(id)
			if err != nil {
				return fail(c, err)
			}
			if p == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "pin not found"})
			}
			linked, _ := h.session.IsPinLinked(id)
			return c.JSON(fiber.Map{
				"id":      p.ID,
				"type":    p.Type,
				"kind":    p.Kind,
				"name":    p.Name,
				"node_id": p.NodeID,
				"linked":  linked,
			})
		})
	})

	// ── Links ─────────────────────────────────────────────────────────
	app.Post("/graphs/:graph/links", func(c fiber.Ctx) error {
		var req linkRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid body")
		}
		return s.withGraph(c, func(h *hosted) error {
			id, err := h.session.AddLink(req.StartPinID, req.EndPinID)
			if err != nil {
				return fail(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(blueprint.Link{
				ID: id, StartPinID: req.StartPinID, EndPinID: req.EndPinID,
			})
		})
	})

	app.Get("/graphs/:graph/links", func(c fiber.Ctx) error {
		return s.withGraph(c, func(h *hosted) error {
			return c.JSON(h.session.Links())
		})
	})

	// Registered before /links/:link so "check" is not parsed as an ID.
	app.Get("/graphs/:graph/links/check", func(c fiber.Ctx) error {
		start, ok1 := parseID(c.Query("start"))
		end, ok2 := parseID(c.Query("end"))
		if !ok1 || !ok2 {
			return badRequest(c, "start and end pin ids are required")
		}
		return s.withGraph(c, func(h *hosted) error {
			err := h.session.CanLink(start, end)
			if err != nil && !errors.Is(err, blueprint.ErrCycleDetected) &&
				!errors.Is(err, blueprint.ErrInvalidLink) && !errors.Is(err, blueprint.ErrPinNotFound) {
				return fail(c, err)
			}
			body := fiber.Map{"valid": err == nil}
			if err != nil {
				body["reason"] = err.Error()
			}
			return c.JSON(body)
		})
	})

	app.Get("/graphs/:graph/links/:link", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("link"))
		if !ok {
			return badRequest(c, "invalid link id")
		}
		return s.withGraph(c, func(h *hosted) error {
			l, err := h.session.FindLink(id)
			if err != nil {
				return fail(c, err)
			}
			if l == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
			}
			return c.JSON(l)
		})
	})

	app.Delete("/graphs/:graph/links/:link", func(c fiber.Ctx) error {
		id, ok := parseID(c.Params("link"))
		if !ok {
			return badRequest(c, "invalid link id")
		}
		return s.withGraph(c, func(h *hosted) error {
			if err := h.session.RemoveLink(id); err != nil {
				return fail(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	// ── Ancestry ──────────────────────────────────────────────────────
	app.Get("/graphs/:graph/ancestry", func(c fiber.Ctx) error {
		ancestor, ok1 := parseID(c.Query("ancestor"))
		descendant, ok2 := parseID(c.Query("descendant"))
		if !ok1 || !ok2 {
			return badRequest(c, "ancestor and descendant node ids are required")
		}
		return s.withGraph(c, func(h *hosted) error {
			ok, err := h.session.IsAncestor(ancestor, descendant)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"ancestor": ok})
		})
	})
}
