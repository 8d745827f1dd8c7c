package blueprint

import (
	"errors"
	"fmt"

	"github.com/meikuraledutech/blueprint/metrics"
)

// IsAncestor reports whether descendant can be reached from ancestor by
// following links from output pins to input pins.
//
// The search walks backward from the descendant's linked input pins. It is
// iterative and remembers visited nodes for the duration of one call, so
// long chains do not grow the stack. IsAncestor(a, a) is true only when a
// link runs from an output of a to an input of a.
//
// A link whose start pin does not belong to any node yields ErrDanglingLink.
func (s *Session) IsAncestor(ancestor, descendant ID) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if _, ok := s.nodeIndex[ancestor]; !ok {
		return false, fmt.Errorf("%w: ancestor %d", ErrNodeNotFound, ancestor)
	}
	if _, ok := s.nodeIndex[descendant]; !ok {
		return false, fmt.Errorf("%w: descendant %d", ErrNodeNotFound, descendant)
	}

	found, visits, err := s.reaches(ancestor, descendant)
	metrics.AncestorVisits.Observe(float64(visits))
	return found, err
}

func (s *Session) reaches(ancestor, descendant ID) (bool, int, error) {
	visited := map[ID]bool{descendant: true}
	stack := []ID{descendant}
	visits := 0

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visits++

		idx, ok := s.nodeIndex[id]
		if !ok {
			return false, visits, fmt.Errorf("%w: node %d", ErrDanglingLink, id)
		}
		n := &s.nodes[idx]

		var candidates []ID
		for _, in := range n.Inputs {
			for _, l := range s.pinLinks[in.ID] {
				if l.EndPinID != in.ID {
					continue
				}
				owner, ok := s.pinOwner[l.StartPinID]
				if !ok {
					return false, visits, fmt.Errorf("%w: link %d start pin %d", ErrDanglingLink, l.ID, l.StartPinID)
				}
				if owner == ancestor {
					return true, visits, nil
				}
				if !visited[owner] {
					visited[owner] = true
					candidates = append(candidates, owner)
				}
			}
		}

		// Push in reverse so candidates are explored in discovery order.
		for i := len(candidates) - 1; i >= 0; i-- {
			stack = append(stack, candidates[i])
		}
	}
	return false, visits, nil
}

// CanLink validates a prospective link from startPinID to endPinID without
// modifying the graph. It returns ErrPinNotFound for unknown pins,
// ErrInvalidLink for same-pin, wrong-direction or incompatible pins, and
// ErrCycleDetected when the link would close a cycle.
func (s *Session) CanLink(startPinID, endPinID ID) error {
	err := s.canLink(startPinID, endPinID)
	switch {
	case err == nil:
		metrics.LinkChecks.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, ErrCycleDetected):
		metrics.LinkChecks.WithLabelValues(metrics.ResultCycle).Inc()
		s.logger.Debug("link rejected", "start", startPinID, "end", endPinID, "err", err)
	case errors.Is(err, ErrNotInitialized):
	default:
		metrics.LinkChecks.WithLabelValues(metrics.ResultInvalid).Inc()
		s.logger.Debug("link rejected", "start", startPinID, "end", endPinID, "err", err)
	}
	return err
}

func (s *Session) canLink(startPinID, endPinID ID) error {
	if err := s.check(); err != nil {
		return err
	}
	if startPinID == endPinID {
		return fmt.Errorf("%w: pin %d linked to itself", ErrInvalidLink, startPinID)
	}

	start, err := s.FindPin(startPinID)
	if err != nil {
		return err
	}
	if start == nil {
		return fmt.Errorf("%w: %d", ErrPinNotFound, startPinID)
	}
	end, err := s.FindPin(endPinID)
	if err != nil {
		return err
	}
	if end == nil {
		return fmt.Errorf("%w: %d", ErrPinNotFound, endPinID)
	}

	if start.Kind != PinKindOutput || end.Kind != PinKindInput {
		return fmt.Errorf("%w: links run from an output to an input", ErrInvalidLink)
	}
	if !s.compat(start, end) {
		return fmt.Errorf("%w: %s pin %d cannot connect to %s pin %d",
			ErrInvalidLink, start.Type, start.ID, end.Type, end.ID)
	}

	if start.NodeID == end.NodeID {
		return fmt.Errorf("%w: node %d linked to itself", ErrCycleDetected, start.NodeID)
	}
	cycle, err := s.IsAncestor(end.NodeID, start.NodeID)
	if err != nil {
		return err
	}
	if cycle {
		return fmt.Errorf("%w: node %d already reaches node %d", ErrCycleDetected, end.NodeID, start.NodeID)
	}
	return nil
}
