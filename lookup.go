package blueprint

// FindNode returns the node with the given ID.
// Returns nil, nil if not found.
func (s *Session) FindNode(id ID) (*Node, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return &s.nodes[i], nil
		}
	}
	return nil, nil
}

// FindLink returns the link with the given ID.
// Returns nil, nil if not found.
func (s *Session) FindLink(id ID) (*Link, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	for i := range s.links {
		if s.links[i].ID == id {
			return &s.links[i], nil
		}
	}
	return nil, nil
}

// FindPin scans the input and output pins of every node.
// Returns nil, nil if not found or if id is NoID.
func (s *Session) FindPin(id ID) (*Pin, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if id == NoID {
		return nil, nil
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		for j := range n.Inputs {
			if n.Inputs[j].ID == id {
				return &n.Inputs[j], nil
			}
		}
		for j := range n.Outputs {
			if n.Outputs[j].ID == id {
				return &n.Outputs[j], nil
			}
		}
	}
	return nil, nil
}

// IsPinLinked reports whether any link starts or ends at the pin.
// NoID is never linked.
func (s *Session) IsPinLinked(id ID) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if id == NoID {
		return false, nil
	}
	return len(s.pinLinks[id]) > 0, nil
}
