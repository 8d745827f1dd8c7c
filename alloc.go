package blueprint

// FirstID is the first value an Allocator issues.
const FirstID ID = 1

// Allocator issues IDs from the namespace shared by nodes, pins and links.
// It is not safe for concurrent use; a Session owns exactly one.
type Allocator struct {
	next ID
}

// NewAllocator returns an allocator whose first issued ID is FirstID.
func NewAllocator() *Allocator {
	return &Allocator{next: FirstID}
}

// Next returns the current counter value and advances it.
func (a *Allocator) Next() ID {
	id := a.next
	a.next++
	return id
}

// Peek returns the value the next call to Next will issue.
func (a *Allocator) Peek() ID {
	return a.next
}

// Reset forces the next issued value. Only meant for session start.
func (a *Allocator) Reset(id ID) {
	a.next = id
}

// Reserve marks id as used so Next never issues it again.
// Next is post-increment, so the counter must move to id+1.
func (a *Allocator) Reserve(id ID) {
	if id+1 > a.next {
		a.next = id + 1
	}
}
