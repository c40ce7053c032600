package gpio

import (
	"sync"

	"github.com/google/uuid"
)

// Claim records one line reservation made through a Registry.
type Claim struct {
	ID       uuid.UUID
	Offset   int
	Consumer string
}

// Registry tracks which line offsets are reserved. Backends whose
// underlying transport enforces exclusivity itself (like the kernel
// character device) do not need one; the simulated and periph.io
// backends use a Registry per chip. A Registry is explicit state owned
// by the chip that created it, never a package global.
type Registry struct {
	mutex  sync.Mutex
	claims map[int]*Claim
}

func NewRegistry() *Registry {
	return &Registry{
		claims: make(map[int]*Claim),
	}
}

// Claim reserves an offset. It fails with ErrorBusy if the offset is
// held by another claim.
func (r *Registry) Claim(offset int, consumer string) (*Claim, error) {
	if consumer == "" {
		consumer = ConsumerDefault
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, busy := r.claims[offset]; busy {
		return nil, ErrorBusy
	}

	c := &Claim{
		ID:       uuid.New(),
		Offset:   offset,
		Consumer: consumer,
	}
	r.claims[offset] = c

	return c, nil
}

// Release returns a claimed offset. Releasing a claim that is no
// longer current is a no-op, so Release can be called multiple times.
func (r *Registry) Release(c *Claim) {
	if c == nil {
		return
	}

	r.mutex.Lock()
	if cur, ok := r.claims[c.Offset]; ok && cur.ID == c.ID {
		delete(r.claims, c.Offset)
	}
	r.mutex.Unlock()
}

// Holder returns the claim currently holding an offset, if any.
func (r *Registry) Holder(offset int) (*Claim, bool) {
	r.mutex.Lock()
	c, ok := r.claims[offset]
	r.mutex.Unlock()

	return c, ok
}
