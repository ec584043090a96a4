package render

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/spanrender/pkg/html"
	"github.com/vango-dev/spanrender/pkg/protocol"
)

// Slots allocates slot ids and tracks the async values still pending for
// one streamed response. It is owned by a single stream and is not safe
// for concurrent use.
type Slots struct {
	prefix  string
	next    int
	pending map[string]*html.Async
	order   []string
}

// NewSlots returns an empty slot registry generating ids prefix1,
// prefix2, and so on. It fails if the prefix cannot form a valid slot id.
func NewSlots(prefix string) (*Slots, error) {
	if !protocol.ValidSlotID(prefix + "1") {
		return nil, fmt.Errorf("render: invalid slot prefix %q", prefix)
	}
	return &Slots{prefix: prefix, pending: make(map[string]*html.Async)}, nil
}

// Register allocates the next slot id for a.
func (s *Slots) Register(a *html.Async) string {
	s.next++
	id := s.prefix + strconv.Itoa(s.next)
	s.pending[id] = a
	s.order = append(s.order, id)
	return id
}

// Settle removes id from the pending set.
func (s *Slots) Settle(id string) {
	delete(s.pending, id)
}

// Lookup returns the async value registered under id while it is pending.
func (s *Slots) Lookup(id string) (*html.Async, bool) {
	a, ok := s.pending[id]
	return a, ok
}

// Pending returns the ids still awaiting resolution in allocation order.
func (s *Slots) Pending() []string {
	out := make([]string, 0, len(s.pending))
	for _, id := range s.order {
		if _, ok := s.pending[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of ids allocated so far.
func (s *Slots) Len() int {
	return s.next
}
