// Package eventqueue implements the monotonic priority queue of scheduled
// kernel events described in spec §4.3: events are ordered by (tick,
// insertion order), with ties broken deterministically by insertion
// sequence so that replay is byte-identical across replicas.
package eventqueue

import "container/heap"

// Kind tags the four scheduled event variants the sim kernel drives.
type Kind uint8

const (
	CreatureHeartbeat Kind = iota
	CreatureActivation
	CreatureMovementComplete
	TreeHeartbeat
)

// Event is a scheduled occurrence at a future tick. Payload carries
// whichever entity id (creature or tree) the event concerns, and for
// CreatureMovementComplete, the arrival node.
type Event struct {
	Tick    uint64
	Kind    Kind
	EntityID uint64
	ArrivedAt uint64 // only meaningful for CreatureMovementComplete
}

type entry struct {
	event Event
	seq   uint64
	index int
}

type heapImpl []*entry

func (h heapImpl) Len() int { return len(h) }
func (h heapImpl) Less(i, j int) bool {
	if h[i].event.Tick != h[j].event.Tick {
		return h[i].event.Tick < h[j].event.Tick
	}
	return h[i].seq < h[j].seq
}
func (h heapImpl) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *heapImpl) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *heapImpl) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is a tick-ordered, insertion-order-tiebroken priority queue of
// Events. The zero value is not usable; construct with New.
type Queue struct {
	h       heapImpl
	nextSeq uint64
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push schedules an event, assigning it the next insertion sequence number.
func (q *Queue) Push(e Event) {
	heap.Push(&q.h, &entry{event: e, seq: q.nextSeq})
	q.nextSeq++
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return q.h.Len() }

// PeekTick returns the tick of the earliest pending event and ok=true, or
// ok=false if the queue is empty.
func (q *Queue) PeekTick() (uint64, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h[0].event.Tick, true
}

// PopUntil removes and returns, in (tick, insertion-order) order, every
// event whose tick is <= target.
func (q *Queue) PopUntil(target uint64) []Event {
	var out []Event
	for q.h.Len() > 0 && q.h[0].event.Tick <= target {
		e := heap.Pop(&q.h).(*entry)
		out = append(out, e.event)
	}
	return out
}
