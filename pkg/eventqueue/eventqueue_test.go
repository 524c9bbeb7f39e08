package eventqueue

import "testing"

func TestPopUntilOrdersByTickThenInsertion(t *testing.T) {
	q := New()
	q.Push(Event{Tick: 5, Kind: CreatureActivation, EntityID: 1})
	q.Push(Event{Tick: 2, Kind: CreatureActivation, EntityID: 2})
	q.Push(Event{Tick: 2, Kind: CreatureActivation, EntityID: 3})
	q.Push(Event{Tick: 2, Kind: TreeHeartbeat, EntityID: 4})

	popped := q.PopUntil(2)
	if len(popped) != 3 {
		t.Fatalf("expected 3 events at tick 2, got %d", len(popped))
	}
	wantOrder := []uint64{2, 3, 4}
	for i, e := range popped {
		if e.EntityID != wantOrder[i] {
			t.Fatalf("event %d: expected entity %d, got %d", i, wantOrder[i], e.EntityID)
		}
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 remaining event, got %d", q.Len())
	}
}

func TestPopUntilEmptyQueue(t *testing.T) {
	q := New()
	if out := q.PopUntil(100); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}

func TestPeekTick(t *testing.T) {
	q := New()
	if _, ok := q.PeekTick(); ok {
		t.Fatal("expected no tick on empty queue")
	}
	q.Push(Event{Tick: 10, Kind: TreeHeartbeat, EntityID: 1})
	tick, ok := q.PeekTick()
	if !ok || tick != 10 {
		t.Fatalf("expected tick 10, got %d ok=%v", tick, ok)
	}
}

func TestPopUntilDoesNotPopFutureEvents(t *testing.T) {
	q := New()
	q.Push(Event{Tick: 5, Kind: TreeHeartbeat, EntityID: 1})
	q.Push(Event{Tick: 10, Kind: TreeHeartbeat, EntityID: 2})
	out := q.PopUntil(5)
	if len(out) != 1 || out[0].EntityID != 1 {
		t.Fatalf("expected only tick-5 event, got %v", out)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", q.Len())
	}
}
