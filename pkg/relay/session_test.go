package relay

import (
	"sync"
	"testing"

	"github.com/elvencanopy/canopy/pkg/protocol"
)

// fakeSender records every ServerMessage sent to it, standing in for a
// TCP connection in tests (session.rs's tests use an equivalent in-process
// mock transport).
type fakeSender struct {
	mu  sync.Mutex
	got []protocol.ServerMessage
}

func (f *fakeSender) Send(msg protocol.ServerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msg)
	return nil
}

func (f *fakeSender) last() protocol.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.got) == 0 {
		return protocol.ServerMessage{}
	}
	return f.got[len(f.got)-1]
}

func (f *fakeSender) kinds() []protocol.ServerMessageKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.ServerMessageKind, len(f.got))
	for i, m := range f.got {
		out[i] = m.Kind
	}
	return out
}

func TestAddPlayerRejectsWrongPassword(t *testing.T) {
	s := NewSession("lobby", "secret", 1, 4)
	if _, err := s.AddPlayer("Alice", 1, 1, "wrong", &fakeSender{}); err == nil {
		t.Fatal("expected rejection for wrong password")
	}
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	s := NewSession("lobby", "", 1, 1)
	if _, err := s.AddPlayer("Alice", 1, 1, "", &fakeSender{}); err != nil {
		t.Fatalf("first join should succeed: %v", err)
	}
	if _, err := s.AddPlayer("Bob", 1, 1, "", &fakeSender{}); err == nil {
		t.Fatal("expected rejection once session is full")
	}
}

func TestAddPlayerRejectsVersionMismatch(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	if _, err := s.AddPlayer("Alice", 100, 200, "", &fakeSender{}); err != nil {
		t.Fatalf("first join should succeed: %v", err)
	}
	if _, err := s.AddPlayer("Bob", 101, 200, "", &fakeSender{}); err == nil {
		t.Fatal("expected rejection for sim version mismatch")
	}
	if _, err := s.AddPlayer("Carol", 100, 201, "", &fakeSender{}); err == nil {
		t.Fatal("expected rejection for config hash mismatch")
	}
}

func TestFirstPlayerBecomesHost(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	alice := &fakeSender{}
	id, _ := s.AddPlayer("Alice", 1, 1, "", alice)

	// Non-host SetSpeed is ignored.
	bob := &fakeSender{}
	bobID, _ := s.AddPlayer("Bob", 1, 1, "", bob)
	s.SetSpeed(bobID, 5)
	if s.ticksPerTurn == 5 {
		t.Fatal("non-host SetSpeed must not apply")
	}

	s.SetSpeed(id, 5)
	if s.ticksPerTurn != 5 {
		t.Fatal("host SetSpeed must apply")
	}
}

func TestWelcomeListsExistingPlayersAndJoinedBroadcasts(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	alice := &fakeSender{}
	aliceID, _ := s.AddPlayer("Alice", 1, 1, "", alice)

	bob := &fakeSender{}
	_, _ = s.AddPlayer("Bob", 1, 1, "", bob)

	// Alice must see Bob's PlayerJoined broadcast, but Bob's own Welcome
	// should already list Alice without a redundant PlayerJoined for self.
	found := false
	for _, m := range alice.got {
		if m.Kind == protocol.ServerPlayerJoined && m.Player != nil && m.Player.ID != aliceID {
			found = true
		}
	}
	if !found {
		t.Fatal("existing player did not observe PlayerJoined for the newcomer")
	}

	welcome := bob.got[0]
	if welcome.Kind != protocol.ServerWelcome {
		t.Fatalf("expected first message to newcomer to be Welcome, got %v", welcome.Kind)
	}
	if len(welcome.Players) != 2 {
		t.Fatalf("expected Welcome to list both players, got %d", len(welcome.Players))
	}
}

func TestRemovePlayerBroadcastsLeftAndDropsChecksums(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	alice := &fakeSender{}
	aliceID, _ := s.AddPlayer("Alice", 1, 1, "", alice)
	bob := &fakeSender{}
	_, _ = s.AddPlayer("Bob", 1, 1, "", bob)

	s.RecordChecksum(aliceID, 10, 42)
	s.RemovePlayer(aliceID)

	if s.PlayerCount() != 1 {
		t.Fatalf("expected 1 player remaining, got %d", s.PlayerCount())
	}
	last := bob.last()
	if last.Kind != protocol.ServerPlayerLeft || last.PlayerID != aliceID {
		t.Fatalf("expected PlayerLeft for alice, got %+v", last)
	}
	if _, ok := s.checksums[10][aliceID]; ok {
		t.Fatal("departed player's checksum should have been dropped")
	}
}

func TestFlushTurnNoopBeforeGameStart(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	sender := &fakeSender{}
	id, _ := s.AddPlayer("Alice", 1, 1, "", sender)
	s.EnqueueCommand(protocol.TurnCommand{PlayerID: id, Sequence: 1})
	s.FlushTurn()
	for _, k := range sender.kinds() {
		if k == protocol.ServerTurn {
			t.Fatal("FlushTurn must not emit a Turn before the game has started")
		}
	}
}

func TestFlushTurnOrdersCommandsCanonically(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	hostSender := &fakeSender{}
	hostID, _ := s.AddPlayer("Host", 1, 1, "", hostSender)
	otherSender := &fakeSender{}
	otherID, _ := s.AddPlayer("Other", 1, 1, "", otherSender)

	s.HandleStartGame(hostID, 99, "{}")

	s.EnqueueCommand(protocol.TurnCommand{PlayerID: otherID, Sequence: 2})
	s.EnqueueCommand(protocol.TurnCommand{PlayerID: hostID, Sequence: 5})
	s.EnqueueCommand(protocol.TurnCommand{PlayerID: otherID, Sequence: 1})
	s.FlushTurn()

	turn := hostSender.last()
	if turn.Kind != protocol.ServerTurn {
		t.Fatalf("expected a Turn message, got %v", turn.Kind)
	}
	if len(turn.Commands) != 3 {
		t.Fatalf("expected 3 queued commands, got %d", len(turn.Commands))
	}
	want := []protocol.PlayerID{hostID, otherID, otherID}
	for i, c := range turn.Commands {
		if c.PlayerID != want[i] {
			t.Fatalf("command %d: expected player %d, got %d", i, want[i], c.PlayerID)
		}
	}
	if turn.Commands[1].Sequence != 1 || turn.Commands[2].Sequence != 2 {
		t.Fatal("commands from the same player must stay in sequence order")
	}
}

func TestDesyncDetectedOnChecksumMismatch(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	a := &fakeSender{}
	aID, _ := s.AddPlayer("A", 1, 1, "", a)
	b := &fakeSender{}
	bID, _ := s.AddPlayer("B", 1, 1, "", b)

	s.RecordChecksum(aID, 7, 111)
	s.RecordChecksum(bID, 7, 222)

	gotDesync := false
	for _, k := range a.kinds() {
		if k == protocol.ServerDesyncDetected {
			gotDesync = true
		}
	}
	if !gotDesync {
		t.Fatal("expected DesyncDetected broadcast on checksum mismatch")
	}
}

func TestNoDesyncOnMatchingChecksums(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	a := &fakeSender{}
	aID, _ := s.AddPlayer("A", 1, 1, "", a)
	b := &fakeSender{}
	bID, _ := s.AddPlayer("B", 1, 1, "", b)

	s.RecordChecksum(aID, 7, 999)
	s.RecordChecksum(bID, 7, 999)

	for _, k := range a.kinds() {
		if k == protocol.ServerDesyncDetected {
			t.Fatal("matching checksums must not trigger DesyncDetected")
		}
	}
}

func TestHandleStartGameOnlyHostAndOnlyOnce(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	host := &fakeSender{}
	hostID, _ := s.AddPlayer("Host", 1, 1, "", host)
	other := &fakeSender{}
	otherID, _ := s.AddPlayer("Other", 1, 1, "", other)

	s.HandleStartGame(otherID, 1, "{}")
	if s.IsGameStarted() {
		t.Fatal("non-host must not be able to start the game")
	}

	s.HandleStartGame(hostID, 1, "{}")
	if !s.IsGameStarted() {
		t.Fatal("host start must take effect")
	}

	// second call is a no-op: only one GameStart broadcast total.
	count := 0
	for _, k := range host.kinds() {
		if k == protocol.ServerGameStart {
			count++
		}
	}
	s.HandleStartGame(hostID, 2, "{}")
	count2 := 0
	for _, k := range host.kinds() {
		if k == protocol.ServerGameStart {
			count2++
		}
	}
	if count != 1 || count2 != 1 {
		t.Fatalf("expected exactly one GameStart broadcast, got %d then %d", count, count2)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	host := &fakeSender{}
	hostID, _ := s.AddPlayer("Host", 1, 1, "", host)

	s.RequestPause(hostID)
	s.RequestPause(hostID)
	pausedCount := 0
	for _, k := range host.kinds() {
		if k == protocol.ServerPaused {
			pausedCount++
		}
	}
	if pausedCount != 1 {
		t.Fatalf("expected exactly one Paused broadcast, got %d", pausedCount)
	}

	s.RequestResume(hostID)
	s.RequestResume(hostID)
	resumedCount := 0
	for _, k := range host.kinds() {
		if k == protocol.ServerResumed {
			resumedCount++
		}
	}
	if resumedCount != 1 {
		t.Fatalf("expected exactly one Resumed broadcast, got %d", resumedCount)
	}
}

func TestChatBroadcastsToEveryone(t *testing.T) {
	s := NewSession("lobby", "", 1, 4)
	a := &fakeSender{}
	aID, _ := s.AddPlayer("A", 1, 1, "", a)
	b := &fakeSender{}
	_, _ = s.AddPlayer("B", 1, 1, "", b)

	s.Chat(aID, "hello")

	last := b.last()
	if last.Kind != protocol.ServerChatBroadcast || last.Text != "hello" || last.From != aID {
		t.Fatalf("expected chat broadcast from A, got %+v", last)
	}
}
