// Package relay implements the lockstep multiplayer relay (spec §6):
// Session tracks connected players, queues their commands, flushes turns,
// and detects desyncs via per-tick checksum comparison. It is grounded on
// original_source/elven_canopy_relay/src/session.rs, adapted from that
// single-threaded-main-loop design to Go's goroutine-per-connection model
// by guarding all mutable state behind a mutex instead of relying on
// exclusive ownership from one thread.
package relay

import (
	"sort"
	"sync"

	"github.com/elvencanopy/canopy/pkg/protocol"
)

// Sender is anything Session can hand a ServerMessage to for delivery —
// satisfied by a net.Conn wrapper in pkg/relay/server.go, and by a trivial
// in-memory fake in tests.
type Sender interface {
	Send(msg protocol.ServerMessage) error
}

type playerState struct {
	name string
	conn Sender
}

// Session is a single relay-hosted game: one lobby/match's worth of
// players, pending commands, and turn/tick bookkeeping. The zero value is
// not usable; construct with NewSession.
type Session struct {
	mu sync.Mutex

	name         string
	password     string
	hostID       protocol.PlayerID
	players      map[protocol.PlayerID]*playerState
	nextPlayerID uint32
	maxPlayers   uint32

	currentTurn      protocol.TurnNumber
	currentTick      uint64
	ticksPerTurn     uint32
	pendingCommands  []protocol.TurnCommand
	paused           bool

	checksums map[uint64]map[protocol.PlayerID]uint64

	simVersionHash uint64
	configHash     uint64
	hashesSet      bool

	gameStarted bool
}

// NewSession constructs an empty lobby.
func NewSession(name, password string, ticksPerTurn, maxPlayers uint32) *Session {
	return &Session{
		name: name, password: password,
		players: map[protocol.PlayerID]*playerState{},
		ticksPerTurn: ticksPerTurn, maxPlayers: maxPlayers,
		checksums: map[uint64]map[protocol.PlayerID]uint64{},
	}
}

// AddPlayer validates password and version compatibility, admits the
// connection, and sends it a Welcome. It broadcasts PlayerJoined to
// everyone already connected before admitting the newcomer, mirroring
// session.rs's ordering so a joining player never sees their own
// PlayerJoined echoed back.
func (s *Session) AddPlayer(name string, simVersionHash, configHash uint64, password string, conn Sender) (protocol.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.password != "" && password != s.password {
		return 0, errRejected("incorrect password")
	}
	if uint32(len(s.players)) >= s.maxPlayers {
		return 0, errRejected("session is full")
	}
	if !s.hashesSet {
		s.simVersionHash, s.configHash, s.hashesSet = simVersionHash, configHash, true
	} else if s.simVersionHash != simVersionHash {
		return 0, errRejected("sim version mismatch")
	} else if s.configHash != configHash {
		return 0, errRejected("config hash mismatch")
	}

	id := protocol.PlayerID(s.nextPlayerID)
	s.nextPlayerID++
	if len(s.players) == 0 {
		s.hostID = id
	}

	joined := protocol.ServerMessage{Kind: protocol.ServerPlayerJoined, Player: &protocol.PlayerInfo{ID: id, Name: name}}
	s.broadcastLocked(joined)

	s.players[id] = &playerState{name: name, conn: conn}

	welcome := protocol.ServerMessage{
		Kind: protocol.ServerWelcome, PlayerID: id, SessionName: s.name,
		Players: s.playerListLocked(), TicksPerTurn: s.ticksPerTurn,
	}
	s.sendToLocked(id, welcome)
	return id, nil
}

// RemovePlayer drops a player and broadcasts their departure, discarding
// any checksums they had reported.
func (s *Session) RemovePlayer(id protocol.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerPlayerLeft, PlayerID: id, Name: ps.name})
	for _, perTick := range s.checksums {
		delete(perTick, id)
	}
}

// EnqueueCommand buffers a command for the next turn flush.
func (s *Session) EnqueueCommand(cmd protocol.TurnCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingCommands = append(s.pendingCommands, cmd)
}

// FlushTurn packages pending commands into a Turn message in canonical
// (player_id, sequence) order and broadcasts it, advancing the tick
// target by ticksPerTurn. A no-op before the host has started the game.
func (s *Session) FlushTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gameStarted {
		return
	}
	s.currentTick += uint64(s.ticksPerTurn)
	s.currentTurn++

	cmds := s.pendingCommands
	s.pendingCommands = nil
	sort.SliceStable(cmds, func(i, j int) bool {
		if cmds[i].PlayerID != cmds[j].PlayerID {
			return cmds[i].PlayerID < cmds[j].PlayerID
		}
		return cmds[i].Sequence < cmds[j].Sequence
	})

	s.broadcastLocked(protocol.ServerMessage{
		Kind: protocol.ServerTurn, TurnNumber: s.currentTurn,
		SimTickTarget: s.currentTick, Commands: cmds,
	})
}

// RecordChecksum stores a player's reported checksum for tick and, once
// every connected player has reported for that tick, broadcasts
// DesyncDetected if they disagree (spec §6.2's desync detection).
func (s *Session) RecordChecksum(id protocol.PlayerID, tick, hash uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.checksums[tick]
	if !ok {
		entry = map[protocol.PlayerID]uint64{}
		s.checksums[tick] = entry
	}
	entry[id] = hash

	if len(entry) != len(s.players) || len(s.players) <= 1 {
		return
	}
	var first uint64
	agree := true
	seen := false
	for _, h := range entry {
		if !seen {
			first, seen = h, true
			continue
		}
		if h != first {
			agree = false
			break
		}
	}
	if !agree {
		s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerDesyncDetected, Tick: tick})
	}
	for t := range s.checksums {
		if t <= tick {
			delete(s.checksums, t)
		}
	}
}

// SetSpeed applies a ticks-per-turn change requested by the host; ignored
// from any other player.
func (s *Session) SetSpeed(id protocol.PlayerID, ticksPerTurn uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.hostID {
		return
	}
	s.ticksPerTurn = ticksPerTurn
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerSpeedChanged, TicksPerTurn: ticksPerTurn})
}

// RequestPause pauses turn flushing for everyone.
func (s *Session) RequestPause(id protocol.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerPaused, By: id})
}

// RequestResume resumes turn flushing.
func (s *Session) RequestResume(id protocol.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerResumed, By: id})
}

// Chat rebroadcasts a player's chat line to everyone in the session.
func (s *Session) Chat(id protocol.PlayerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ""
	if ps, ok := s.players[id]; ok {
		name = ps.name
	}
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerChatBroadcast, From: id, Name: name, Text: text})
}

// HandleStartGame moves the session out of the lobby and enables turn
// flushing. Only the host may call it, and only once.
func (s *Session) HandleStartGame(id protocol.PlayerID, seed int64, configJSON string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.hostID || s.gameStarted {
		return
	}
	s.gameStarted = true
	s.broadcastLocked(protocol.ServerMessage{Kind: protocol.ServerGameStart, Seed: seed, ConfigJSON: configJSON})
}

// PlayerCount, CurrentTick, CurrentTurn, IsGameStarted, and Paused report
// read-only session state for the server's lobby listing and main loop.
func (s *Session) PlayerCount() int { s.mu.Lock(); defer s.mu.Unlock(); return len(s.players) }
func (s *Session) CurrentTick() uint64 { s.mu.Lock(); defer s.mu.Unlock(); return s.currentTick }
func (s *Session) CurrentTurn() protocol.TurnNumber { s.mu.Lock(); defer s.mu.Unlock(); return s.currentTurn }
func (s *Session) IsGameStarted() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.gameStarted }
func (s *Session) IsPaused() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.paused }

// PlayerList returns every connected player's public info.
func (s *Session) PlayerList() []protocol.PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerListLocked()
}

func (s *Session) playerListLocked() []protocol.PlayerInfo {
	ids := make([]protocol.PlayerID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]protocol.PlayerInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, protocol.PlayerInfo{ID: id, Name: s.players[id].name})
	}
	return out
}

// sendToLocked delivers msg to one player, silently dropping write errors:
// the reader goroutine for that connection will observe the broken pipe
// and call RemovePlayer on its own (spec §6.1 "disconnect handling").
func (s *Session) sendToLocked(id protocol.PlayerID, msg protocol.ServerMessage) {
	if ps, ok := s.players[id]; ok {
		_ = ps.conn.Send(msg)
	}
}

func (s *Session) broadcastLocked(msg protocol.ServerMessage) {
	ids := make([]protocol.PlayerID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.sendToLocked(id, msg)
	}
}

type rejectError string

func (e rejectError) Error() string { return string(e) }

func errRejected(reason string) error { return rejectError(reason) }
