// Package protocol defines the wire messages exchanged between a relay and
// its connected clients (spec §6.1, §6.4), supplemented from
// original_source/elven_canopy_relay's elven_canopy_protocol crate (not
// part of the distilled spec, but the message set a lockstep relay needs
// to actually run). Like pkg/sim's Action, each message family is a single
// flattened, JSON-tagged struct rather than a Go-native sum type, so the
// wire form stays simple for a non-Go client to decode.
package protocol

// PlayerID identifies a player within one relay session.
type PlayerID uint32

// TurnNumber counts turns flushed within one session, starting at 1.
type TurnNumber uint64

// ActionSequence is a per-player, per-session monotonically increasing
// command counter, used to recover canonical per-turn ordering (spec
// §6.2's "(player_id, sequence)" sort key).
type ActionSequence uint32

// PlayerInfo is the public identity of a connected player.
type PlayerInfo struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// TurnCommand is one player's action, still in its serialized form: the
// relay never needs to understand an Action's payload, only queue and
// reorder it, so Payload stays an opaque blob (spec §6.2).
type TurnCommand struct {
	PlayerID PlayerID       `json:"playerId"`
	Sequence ActionSequence `json:"sequence"`
	Payload  []byte         `json:"payload"`
}

// ClientMessageKind discriminates the client -> relay message variants
// (spec §6.1).
type ClientMessageKind string

const (
	ClientHello     ClientMessageKind = "Hello"
	ClientGoodbye    ClientMessageKind = "Goodbye"
	ClientCommand    ClientMessageKind = "Command"
	ClientChecksum   ClientMessageKind = "Checksum"
	ClientStartGame  ClientMessageKind = "StartGame"
	ClientSetSpeed   ClientMessageKind = "SetSpeed"
	ClientPause      ClientMessageKind = "Pause"
	ClientResume     ClientMessageKind = "Resume"
	ClientChat       ClientMessageKind = "Chat"
)

// ClientMessage is a flattened tagged union over every message a client
// may send the relay.
type ClientMessage struct {
	Kind ClientMessageKind `json:"kind"`

	// Hello
	PlayerName     string `json:"playerName,omitempty"`
	SessionName    string `json:"sessionName,omitempty"`
	MaxPlayers     uint32 `json:"maxPlayers,omitempty"`
	SimVersionHash uint64 `json:"simVersionHash,omitempty"`
	ConfigHash     uint64 `json:"configHash,omitempty"`
	Password       string `json:"password,omitempty"`

	// Command
	Sequence ActionSequence `json:"sequence,omitempty"`
	Payload  []byte         `json:"payload,omitempty"`

	// Checksum
	Tick uint64 `json:"tick,omitempty"`
	Hash uint64 `json:"hash,omitempty"`

	// StartGame
	Seed       int64  `json:"seed,omitempty"`
	ConfigJSON string `json:"configJson,omitempty"`

	// SetSpeed
	TicksPerTurn uint32 `json:"ticksPerTurn,omitempty"`

	// Chat
	Text string `json:"text,omitempty"`
}

// ServerMessageKind discriminates the relay -> client message variants
// (spec §6.1).
type ServerMessageKind string

const (
	ServerWelcome        ServerMessageKind = "Welcome"
	ServerPlayerJoined    ServerMessageKind = "PlayerJoined"
	ServerPlayerLeft      ServerMessageKind = "PlayerLeft"
	ServerTurn            ServerMessageKind = "Turn"
	ServerDesyncDetected  ServerMessageKind = "DesyncDetected"
	ServerSpeedChanged    ServerMessageKind = "SpeedChanged"
	ServerPaused          ServerMessageKind = "Paused"
	ServerResumed         ServerMessageKind = "Resumed"
	ServerGameStart       ServerMessageKind = "GameStart"
	ServerChatBroadcast   ServerMessageKind = "ChatBroadcast"
	ServerReject          ServerMessageKind = "Reject"
)

// ServerMessage is a flattened tagged union over every message the relay
// may send a client.
type ServerMessage struct {
	Kind ServerMessageKind `json:"kind"`

	// Welcome
	PlayerID     PlayerID     `json:"playerId,omitempty"`
	SessionName  string       `json:"sessionName,omitempty"`
	Players      []PlayerInfo `json:"players,omitempty"`
	TicksPerTurn uint32       `json:"ticksPerTurn,omitempty"`

	// PlayerJoined
	Player *PlayerInfo `json:"player,omitempty"`

	// PlayerLeft
	Name string `json:"name,omitempty"`

	// Turn
	TurnNumber     TurnNumber    `json:"turnNumber,omitempty"`
	SimTickTarget  uint64        `json:"simTickTarget,omitempty"`
	Commands       []TurnCommand `json:"commands,omitempty"`

	// DesyncDetected
	Tick uint64 `json:"tick,omitempty"`

	// GameStart
	Seed       int64  `json:"seed,omitempty"`
	ConfigJSON string `json:"configJson,omitempty"`

	// Paused / Resumed
	By PlayerID `json:"by,omitempty"`

	// ChatBroadcast
	From PlayerID `json:"from,omitempty"`
	Text string   `json:"text,omitempty"`

	// Reject
	Reason string `json:"reason,omitempty"`
}
