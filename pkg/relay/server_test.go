package relay

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/elvencanopy/canopy/pkg/protocol"
)

// dialHello opens a raw TCP connection to addr and sends a Hello frame,
// exercising the actual length-delimited wire format (spec §6.4) rather
// than calling Session methods directly.
func dialHello(t *testing.T, addr string, hello protocol.ClientMessage) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	hello.Kind = protocol.ClientHello
	if err := protocol.WriteClientMessage(conn, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	return conn
}

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(ctx, addr) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})

	// Give the accept loop a moment to start listening.
	for i := 0; i < 100; i++ {
		if c, err := net.DialTimeout("tcp", addr, 10*time.Millisecond); err == nil {
			c.Close()
			break
		}
		time.Sleep(time.Millisecond)
	}
	return srv, addr
}

func TestServerAcceptsHelloAndSendsWelcome(t *testing.T) {
	_, addr := startTestServer(t)

	conn := dialHello(t, addr, protocol.ClientMessage{PlayerName: "Alice", SessionName: "lobby"})
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := protocol.ReadServerMessage(conn)
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if msg.Kind != protocol.ServerWelcome {
		t.Fatalf("expected Welcome, got %v", msg.Kind)
	}
	if msg.SessionName != "lobby" {
		t.Fatalf("expected session name lobby, got %q", msg.SessionName)
	}
}

func TestServerRejectsNonHelloFirstMessage(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := protocol.WriteClientMessage(conn, protocol.ClientMessage{Kind: protocol.ClientChat, Text: "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := protocol.ReadServerMessage(conn)
	if err != nil {
		t.Fatalf("read reject: %v", err)
	}
	if msg.Kind != protocol.ServerReject {
		t.Fatalf("expected Reject, got %v", msg.Kind)
	}
}

func TestServerRelaysChatBetweenTwoPlayers(t *testing.T) {
	_, addr := startTestServer(t)

	alice := dialHello(t, addr, protocol.ClientMessage{PlayerName: "Alice", SessionName: "lobby"})
	defer alice.Close()
	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := protocol.ReadServerMessage(alice); err != nil {
		t.Fatalf("alice welcome: %v", err)
	}

	bob := dialHello(t, addr, protocol.ClientMessage{PlayerName: "Bob", SessionName: "lobby"})
	defer bob.Close()
	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := protocol.ReadServerMessage(bob); err != nil {
		t.Fatalf("bob welcome: %v", err)
	}

	// Alice observes Bob's join before sending chat.
	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := protocol.ReadServerMessage(alice); err != nil {
		t.Fatalf("alice joined broadcast: %v", err)
	}

	if err := protocol.WriteClientMessage(bob, protocol.ClientMessage{Kind: protocol.ClientChat, Text: "hello"}); err != nil {
		t.Fatalf("bob chat: %v", err)
	}

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := protocol.ReadServerMessage(alice)
	if err != nil {
		t.Fatalf("alice read chat: %v", err)
	}
	if msg.Kind != protocol.ServerChatBroadcast || msg.Text != "hello" {
		t.Fatalf("expected chat broadcast with text hello, got %+v", msg)
	}
}
