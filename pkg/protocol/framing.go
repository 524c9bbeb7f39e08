package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single message's JSON body, guarding the reader
// against a peer that sends a bogus or hostile length prefix.
const maxFrameBytes = 1 << 20

// WriteFrame writes payload as spec §6.4's wire format: a 4-byte
// big-endian length prefix followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameBytes {
		return nil, fmt.Errorf("protocol: frame of %d bytes exceeds %d byte limit", n, maxFrameBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteClientMessage frames and writes a ClientMessage (spec §6.4).
func WriteClientMessage(w io.Writer, msg ClientMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}

// ReadClientMessage reads and unframes one ClientMessage.
func ReadClientMessage(r io.Reader) (ClientMessage, error) {
	var msg ClientMessage
	body, err := ReadFrame(r)
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(body, &msg)
	return msg, err
}

// WriteServerMessage frames and writes a ServerMessage (spec §6.4).
func WriteServerMessage(w io.Writer, msg ServerMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}

// ReadServerMessage reads and unframes one ServerMessage. Exported mainly
// for client-side tooling against the relay; the relay itself only writes
// ServerMessages.
func ReadServerMessage(r io.Reader) (ServerMessage, error) {
	var msg ServerMessage
	body, err := ReadFrame(r)
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(body, &msg)
	return msg, err
}
