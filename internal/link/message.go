// Package link implements the framed binary protocol that moves suspended
// EXA agents between hosts over TCP: a fixed 8-byte header followed by a
// gob-encoded Message payload.
package link

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/andrascorp/exahost/internal/vm"
)

// ProtocolVersion packs MAJOR.MINOR.PATCH into the header's upper 32 bits,
// left-shifted by one byte exactly as the wire format documents.
const (
	versionMajor = 0
	versionMinor = 1
	versionPatch = 0
)

// ProtocolVersion is the single version value every header on the wire must
// carry; a mismatch aborts the exchange (strict-equal check, no
// negotiation).
const ProtocolVersion uint32 = (versionMajor << 24) | (versionMinor << 16) | (versionPatch << 8)

// Kind discriminates the Message taxonomy: requests, responses, and
// actions, matching the Request/Response/Action split in the design.
type Kind uint8

const (
	KindConnectRequest Kind = iota
	KindSendExaRequest
	KindNetMapRequest
	KindStatusRequest
	KindYes
	KindNo
	KindExa
	KindNetMapUpdate
	KindStatusUpdate
	KindAbort
)

var kindNames = [...]string{
	KindConnectRequest: "ConnectRequest",
	KindSendExaRequest: "SendExaRequest",
	KindNetMapRequest:  "NetMapRequest",
	KindStatusRequest:  "StatusRequest",
	KindYes:            "Yes",
	KindNo:             "No",
	KindExa:            "Exa",
	KindNetMapUpdate:   "NetMapUpdate",
	KindStatusUpdate:   "StatusUpdate",
	KindAbort:          "Abort",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Message is the one envelope type carried over a link connection. Only
// the fields relevant to Kind are populated; this mirrors the original
// protocol's enum-of-enums but flattened into one gob-friendly struct.
type Message struct {
	Kind Kind
	Port uint16        // valid when Kind == KindConnectRequest
	Exa  vm.PackedExa  // valid when Kind == KindExa
}

func ConnectRequest(port uint16) Message { return Message{Kind: KindConnectRequest, Port: port} }
func SendExaRequest() Message            { return Message{Kind: KindSendExaRequest} }
func NetMapRequest() Message             { return Message{Kind: KindNetMapRequest} }
func StatusRequest() Message             { return Message{Kind: KindStatusRequest} }
func Yes() Message                       { return Message{Kind: KindYes} }
func No() Message                        { return Message{Kind: KindNo} }
func ExaAction(p vm.PackedExa) Message   { return Message{Kind: KindExa, Exa: p} }
func Abort() Message                     { return Message{Kind: KindAbort} }

// IsYes and IsNo classify a Response-kind Message the way the original enum
// match arms did.
func (m Message) IsYes() bool { return m.Kind == KindYes }
func (m Message) IsNo() bool  { return m.Kind == KindNo }

// IsRequest reports whether m belongs to the Request taxonomy branch.
func (m Message) IsRequest() bool {
	switch m.Kind {
	case KindConnectRequest, KindSendExaRequest, KindNetMapRequest, KindStatusRequest:
		return true
	default:
		return false
	}
}

// ErrVersionMismatch, ErrDecodeFail, ErrTooLong, and ErrInvalidSequence are
// the four ways a link exchange aborts without terminating the whole
// connection's owning process — only the affected connection is dropped.
var (
	ErrVersionMismatch = errors.New("link: protocol version mismatch")
	ErrDecodeFail      = errors.New("link: message decode failed")
	ErrTooLong         = errors.New("link: payload exceeds maximum length")
	ErrInvalidSequence = errors.New("link: unexpected message in this position")
)

// maxPayloadLen matches the 32-bit length field's range.
const maxPayloadLen = 1<<32 - 1

// Header is the 8-byte big-endian wire header: upper 32 bits protocol
// version, lower 32 bits payload length.
type Header uint64

// EncodeHeader packs a version and payload length into one Header value, or
// fails if length overflows the 32-bit field.
func EncodeHeader(version uint32, payloadLen int) (Header, error) {
	if payloadLen < 0 || payloadLen > maxPayloadLen {
		return 0, ErrTooLong
	}
	return Header(uint64(version)<<32 | uint64(uint32(payloadLen))), nil
}

// Version extracts the header's protocol version.
func (h Header) Version() uint32 { return uint32(h >> 32) }

// PayloadLen extracts the header's payload length.
func (h Header) PayloadLen() int { return int(uint32(h)) }

// headerBytes and parseHeader convert a Header to and from its 8-byte wire
// form.
func headerBytes(h Header) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(h))
	return b
}

func parseHeader(b []byte) Header {
	return Header(binary.BigEndian.Uint64(b))
}

// encodePayload gob-encodes a Message into its wire payload.
func encodePayload(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodePayload decodes a wire payload back into a Message.
func decodePayload(payload []byte) (Message, error) {
	var m Message
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrDecodeFail, err)
	}
	return m, nil
}
