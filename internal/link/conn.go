package link

import (
	"net"
)

// Conn wraps one TCP connection with the header-then-payload framing: every
// read and write moves exactly one Message across the wire.
type Conn struct {
	nc net.Conn
}

// WrapTCP adapts an already-established net.Conn (typically a *net.TCPConn)
// into a Conn.
func WrapTCP(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// RemoteAddr reports the address of the peer on the other end.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// ReadMessage blocks for one full frame: the 8-byte header, then its
// payload, then decodes the payload into a Message. A version mismatch,
// short read, or decode failure returns without touching the connection's
// lifetime beyond the read already performed.
func (c *Conn) ReadMessage() (Message, error) {
	var hb [8]byte
	if _, err := readFull(c.nc, hb[:]); err != nil {
		return Message{}, err
	}
	header := parseHeader(hb[:])
	if header.Version() != ProtocolVersion {
		return Message{}, ErrVersionMismatch
	}

	payload := make([]byte, header.PayloadLen())
	if _, err := readFull(c.nc, payload); err != nil {
		return Message{}, err
	}
	return decodePayload(payload)
}

// SendMessage encodes m and writes the header-then-payload frame.
func (c *Conn) SendMessage(m Message) error {
	payload, err := encodePayload(m)
	if err != nil {
		return err
	}
	header, err := EncodeHeader(ProtocolVersion, len(payload))
	if err != nil {
		return err
	}
	hb := headerBytes(header)
	if _, err := c.nc.Write(hb[:]); err != nil {
		return err
	}
	_, err = c.nc.Write(payload)
	return err
}

// readFull reads exactly len(buf) bytes or returns the first error,
// matching AsyncReadExt::read_exact's all-or-nothing contract.
func readFull(nc net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := nc.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
