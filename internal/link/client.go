package link

import (
	"fmt"
	"net"

	"github.com/andrascorp/exahost/internal/scheduler"
)

// Connect performs the initiator side of the handshake in §4.5: dial addr,
// advertise this host's own listening port, and on a Yes response register
// the peer under a fresh positive link id.
func (s *Server) Connect(addr string) (int16, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, err
	}
	conn := WrapTCP(nc)
	defer conn.Close()

	if err := conn.SendMessage(ConnectRequest(s.port)); err != nil {
		return 0, err
	}
	resp, err := conn.ReadMessage()
	if err != nil {
		return 0, err
	}
	if !resp.IsYes() {
		return 0, fmt.Errorf("link: peer refused connect")
	}

	id := s.Registry.RegisterOutbound(conn.RemoteAddr())
	if id == 0 {
		return 0, fmt.Errorf("link: no free outbound link id")
	}
	return id, nil
}

// SendExa performs the initiator side of an Exa send (§4.5): dial the
// address registered under linkID, offer the migration, and on acceptance
// atomically take the packed agent out of the bridge's outgoing map and
// hand it across. A refusal or missing destination leaves the outgoing
// entry untouched for the next drain attempt.
func (s *Server) SendExa(bridge *scheduler.Bridge, key int, linkID int16) error {
	addr, ok := s.Registry.Lookup(linkID)
	if !ok {
		return fmt.Errorf("link: unknown link id %d", linkID)
	}

	nc, err := net.Dial("tcp", addr.String())
	if err != nil {
		return err
	}
	conn := WrapTCP(nc)
	defer conn.Close()

	if err := conn.SendMessage(SendExaRequest()); err != nil {
		return err
	}
	resp, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	if !resp.IsYes() {
		return fmt.Errorf("link: peer declined exa")
	}

	entry, ok := bridge.TxferFromOutgoing(key)
	if !ok {
		return conn.SendMessage(Abort())
	}
	return conn.SendMessage(ExaAction(entry.Packed))
}

// DrainOutgoing attempts to deliver every agent currently queued in the
// bridge's outgoing map, one SendExa exchange per entry. Delivery failures
// are returned but do not stop the sweep; the caller decides whether to
// retry on the next tick.
func (s *Server) DrainOutgoing(bridge *scheduler.Bridge) []error {
	var errs []error
	for _, key := range bridge.OutgoingKeys() {
		linkID, ok := bridge.OutgoingLinkID(key)
		if !ok {
			continue
		}
		if err := s.SendExa(bridge, key, linkID); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
