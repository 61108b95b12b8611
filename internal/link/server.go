package link

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/andrascorp/exahost/internal/scheduler"
	"github.com/andrascorp/exahost/internal/xlog"
)

// Server runs the link protocol's TCP listener on a dedicated goroutine
// group, dispatching every accepted connection to respond. It never blocks
// the scheduler: the only shared state it touches is the Bridge (its own
// mutex) and the Registry (its own mutex).
type Server struct {
	Registry *Registry
	Bridge   *scheduler.Bridge
	log      *xlog.Logger

	listener net.Listener
	port     uint16
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// NewServer creates a link server bound to bridge's capacity checks.
func NewServer(bridge *scheduler.Bridge, log *xlog.Logger) *Server {
	return &Server{
		Registry: NewRegistry(),
		Bridge:   bridge,
		log:      log,
	}
}

// Listen binds addr and starts accepting connections in a background
// goroutine group. Each accepted connection is handled by its own goroutine
// under the same group so Shutdown can wait for all of them to drain.
func (s *Server) Listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = uint16(tcpAddr.Port)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	group.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	group.Go(func() error {
		for {
			nc, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return err
				}
			}
			group.Go(func() error {
				s.respond(WrapTCP(nc))
				return nil
			})
		}
	})
	return nil
}

// Port reports the bound listening port, usable for self_listening_port in
// an outgoing Connect handshake.
func (s *Server) Port() uint16 { return s.port }

// Shutdown stops accepting new connections and waits for in-flight handlers
// to finish.
func (s *Server) Shutdown() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	return s.group.Wait()
}

// respond implements the responder side of §4.5: read one request, dispatch
// on its kind. Any framing or sequencing error drops only this connection.
func (s *Server) respond(conn *Conn) {
	defer conn.Close()

	req, err := conn.ReadMessage()
	if err != nil {
		s.logf("link read failed", err)
		return
	}
	if !req.IsRequest() {
		s.logf("link sequence error", ErrInvalidSequence)
		return
	}

	switch req.Kind {
	case KindConnectRequest:
		s.acceptConnect(conn, req.Port)
	case KindSendExaRequest:
		s.acceptSendExa(conn)
	default:
		s.logf("link unsupported request", ErrInvalidSequence)
	}
}

// acceptConnect registers the peer's address (with its advertised listening
// port substituted in) under a fresh negative link id, then confirms.
func (s *Server) acceptConnect(conn *Conn, peerPort uint16) {
	addr := conn.RemoteAddr()
	dialable := withPort(addr, peerPort)
	id := s.Registry.RegisterInbound(dialable)
	if id == 0 {
		conn.SendMessage(No())
		return
	}
	conn.SendMessage(Yes())
}

// acceptSendExa admits an incoming migration if the bridge has capacity,
// then reads the follow-up Action and pushes a successfully delivered Exa
// into the bridge's incoming queue.
func (s *Server) acceptSendExa(conn *Conn) {
	if !s.Bridge.HasSpace() {
		conn.SendMessage(No())
		return
	}
	if err := conn.SendMessage(Yes()); err != nil {
		return
	}
	action, err := conn.ReadMessage()
	if err != nil {
		s.logf("link read failed", err)
		return
	}
	switch action.Kind {
	case KindExa:
		s.Bridge.PushIncoming(action.Exa)
	case KindAbort:
		// sender withdrew; nothing to adopt.
	default:
		s.logf("link sequence error", ErrInvalidSequence)
	}
}

func (s *Server) logf(msg string, err error) {
	if s.log != nil {
		s.log.Debug(msg, "err", err)
	}
}

// withPort returns a TCPAddr combining addr's IP with port, used to turn a
// peer's ephemeral source address into its advertised listening address.
func withPort(addr net.Addr, port uint16) net.Addr {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr
	}
	return &net.TCPAddr{IP: tcpAddr.IP, Port: int(port)}
}
