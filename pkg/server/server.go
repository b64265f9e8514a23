package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/davidkna/tftp/pkg/transfer"
	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

type Server struct {
	conn         net.PacketConn
	l            *zap.SugaredLogger
	port         string
	tftpFolder   string
	maxBlockSize int
	numTries     int
	timeout      uint
}

func NewServer(l *zap.SugaredLogger, port string, timeout uint,
	numTries int, maxBlockSize int, tftpFolder string,
) *Server {
	if maxBlockSize <= 0 || maxBlockSize > types.MaxBlockSize {
		maxBlockSize = types.MaxBlockSize
	}

	return &Server{
		l: l, port: port,
		timeout:      timeout,
		numTries:     numTries,
		maxBlockSize: maxBlockSize,
		tftpFolder:   tftpFolder,
	}
}

// Listen binds the well-known port. It is separate from Serve so callers
// can learn the bound address before the accept loop starts.
func (s *Server) Listen() error {
	l := net.ListenConfig{
		Control: reusePort(),
	}

	conn, err := l.ListenPacket(context.Background(), "udp", fmt.Sprintf(":%s", s.port))
	if err != nil {
		s.l.Error(err.Error())

		return utils.ErrStartingServer
	}

	s.conn = conn

	return nil
}

func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}

	return s.conn.LocalAddr()
}

// Serve reads inbound requests and spawns one transfer session per
// request. The listening socket never carries data traffic: every
// session answers from its own ephemeral port.
func (s *Server) Serve() error {
	datagram := make([]byte, types.DatagramSize(types.MaxBlockSize))

	for {
		n, addr, err := s.conn.ReadFrom(datagram)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return err
		}

		if n > 0 {
			go s.handleRequest(addr, append([]byte(nil), datagram[:n]...))
		}
	}
}

func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}

	return s.Serve()
}

func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("error while closing connection: %w", err)
	}

	return nil
}

// handleRequest runs one transfer on a freshly bound ephemeral socket,
// the session's transfer ID. Failures are logged here; they never reach
// the accept loop or other sessions.
func (s *Server) handleRequest(addr net.Addr, datagram []byte) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		s.l.Errorf("error while binding transfer socket: %s", err.Error())

		return
	}

	defer func() {
		if err := conn.Close(); err != nil {
			s.l.Errorf("error while closing transfer socket: %s", err.Error())
		}
	}()

	sess := transfer.NewSession(conn, addr,
		s.l.With("peer", addr.String(), "tid", localPort(conn)),
		time.Duration(s.timeout)*time.Second, s.numTries)

	p, err := types.Decode(datagram)
	if err != nil {
		s.l.Errorf("error while decoding request from %s: %s", addr, err.Error())
		sess.SendError(types.ErrIllegalTftpOp, "not a valid request")

		return
	}

	req, ok := p.(*types.Request)
	if !ok {
		sess.SendError(types.ErrIllegalTftpOp, fmt.Sprintf("unexpected opcode %d", p.Op()))

		return
	}

	if req.Mode == types.ModeMail {
		sess.SendError(types.ErrIllegalTftpOp, "mail mode is not supported")

		return
	}

	switch req.Opcode {
	case types.OpCodeRRQ:
		if err := s.sendFile(sess, req); err != nil {
			s.l.Errorf("error while responding to rrq for %s: %s", req.Filename, err.Error())
		}
	case types.OpCodeWRQ:
		if err := s.receiveFile(sess, req); err != nil {
			s.l.Errorf("error while responding to wrq for %s: %s", req.Filename, err.Error())
		}
	}
}

func localPort(conn net.PacketConn) int {
	if udp, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return udp.Port
	}

	return 0
}
