// Package transfer drives one TFTP file transfer between two endpoints:
// lock-step Data/Ack exchange with bounded retransmission, transfer-ID
// pinning and option negotiation plumbing. A Session owns one UDP socket
// for its whole lifetime; the local port is the session's transfer ID.
package transfer

import (
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

type Session struct {
	conn net.PacketConn
	peer net.Addr
	l    *zap.SugaredLogger

	// pending holds a datagram consumed during the handshake that the
	// receive loop still has to process; lastControl is the marshalled
	// form of the last Ack or OACK sent, repeated verbatim when the
	// peer's copy appears to be lost.
	pending     []byte
	lastControl []byte

	deadline  time.Time
	timeout   time.Duration
	blockSize int
	numTries  int
	state     State
	trace     bool
}

// NewSession wraps an unconnected UDP socket. peer may be nil: the
// source of the first reply then fixes the peer's transfer ID.
func NewSession(conn net.PacketConn, peer net.Addr, l *zap.SugaredLogger,
	timeout time.Duration, numTries int,
) *Session {
	if timeout <= 0 {
		timeout = types.DefaultTimeout * time.Second
	}

	if numTries <= 0 {
		numTries = types.DefaultNumTries
	}

	return &Session{
		conn: conn, peer: peer, l: l,
		timeout:   timeout,
		numTries:  numTries,
		blockSize: types.DefaultBlockSize,
		state:     StateRequesting,
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Peer() net.Addr {
	return s.peer
}

func (s *Session) BlockSize() int {
	return s.blockSize
}

func (s *Session) SetBlockSize(n int) error {
	if n < types.MinBlockSize || n > types.MaxBlockSize {
		return utils.ErrInvalidBlockSize
	}

	s.blockSize = n

	return nil
}

func (s *Session) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// SetDeadline bounds the whole transfer; the zero time means no bound.
func (s *Session) SetDeadline(t time.Time) {
	s.deadline = t
}

func (s *Session) SetTrace(trace bool) {
	s.trace = trace
}

// readDatagram blocks for one datagram from the pinned peer. A datagram
// from any other source is answered with ErrUnknownTransferID and
// skipped without touching session state.
func (s *Session) readDatagram(buf []byte) (int, error) {
	if s.pending != nil {
		n := copy(buf, s.pending)
		s.pending = nil

		return n, nil
	}

	attemptDeadline := time.Now().Add(s.timeout)

	if !s.deadline.IsZero() {
		if !time.Now().Before(s.deadline) {
			return 0, utils.ErrDeadlineExceeded
		}

		if s.deadline.Before(attemptDeadline) {
			attemptDeadline = s.deadline
		}
	}

	if err := s.conn.SetReadDeadline(attemptDeadline); err != nil {
		return 0, fmt.Errorf("error while setting read timeout: %w", err)
	}

	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if os.IsTimeout(err) {
				if !s.deadline.IsZero() && !time.Now().Before(s.deadline) {
					return 0, utils.ErrDeadlineExceeded
				}

				return 0, utils.ErrTimeout
			}

			return 0, fmt.Errorf("error while reading datagram: %w", err)
		}

		if s.peer == nil {
			s.peer = addr
		} else if addr.String() != s.peer.String() {
			s.l.Debugf("datagram from %s does not belong to transfer with %s", addr, s.peer)
			s.rejectForeign(addr)

			continue
		}

		return n, nil
	}
}

// rejectForeign tells an interfering endpoint it hit the wrong transfer
// ID. Best effort: a lost rejection only costs the sender a retry.
func (s *Session) rejectForeign(addr net.Addr) {
	e := &types.Error{
		Opcode:    types.OpCodeError,
		ErrorCode: types.ErrUnknownTransferID,
		ErrMsg:    "unknown transfer id",
	}

	b, err := e.MarshalBinary()
	if err != nil {
		return
	}

	if _, err := s.conn.WriteTo(b, addr); err != nil {
		s.l.Debugf("error while rejecting datagram from %s: %s", addr, err.Error())
	}
}

func (s *Session) writePacket(p types.Packet) error {
	b, err := p.MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling packet: %s", err.Error())

		return utils.ErrPacketMarshall
	}

	return s.writeRaw(b, s.peer)
}

func (s *Session) writeRaw(b []byte, to net.Addr) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("error while setting write timeout: %w", err)
	}

	if _, err := s.conn.WriteTo(b, to); err != nil {
		return fmt.Errorf("error while writing packet: %w", err)
	}

	return nil
}

func (s *Session) sendAck(blockNum uint16) error {
	ack := &types.Ack{Opcode: types.OpCodeACK, BlockNum: blockNum}

	b, err := ack.MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling ack: %s", err.Error())

		return utils.ErrPacketMarshall
	}

	s.lastControl = b

	return s.writeRaw(b, s.peer)
}

// retransmitControl repeats the last Ack or OACK sent to the peer. A
// receiver that answered an option-bearing write request with an OACK
// must repeat the OACK on timeout, not Ack(0): the peer reads a bare
// Ack(0) as "options refused" and falls back to the default block size.
func (s *Session) retransmitControl() error {
	if s.lastControl == nil {
		return nil
	}

	return s.writeRaw(s.lastControl, s.peer)
}

// SendError notifies the peer once, best effort, and fails the session.
func (s *Session) SendError(code types.ErrCode, msg string) {
	s.state = StateFailed

	if s.peer == nil {
		return
	}

	e := &types.Error{Opcode: types.OpCodeError, ErrorCode: code, ErrMsg: msg}

	if err := s.writePacket(e); err != nil {
		s.l.Debugf("error while sending error packet: %s", err.Error())
	}
}

// AcknowledgeRequest sends Ack(0), the classic answer to a write request
// that carried no accepted options.
func (s *Session) AcknowledgeRequest() error {
	if err := s.sendAck(0); err != nil {
		s.l.Errorf("error while acknowledging request: %s", err.Error())

		return err
	}

	s.state = StateTransferring

	return nil
}
