package transfer

import (
	"errors"
	"net"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

// Handshake sends the request to the server's well-known port and runs
// option negotiation. The source of the first reply fixes the peer's
// transfer ID. On return the session is ready for Send (write request)
// or Receive (read request); the returned options are the ones the
// server accepted, nil when it answered with a classic first packet.
func (s *Session) Handshake(req *types.Request, server net.Addr) (types.Options, error) {
	b, err := req.MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling request: %s", err.Error())
		s.state = StateFailed

		return nil, utils.ErrPacketMarshall
	}

	s.state = StateRequesting
	if len(req.Options) > 0 {
		s.state = StateNegotiating
	}

	buf := make([]byte, types.DatagramSize(types.MaxBlockSize))

	for tries := s.numTries; tries > 0; tries-- {
		if err := s.writeRaw(b, server); err != nil {
			s.l.Errorf("error while writing request: %s", err.Error())

			continue
		}

		n, err := s.readDatagram(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				s.l.Debugf("no answer to request, retransmitting")

				continue
			}

			s.state = StateFailed

			return nil, err
		}

		p, err := types.Decode(buf[:n])
		if err != nil {
			s.l.Debugf("dropping malformed datagram: %s", err.Error())

			continue
		}

		switch p := p.(type) {
		case *types.OptionAck:
			if err := s.adoptOptions(req, p.Options); err != nil {
				s.SendError(types.ErrIllegalTftpOp, err.Error())

				return nil, err
			}

			if req.Opcode == types.OpCodeRRQ {
				// the OACK replaces Data(1); it is acknowledged like a
				// zeroth block
				if err := s.sendAck(0); err != nil {
					s.state = StateFailed

					return nil, err
				}
			}

			s.state = StateTransferring

			return p.Options, nil
		case *types.Data:
			if req.Opcode != types.OpCodeRRQ {
				s.SendError(types.ErrIllegalTftpOp, "unexpected data packet")

				return nil, utils.ErrUnexpectedPacket
			}

			// classic reply, no options accepted; hand the datagram to
			// the receive loop
			s.pending = append([]byte(nil), buf[:n]...)
			s.state = StateTransferring

			return nil, nil
		case *types.Ack:
			if req.Opcode != types.OpCodeWRQ || p.BlockNum != 0 {
				s.l.Debugf("unexpected ack block#=%d during handshake", p.BlockNum)

				continue
			}

			s.state = StateTransferring

			return nil, nil
		case *types.Error:
			s.state = StateFailed

			return nil, pkgerrors.Wrapf(utils.ErrPeerError, "code %d: %s", p.ErrorCode, p.ErrMsg)
		default:
			s.l.Debugf("unexpected packet during handshake")

			continue
		}
	}

	s.state = StateFailed

	return nil, utils.ErrRetriesExceeded
}

// adoptOptions applies an OACK, rejecting values the request never asked
// for or that exceed what was requested (RFC 2347 forbids both).
func (s *Session) adoptOptions(req *types.Request, accepted types.Options) error {
	for _, opt := range accepted {
		requested, ok := req.Options.Get(opt.Key)
		if !ok {
			return pkgerrors.Wrapf(utils.ErrUnexpectedPacket, "option %q was not requested", opt.Key)
		}

		switch opt.Key {
		case types.OptionBlockSize:
			v, err := strconv.Atoi(opt.Value)
			if err != nil {
				return pkgerrors.Wrapf(utils.ErrUnexpectedPacket, "blksize %q", opt.Value)
			}

			if want, err := strconv.Atoi(requested); err == nil && v > want {
				return pkgerrors.Wrapf(utils.ErrUnexpectedPacket, "blksize %d exceeds requested %s", v, requested)
			}

			if err := s.SetBlockSize(v); err != nil {
				return err
			}
		case types.OptionTimeout:
			v, err := strconv.Atoi(opt.Value)
			if err != nil || v < types.MinTimeout || v > types.MaxTimeout {
				return pkgerrors.Wrapf(utils.ErrUnexpectedPacket, "timeout %q", opt.Value)
			}

			s.SetTimeout(time.Duration(v) * time.Second)
		case types.OptionTransferSize:
			if _, err := strconv.ParseInt(opt.Value, 10, 64); err != nil {
				return pkgerrors.Wrapf(utils.ErrUnexpectedPacket, "tsize %q", opt.Value)
			}
		}
	}

	return nil
}

// SendOptionAck answers an option-bearing request. For a read request
// the server must see Ack(0) before the first Data packet goes out
// (awaitAck); for a write request the client's Data(1) is the implicit
// acknowledgement.
func (s *Session) SendOptionAck(accepted types.Options, awaitAck bool) error {
	oack := &types.OptionAck{Opcode: types.OpCodeOACK, Options: accepted}

	b, err := oack.MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling oack: %s", err.Error())

		return utils.ErrPacketMarshall
	}

	s.lastControl = b
	s.state = StateNegotiating

	if !awaitAck {
		if err := s.writeRaw(b, s.peer); err != nil {
			s.state = StateFailed

			return err
		}

		s.state = StateTransferring

		return nil
	}

	buf := make([]byte, types.DatagramSize(types.MaxBlockSize))

	for tries := s.numTries; tries > 0; tries-- {
		if err := s.writeRaw(b, s.peer); err != nil {
			s.l.Errorf("error while writing oack: %s", err.Error())

			continue
		}

		n, err := s.readDatagram(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				s.l.Debugf("no ack for oack, retransmitting")

				continue
			}

			s.state = StateFailed

			return err
		}

		p, err := types.Decode(buf[:n])
		if err != nil {
			s.l.Debugf("dropping malformed datagram: %s", err.Error())

			continue
		}

		switch p := p.(type) {
		case *types.Ack:
			if p.BlockNum != 0 {
				s.l.Debugf("ack block# %d != expected block# 0", p.BlockNum)

				continue
			}

			s.state = StateTransferring

			return nil
		case *types.Error:
			s.state = StateFailed

			return pkgerrors.Wrapf(utils.ErrPeerError, "code %d: %s", p.ErrorCode, p.ErrMsg)
		default:
			continue
		}
	}

	s.state = StateFailed

	return utils.ErrRetriesExceeded
}
