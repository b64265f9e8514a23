package transfer

import (
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

// Receive assembles the peer's Data packets into dst in block order,
// acknowledging each one. A duplicate of the previous block (the peer
// missed our Ack) is re-acknowledged without being appended again; any
// other out-of-order block aborts the transfer.
func (s *Session) Receive(dst io.Writer) error {
	s.state = StateTransferring

	var (
		expected uint16 = 1
		total    int
	)

	for {
		n, err := s.receiveBlock(dst, expected)
		if err != nil {
			s.state = StateFailed

			return err
		}

		total += n

		if s.trace {
			s.l.Debugf("received block#=%d, received #bytes=%d", expected, n)
		}

		if n < s.blockSize {
			s.state = StateCompleted
			s.l.Debugf("received %d blocks, received %d bytes", expected, total)

			return nil
		}

		expected++
	}
}

func (s *Session) receiveBlock(dst io.Writer, expected uint16) (int, error) {
	buf := make([]byte, types.DatagramSize(s.blockSize))

	for tries := s.numTries; tries > 0; tries-- {
		n, err := s.readDatagram(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				// our last ack or oack may be lost; repeat it to provoke
				// the retransmission
				s.l.Debugf("no data for block#=%d, repeating last control packet", expected)

				if err := s.retransmitControl(); err != nil {
					s.l.Debugf("error while repeating control packet: %s", err.Error())
				}

				continue
			}

			return 0, err
		}

		p, err := types.Decode(buf[:n])
		if err != nil {
			s.l.Debugf("dropping malformed datagram: %s", err.Error())

			continue
		}

		switch p := p.(type) {
		case *types.Data:
			switch p.BlockNum {
			case expected:
				if len(p.Payload) > s.blockSize {
					s.SendError(types.ErrIllegalTftpOp, "payload exceeds negotiated block size")

					return 0, utils.ErrInvalidPacket
				}

				if _, err := dst.Write(p.Payload); err != nil {
					s.l.Errorf("error while writing block to sink: %s", err.Error())
					s.SendError(types.ErrDiskFull, "local write failed")

					return 0, pkgerrors.Wrap(err, "write sink")
				}

				if err := s.sendAck(expected); err != nil {
					s.l.Errorf("error while acknowledging block#=%d: %s", expected, err.Error())

					return 0, err
				}

				return len(p.Payload), nil
			case expected - 1:
				// our ack got lost; re-ack, do not append twice
				s.l.Debugf("duplicate block#=%d, re-acknowledging", p.BlockNum)

				if err := s.sendAck(p.BlockNum); err != nil {
					s.l.Debugf("error while re-acknowledging: %s", err.Error())
				}

				continue
			default:
				s.SendError(types.ErrUnknownTransferID, fmt.Sprintf("unexpected block %d", p.BlockNum))

				return 0, utils.ErrUnexpectedBlock
			}
		case *types.Error:
			return 0, pkgerrors.Wrapf(utils.ErrPeerError, "code %d: %s", p.ErrorCode, p.ErrMsg)
		default:
			s.SendError(types.ErrIllegalTftpOp, "expected data")

			return 0, utils.ErrUnexpectedPacket
		}
	}

	return 0, utils.ErrRetriesExceeded
}
