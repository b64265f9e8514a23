package transfer

import (
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

// Send streams src to the peer in lock-step: Data(n), wait for Ack(n),
// Data(n+1). The transfer is over once a block shorter than the
// negotiated size has been acknowledged; a source length that is an
// exact multiple of the block size ends with an empty final block.
func (s *Session) Send(src io.Reader) error {
	s.state = StateTransferring

	var (
		blockNum uint16 = 1
		total    int
	)

	block := make([]byte, s.blockSize)

	for {
		n, err := readBlock(src, block)
		if err != nil {
			s.l.Errorf("error while reading source block: %s", err.Error())
			s.SendError(types.ErrNotDefined, "local read failed")

			return pkgerrors.Wrap(err, "read source")
		}

		if err := s.sendBlock(block[:n], blockNum); err != nil {
			s.state = StateFailed

			return err
		}

		total += n

		if s.trace {
			s.l.Debugf("sent block#=%d, sent #bytes=%d", blockNum, n)
		}

		if n < s.blockSize {
			s.state = StateCompleted
			s.l.Debugf("sent %d blocks, sent %d bytes", blockNum, total)

			return nil
		}

		// wraps mod 65536 on long transfers
		blockNum++
	}
}

// readBlock fills p as far as the source allows; a short block marks the
// end of the transfer, not an error.
func readBlock(r io.Reader, p []byte) (int, error) {
	n, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}

	return n, err
}

// sendBlock transmits one Data packet and waits for its Ack. Every
// retransmission is byte-identical to the first attempt. A stale Ack for
// an earlier block is ignored, an Error packet from the peer aborts.
func (s *Session) sendBlock(block []byte, blockNum uint16) error {
	data := &types.Data{
		Opcode:   types.OpCodeDATA,
		Payload:  block,
		BlockNum: blockNum,
	}

	b, err := data.MarshalBinary()
	if err != nil {
		s.l.Errorf("error while marshalling data packet: %s", err.Error())

		return utils.ErrPacketMarshall
	}

	buf := make([]byte, types.DatagramSize(s.blockSize))

	for tries := s.numTries; tries > 0; tries-- {
		if err := s.writeRaw(b, s.peer); err != nil {
			s.l.Errorf("error while writing data packet: %s", err.Error())

			continue
		}

		n, err := s.readDatagram(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				s.l.Debugf("no ack for block#=%d, retransmitting", blockNum)

				continue
			}

			return err
		}

		p, err := types.Decode(buf[:n])
		if err != nil {
			// malformed datagrams are dropped, never answered
			s.l.Debugf("dropping malformed datagram: %s", err.Error())

			continue
		}

		switch p := p.(type) {
		case *types.Ack:
			if p.BlockNum != blockNum {
				s.l.Debugf("ack block# %d != expected block# %d", p.BlockNum, blockNum)

				continue
			}

			return nil
		case *types.Error:
			return pkgerrors.Wrapf(utils.ErrPeerError, "code %d: %s", p.ErrorCode, p.ErrMsg)
		default:
			s.SendError(types.ErrIllegalTftpOp, "expected ack")

			return utils.ErrUnexpectedPacket
		}
	}

	return utils.ErrRetriesExceeded
}
