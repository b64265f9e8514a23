package types

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/davidkna/tftp/pkg/utils"
)

// Packet is implemented by the five RFC 1350 packet kinds plus OACK.
type Packet interface {
	Op() OpCode
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Decode parses one raw datagram into a typed packet. Malformed
// datagrams yield utils.ErrInvalidPacket; callers drop them silently
// since TFTP has no way to reject a datagram of unknown intent.
func Decode(datagram []byte) (Packet, error) {
	if len(datagram) < 2 {
		return nil, fmt.Errorf("datagram of %d bytes: %w", len(datagram), utils.ErrInvalidPacket)
	}

	var p Packet

	switch OpCode(binary.BigEndian.Uint16(datagram[:2])) {
	case OpCodeRRQ, OpCodeWRQ:
		p = &Request{}
	case OpCodeDATA:
		p = &Data{}
	case OpCodeACK:
		p = &Ack{}
	case OpCodeError:
		p = &Error{}
	case OpCodeOACK:
		p = &OptionAck{}
	default:
		return nil, fmt.Errorf("opcode %d: %w", binary.BigEndian.Uint16(datagram[:2]), utils.ErrWrongOpCode)
	}

	if err := p.UnmarshalBinary(datagram); err != nil {
		return nil, err
	}

	return p, nil
}
