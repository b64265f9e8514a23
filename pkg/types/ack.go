package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/davidkna/tftp/pkg/utils"
)

// Ack acknowledges one Data packet, or a Request/OACK when BlockNum is 0.
type Ack struct {
	Opcode   OpCode
	BlockNum uint16
}

func (a *Ack) Op() OpCode {
	return a.Opcode
}

func (a *Ack) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	ackLength := 2 + 2
	b.Grow(ackLength)

	if err := binary.Write(b, binary.BigEndian, &a.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &a.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary is tolerant of trailing bytes: everything after the
// 4-byte header is ignored, consistent with how Data and Error treat the
// remainder of the datagram as payload.
func (a *Ack) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ack packet of %d bytes: %w", len(data), utils.ErrInvalidPacket)
	}

	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &a.Opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if a.Opcode != OpCodeACK {
		return utils.ErrWrongOpCode
	}

	if err := binary.Read(b, binary.BigEndian, &a.BlockNum); err != nil {
		return fmt.Errorf("error while reading block#: %w", err)
	}

	return nil
}
