package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/davidkna/tftp/pkg/utils"
)

type Data struct {
	Payload  []byte
	BlockNum uint16
	Opcode   OpCode
}

func (d *Data) Op() OpCode {
	return d.Opcode
}

func (d *Data) MarshalBinary() ([]byte, error) {
	if len(d.Payload) > MaxBlockSize {
		return nil, utils.ErrPayloadTooBig
	}

	b := new(bytes.Buffer)
	dataLen := 2 + 2 + len(d.Payload)
	b.Grow(dataLen)

	if err := binary.Write(b, binary.BigEndian, &d.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &d.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	if _, err := b.Write(d.Payload); err != nil {
		return nil, fmt.Errorf("error while writing payload: %w", err)
	}

	return b.Bytes(), nil
}

func (d *Data) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("data packet of %d bytes: %w", len(data), utils.ErrInvalidPacket)
	}

	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &d.Opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if d.Opcode != OpCodeDATA {
		return utils.ErrWrongOpCode
	}

	if err := binary.Read(b, binary.BigEndian, &d.BlockNum); err != nil {
		return fmt.Errorf("error while reading block#: %w", err)
	}

	// the payload carries no terminator and may itself contain NUL
	d.Payload = data[4:]

	return nil
}
