package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/davidkna/tftp/pkg/utils"
)

// OptionAck is the RFC 2347 reply to an option-bearing Request, carrying
// the accepted subset of the requested options.
type OptionAck struct {
	Options Options
	Opcode  OpCode
}

func (o *OptionAck) Op() OpCode {
	return o.Opcode
}

func (o *OptionAck) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	if err := binary.Write(b, binary.BigEndian, &o.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := writeOptions(b, o.Options); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (o *OptionAck) UnmarshalBinary(data []byte) error {
	rd := bytes.NewBuffer(data)

	if err := binary.Read(rd, binary.BigEndian, &o.Opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if o.Opcode != OpCodeOACK {
		return utils.ErrWrongOpCode
	}

	var err error

	o.Options, err = readOptions(rd)
	if err != nil {
		return err
	}

	return nil
}
