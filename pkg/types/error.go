package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/davidkna/tftp/pkg/utils"
)

type Error struct {
	ErrMsg    string
	ErrorCode ErrCode
	Opcode    OpCode
}

func (e *Error) Op() OpCode {
	return e.Opcode
}

func (e *Error) MarshalBinary() ([]byte, error) {
	if strings.ContainsRune(e.ErrMsg, 0) {
		return nil, utils.ErrInvalidPacket
	}

	b := new(bytes.Buffer)
	errLength := 2 + 2 + len(e.ErrMsg) + 1
	b.Grow(errLength)

	if err := binary.Write(b, binary.BigEndian, &e.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, &e.ErrorCode); err != nil {
		return nil, fmt.Errorf("error while writing error code: %w", err)
	}

	if _, err := b.WriteString(e.ErrMsg); err != nil {
		return nil, fmt.Errorf("error while writing error message: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte: %w", err)
	}

	return b.Bytes(), nil
}

func (e *Error) UnmarshalBinary(data []byte) error {
	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &e.Opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if e.Opcode != OpCodeError {
		return utils.ErrWrongOpCode
	}

	var code uint16

	if err := binary.Read(b, binary.BigEndian, &code); err != nil {
		return fmt.Errorf("error while reading error code: %w", err)
	}

	var err error

	e.ErrorCode, err = ParseErrCode(code)
	if err != nil {
		return err
	}

	msg, err := b.ReadString(0)
	if err != nil {
		return fmt.Errorf("unterminated error message: %w", utils.ErrInvalidPacket)
	}

	e.ErrMsg = strings.TrimRight(msg, string(byte(0)))

	return nil
}
