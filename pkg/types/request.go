package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/davidkna/tftp/pkg/utils"
)

type Request struct {
	Filename string
	Mode     Mode
	Options  Options
	Opcode   OpCode
}

// NewRequest validates the filename once at construction: it must be
// non-empty, valid UTF-8 and free of embedded NUL so the wire form cannot
// grow an extra terminator.
func NewRequest(op OpCode, filename string, mode Mode, opts Options) (*Request, error) {
	if op != OpCodeRRQ && op != OpCodeWRQ {
		return nil, utils.ErrWrongOpCode
	}

	if err := validFilename(filename); err != nil {
		return nil, err
	}

	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	return &Request{Opcode: op, Filename: filename, Mode: mode, Options: opts}, nil
}

func validFilename(filename string) error {
	if filename == "" || !utf8.ValidString(filename) || strings.ContainsRune(filename, 0) {
		return utils.ErrInvalidFilename
	}

	return nil
}

func (r *Request) Op() OpCode {
	return r.Opcode
}

func (r *Request) MarshalBinary() ([]byte, error) {
	if err := validFilename(r.Filename); err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	rqLen := 2 + len(r.Filename) + 1 + len(r.Mode) + 1

	b.Grow(rqLen)

	if err := binary.Write(b, binary.BigEndian, &r.Opcode); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if _, err := b.WriteString(r.Filename); err != nil {
		return nil, fmt.Errorf("error while writing filename: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte after filename: %w", err)
	}

	if _, err := b.WriteString(string(r.Mode)); err != nil {
		return nil, fmt.Errorf("error while writing mode: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte after mode: %w", err)
	}

	if err := writeOptions(b, r.Options); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (r *Request) UnmarshalBinary(data []byte) error {
	var err error

	rd := bytes.NewBuffer(data)

	err = binary.Read(rd, binary.BigEndian, &r.Opcode)
	if err != nil {
		return fmt.Errorf("error while decoding opcode: %w", err)
	}

	if r.Opcode != OpCodeRRQ && r.Opcode != OpCodeWRQ {
		return utils.ErrWrongOpCode
	}

	filename, err := rd.ReadString(0)
	if err != nil {
		return fmt.Errorf("unterminated filename: %w", utils.ErrInvalidPacket)
	}

	r.Filename = strings.TrimRight(filename, string(byte(0)))

	if err := validFilename(r.Filename); err != nil {
		return err
	}

	mode, err := rd.ReadString(0)
	if err != nil {
		return fmt.Errorf("unterminated mode: %w", utils.ErrInvalidPacket)
	}

	r.Mode, err = ParseMode(strings.TrimRight(mode, string(byte(0))))
	if err != nil {
		return err
	}

	r.Options, err = readOptions(rd)
	if err != nil {
		return err
	}

	return nil
}
