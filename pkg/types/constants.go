package types

import (
	"github.com/davidkna/tftp/pkg/utils"
)

type OpCode uint16

const (
	OpCodeRRQ OpCode = iota + 1
	OpCodeWRQ
	OpCodeDATA
	OpCodeACK
	OpCodeError
	// OpCodeOACK is the RFC 2347 extension opcode. It is not part of the
	// RFC 1350 opcode set, so ParseOpCode rejects it; Decode matches it
	// explicitly.
	OpCodeOACK
)

// ParseOpCode maps a wire value to one of the five RFC 1350 opcodes.
func ParseOpCode(v uint16) (OpCode, error) {
	op := OpCode(v)

	switch op {
	case OpCodeRRQ, OpCodeWRQ, OpCodeDATA, OpCodeACK, OpCodeError:
		return op, nil
	default:
		return 0, utils.ErrWrongOpCode
	}
}

type ErrCode uint16

const (
	ErrNotDefined ErrCode = iota
	ErrFileNotFound
	ErrAccessViolation
	ErrDiskFull
	ErrIllegalTftpOp
	ErrUnknownTransferID
	ErrFileAlreadyExists
	ErrNoSuchUser
)

// ParseErrCode maps a wire value to an ErrCode; values above 7 are invalid.
func ParseErrCode(v uint16) (ErrCode, error) {
	if v > uint16(ErrNoSuchUser) {
		return 0, utils.ErrInvalidErrorCode
	}

	return ErrCode(v), nil
}

const (
	MinBlockSize     = 8
	DefaultBlockSize = 512
	MaxBlockSize     = 65464
	MaxBlocks        = 65535

	headerSize = 4
)

// DatagramSize returns the size of the largest datagram a transfer with
// the given block size can carry.
func DatagramSize(blockSize int) int {
	return blockSize + headerSize
}

const (
	DefaultTimeout  = 5
	DefaultNumTries = 5
	MaxTimeout      = 255
	MinTimeout      = 1
)

const (
	OptionBlockSize    = "blksize"
	OptionTimeout      = "timeout"
	OptionTransferSize = "tsize"
)
