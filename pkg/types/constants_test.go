package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidkna/tftp/pkg/utils"
)

func TestParseOpCode(t *testing.T) {
	valid := map[uint16]OpCode{
		1: OpCodeRRQ,
		2: OpCodeWRQ,
		3: OpCodeDATA,
		4: OpCodeACK,
		5: OpCodeError,
	}

	for v, want := range valid {
		op, err := ParseOpCode(v)
		require.NoError(t, err)
		require.Equal(t, want, op)
		require.Equal(t, v, uint16(op))
	}

	for _, v := range []uint16{0, 6, 12, 65535} {
		_, err := ParseOpCode(v)
		require.ErrorIs(t, err, utils.ErrWrongOpCode)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"mail", ModeMail},
		{"netascii", ModeNetAscii},
		{"octet", ModeOctet},
		{"MaIL", ModeMail},
		{"NETASCII", ModeNetAscii},
		{"OCtet", ModeOctet},
	}

	for _, tc := range tests {
		m, err := ParseMode(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, m)
	}

	_, err := ParseMode("PotAtOO")
	require.ErrorIs(t, err, utils.ErrInvalidMode)

	_, err = ParseMode("")
	require.ErrorIs(t, err, utils.ErrInvalidMode)
}

func TestParseErrCode(t *testing.T) {
	want := []ErrCode{
		ErrNotDefined,
		ErrFileNotFound,
		ErrAccessViolation,
		ErrDiskFull,
		ErrIllegalTftpOp,
		ErrUnknownTransferID,
		ErrFileAlreadyExists,
		ErrNoSuchUser,
	}

	for v := uint16(0); v < 8; v++ {
		code, err := ParseErrCode(v)
		require.NoError(t, err)
		require.Equal(t, want[v], code)
		require.Equal(t, v, uint16(code))
	}

	_, err := ParseErrCode(8)
	require.ErrorIs(t, err, utils.ErrInvalidErrorCode)
}
