package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidkna/tftp/pkg/utils"
)

func TestRequestUnmarshal(t *testing.T) {
	var req Request

	raw := append([]byte{0, 1}, []byte("hi.txt\x00netascii\x00")...)
	require.NoError(t, req.UnmarshalBinary(raw))
	require.Equal(t, OpCodeRRQ, req.Opcode)
	require.Equal(t, "hi.txt", req.Filename)
	require.Equal(t, ModeNetAscii, req.Mode)
	require.Empty(t, req.Options)
}

func TestRequestMarshal(t *testing.T) {
	req := &Request{
		Opcode:   OpCodeWRQ,
		Filename: "bye.txt",
		Mode:     ModeMail,
	}

	b, err := req.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, append([]byte{0, 2}, []byte("bye.txt\x00mail\x00")...), b)
}

func TestRequestRoundTrip(t *testing.T) {
	req, err := NewRequest(OpCodeRRQ, "dir/hello world.bin", ModeOctet, Options{
		{Key: "blksize", Value: "1024"},
		{Key: "tsize", Value: "0"},
	})
	require.NoError(t, err)

	b, err := req.MarshalBinary()
	require.NoError(t, err)

	var got Request

	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, *req, got)
}

func TestRequestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"missing mode terminator", append([]byte{0, 1}, []byte("hi.txt\x00netascii")...)},
		{"missing filename terminator", append([]byte{0, 1}, []byte("hi.txt")...)},
		{"empty filename", append([]byte{0, 1}, []byte("\x00octet\x00")...)},
		{"unknown mode", append([]byte{0, 1}, []byte("hi.txt\x00carrier-pigeon\x00")...)},
		{"wrong opcode", append([]byte{0, 3}, []byte("hi.txt\x00octet\x00")...)},
		{"unterminated option value", append([]byte{0, 1}, []byte("hi.txt\x00octet\x00blksize\x001024")...)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req Request

			require.Error(t, req.UnmarshalBinary(tc.raw))
		})
	}
}

func TestNewRequestValidation(t *testing.T) {
	_, err := NewRequest(OpCodeRRQ, "", ModeOctet, nil)
	require.ErrorIs(t, err, utils.ErrInvalidFilename)

	_, err = NewRequest(OpCodeRRQ, "hi\x00.txt", ModeOctet, nil)
	require.ErrorIs(t, err, utils.ErrInvalidFilename)

	_, err = NewRequest(OpCodeACK, "hi.txt", ModeOctet, nil)
	require.ErrorIs(t, err, utils.ErrWrongOpCode)

	_, err = NewRequest(OpCodeWRQ, "hi.txt", Mode("pigeon"), nil)
	require.ErrorIs(t, err, utils.ErrInvalidMode)
}
