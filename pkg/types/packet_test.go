package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidkna/tftp/pkg/utils"
)

func TestDecodeDispatch(t *testing.T) {
	data := &Data{Opcode: OpCodeDATA, BlockNum: 7, Payload: []byte("pay\x00load")}
	b, err := data.MarshalBinary()
	require.NoError(t, err)

	p, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, data, p)

	ack := &Ack{Opcode: OpCodeACK, BlockNum: 7}
	b, err = ack.MarshalBinary()
	require.NoError(t, err)

	p, err = Decode(b)
	require.NoError(t, err)
	require.Equal(t, ack, p)

	errPacket := &Error{Opcode: OpCodeError, ErrorCode: ErrFileNotFound, ErrMsg: "hi.txt not found"}
	b, err = errPacket.MarshalBinary()
	require.NoError(t, err)

	p, err = Decode(b)
	require.NoError(t, err)
	require.Equal(t, errPacket, p)

	oack := &OptionAck{Opcode: OpCodeOACK, Options: Options{{Key: "blksize", Value: "1024"}}}
	b, err = oack.MarshalBinary()
	require.NoError(t, err)

	p, err = Decode(b)
	require.NoError(t, err)
	require.Equal(t, oack, p)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, utils.ErrInvalidPacket)

	_, err = Decode([]byte{0})
	require.ErrorIs(t, err, utils.ErrInvalidPacket)

	_, err = Decode([]byte{0, 9, 0, 1})
	require.ErrorIs(t, err, utils.ErrWrongOpCode)

	// error packet with an unmapped error code
	_, err = Decode([]byte{0, 5, 0, 8, 'x', 0})
	require.ErrorIs(t, err, utils.ErrInvalidErrorCode)
}

func TestAckTolerantOfTrailingBytes(t *testing.T) {
	var ack Ack

	require.NoError(t, ack.UnmarshalBinary([]byte{0, 4, 0, 3, 0xde, 0xad}))
	require.Equal(t, uint16(3), ack.BlockNum)
}

func TestDataEmptyPayload(t *testing.T) {
	data := &Data{Opcode: OpCodeDATA, BlockNum: 42}
	b, err := data.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 4)

	var got Data

	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, uint16(42), got.BlockNum)
	require.Empty(t, got.Payload)
}
