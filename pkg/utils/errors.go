package utils

import "errors"

var (
	ErrStartingServer     = errors.New("error: starting the udp server")
	ErrInvalidPacket      = errors.New("error: malformed packet")
	ErrWrongOpCode        = errors.New("error: invalid operation code")
	ErrInvalidMode        = errors.New("error: invalid transfer mode")
	ErrInvalidErrorCode   = errors.New("error: invalid error code")
	ErrInvalidFilename    = errors.New("error: invalid filename")
	ErrInvalidBlockSize   = errors.New("error: block size out of range")
	ErrPayloadTooBig      = errors.New("error: payload exceeds maximum block size")
	ErrPacketMarshall     = errors.New("error: can not marshall packet")
	ErrTimeout            = errors.New("error: timed out waiting for peer")
	ErrDeadlineExceeded   = errors.New("error: transfer deadline exceeded")
	ErrRetriesExceeded    = errors.New("error: retry budget exhausted")
	ErrPeerError          = errors.New("error: peer aborted the transfer")
	ErrUnexpectedBlock    = errors.New("error: unexpected block number")
	ErrUnexpectedPacket   = errors.New("error: unexpected packet from peer")
	ErrNotConnected       = errors.New("error: client is not connected")
	ErrMailNotTransferred = errors.New("error: mail mode is not supported for transfers")
)
