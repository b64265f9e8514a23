package client

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidkna/tftp/pkg/types"
)

type recordedCall struct {
	op       string
	filename string
	mode     types.Mode
}

type stubConnector struct {
	calls     []recordedCall
	addr      string
	timeout   uint
	retries   uint
	blockSize int
	trace     bool
}

func (s *stubConnector) Connect(addr string) error {
	s.addr = addr

	return nil
}

func (s *stubConnector) Get(_ context.Context, filename string, mode types.Mode, _ io.Writer) error {
	s.calls = append(s.calls, recordedCall{op: "get", filename: filename, mode: mode})

	return nil
}

func (s *stubConnector) Put(_ context.Context, filename string, mode types.Mode, _ io.Reader) error {
	s.calls = append(s.calls, recordedCall{op: "put", filename: filename, mode: mode})

	return nil
}

func (s *stubConnector) SetTimeout(seconds uint) { s.timeout = seconds }
func (s *stubConnector) SetRetries(n uint)       { s.retries = n }
func (s *stubConnector) SetTrace()               { s.trace = !s.trace }
func (s *stubConnector) Close() error            { return nil }

func (s *stubConnector) SetBlockSize(n int) error {
	s.blockSize = n

	return nil
}

func evalLine(t *testing.T, e *Evaluator, line string) (bool, error) {
	t.Helper()

	e.line = line

	return e.evaluate()
}

func TestEvaluatorCommands(t *testing.T) {
	stub := &stubConnector{}
	e := NewEvaluator(zaptest.NewLogger(t).Sugar(), stub)

	done, err := evalLine(t, e, "connect 127.0.0.1 6969")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, "127.0.0.1:6969", stub.addr)

	_, err = evalLine(t, e, "mode octet")
	require.NoError(t, err)
	require.Equal(t, types.ModeOctet, e.mode)

	_, err = evalLine(t, e, "mode pigeon")
	require.Error(t, err)
	require.Equal(t, types.ModeOctet, e.mode)

	_, err = evalLine(t, e, "blksize 1024")
	require.NoError(t, err)
	require.Equal(t, 1024, stub.blockSize)

	_, err = evalLine(t, e, "timeout 3")
	require.NoError(t, err)
	require.Equal(t, uint(3), stub.timeout)

	_, err = evalLine(t, e, "rexmt 8")
	require.NoError(t, err)
	require.Equal(t, uint(8), stub.retries)

	_, err = evalLine(t, e, "trace")
	require.NoError(t, err)
	require.True(t, stub.trace)

	_, err = evalLine(t, e, "frobnicate")
	require.Error(t, err)

	done, err = evalLine(t, e, "quit")
	require.NoError(t, err)
	require.True(t, done)
}

func TestEvaluatorTransfersUseLocalFiles(t *testing.T) {
	stub := &stubConnector{}
	e := NewEvaluator(zaptest.NewLogger(t).Sugar(), stub)

	_, err := evalLine(t, e, "put "+t.TempDir()+"/nope.txt")
	require.Error(t, err)
	require.Empty(t, stub.calls)
}
