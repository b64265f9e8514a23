package transfer

import (
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/davidkna/tftp/pkg/types"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "udp" }
func (a fakeAddr) String() string  { return string(a) }

type datagram struct {
	addr net.Addr
	b    []byte
}

// fakeConn is an in-memory net.PacketConn: tests feed inbound datagrams
// through in and inspect everything the session wrote through sent.
type fakeConn struct {
	in   chan datagram
	sent chan datagram

	mu           sync.Mutex
	readDeadline time.Time
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan datagram, 64),
		sent: make(chan datagram, 64),
	}
}

func (c *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	deadline := c.readDeadline
	c.mu.Unlock()

	wait := time.Until(deadline)
	if wait <= 0 {
		return 0, nil, os.ErrDeadlineExceeded
	}

	select {
	case dg := <-c.in:
		return copy(p, dg.b), dg.addr, nil
	case <-time.After(wait):
		return 0, nil, os.ErrDeadlineExceeded
	}
}

func (c *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.sent <- datagram{addr: addr, b: append([]byte(nil), p...)}

	return len(p), nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()

	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) LocalAddr() net.Addr              { return fakeAddr("local:7770") }
func (c *fakeConn) Close() error                     { return nil }

func (c *fakeConn) feed(t *testing.T, addr net.Addr, p types.Packet) {
	t.Helper()

	b, err := p.MarshalBinary()
	require.NoError(t, err)

	c.in <- datagram{addr: addr, b: b}
}

// takeSent pops the next datagram the session wrote, decoded.
func (c *fakeConn) takeSent(t *testing.T) (types.Packet, net.Addr) {
	t.Helper()

	select {
	case dg := <-c.sent:
		p, err := types.Decode(dg.b)
		require.NoError(t, err)

		return p, dg.addr
	case <-time.After(time.Second):
		t.Fatal("no datagram was sent")

		return nil, nil
	}
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	return zaptest.NewLogger(t).Sugar()
}

func testSession(t *testing.T, conn net.PacketConn, peer net.Addr) *Session {
	t.Helper()

	return NewSession(conn, peer, testLogger(t), 30*time.Millisecond, 3)
}
