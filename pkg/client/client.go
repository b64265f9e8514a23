package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/davidkna/tftp/pkg/netascii"
	"github.com/davidkna/tftp/pkg/transfer"
	"github.com/davidkna/tftp/pkg/types"
	"github.com/davidkna/tftp/pkg/utils"
)

type Connector interface {
	Connect(addr string) error
	Get(ctx context.Context, filename string, mode types.Mode, dst io.Writer) error
	Put(ctx context.Context, filename string, mode types.Mode, src io.Reader) error
	SetTimeout(seconds uint)
	SetRetries(n uint)
	SetBlockSize(n int) error
	SetTrace()
	Close() error
}

type Client struct {
	conn      net.PacketConn
	server    net.Addr
	l         *zap.SugaredLogger
	timeout   time.Duration
	numTries  int
	blockSize int
	trace     bool
}

func NewClient(l *zap.SugaredLogger, numTries uint) Connector {
	c := &Client{l: l, numTries: int(numTries)}
	c.timeout = time.Duration(types.DefaultTimeout) * time.Second

	return c
}

func (c *Client) SetTimeout(seconds uint) {
	c.timeout = time.Duration(seconds) * time.Second
}

func (c *Client) SetRetries(n uint) {
	if n > 0 {
		c.numTries = int(n)
	}
}

// SetBlockSize makes every following request carry a blksize option.
func (c *Client) SetBlockSize(n int) error {
	if n < types.MinBlockSize || n > types.MaxBlockSize {
		return utils.ErrInvalidBlockSize
	}

	c.blockSize = n

	return nil
}

func (c *Client) SetTrace() {
	c.trace = !c.trace
}

// Connect resolves the server address and binds the local ephemeral
// endpoint whose port is this client's transfer ID.
func (c *Client) Connect(addr string) error {
	server, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", addr)
	}

	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return errors.Wrap(err, "bind local endpoint")
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.l.Errorf("error while closing previous connection: %s", err.Error())
		}
	}

	c.conn = conn
	c.server = server

	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := errors.Wrap(c.conn.Close(), "close local endpoint")
	c.conn = nil

	return err
}

// Get fetches filename from the server into dst. Blocking; the ctx
// deadline bounds the whole transfer.
func (c *Client) Get(ctx context.Context, filename string, mode types.Mode, dst io.Writer) error {
	sess, req, err := c.newSession(ctx, types.OpCodeRRQ, filename, mode)
	if err != nil {
		return err
	}

	w := dst

	var nw *netascii.Writer

	if mode == types.ModeNetAscii {
		nw = netascii.NewWriter(dst)
		w = nw
	}

	if _, err := sess.Handshake(req, c.server); err != nil {
		return errors.Wrapf(err, "get %s", filename)
	}

	if err := sess.Receive(w); err != nil {
		return errors.Wrapf(err, "get %s", filename)
	}

	if nw != nil {
		if err := nw.Flush(); err != nil {
			return errors.Wrapf(err, "get %s", filename)
		}
	}

	return nil
}

// Put streams src to the server under filename.
func (c *Client) Put(ctx context.Context, filename string, mode types.Mode, src io.Reader) error {
	sess, req, err := c.newSession(ctx, types.OpCodeWRQ, filename, mode)
	if err != nil {
		return err
	}

	if mode == types.ModeNetAscii {
		src = netascii.NewReader(src)
	}

	if _, err := sess.Handshake(req, c.server); err != nil {
		return errors.Wrapf(err, "put %s", filename)
	}

	if err := sess.Send(src); err != nil {
		return errors.Wrapf(err, "put %s", filename)
	}

	return nil
}

func (c *Client) newSession(ctx context.Context, op types.OpCode,
	filename string, mode types.Mode,
) (*transfer.Session, *types.Request, error) {
	if c.conn == nil {
		return nil, nil, utils.ErrNotConnected
	}

	if mode == types.ModeMail {
		return nil, nil, utils.ErrMailNotTransferred
	}

	var opts types.Options

	if c.blockSize > 0 {
		opts = append(opts, types.Option{
			Key:   types.OptionBlockSize,
			Value: strconv.Itoa(c.blockSize),
		})
	}

	req, err := types.NewRequest(op, filename, mode, opts)
	if err != nil {
		return nil, nil, err
	}

	sess := transfer.NewSession(c.conn, nil, c.l, c.timeout, c.numTries)
	sess.SetTrace(c.trace)

	if deadline, ok := ctx.Deadline(); ok {
		sess.SetDeadline(deadline)
	}

	return sess, req, nil
}
