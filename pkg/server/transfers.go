package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/davidkna/tftp/pkg/netascii"
	"github.com/davidkna/tftp/pkg/transfer"
	"github.com/davidkna/tftp/pkg/types"
)

// resolvePath maps a requested filename into the serve root. The name is
// re-rooted before joining so "../" sequences cannot escape.
func (s *Server) resolvePath(name string) (string, error) {
	root := filepath.Clean(s.tftpFolder)
	path := filepath.Join(root, filepath.Clean("/"+name))

	if path != root && !strings.HasPrefix(path, root+string(os.PathSeparator)) {
		return "", errors.Errorf("%s escapes the serve root", name)
	}

	return path, nil
}

func (s *Server) sendFile(sess *transfer.Session, req *types.Request) error {
	path, err := s.resolvePath(req.Filename)
	if err != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return err
	}

	stats, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			sess.SendError(types.ErrFileNotFound, fmt.Sprintf("%s not found", req.Filename))
		} else {
			sess.SendError(types.ErrNotDefined, "can not read file")
		}

		return errors.Wrapf(err, "stat %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return errors.Wrapf(err, "open %s", path)
	}

	defer func() {
		if err := f.Close(); err != nil {
			s.l.Errorf("error while closing file: %s", err.Error())
		}
	}()

	// tsize reports the on-disk size; in netascii mode the byte count on
	// the wire can differ once line endings are expanded
	accepted, neg := types.Negotiate(req.Options, s.maxBlockSize, stats.Size())
	s.applyNegotiated(sess, neg)

	if stats.Size()/int64(sess.BlockSize()) > types.MaxBlocks {
		sess.SendError(types.ErrNotDefined, "file too large to be transferred over tftp")

		return errors.Errorf("%s is too large for block size %d", path, sess.BlockSize())
	}

	var src io.Reader = f

	if req.Mode == types.ModeNetAscii {
		src = netascii.NewReader(f)
	}

	if len(accepted) > 0 {
		if err := sess.SendOptionAck(accepted, true); err != nil {
			return err
		}
	}

	return sess.Send(src)
}

func (s *Server) receiveFile(sess *transfer.Session, req *types.Request) (err error) {
	path, errResolve := s.resolvePath(req.Filename)
	if errResolve != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return errResolve
	}

	f, errOpen := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errOpen != nil {
		if os.IsExist(errOpen) {
			sess.SendError(types.ErrFileAlreadyExists, fmt.Sprintf("%s already exists", req.Filename))
		} else {
			sess.SendError(types.ErrAccessViolation, "access violation")
		}

		return errors.Wrapf(errOpen, "create %s", path)
	}

	defer func() {
		err = multierr.Append(err, f.Close())

		// do not leave half a file behind after a failed transfer
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				s.l.Errorf("error while removing partial file: %s", rmErr.Error())
			}
		}
	}()

	accepted, neg := types.Negotiate(req.Options, s.maxBlockSize, -1)
	s.applyNegotiated(sess, neg)

	var dst io.Writer = f

	var nw *netascii.Writer

	if req.Mode == types.ModeNetAscii {
		nw = netascii.NewWriter(f)
		dst = nw
	}

	if len(accepted) > 0 {
		// the client's Data(1) is the implicit acknowledgement
		if err := sess.SendOptionAck(accepted, false); err != nil {
			return err
		}
	} else if err := sess.AcknowledgeRequest(); err != nil {
		return err
	}

	if err := sess.Receive(dst); err != nil {
		return err
	}

	if nw != nil {
		return nw.Flush()
	}

	return nil
}

func (s *Server) applyNegotiated(sess *transfer.Session, neg types.Negotiated) {
	if neg.BlockSize > 0 {
		if err := sess.SetBlockSize(neg.BlockSize); err != nil {
			s.l.Errorf("error while applying negotiated block size: %s", err.Error())
		}
	}

	if neg.Timeout > 0 {
		sess.SetTimeout(neg.Timeout)
	}
}
