// Package netascii implements the netascii text encoding from RFC 764:
// line endings travel as CR LF and a literal CR travels as CR NUL.
// Reader encodes a host byte stream while it is being read, Writer
// decodes while it is being written, so either end of a transfer can
// wrap its local file with the matching filter. Both carry at most one
// byte of state across calls, which is what keeps a CR sitting exactly
// on a block boundary intact.
package netascii

import "io"

const (
	cr = '\r'
	lf = '\n'
)

// hostEOL is the host line terminator. The transfer engine targets
// unix-like systems only.
const hostEOL = lf

// Reader encodes the bytes of the wrapped reader to netascii.
type Reader struct {
	r          io.Reader
	buf        [512]byte
	bufPos     int
	bufLen     int
	pending    byte
	hasPending bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := 0

	for n < len(p) {
		if r.hasPending {
			p[n] = r.pending
			r.hasPending = false
			n++

			continue
		}

		if r.bufPos == r.bufLen {
			m, err := r.r.Read(r.buf[:])
			if m == 0 {
				if err == io.EOF && n > 0 {
					return n, nil
				}

				return n, err
			}

			r.bufPos, r.bufLen = 0, m
		}

		c := r.buf[r.bufPos]
		r.bufPos++

		switch c {
		case hostEOL:
			p[n] = cr
			r.pending, r.hasPending = lf, true
		case cr:
			p[n] = cr
			r.pending, r.hasPending = 0, true
		default:
			p[n] = c
		}

		n++
	}

	return n, nil
}

// Writer decodes netascii and writes host bytes to the wrapped writer.
type Writer struct {
	w      io.Writer
	prevCR bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p))

	for _, c := range p {
		if w.prevCR {
			w.prevCR = false

			switch c {
			case lf:
				out = append(out, hostEOL)
			case 0:
				out = append(out, cr)
			default:
				// not valid netascii; keep both bytes rather than drop data
				out = append(out, cr, c)
			}

			continue
		}

		if c == cr {
			w.prevCR = true

			continue
		}

		out = append(out, c)
	}

	if _, err := w.w.Write(out); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Flush drains a CR left dangling at the very end of the stream.
func (w *Writer) Flush() error {
	if !w.prevCR {
		return nil
	}

	w.prevCR = false

	_, err := w.w.Write([]byte{cr})

	return err
}
