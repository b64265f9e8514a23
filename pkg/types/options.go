package types

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davidkna/tftp/pkg/utils"
)

// Option is one negotiated key/value pair from a Request or OACK.
type Option struct {
	Key   string
	Value string
}

// Options preserves the order the pairs appeared on the wire.
type Options []Option

// Get looks an option up by key, case-insensitively per RFC 2347.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if strings.EqualFold(opt.Key, key) {
			return opt.Value, true
		}
	}

	return "", false
}

func writeOptions(b *bytes.Buffer, opts Options) error {
	for _, opt := range opts {
		if strings.ContainsRune(opt.Key, 0) || strings.ContainsRune(opt.Value, 0) {
			return utils.ErrInvalidPacket
		}

		if _, err := b.WriteString(opt.Key); err != nil {
			return fmt.Errorf("error while writing option key: %w", err)
		}

		if err := b.WriteByte(0); err != nil {
			return fmt.Errorf("error while writing null byte after option key: %w", err)
		}

		if _, err := b.WriteString(opt.Value); err != nil {
			return fmt.Errorf("error while writing option value: %w", err)
		}

		if err := b.WriteByte(0); err != nil {
			return fmt.Errorf("error while writing null byte after option value: %w", err)
		}
	}

	return nil
}

// readOptions consumes the remainder of a Request or OACK as
// NUL-terminated key/value pairs. An unterminated key or value is a
// framing error.
func readOptions(rd *bytes.Buffer) (Options, error) {
	var opts Options

	for rd.Len() > 0 {
		key, err := rd.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("unterminated option key: %w", utils.ErrInvalidPacket)
		}

		value, err := rd.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("unterminated option value: %w", utils.ErrInvalidPacket)
		}

		opts = append(opts, Option{
			Key:   strings.TrimRight(key, string(byte(0))),
			Value: strings.TrimRight(value, string(byte(0))),
		})
	}

	return opts, nil
}

// Negotiated carries the values a transfer adopts after option
// negotiation. Zero values mean the option was not negotiated.
type Negotiated struct {
	BlockSize    int
	Timeout      time.Duration
	TransferSize int64
}

// Negotiate computes the accepted subset of a request's options.
// blksize is clamped to [MinBlockSize, maxBlockSize], timeout to
// [MinTimeout, MaxTimeout]. fileSize is the real size of the served
// file for a read request, or -1 when unknown; a tsize of 0 asks the
// server to report it. Unrecognized keys are dropped, never rejected.
// An empty accepted list means no OACK is sent and RFC 1350 defaults
// apply.
func Negotiate(requested Options, maxBlockSize int, fileSize int64) (Options, Negotiated) {
	var accepted Options

	neg := Negotiated{TransferSize: -1}

	if maxBlockSize <= 0 || maxBlockSize > MaxBlockSize {
		maxBlockSize = MaxBlockSize
	}

	for _, opt := range requested {
		switch strings.ToLower(opt.Key) {
		case OptionBlockSize:
			v, err := strconv.Atoi(opt.Value)
			if err != nil || v < MinBlockSize {
				continue
			}

			if v > maxBlockSize {
				v = maxBlockSize
			}

			neg.BlockSize = v
			accepted = append(accepted, Option{Key: OptionBlockSize, Value: strconv.Itoa(v)})
		case OptionTimeout:
			v, err := strconv.Atoi(opt.Value)
			if err != nil || v < MinTimeout {
				continue
			}

			if v > MaxTimeout {
				v = MaxTimeout
			}

			neg.Timeout = time.Duration(v) * time.Second
			accepted = append(accepted, Option{Key: OptionTimeout, Value: strconv.Itoa(v)})
		case OptionTransferSize:
			v, err := strconv.ParseInt(opt.Value, 10, 64)
			if err != nil || v < 0 {
				continue
			}

			if v == 0 {
				if fileSize < 0 {
					continue
				}

				v = fileSize
			}

			neg.TransferSize = v
			accepted = append(accepted, Option{Key: OptionTransferSize, Value: strconv.FormatInt(v, 10)})
		default:
			continue
		}
	}

	return accepted, neg
}
