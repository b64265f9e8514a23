package types

import (
	"strings"

	"github.com/davidkna/tftp/pkg/utils"
)

// Mode is a TFTP transfer mode. Mail is parsed for wire compatibility
// but rejected when a transfer is started.
type Mode string

const (
	ModeNetAscii Mode = "netascii"
	ModeOctet    Mode = "octet"
	ModeMail     Mode = "mail"
)

// ParseMode matches the textual transfer mode case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case string(ModeNetAscii):
		return ModeNetAscii, nil
	case string(ModeOctet):
		return ModeOctet, nil
	case string(ModeMail):
		return ModeMail, nil
	default:
		return "", utils.ErrInvalidMode
	}
}

func (m Mode) String() string {
	return string(m)
}
