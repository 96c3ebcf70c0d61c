package at

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/warthog618/sms/encoding/ucs2"
)

// DecodeError is returned when text received from the modem is not valid
// hex encoded UCS2, or a notification payload cannot be parsed.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// BuildCommand renders a command line. Extended commands take the "+" form
// (AT+NAME), basic commands are written as ATNAME. args is appended verbatim.
func BuildCommand(name string, extended bool, args string) string {
	return prefix(name, extended) + args + CRLF
}

// Query renders the read form of a command, e.g. AT+COPS?.
func Query(name string, extended bool) string {
	return prefix(name, extended) + "?" + CRLF
}

// Set renders the write form of a command, e.g. AT+CMGF=1.
func Set(name string, extended bool, args string) string {
	return prefix(name, extended) + "=" + args + CRLF
}

func prefix(name string, extended bool) string {
	if extended {
		return "AT+" + strings.ToUpper(name)
	}
	return "AT" + strings.ToUpper(name)
}

// EncodeText converts s to the upper-case hex of its UTF-16BE code units,
// the representation used for text fields while the modem runs with the
// UCS2 character set. The empty string encodes to the empty string.
func EncodeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(ucs2.Encode([]rune(s))))
}

// DecodeText is the inverse of EncodeText.
func DecodeText(h string) (string, error) {
	if h == "" {
		return "", nil
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return "", &DecodeError{Input: h, Err: err}
	}
	r, err := ucs2.Decode(b)
	if err != nil {
		return "", &DecodeError{Input: h, Err: err}
	}
	return string(r), nil
}
