package at

import (
	"errors"
	"strconv"
	"strings"
)

// Event is an unsolicited notification recognised by ParseEvent.
type Event interface {
	event()
}

// SMSNotify reports a new message written to storage Mem at Index (+CMTI).
type SMSNotify struct {
	Mem   string
	Index int
}

// Ring reports an incoming call.
type Ring struct{}

// MissedCall reports a call that rang out: MISSED_CALL: <time> <number>.
type MissedCall struct {
	Time   string
	Number string
}

// Unrecognized carries a line that matches no known notification.
type Unrecognized struct {
	Line string
}

func (SMSNotify) event()    {}
func (Ring) event()         {}
func (MissedCall) event()   {}
func (Unrecognized) event() {}

// eventRoutes is scanned in order and the first matching prefix wins.
var eventRoutes = []struct {
	prefix string
	parse  func(line string) (Event, error)
}{
	{UrcNewMsg, parseSMSNotify},
	{UrcCall, parseRing},
	{UrcMissedCall, parseMissedCall},
}

// EventPrefixes returns the notification prefixes in match order.
func EventPrefixes() []string {
	p := make([]string, len(eventRoutes))
	for i, r := range eventRoutes {
		p[i] = r.prefix
	}
	return p
}

// ParseEvent classifies line. Lines matching no prefix yield Unrecognized;
// a matching line with a malformed payload yields a *DecodeError.
func ParseEvent(line string) (Event, error) {
	for _, r := range eventRoutes {
		if strings.HasPrefix(line, r.prefix) {
			return r.parse(line)
		}
	}
	return Unrecognized{Line: line}, nil
}

func parseSMSNotify(line string) (Event, error) {
	f := fields(line, UrcNewMsg)
	if len(f) < 2 {
		return nil, &DecodeError{Input: line, Err: errors.New("missing storage index")}
	}
	idx, err := strconv.Atoi(f[len(f)-1])
	if err != nil {
		return nil, &DecodeError{Input: line, Err: err}
	}
	return SMSNotify{Mem: f[0], Index: idx}, nil
}

func parseRing(string) (Event, error) {
	return Ring{}, nil
}

func parseMissedCall(line string) (Event, error) {
	rest := strings.TrimPrefix(line, UrcMissedCall)
	rest = strings.TrimPrefix(strings.TrimSpace(rest), ":")
	f := strings.Fields(rest)
	if len(f) < 2 {
		return nil, &DecodeError{Input: line, Err: errors.New("expected <time> <number>")}
	}
	return MissedCall{
		Time:   strings.Join(f[:len(f)-1], " "),
		Number: f[len(f)-1],
	}, nil
}
