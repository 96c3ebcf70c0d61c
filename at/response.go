package at

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is an SMS read back from modem storage.
type Message struct {
	Index  int
	Status string // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string
	Time   string
	Text   string
}

// Operator is the answer to AT+COPS?.
type Operator struct {
	Mode   int
	Format int
	Name   string
}

// Registered reports whether the modem selected an operator.
func (o Operator) Registered() bool { return o.Name != "" }

// Signal is the answer to AT+CSQ.
type Signal struct {
	RSSI int // 0-31, 99 unknown
	BER  int
}

// GNSSFix is the answer to AT+CGNSINF.
type GNSSFix struct {
	Running   bool
	Fixed     bool
	Time      time.Time
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64 // km/h
	Course    float64
}

const gnssTimeLayout = "20060102150405.000"

// fields splits the comma separated payload that follows prefix. Quoted
// fields may contain commas; quotes are removed.
func fields(line, prefix string) []string {
	payload := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if payload == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(payload))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil {
		return strings.Split(payload, ",")
	}
	return rec
}

func find(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

// decodeLoose decodes UCS2 hex and falls back to the raw text for fields
// some firmwares send unencoded.
func decodeLoose(s string) string {
	d, err := DecodeText(s)
	if err != nil {
		return s
	}
	return d
}

// ParseMessage decodes the response to FetchSMS: a +CMGR header carrying
// the sender, followed by the body lines. Each body line is decoded on its
// own and the results joined with newlines.
func ParseMessage(lines []string) (Message, error) {
	lines = Clean(lines)
	for i, l := range lines {
		if !strings.HasPrefix(l, RespReadMsg) {
			continue
		}
		f := fields(l, RespReadMsg)
		if len(f) < 2 {
			return Message{}, &DecodeError{Input: l, Err: errors.New("missing sender")}
		}
		msg := Message{Status: f[0]}
		sender, err := DecodeText(f[1])
		if err != nil {
			return Message{}, err
		}
		msg.Sender = sender
		if len(f) > 3 {
			msg.Time = f[3]
		}
		msg.Text, err = decodeBody(lines[i+1:])
		if err != nil {
			return Message{}, err
		}
		return msg, nil
	}
	return Message{}, &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespReadMsg + " header")}
}

func decodeBody(lines []string) (string, error) {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		t, err := DecodeText(strings.TrimSpace(l))
		if err != nil {
			return "", err
		}
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// ParseMessageList decodes the response to ListUnread.
func ParseMessageList(lines []string) ([]Message, error) {
	lines = Clean(lines)
	var (
		out  []Message
		cur  *Message
		body []string
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		text, err := decodeBody(body)
		if err != nil {
			return err
		}
		cur.Text = text
		out = append(out, *cur)
		cur, body = nil, nil
		return nil
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, RespListMsg) {
			if cur != nil {
				body = append(body, l)
			}
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		f := fields(l, RespListMsg)
		if len(f) < 3 {
			return nil, &DecodeError{Input: l, Err: errors.New("short message header")}
		}
		idx, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, &DecodeError{Input: l, Err: err}
		}
		sender, err := DecodeText(f[2])
		if err != nil {
			return nil, err
		}
		cur = &Message{Index: idx, Status: f[1], Sender: sender}
		if len(f) > 4 {
			cur.Time = f[4]
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// CallerID extracts the calling number from a caller info query response.
// The +CLIP report is preferred; a +CLCC entry is used when it is absent.
func CallerID(lines []string) (string, bool) {
	if l, ok := find(lines, RespCallerID); ok {
		if f := fields(l, RespCallerID); len(f) > 0 && f[0] != "" {
			return f[0], true
		}
	}
	if l, ok := find(lines, RespCallList); ok {
		// +CLCC: <id>,<dir>,<stat>,<mode>,<mpty>,"<number>",<type>
		if f := fields(l, RespCallList); len(f) > 5 && f[5] != "" {
			return f[5], true
		}
	}
	return "", false
}

// ParseOperator decodes the response to AT+COPS?.
func ParseOperator(lines []string) (Operator, error) {
	l, ok := find(lines, RespOperator)
	if !ok {
		return Operator{}, &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespOperator + " line")}
	}
	f := fields(l, RespOperator)
	if len(f) == 0 {
		return Operator{}, &DecodeError{Input: l, Err: errors.New("empty operator report")}
	}
	var op Operator
	var err error
	if op.Mode, err = strconv.Atoi(f[0]); err != nil {
		return Operator{}, &DecodeError{Input: l, Err: err}
	}
	if len(f) >= 3 {
		if op.Format, err = strconv.Atoi(f[1]); err != nil {
			return Operator{}, &DecodeError{Input: l, Err: err}
		}
		op.Name = decodeLoose(f[2])
	}
	return op, nil
}

// ParseSignal decodes the response to AT+CSQ.
func ParseSignal(lines []string) (Signal, error) {
	l, ok := find(lines, RespSignal)
	if !ok {
		return Signal{}, &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespSignal + " line")}
	}
	f := fields(l, RespSignal)
	if len(f) < 2 {
		return Signal{}, &DecodeError{Input: l, Err: errors.New("expected <rssi>,<ber>")}
	}
	rssi, err := strconv.Atoi(f[0])
	if err != nil {
		return Signal{}, &DecodeError{Input: l, Err: err}
	}
	ber, err := strconv.Atoi(f[1])
	if err != nil {
		return Signal{}, &DecodeError{Input: l, Err: err}
	}
	return Signal{RSSI: rssi, BER: ber}, nil
}

// ParseSIMStatus returns the +CPIN state, e.g. "READY" or "SIM PIN".
func ParseSIMStatus(lines []string) (string, error) {
	l, ok := find(lines, RespSimStatus)
	if !ok {
		return "", &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespSimStatus + " line")}
	}
	return strings.TrimSpace(strings.TrimPrefix(l, RespSimStatus)), nil
}

// ParseBearer decodes the response to BearerQuery into the bearer status
// (1 connected, 3 closed) and its IP address.
func ParseBearer(lines []string) (int, string, error) {
	l, ok := find(lines, RespBearer)
	if !ok {
		return 0, "", &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespBearer + " line")}
	}
	f := fields(l, RespBearer)
	if len(f) < 3 {
		return 0, "", &DecodeError{Input: l, Err: errors.New("expected <cid>,<status>,<ip>")}
	}
	status, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, "", &DecodeError{Input: l, Err: err}
	}
	return status, f[2], nil
}

// ParseGNSS decodes the response to AT+CGNSINF. Fields that are empty
// while the receiver has no fix are left zero.
func ParseGNSS(lines []string) (GNSSFix, error) {
	l, ok := find(lines, RespGNSSInfo)
	if !ok {
		return GNSSFix{}, &DecodeError{Input: strings.Join(lines, "\n"), Err: errors.New("no " + RespGNSSInfo + " line")}
	}
	f := fields(l, RespGNSSInfo)
	if len(f) < 2 {
		return GNSSFix{}, &DecodeError{Input: l, Err: errors.New("short navigation report")}
	}
	fix := GNSSFix{Running: f[0] == "1", Fixed: f[1] == "1"}
	if len(f) > 2 && f[2] != "" {
		t, err := time.Parse(gnssTimeLayout, f[2])
		if err != nil {
			return GNSSFix{}, &DecodeError{Input: l, Err: err}
		}
		fix.Time = t
	}
	floats := []*float64{&fix.Latitude, &fix.Longitude, &fix.Altitude, &fix.Speed, &fix.Course}
	for i, dst := range floats {
		pos := 3 + i
		if pos >= len(f) || f[pos] == "" {
			continue
		}
		v, err := strconv.ParseFloat(f[pos], 64)
		if err != nil {
			return GNSSFix{}, &DecodeError{Input: l, Err: fmt.Errorf("field %d: %w", pos, err)}
		}
		*dst = v
	}
	return fix, nil
}
