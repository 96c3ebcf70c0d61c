package at

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSettle is the pause between the header and the body of a
// multi-part command such as SMS submission.
const DefaultSettle = time.Second

// Command is a value describing what to write for one AT command. Most
// commands are a single CRLF terminated part; SMS submission is written
// as a header part followed, after Settle, by the body part.
type Command struct {
	Parts  []string
	Settle time.Duration
	// MaxEmptyReads overrides the caller's budget of consecutive read
	// timeouts while waiting for the final result. Zero keeps the default.
	MaxEmptyReads int
}

// Raw wraps a hand written command line, adding CRLF when missing.
func Raw(line string) Command {
	if !strings.HasSuffix(line, "\n") && !strings.HasSuffix(line, "\r") {
		line += CRLF
	}
	return Command{Parts: []string{line}}
}

// WithMaxEmptyReads returns a copy of c with its read budget replaced.
func (c Command) WithMaxEmptyReads(n int) Command {
	c.MaxEmptyReads = n
	return c
}

// WithSettle returns a copy of c using d between parts.
func (c Command) WithSettle(d time.Duration) Command {
	c.Settle = d
	return c
}

func (c Command) String() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(c.Parts[0])
}

func single(s string) Command {
	return Command{Parts: []string{s}}
}

// Attention is the readiness probe.
func Attention() Command { return single("AT" + CRLF) }

// Echo switches command echo on or off (ATE1/ATE0).
func Echo(enable bool) Command {
	if enable {
		return single(BuildCommand("E", false, "1"))
	}
	return single(BuildCommand("E", false, "0"))
}

// TextMode selects SMS text mode.
func TextMode() Command { return single(Set("CMGF", true, "1")) }

// TextModeParams sets the text mode parameters so that message bodies are
// submitted with the UCS2 data coding scheme.
func TextModeParams() Command { return single(Set("CSMP", true, "17,167,0,8")) }

// CharsetUCS2 makes the modem exchange text fields as hex encoded UCS2.
func CharsetUCS2() Command { return single(Set("CSCS", true, `"UCS2"`)) }

// CallerIDNotify enables +CLIP caller id presentation.
func CallerIDNotify(enable bool) Command {
	if enable {
		return single(Set("CLIP", true, "1"))
	}
	return single(Set("CLIP", true, "0"))
}

// SIMStatus queries the SIM lock state.
func SIMStatus() Command { return single(Query("CPIN", true)) }

// EnterPIN unlocks the SIM.
func EnterPIN(pin string) Command { return single(Set("CPIN", true, `"`+pin+`"`)) }

// Dial places a voice call.
func Dial(number string) Command { return single(BuildCommand("D", false, number+";")) }

// Answer picks up an incoming call.
func Answer() Command { return single(BuildCommand("A", false, "")) }

// Hangup terminates the current call.
func Hangup() Command { return single(BuildCommand("CHUP", true, "")) }

// CallerInfo asks for the current call list; with caller id presentation
// enabled the pending +CLIP report arrives in its response.
func CallerInfo() Command { return single(Query("CLCC", true)) }

// PowerOff switches the module off.
func PowerOff() Command { return single(Set("CPOF", true, "1")) }

// QueryOperator queries network registration and the selected operator.
func QueryOperator() Command { return single(Query("COPS", true)) }

// SignalQuality queries received signal strength.
func SignalQuality() Command { return single(BuildCommand("CSQ", true, "")) }

// FetchSMS reads the message stored at index.
func FetchSMS(index int) Command { return single(Set("CMGR", true, fmt.Sprint(index))) }

// ListUnread lists unread messages.
func ListUnread() Command { return single(Set("CMGL", true, `"REC UNREAD"`)) }

// DeleteSMS removes the message stored at index.
func DeleteSMS(index int) Command { return single(Set("CMGD", true, fmt.Sprintf("%d,0", index))) }

// DeleteAllSMS removes every stored message.
func DeleteAllSMS() Command { return single(Set("CMGD", true, "1,3")) }

// SendSMS submits text to number. Both fields are UCS2 encoded; the header
// ends with a bare CR and the body with Ctrl-Z and LF.
func SendSMS(number, text string) Command {
	header := prefix("CMGS", true) + `="` + EncodeText(number) + `"` + CR
	body := EncodeText(text) + CtrlZ + "\n"
	return Command{Parts: []string{header, body}, Settle: DefaultSettle}
}

// SetAPN configures the GPRS access point for the IP stack.
func SetAPN(apn string) Command { return single(Set("CSTT", true, `"`+apn+`"`)) }

// BringUpWireless activates the GPRS context configured with SetAPN.
func BringUpWireless() Command { return single(BuildCommand("CIICR", true, "")) }

// BearerParam sets a bearer profile parameter (AT+SAPBR=3,1,...).
func BearerParam(tag, value string) Command {
	return single(Set("SAPBR", true, fmt.Sprintf(`3,1,"%s","%s"`, tag, value)))
}

// BearerOpen opens bearer profile 1.
func BearerOpen() Command { return single(Set("SAPBR", true, "1,1")) }

// BearerQuery reports the state and address of bearer profile 1.
func BearerQuery() Command { return single(Set("SAPBR", true, "2,1")) }

// BearerClose closes bearer profile 1.
func BearerClose() Command { return single(Set("SAPBR", true, "0,1")) }

// GNSSPower switches the GNSS receiver.
func GNSSPower(on bool) Command {
	if on {
		return single(Set("CGNSPWR", true, "1"))
	}
	return single(Set("CGNSPWR", true, "0"))
}

// GNSSInfo reads the current navigation fix.
func GNSSInfo() Command { return single(BuildCommand("CGNSINF", true, "")) }
