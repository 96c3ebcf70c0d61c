// Package at holds the pure text side of the AT command protocol: command
// builders, the UCS2 text codec, line tokenizing and classification of
// modem output. Nothing in this package performs I/O.
package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	CR     = "\r"
	Prompt = "> "
	// CtrlZ terminates the body of an SMS.
	CtrlZ = "\x1a"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"
	CmsError = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg     = "+CMTI:"
	UrcCall       = "RING"
	UrcMissedCall = "MISSED_CALL"

	// Information responses
	RespCallerID  = "+CLIP:"
	RespCallList  = "+CLCC:"
	RespReadMsg   = "+CMGR:"
	RespListMsg   = "+CMGL:"
	RespOperator  = "+COPS:"
	RespSignal    = "+CSQ:"
	RespSimStatus = "+CPIN:"
	RespBearer    = "+SAPBR:"
	RespGNSSInfo  = "+CGNSINF:"

	// SIM states reported by +CPIN
	SimReady = "READY"
	SimPin   = "SIM PIN"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	}
	return "unknown"
}
