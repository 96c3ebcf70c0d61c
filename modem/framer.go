package modem

import (
	"io"

	"i4.energy/across/simaccess/at"
)

const maxLineLength = 16 * 1024

// Line is one record read off the transport. A Line with Timeout set
// carries no data: the transport read expired first.
type Line struct {
	Text    string
	Timeout bool
}

// Framer turns the raw byte stream of a Transport into lines, using
// at.Splitter to find the boundaries. Partial lines survive across reads
// and read timeouts. A Framer is not safe for concurrent use; the session
// gives it a single reader goroutine.
type Framer struct {
	r     io.Reader
	buf   []byte
	chunk []byte
	err   error
}

func NewFramer(r io.Reader) *Framer {
	return &Framer{
		r:     r,
		chunk: make([]byte, 1024),
	}
}

// ReadLine returns the next line, or a Timeout line when the transport read
// expired. Content is returned as received, without the CRLF terminator.
// A failing read yields a *TransportError.
func (f *Framer) ReadLine() (Line, error) {
	for {
		if adv, tok, _ := at.Splitter(f.buf, false); adv > 0 {
			line := Line{Text: string(tok)}
			f.buf = f.buf[adv:]
			return line, nil
		}
		if f.err != nil {
			return Line{}, &TransportError{Op: "read", Err: f.err}
		}
		if len(f.buf) > maxLineLength {
			f.buf = nil
			return Line{}, &TransportError{Op: "read", Err: ErrLineTooLong}
		}

		n, err := f.r.Read(f.chunk)
		f.buf = append(f.buf, f.chunk[:n]...)
		if err != nil {
			f.err = err
			continue
		}
		if n == 0 {
			return Line{Timeout: true}, nil
		}
	}
}

// Buffered reports how many received bytes are waiting to complete a line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
