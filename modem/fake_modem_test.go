package modem_test

import (
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const fakeReadTimeout = 5 * time.Millisecond

// fakeModem is a Transport that answers written commands from a script,
// the way a module attached to a serial port would. Reads block for at
// most fakeReadTimeout and then report a timeout as (0, nil).
type fakeModem struct {
	rx   chan []byte
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	writes  []string
	script  map[string][]string
	readErr error
	pending []byte
}

func newFakeModem() *fakeModem {
	return &fakeModem{
		rx:     make(chan []byte, 64),
		done:   make(chan struct{}),
		script: make(map[string][]string),
	}
}

// On queues replies for an exact written part. Each write consumes one
// reply; the last one repeats. An empty reply leaves the modem silent.
func (f *fakeModem) On(part string, replies ...string) *fakeModem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[part] = replies
	return f
}

// Inject makes the modem emit data on its own.
func (f *fakeModem) Inject(data string) {
	f.rx <- []byte(data)
}

// Fail makes every following read return err.
func (f *fakeModem) Fail(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
	f.rx <- nil
}

func (f *fakeModem) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.writes)
}

func (f *fakeModem) Count(part string) int {
	n := 0
	for _, w := range f.Writes() {
		if w == part {
			n++
		}
	}
	return n
}

// WaitForWrite fails the test unless part is written within two seconds.
func (f *fakeModem) WaitForWrite(t *testing.T, part string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.Count(part) > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("%q was never written; writes: %q", part, f.Writes())
}

func (f *fakeModem) Write(p []byte) (int, error) {
	select {
	case <-f.done:
		return 0, io.ErrClosedPipe
	default:
	}
	part := string(p)

	f.mu.Lock()
	f.writes = append(f.writes, part)
	reply := f.reply(part)
	f.mu.Unlock()

	if reply != "" {
		f.rx <- []byte(reply)
	}
	return len(p), nil
}

func (f *fakeModem) reply(part string) string {
	if q, ok := f.script[part]; ok && len(q) > 0 {
		if len(q) > 1 {
			f.script[part] = q[1:]
		}
		return q[0]
	}
	switch {
	case part == "AT+CPIN?\r\n":
		return "\r\n+CPIN: READY\r\n\r\nOK\r\n"
	case strings.HasPrefix(part, "AT+CMGS="):
		return "\r\n> "
	case strings.HasSuffix(part, "\x1a\n"):
		return "\r\n+CMGS: 7\r\n\r\nOK\r\n"
	case strings.HasPrefix(part, "AT"):
		return "\r\nOK\r\n"
	}
	return ""
}

func (f *fakeModem) Read(p []byte) (int, error) {
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		return n, nil
	}

	t := time.NewTimer(fakeReadTimeout)
	defer t.Stop()
	select {
	case <-f.done:
		return 0, io.EOF
	case b := <-f.rx:
		f.mu.Lock()
		err := f.readErr
		f.mu.Unlock()
		if err != nil {
			return 0, err
		}
		n := copy(p, b)
		f.pending = b[n:]
		return n, nil
	case <-t.C:
		return 0, nil
	}
}

func (f *fakeModem) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}
