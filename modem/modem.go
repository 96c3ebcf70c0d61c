package modem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/simaccess/at"
)

// Modem is a session with a GSM modem driven by AT commands.
//
// A single loop goroutine owns the transport: it writes commands, receives
// every line from the reader goroutine and either hands it to the command
// waiting for its result or routes it to the notification handlers.
// Commands are admitted one at a time, in FIFO order, so any number of
// goroutines may call Modem methods concurrently.
type Modem struct {
	transport Transport
	framer    *Framer
	config    Config
	logger    *slog.Logger
	handler   Handler

	// commands is the admission queue for Execute. It is unbuffered: the
	// loop receives only when no command is outstanding, so a send
	// completes exactly when the command is admitted, and blocked senders
	// are served in arrival order.
	commands chan *commandRequest
	// events queues routed notifications for the dispatcher.
	events chan at.Event
	// dropped counts notifications lost to a full events queue.
	dropped atomic.Uint64

	cancel  context.CancelFunc
	stopped chan struct{} // closed when the loop returns
	done    chan struct{} // closed when every session goroutine returned
	loopErr error         // set before stopped is closed
	err     error         // set before done is closed

	mu       sync.Mutex
	closed   bool
	state    State
	sendMu   sync.Mutex
	lastSend time.Time
}

// State is a snapshot of what the session knows about the module.
type State struct {
	// Ready is set once initialization completed.
	Ready bool
	// NetworkUp is set after AttachNetwork brought up the GPRS context.
	NetworkUp bool
	// BearerIP is the address of the open bearer, if any.
	BearerIP string
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection, starts the session goroutines
// and runs the initialization sequence: a readiness probe, echo off, SIM
// unlock, SMS text mode, UCS2 character set and caller id presentation.
//
// ctx bounds the lifetime of the session. Returns an error if the
// transport connection or modem initialization fails.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport: transport,
		framer:    NewFramer(transport),
		config:    config,
		logger:    config.Logger.With("component", "modem"),
		handler:   config.Handler,
		commands:  make(chan *commandRequest),
		events:    make(chan at.Event, config.EventBuffer),
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	m.start(ctx)

	initCtx, cancel := context.WithTimeout(ctx, config.InitTimeout)
	defer cancel()

	if err := m.init(initCtx); err != nil {
		m.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	m.mu.Lock()
	m.state.Ready = true
	m.mu.Unlock()
	m.logger.Info("modem ready")
	return m, nil
}

// start launches the reader, the loop and the notification dispatcher.
func (m *Modem) start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	reads := make(chan readResult)

	g.Go(func() error {
		m.readLines(gctx, reads)
		return nil
	})
	g.Go(func() error {
		return m.loop(gctx, reads)
	})
	g.Go(func() error {
		m.dispatchEvents(gctx)
		return nil
	})

	go func() {
		err := g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("modem session terminated", "error", err)
		}
		m.err = err
		close(m.done)
	}()
}

// init performs the initial setup sequence for the modem hardware.
// This method is called during New() and must complete successfully
// before the modem can be used.
func (m *Modem) init(ctx context.Context) error {
	if err := m.probe(ctx); err != nil {
		return err
	}

	if _, err := m.Execute(ctx, at.Echo(false)); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}

	if err := m.unlockSIM(ctx); err != nil {
		return err
	}

	setup := []struct {
		cmd  at.Command
		what string
	}{
		{at.TextMode(), "set SMS text mode"},
		{at.CharsetUCS2(), "select UCS2 character set"},
		{at.TextModeParams(), "set text mode parameters"},
		{at.CallerIDNotify(true), "enable caller id"},
	}
	for _, s := range setup {
		if _, err := m.Execute(ctx, s.cmd); err != nil {
			return fmt.Errorf("%s: %w", s.what, err)
		}
	}
	return nil
}

// probe sends AT until the module answers OK. Every failure waits one
// ProbeInterval; after ProbeAttempts failures the module is not ready.
func (m *Modem) probe(ctx context.Context) error {
	b := &backoff.Backoff{
		Min:    m.config.ProbeInterval,
		Max:    m.config.ProbeInterval,
		Factor: 1,
	}
	var lastErr error
	for attempt := 1; attempt <= m.config.ProbeAttempts; attempt++ {
		_, err := m.Execute(ctx, at.Attention().WithMaxEmptyReads(1))
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNoResponse) && !errors.Is(err, ErrCommandRejected) {
			return fmt.Errorf("modem not responding: %w", err)
		}
		lastErr = err
		m.logger.Debug("module not ready", "attempt", attempt, "error", err)
		if attempt == m.config.ProbeAttempts {
			break
		}

		t := time.NewTimer(b.Duration())
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrModuleNotReady, ctx.Err())
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrModuleNotReady, m.config.ProbeAttempts, lastErr)
}

// unlockSIM enters the configured PIN when the SIM asks for one and waits
// for it to report READY.
func (m *Modem) unlockSIM(ctx context.Context) error {
	status, err := m.simStatus(ctx)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}

	switch status {
	case at.SimReady:
		return nil

	case at.SimPin:
		if m.config.SimPIN == "" {
			return ErrSIMPinRequired
		}
		if _, err := m.Execute(ctx, at.EnterPIN(m.config.SimPIN)); err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		return m.waitForSIMReady(ctx)

	default:
		return fmt.Errorf("unsupported SIM state: %q", status)
	}
}

func (m *Modem) simStatus(ctx context.Context) (string, error) {
	lines, err := m.Execute(ctx, at.SIMStatus())
	if err != nil {
		return "", err
	}
	return at.ParseSIMStatus(lines)
}

// waitForSIMReady polls the SIM card status until it reports ready state.
// The SIM needs time to authenticate after the PIN is entered.
func (m *Modem) waitForSIMReady(ctx context.Context) error {
	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	for retries := 1; ; retries++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("SIM not ready: %w", ctx.Err())
		case <-ticker.C:
		}
		status, err := m.simStatus(ctx)
		if err != nil {
			var te *TransportError
			if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrClosed) || errors.As(err, &te) {
				return fmt.Errorf("SIM status check failed: %w", err)
			}
			continue
		}
		if status == at.SimReady {
			return nil
		}
		if retries >= m.config.ProbeAttempts {
			return fmt.Errorf("SIM not ready after %d retries", retries)
		}
	}
}

// State returns a snapshot of the session state.
func (m *Modem) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Modem) updateState(f func(*State)) {
	m.mu.Lock()
	f(&m.state)
	m.mu.Unlock()
}

// Done is closed once the session has terminated, either through Close or
// because the transport failed.
func (m *Modem) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the session terminates and returns the reason. It
// returns nil after Close and a *TransportError when the modem went away.
func (m *Modem) Wait() error {
	<-m.done
	if errors.Is(m.err, context.Canceled) {
		return nil
	}
	return m.err
}

// Close shuts down the modem and releases all resources.
// It stops the session goroutines, closes the transport connection and
// waits for everything to finish. After calling Close(), the modem cannot
// be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.state = State{}
	m.mu.Unlock()

	m.cancel()
	err := m.transport.Close()
	<-m.done
	return err
}

func (m *Modem) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Modem) String() string {
	s := m.State()
	return fmt.Sprintf("modem{ready=%t network=%t bearer=%q}", s.Ready, s.NetworkUp, s.BearerIP)
}
