package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/simaccess/at"
)

// commandRequest represents an AT command request to be executed by the loop.
type commandRequest struct {
	cmd      at.Command
	maxEmpty int
	// ctx only bounds the wait for admission
	ctx context.Context
	// respChan receives the command response from the loop
	respChan chan commandResponse
}

// commandResponse contains the result of an AT command execution.
type commandResponse struct {
	lines []string
	err   error
}

func (r *commandRequest) reply(lines []string, err error) {
	r.respChan <- commandResponse{lines: lines, err: err}
}

// pending is the expectation of the command currently on the wire.
type pending struct {
	req   *commandRequest
	since time.Time
	lines []string
	empty int
}

type readResult struct {
	line  Line
	start time.Time
	err   error
}

// Execute writes cmd and blocks until the modem answers it.
//
// On OK it returns the intermediate lines with terminators, blank lines and
// stray OK echoes removed. ERROR and +CME/+CMS errors yield a
// *CommandRejectedError; running out of consecutive empty reads yields
// ErrNoResponse. ctx only bounds the wait for admission: once a command
// has been written the modem cannot be told to discard it, so it runs to
// its final result or its read budget.
func (m *Modem) Execute(ctx context.Context, cmd at.Command) ([]string, error) {
	if m.isClosed() {
		return nil, ErrAlreadyClosed
	}

	// Apply per-command admission timeout if context has none
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	maxEmpty := cmd.MaxEmptyReads
	if maxEmpty <= 0 {
		maxEmpty = m.config.MaxEmptyReads
	}
	req := &commandRequest{
		cmd:      cmd,
		maxEmpty: maxEmpty,
		ctx:      ctx,
		respChan: make(chan commandResponse, 1),
	}

	select {
	case m.commands <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("command %s cancelled before sending: %w", cmd, ctx.Err())
	case <-m.stopped:
		return nil, m.stopErr()
	}

	select {
	case resp := <-req.respChan:
		return resp.lines, resp.err
	case <-m.stopped:
		select {
		case resp := <-req.respChan:
			return resp.lines, resp.err
		default:
			return nil, m.stopErr()
		}
	}
}

func (m *Modem) stopErr() error {
	var te *TransportError
	if errors.As(m.loopErr, &te) {
		return m.loopErr
	}
	return ErrClosed
}

// readLines is the only caller of the Framer.
func (m *Modem) readLines(ctx context.Context, out chan<- readResult) {
	for {
		start := time.Now()
		line, err := m.framer.ReadLine()
		select {
		case out <- readResult{line: line, start: start, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// loop is the main event loop. It admits one command at a time, writes it
// and feeds it lines until its final result; lines arriving while no
// command is outstanding, and notifications arriving at any time, are
// routed to the handlers.
func (m *Modem) loop(ctx context.Context, reads <-chan readResult) (err error) {
	var cur *pending
	defer func() {
		m.loopErr = err
		if cur != nil {
			cur.req.reply(nil, fmt.Errorf("command %s aborted: %w", cur.req.cmd, m.stopErr()))
		}
		close(m.stopped)
	}()

	for {
		// Only admit a new command when none is outstanding
		var admit <-chan *commandRequest
		if cur == nil {
			admit = m.commands
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-admit:
			if err := req.ctx.Err(); err != nil {
				req.reply(nil, fmt.Errorf("command %s expired before sending: %w", req.cmd, err))
				continue
			}
			if err := m.write(ctx, req.cmd); err != nil {
				req.reply(nil, err)
				var te *TransportError
				if errors.As(err, &te) {
					return err
				}
				continue
			}
			cur = &pending{req: req, since: time.Now()}

		case r := <-reads:
			if r.err != nil {
				return r.err
			}
			cur = m.deliver(cur, r)
		}
	}
}

// deliver hands one line to the outstanding command or to the router and
// returns the command still outstanding afterwards.
func (m *Modem) deliver(cur *pending, r readResult) *pending {
	if r.line.Timeout {
		// a read that started before the command was written says nothing about it
		if cur == nil || r.start.Before(cur.since) {
			return cur
		}
		cur.empty++
		if cur.empty >= cur.req.maxEmpty {
			cur.req.reply(nil, fmt.Errorf("%s: %w after %d empty reads", cur.req.cmd, ErrNoResponse, cur.empty))
			return nil
		}
		return cur
	}

	text := r.line.Text
	if strings.TrimSpace(text) == "" {
		return cur
	}
	m.logger.Debug("rx", "line", text)

	if cur == nil || at.Classify(text) == at.TypeURC {
		m.route(text)
		return cur
	}

	cur.empty = 0
	switch {
	case text == at.OK:
		cur.req.reply(at.Clean(cur.lines), nil)
		return nil
	case at.IsFailure(text):
		cur.req.reply(nil, &CommandRejectedError{
			Command: cur.req.cmd.String(),
			Status:  text,
			Lines:   at.Clean(cur.lines),
		})
		return nil
	}
	cur.lines = append(cur.lines, text)
	return cur
}

// write sends every part of cmd, pausing cmd.Settle between parts.
func (m *Modem) write(ctx context.Context, cmd at.Command) error {
	for i, part := range cmd.Parts {
		if i > 0 && cmd.Settle > 0 {
			t := time.NewTimer(cmd.Settle)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("write command %s: %w", cmd, ctx.Err())
			}
		}
		m.logger.Debug("tx", "data", strings.TrimSpace(part))
		if _, err := m.transport.Write([]byte(part)); err != nil {
			return &TransportError{Op: "write", Err: fmt.Errorf("command %s: %w", cmd, err)}
		}
	}
	return nil
}
