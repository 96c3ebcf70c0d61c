package modem

import (
	"context"
	"errors"
	"log/slog"

	"i4.energy/across/simaccess/at"
)

// Handler receives the notifications the modem reports on its own.
//
// Handlers run one at a time on the session's dispatcher goroutine, in the
// order the notifications arrived. They may call Modem methods; those
// commands queue behind any command already waiting.
type Handler interface {
	OnMessage(number, text string)
	OnCall(number string)
	OnMissedCall(number string)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Message    func(number, text string)
	Call       func(number string)
	MissedCall func(number string)
}

func (h HandlerFuncs) OnMessage(number, text string) {
	if h.Message != nil {
		h.Message(number, text)
	}
}

func (h HandlerFuncs) OnCall(number string) {
	if h.Call != nil {
		h.Call(number)
	}
}

func (h HandlerFuncs) OnMissedCall(number string) {
	if h.MissedCall != nil {
		h.MissedCall(number)
	}
}

// route classifies a line the loop could not attribute to a command and
// queues the resulting event. It runs on the loop goroutine and must not
// block: a handler waiting on a command would never see the loop again.
// When the queue is full the event is dropped and counted.
func (m *Modem) route(line string) {
	ev, err := at.ParseEvent(line)
	if err != nil {
		m.logger.Warn("malformed notification", "line", line, "error", err)
		return
	}
	if u, ok := ev.(at.Unrecognized); ok {
		m.logger.Debug("dropping unsolicited line", "line", u.Line)
		return
	}

	select {
	case m.events <- ev:
	default:
		n := m.dropped.Add(1)
		m.logger.Warn("event queue full, dropping notification", "line", line, "dropped", n)
	}
}

// DroppedEvents reports how many notifications were discarded because the
// handlers fell more than EventBuffer notifications behind.
func (m *Modem) DroppedEvents() uint64 {
	return m.dropped.Load()
}

// dispatchEvents runs handlers for queued events until ctx is done.
func (m *Modem) dispatchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.dispatch(ctx, ev)
		}
	}
}

func (m *Modem) dispatch(ctx context.Context, ev at.Event) {
	switch e := ev.(type) {
	case at.SMSNotify:
		m.handleNewMessage(ctx, e)
	case at.Ring:
		m.handleRing(ctx)
	case at.MissedCall:
		m.logger.Info("missed call", "number", e.Number, "time", e.Time)
		m.handler.OnMissedCall(e.Number)
	}
}

// handleNewMessage fetches the stored message, hands it to the handler and
// deletes it from storage. A message that cannot be fetched or decoded is
// left in storage.
func (m *Modem) handleNewMessage(ctx context.Context, e at.SMSNotify) {
	log := m.logger.With("mem", e.Mem, "index", e.Index)

	lines, err := m.Execute(ctx, at.FetchSMS(e.Index))
	if err != nil {
		m.logHandlerError(log, "fetch message", err)
		return
	}
	msg, err := at.ParseMessage(lines)
	if err != nil {
		log.Error("could not decode message", "error", err)
		return
	}

	log.Info("message received", "from", msg.Sender)
	m.handler.OnMessage(msg.Sender, msg.Text)

	if _, err := m.Execute(ctx, at.DeleteSMS(e.Index)); err != nil {
		m.logHandlerError(log, "delete message", err)
	}
}

// handleRing asks the modem who is calling and reports the call.
func (m *Modem) handleRing(ctx context.Context) {
	lines, err := m.Execute(ctx, at.CallerInfo())
	if err != nil {
		m.logHandlerError(m.logger, "query caller id", err)
		return
	}
	number, ok := at.CallerID(lines)
	if !ok {
		m.logger.Debug("incoming call without caller id", "lines", lines)
		return
	}
	m.logger.Info("incoming call", "number", number)
	m.handler.OnCall(number)
}

func (m *Modem) logHandlerError(log *slog.Logger, what string, err error) {
	// shutting down
	if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
		log.Debug(what+" abandoned", "error", err)
		return
	}
	log.Error("could not "+what, "error", err)
}
