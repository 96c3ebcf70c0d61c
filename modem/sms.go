package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/simaccess/at"
)

// SendSMS sends a text message to the specified recipient.
//
// Number and text are sent UCS2 encoded in text mode. The header and the
// body are written SendSettle apart, and consecutive sends are spaced at
// least MinSendInterval apart.
//
// This method blocks until the message is accepted by the network or an error
// occurs. Network delivery (to the final recipient) happens asynchronously.
func (m *Modem) SendSMS(ctx context.Context, number, text string) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	if wait := m.config.MinSendInterval - time.Since(m.lastSend); !m.lastSend.IsZero() && wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("send SMS: %w", ctx.Err())
		}
	}

	cmd := at.SendSMS(number, text).
		WithSettle(m.config.SendSettle).
		WithMaxEmptyReads(m.config.NetworkMaxEmptyReads)
	lines, err := m.Execute(ctx, cmd)
	m.lastSend = time.Now()
	if err != nil {
		return fmt.Errorf("send SMS to %s: %w", number, err)
	}

	for _, l := range lines {
		if ref, ok := strings.CutPrefix(l, "+CMGS:"); ok {
			m.logger.Info("message sent", "to", number, "reference", strings.TrimSpace(ref))
		}
	}
	return nil
}

// ReadSMS returns the message stored at index.
func (m *Modem) ReadSMS(ctx context.Context, index int) (at.Message, error) {
	lines, err := m.Execute(ctx, at.FetchSMS(index))
	if err != nil {
		return at.Message{}, err
	}
	msg, err := at.ParseMessage(lines)
	if err != nil {
		return at.Message{}, err
	}
	msg.Index = index
	return msg, nil
}

// ListUnread returns the messages the modem has not reported as read yet.
// Listing marks them read.
func (m *Modem) ListUnread(ctx context.Context) ([]at.Message, error) {
	lines, err := m.Execute(ctx, at.ListUnread())
	if err != nil {
		return nil, err
	}
	return at.ParseMessageList(lines)
}

// DeleteSMS removes the message stored at index.
func (m *Modem) DeleteSMS(ctx context.Context, index int) error {
	_, err := m.Execute(ctx, at.DeleteSMS(index))
	return err
}

// DeleteAllSMS empties message storage.
func (m *Modem) DeleteAllSMS(ctx context.Context) error {
	_, err := m.Execute(ctx, at.DeleteAllSMS())
	return err
}
