package modem

import (
	"context"
	"fmt"

	"i4.energy/across/simaccess/at"
)

// Dial starts a voice call to number. It returns once the modem accepted
// the dial command, not when the call is answered.
func (m *Modem) Dial(ctx context.Context, number string) error {
	if number == "" {
		return fmt.Errorf("dial: empty number")
	}
	_, err := m.Execute(ctx, at.Dial(number).WithMaxEmptyReads(m.config.NetworkMaxEmptyReads))
	return err
}

// Answer picks up the ringing call.
func (m *Modem) Answer(ctx context.Context) error {
	_, err := m.Execute(ctx, at.Answer())
	return err
}

// Hangup ends the current call.
func (m *Modem) Hangup(ctx context.Context) error {
	_, err := m.Execute(ctx, at.Hangup())
	return err
}

// PowerOff asks the module to shut down. The session is of no further use
// afterwards and should be closed.
func (m *Modem) PowerOff(ctx context.Context) error {
	if _, err := m.Execute(ctx, at.PowerOff()); err != nil {
		return err
	}
	m.updateState(func(s *State) { *s = State{} })
	return nil
}
