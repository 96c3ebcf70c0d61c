package modem_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"i4.energy/across/simaccess/modem"
)

// initSequence is what New writes to a module that is ready and unlocked.
var initSequence = []string{
	"AT\r\n",
	"ATE0\r\n",
	"AT+CPIN?\r\n",
	"AT+CMGF=1\r\n",
	"AT+CSCS=\"UCS2\"\r\n",
	"AT+CSMP=17,167,0,8\r\n",
	"AT+CLIP=1\r\n",
}

// testConfig returns a builder dialing fake through a mock Dialer, with
// timings shrunk for tests.
func testConfig(t *testing.T, fake modem.Transport) *modem.ConfigBuilder {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockDialer := modem.NewMockDialer(ctrl)
	mockDialer.EXPECT().Dial(gomock.Any()).Return(fake, nil)

	return modem.NewConfigBuilder().
		WithDialer(mockDialer).
		WithProbe(3, time.Millisecond).
		WithSendSettle(time.Millisecond).
		WithMinSendInterval(time.Millisecond)
}

// openModem starts a session on fake and closes it when the test ends.
func openModem(t *testing.T, fake *fakeModem, h modem.Handler) *modem.Modem {
	t.Helper()

	b := testConfig(t, fake)
	if h != nil {
		b.WithHandler(h)
	}
	config, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}
