package modem

import (
	"log/slog"
	"time"
)

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// Config controls how a Modem session is opened and paced. Zero values
// are replaced with defaults by New.
type Config struct {
	Dialer  Dialer
	Handler Handler
	Logger  *slog.Logger
	SimPIN  string

	// ATTimeout bounds how long a command may wait for its turn before it
	// is written. Once written, a command is bounded only by its read budget.
	ATTimeout time.Duration
	// InitTimeout bounds the whole initialization sequence.
	InitTimeout time.Duration
	// MaxEmptyReads is the default budget of consecutive read timeouts a
	// command tolerates before failing with ErrNoResponse.
	MaxEmptyReads int
	// NetworkMaxEmptyReads is the budget for commands that wait on the
	// network: SMS submission, GPRS bring-up and bearer changes.
	NetworkMaxEmptyReads int
	// ProbeAttempts and ProbeInterval pace the readiness probe.
	ProbeAttempts int
	ProbeInterval time.Duration
	// SendSettle is the pause between an SMS header and its body.
	SendSettle time.Duration
	// MinSendInterval is the minimum spacing between SMS submissions.
	MinSendInterval time.Duration
	// EventBuffer is the number of notifications queued for handlers.
	EventBuffer int
}

func (c *Config) setDefaults() {
	if c.Handler == nil {
		c.Handler = HandlerFuncs{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = 30 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 60 * time.Second
	}
	if c.MaxEmptyReads == 0 {
		c.MaxEmptyReads = 3
	}
	if c.NetworkMaxEmptyReads == 0 {
		c.NetworkMaxEmptyReads = 30
	}
	if c.ProbeAttempts == 0 {
		c.ProbeAttempts = 10
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = time.Second
	}
	if c.SendSettle == 0 {
		c.SendSettle = time.Second
	}
	if c.MinSendInterval == 0 {
		c.MinSendInterval = 2 * time.Second
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 100
	}
}

// ConfigBuilder assembles a Config fluently.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithHandler(h Handler) *ConfigBuilder {
	b.config.Handler = h
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.SimPIN = pin
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithMaxEmptyReads(n int) *ConfigBuilder {
	b.config.MaxEmptyReads = n
	return b
}

func (b *ConfigBuilder) WithNetworkMaxEmptyReads(n int) *ConfigBuilder {
	b.config.NetworkMaxEmptyReads = n
	return b
}

func (b *ConfigBuilder) WithProbe(attempts int, interval time.Duration) *ConfigBuilder {
	b.config.ProbeAttempts = attempts
	b.config.ProbeInterval = interval
	return b
}

func (b *ConfigBuilder) WithSendSettle(d time.Duration) *ConfigBuilder {
	b.config.SendSettle = d
	return b
}

func (b *ConfigBuilder) WithMinSendInterval(d time.Duration) *ConfigBuilder {
	b.config.MinSendInterval = d
	return b
}

func (b *ConfigBuilder) WithEventBuffer(n int) *ConfigBuilder {
	b.config.EventBuffer = n
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
