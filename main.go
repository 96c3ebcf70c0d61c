package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/simaccess/modem"
	"i4.energy/across/simaccess/store"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.Duration("read-timeout", time.Second, "Timeout of a single serial read")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.String("db-path", "simaccess.db", "SQLite file for message and call history (empty disables it)")
	flag.String("mqtt-broker", "", "MQTT broker URL (empty disables MQTT)")
	flag.String("mqtt-client-id", "simaccess", "MQTT client id")
	flag.String("mqtt-topic-prefix", "sms", "Prefix of the MQTT topics")
	flag.String("mqtt-username", "", "MQTT username")
	flag.String("mqtt-password", "", "MQTT password")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

	var history *store.Store
	if config.DBPath != "" {
		history, err = store.Open(config.DBPath)
		if err != nil {
			logger.Error("Failed to open history", "error", err)
			os.Exit(1)
		}
		defer history.Close()
	}

	inbox := &Inbox{
		Logger:  logger.With("component", "inbox"),
		History: history,
	}

	var bridge *Bridge
	if config.MQTTBroker != "" {
		bridge = NewBridge(config, logger.With("component", "mqtt"))
		bridge.History = history
		inbox.Publisher = bridge
	}

	modemConfig, err := modem.NewConfigBuilder().
		WithATTimeout(30 * time.Second).
		WithInitTimeout(60 * time.Second).
		WithMinSendInterval(10 * time.Second).
		WithSimPIN(config.SimPIN).
		WithHandler(inbox).
		WithLogger(logger).
		WithDialer(modem.SerialDialer{
			PortName:    config.SerialPort,
			BaudRate:    config.BaudRate,
			ReadTimeout: config.ReadTimeout,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting SIM access gateway", "modem", m)

	if bridge != nil {
		bridge.Sender = m
		if err := bridge.Connect(); err != nil {
			logger.Error("Failed to connect to MQTT broker", "error", err)
		}
		defer bridge.Close()
	}

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Phone:   m,
			History: history,
		},
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	// Wait for a shutdown signal or the loss of the modem
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case <-m.Done():
		logger.Error("Modem session ended", "error", m.Wait())
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
