package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/simaccess/store"
)

const (
	topicSend     = "send"
	topicReceived = "received"
	topicCall     = "call"
	topicMissed   = "missed"

	mqttConnectTimeout = 10 * time.Second
	mqttSendTimeout    = 2 * time.Minute
)

// SMSSender is what the bridge needs from the modem.
type SMSSender interface {
	SendSMS(ctx context.Context, number, text string) error
}

// Bridge connects the gateway to an MQTT broker. Requests published on
// <prefix>/send are sent as SMS; received messages and calls are published
// on <prefix>/received, <prefix>/call and <prefix>/missed.
type Bridge struct {
	Sender  SMSSender
	History *store.Store

	client mqtt.Client
	prefix string
	logger *slog.Logger
}

func NewBridge(config *Config, logger *slog.Logger) *Bridge {
	b := &Bridge{
		prefix: config.MQTTTopicPrefix,
		logger: logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.MQTTBroker)
	opts.SetClientID(config.MQTTClientID)
	if config.MQTTUsername != "" {
		opts.SetUsername(config.MQTTUsername)
		opts.SetPassword(config.MQTTPassword)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(b.onConnect)

	b.client = mqtt.NewClient(opts)
	return b
}

func (b *Bridge) Connect() error {
	t := b.client.Connect()
	if !t.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("mqtt connect: timed out after %v", mqttConnectTimeout)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (b *Bridge) Close() {
	b.client.Disconnect(500)
}

func (b *Bridge) topic(name string) string {
	return b.prefix + "/" + name
}

func (b *Bridge) onConnect(c mqtt.Client) {
	topic := b.topic(topicSend)
	b.logger.Info("MQTT connected", "subscribe", topic)
	if t := c.Subscribe(topic, 1, b.handleSend); t.Wait() && t.Error() != nil {
		b.logger.Error("MQTT subscribe failed", "topic", topic, "error", t.Error())
	}
}

// handleSend processes a JSON {to,message} request received on the send topic
func (b *Bridge) handleSend(_ mqtt.Client, msg mqtt.Message) {
	var req struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		b.logger.Warn("MQTT bad payload", "topic", msg.Topic(), "error", err)
		return
	}
	if req.To == "" || req.Message == "" {
		b.logger.Warn("MQTT request without to/message", "topic", msg.Topic())
		return
	}
	if b.Sender == nil {
		b.logger.Warn("MQTT request before modem is ready", "to", req.To)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mqttSendTimeout)
	defer cancel()
	if err := b.Sender.SendSMS(ctx, req.To, req.Message); err != nil {
		b.logger.Error("Failed to send SMS", "error", err, "to", req.To)
		return
	}
	b.logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
	if b.History != nil {
		if _, err := b.History.SaveMessage(ctx, store.Outbound, req.To, req.Message); err != nil {
			b.logger.Error("Failed to record SMS", "error", err)
		}
	}
}

// Publish sends v as JSON on <prefix>/<name> without waiting for the broker.
func (b *Bridge) Publish(name string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("MQTT encode failed", "error", err)
		return
	}
	topic := b.topic(name)
	t := b.client.Publish(topic, 1, false, payload)
	go func() {
		<-t.Done()
		if err := t.Error(); err != nil {
			b.logger.Warn("MQTT publish failed", "topic", topic, "error", err)
		}
	}()
}
