package main

import (
	"context"
	"log/slog"
	"time"

	"i4.energy/across/simaccess/store"
)

// Publisher forwards gateway events to subscribers outside the process.
type Publisher interface {
	Publish(name string, v any)
}

// ReceivedEvent is published for every incoming SMS.
type ReceivedEvent struct {
	ID      string    `json:"id,omitempty"`
	From    string    `json:"from"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// CallEvent is published for incoming and missed calls.
type CallEvent struct {
	ID     string    `json:"id,omitempty"`
	Number string    `json:"number"`
	Missed bool      `json:"missed"`
	Time   time.Time `json:"time"`
}

// Inbox handles the notifications of the modem session: it logs them,
// records them in the history and publishes them. History and Publisher
// are optional.
type Inbox struct {
	Logger    *slog.Logger
	History   *store.Store
	Publisher Publisher
}

func (i *Inbox) OnMessage(number, text string) {
	i.Logger.Info("SMS received", "from", number, "message_length", len(text))

	ev := ReceivedEvent{From: number, Message: text, Time: time.Now()}
	if i.History != nil {
		msg, err := i.History.SaveMessage(context.Background(), store.Inbound, number, text)
		if err != nil {
			i.Logger.Error("Failed to record SMS", "error", err)
		} else {
			ev.ID, ev.Time = msg.ID, msg.CreatedAt
		}
	}
	if i.Publisher != nil {
		i.Publisher.Publish(topicReceived, ev)
	}
}

func (i *Inbox) OnCall(number string) {
	i.Logger.Info("Incoming call", "from", number)
	i.call(topicCall, number, false)
}

func (i *Inbox) OnMissedCall(number string) {
	i.Logger.Info("Missed call", "from", number)
	i.call(topicMissed, number, true)
}

func (i *Inbox) call(topic, number string, missed bool) {
	ev := CallEvent{Number: number, Missed: missed, Time: time.Now()}
	if i.History != nil {
		call, err := i.History.SaveCall(context.Background(), number, missed)
		if err != nil {
			i.Logger.Error("Failed to record call", "error", err)
		} else {
			ev.ID, ev.Time = call.ID, call.CreatedAt
		}
	}
	if i.Publisher != nil {
		i.Publisher.Publish(topic, ev)
	}
}
