package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"i4.energy/across/simaccess/at"
	"i4.energy/across/simaccess/modem"
	"i4.energy/across/simaccess/store"
)

func newTestServer(t *testing.T) (*Server, *MockPhone) {
	t.Helper()
	ctrl := gomock.NewController(t)

	history, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("unexpected error from store.Open(): %v", err)
	}
	t.Cleanup(func() { history.Close() })

	phone := NewMockPhone(ctrl)
	return &Server{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Phone:   phone,
		History: history,
	}, phone
}

func TestServerSMS(t *testing.T) {
	t.Run("Sends and records the message", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().SendSMS(gomock.Any(), "+3069000", "hello").Return(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(`{"to":"+3069000","message":"hello"}`))
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		msgs, err := s.History.Messages(req.Context(), 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Direction != store.Outbound || msgs[0].Number != "+3069000" {
			t.Errorf("expected recorded outbound message, got %+v", msgs)
		}
	})

	t.Run("Missing fields", func(t *testing.T) {
		s, _ := newTestServer(t)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(`{"to":"+3069000"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Bad JSON", func(t *testing.T) {
		s, _ := newTestServer(t)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(`{`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Modem failure", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().SendSMS(gomock.Any(), "1", "x").Return(modem.ErrNoResponse)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(`{"to":"1","message":"x"}`)))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		var body struct{ Message string }
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Message == "" {
			t.Errorf("expected error message in body, got %q (%v)", body.Message, err)
		}
	})

	t.Run("Method not allowed", func(t *testing.T) {
		s, _ := newTestServer(t)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sms", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestServerCall(t *testing.T) {
	t.Run("Dial", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().Dial(gomock.Any(), "6073484940").Return(nil)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"to":"6073484940"}`)))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Dial rejected", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().Dial(gomock.Any(), "1").Return(&modem.CommandRejectedError{Command: "ATD1;", Status: "ERROR"})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"to":"1"}`)))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Hangup", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().Hangup(gomock.Any()).Return(nil)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hangup", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestServerHistory(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := t.Context()

	if _, err := s.History.SaveMessage(ctx, store.Inbound, "1234", "Hey!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.History.SaveCall(ctx, "6073484940", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))
	var msgs []store.Message
	if err := json.NewDecoder(rec.Body).Decode(&msgs); err != nil {
		t.Fatalf("unexpected error decoding messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "Hey!" {
		t.Errorf("unexpected messages: %+v", msgs)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calls?limit=5", nil))
	var calls []store.Call
	if err := json.NewDecoder(rec.Body).Decode(&calls); err != nil {
		t.Fatalf("unexpected error decoding calls: %v", err)
	}
	if len(calls) != 1 || !calls[0].Missed {
		t.Errorf("unexpected calls: %+v", calls)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calls?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad limit, got %d", rec.Code)
	}
}

func TestServerStatus(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().State().Return(modem.State{Ready: true, NetworkUp: true})
		phone.EXPECT().SignalQuality(gomock.Any()).Return(at.Signal{RSSI: 17, BER: 0}, nil)
		phone.EXPECT().Operator(gomock.Any()).Return(at.Operator{Name: "TestNet"}, nil)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		var body struct {
			Ready     bool   `json:"ready"`
			NetworkUp bool   `json:"network_up"`
			Operator  string `json:"operator"`
			Signal    *int   `json:"signal"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !body.Ready || !body.NetworkUp || body.Operator != "TestNet" || body.Signal == nil || *body.Signal != 17 {
			t.Errorf("unexpected status: %+v", body)
		}
	})

	t.Run("Queries failing", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().State().Return(modem.State{Ready: true})
		phone.EXPECT().SignalQuality(gomock.Any()).Return(at.Signal{}, errors.New("busy"))
		phone.EXPECT().Operator(gomock.Any()).Return(at.Operator{}, errors.New("busy"))

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "signal") {
			t.Errorf("signal should be omitted, got %s", rec.Body)
		}
	})

	t.Run("Not ready", func(t *testing.T) {
		s, phone := newTestServer(t)
		phone.EXPECT().State().Return(modem.State{})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		if !strings.Contains(rec.Body.String(), `"ready":false`) {
			t.Errorf("expected not ready, got %s", rec.Body)
		}
	})
}
