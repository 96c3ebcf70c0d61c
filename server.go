package main

//go:generate go tool mockgen -source=server.go -destination=mock_phone_test.go -package=main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"i4.energy/across/simaccess/at"
	"i4.energy/across/simaccess/modem"
	"i4.energy/across/simaccess/store"
)

const defaultListLimit = 50

// Phone is the part of the modem session the HTTP API drives.
type Phone interface {
	SendSMS(ctx context.Context, number, text string) error
	Dial(ctx context.Context, number string) error
	Hangup(ctx context.Context) error
	State() modem.State
	SignalQuality(ctx context.Context) (at.Signal, error)
	Operator(ctx context.Context) (at.Operator, error)
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger  *slog.Logger
	Phone   Phone
	History *store.Store
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.handleSMS)
	mux.HandleFunc("POST /call", s.handleCall)
	mux.HandleFunc("POST /hangup", s.handleHangup)
	mux.HandleFunc("GET /messages", s.handleMessages)
	mux.HandleFunc("GET /calls", s.handleCalls)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// handleSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	if err := s.Phone.SendSMS(r.Context(), req.To, req.Message); err != nil {
		s.Logger.Error("Failed to send SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
	if s.History != nil {
		if _, err := s.History.SaveMessage(r.Context(), store.Outbound, req.To, req.Message); err != nil {
			s.Logger.Error("Failed to record SMS", "error", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// handleCall dials the number given in the request body
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	type CallRequest struct {
		To string `json:"to"`
	}

	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.To == "" {
		s.sendError(w, "'to' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Phone.Dial(r.Context(), req.To); err != nil {
		s.Logger.Error("Failed to dial", "error", err, "to", req.To)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.Logger.Info("Call started", "to", req.To)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHangup(w http.ResponseWriter, r *http.Request) {
	if err := s.Phone.Hangup(r.Context()); err != nil {
		s.Logger.Error("Failed to hang up", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		s.sendError(w, "history is not enabled", http.StatusNotFound)
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	msgs, err := s.History.Messages(r.Context(), limit)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, msgs, http.StatusOK)
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		s.sendError(w, "history is not enabled", http.StatusNotFound)
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	calls, err := s.History.Calls(r.Context(), limit)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, calls, http.StatusOK)
}

// handleStatus reports the session state. Signal and operator are
// omitted when the modem cannot answer.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		Ready     bool   `json:"ready"`
		NetworkUp bool   `json:"network_up"`
		BearerIP  string `json:"bearer_ip,omitempty"`
		Operator  string `json:"operator,omitempty"`
		Signal    *int   `json:"signal,omitempty"`
	}

	state := s.Phone.State()
	resp := StatusResponse{
		Ready:     state.Ready,
		NetworkUp: state.NetworkUp,
		BearerIP:  state.BearerIP,
	}
	if state.Ready {
		if sig, err := s.Phone.SignalQuality(r.Context()); err == nil {
			resp.Signal = &sig.RSSI
		} else {
			s.Logger.Warn("Failed to query signal quality", "error", err)
		}
		if op, err := s.Phone.Operator(r.Context()); err == nil {
			resp.Operator = op.Name
		} else {
			s.Logger.Warn("Failed to query operator", "error", err)
		}
	}
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		s.sendError(w, "'limit' must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
