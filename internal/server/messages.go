package server

import (
	"encoding/json"
	"io"
	"net/http"

	"shelfmark/internal/app"
	"shelfmark/pkg/domain"
)

// handleSubmitMessage accepts contact-form submissions without
// authentication, so it is rate limited per client.
func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.messageLimiter, "too many messages, please try again later") {
		s.audit(r, "message.submit", "rate_limited")
		return
	}
	var req app.MessageInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg, err := s.app.SubmitMessage(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	msgs, err := s.app.ListMessages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// /message/{id}: PATCH toggles the read flag, DELETE removes it.
func (s *Server) handleMessageByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := pathSuffix(r.URL.Path, "/message/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		msg, err := s.app.ToggleMessageRead(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodDelete:
		if err := s.app.DeleteMessage(r.Context(), id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}
