package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/domain/projection"
	"github.com/duskcircle/nightwatch/internal/domain/service"
)

type createSessionRequest struct {
	HostName string `json:"hostName"`
	ClientID string `json:"clientId"`
}

type createSessionResponse struct {
	SessionID         string `json:"sessionId"`
	JoinCode          string `json:"joinCode"`
	HostParticipantID string `json:"hostParticipantId"`
	Token             string `json:"token,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" {
		writeError(w, entity.ErrInvalidInput)
		return
	}

	session, host, err := s.registry.Create(req.ClientID, req.HostName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:         session.ID,
		JoinCode:          session.Code,
		HostParticipantID: host.ID,
		Token:             s.continuityToken(req.ClientID, session.ID),
	})
}

// continuityToken mints a reconnect token, or returns the empty string if
// no issuer is configured.
func (s *Server) continuityToken(clientID, sessionID string) string {
	if s.issuer == nil {
		return ""
	}
	token, err := s.issuer.Issue(clientID, sessionID)
	if err != nil {
		s.logger.Warn("failed to issue continuity token", "error", err)
		return ""
	}
	return token
}

type joinSessionRequest struct {
	JoinCode    string `json:"joinCode"`
	DisplayName string `json:"displayName"`
	ClientID    string `json:"clientId"`
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" || req.JoinCode == "" {
		writeError(w, entity.ErrInvalidInput)
		return
	}

	session, err := s.registry.GetByCode(req.JoinCode)
	if err != nil {
		writeError(w, err)
		return
	}

	session.Lock()
	participant, err := s.lifecycle.Join(session, req.ClientID, req.DisplayName)
	view := projection.Project(session, valueOrEmpty(participant))
	session.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.registry.CancelEmptySweep(session.ID)
	writeJSON(w, http.StatusOK, joinSessionResponse{
		View:  view,
		Token: s.continuityToken(req.ClientID, session.ID),
	})
}

type joinSessionResponse struct {
	View  projection.SessionView `json:"view"`
	Token string                 `json:"token,omitempty"`
}

func valueOrEmpty(p *entity.Participant) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// handleGetSessionState reads back the caller's own view of a session,
// identified by join code, with the caller resolved via X-Client-Id header
// or clientId cookie.
func (s *Server) handleGetSessionState(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, entity.ErrInvalidInput)
		return
	}

	clientID := r.Header.Get("X-Client-Id")
	if clientID == "" {
		if cookie, err := r.Cookie("clientId"); err == nil {
			clientID = cookie.Value
		}
	}
	if clientID == "" {
		writeError(w, entity.ErrInvalidInput)
		return
	}

	session, err := s.registry.GetByCode(code)
	if err != nil {
		writeError(w, err)
		return
	}

	session.RLock()
	viewerID := valueOrEmpty(session.ByClientID(clientID))
	view := projection.Project(session, viewerID)
	session.RUnlock()

	writeJSON(w, http.StatusOK, view)
}

type commandRequest struct {
	Action   string          `json:"action"`
	ClientID string          `json:"clientId"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type commandResponse struct {
	View projection.SessionView `json:"view"`
	Data any                    `json:"data,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" || req.Action == "" {
		writeError(w, entity.ErrInvalidInput)
		return
	}

	session, err := s.registry.GetByID(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	acquired, err := s.pipeline.AcquireLock(r.Context(), session.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !acquired {
		writeError(w, entity.ErrPhaseConflict)
		return
	}
	defer s.pipeline.ReleaseLock(r.Context(), session.ID)

	start := time.Now()
	session.Lock()
	result, err := s.dispatcher.Dispatch(session, req.ClientID, service.Action(req.Action), req.Data)
	session.Unlock()
	s.pipeline.AfterCommand(session, req.ClientID, req.Action, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Action == string(service.ActionEndGame) {
		s.registry.Delete(session.ID)
		s.pipeline.AfterDelete(session.ID)
	}

	writeJSON(w, http.StatusOK, commandResponse{View: result.View, Data: result.Data})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps a domain GameError's Kind to the transport status code
// table: not_found -> 404, forbidden -> 403, preconditions -> 409,
// conflict -> 409, invalid_input -> 400, internal -> 500.
func writeError(w http.ResponseWriter, err error) {
	ge, ok := err.(*entity.GameError)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "internal", Message: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ge.Kind {
	case entity.KindNotFound:
		status = http.StatusNotFound
	case entity.KindForbidden:
		status = http.StatusForbidden
	case entity.KindPreconditions:
		status = http.StatusConflict
	case entity.KindConflict:
		status = http.StatusConflict
	case entity.KindInvalidInput:
		status = http.StatusBadRequest
	case entity.KindInternal:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{Kind: string(ge.Kind), Message: ge.Message})
}
