package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/duskcircle/nightwatch/internal/adapter/identity"
	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/domain/projection"
	"github.com/duskcircle/nightwatch/internal/domain/service"
	"github.com/duskcircle/nightwatch/internal/pkg/telemetry"
)

// Router dispatches incoming WebSocket messages to the domain layer and
// fans out the resulting state to every client subscribed to a session.
type Router struct {
	hub        *Hub
	registry   *service.Registry
	dispatcher *service.Dispatcher
	lifecycle  *service.SessionLifecycle
	pipeline   *telemetry.Pipeline
	issuer     *identity.Issuer
	logger     *slog.Logger
}

func NewRouter(hub *Hub, registry *service.Registry, dispatcher *service.Dispatcher, lifecycle *service.SessionLifecycle, pipeline *telemetry.Pipeline, issuer *identity.Issuer, logger *slog.Logger) *Router {
	r := &Router{
		hub:        hub,
		registry:   registry,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		pipeline:   pipeline,
		issuer:     issuer,
		logger:     logger,
	}
	registry.SetReconnectTimeoutHandler(r.handleReconnectTimeout)
	return r
}

// continuityToken mints a reconnect token for the given clientId/sessionId
// pair, or returns the empty string if no issuer is configured.
func (r *Router) continuityToken(clientID, sessionID string) string {
	if r.issuer == nil {
		return ""
	}
	token, err := r.issuer.Issue(clientID, sessionID)
	if err != nil {
		r.logger.Warn("failed to issue continuity token", "error", err)
		return ""
	}
	return token
}

func (r *Router) HandleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MsgTypeCreateSession:
		r.handleCreateSession(client, msg)
	case MsgTypeJoinSession:
		r.handleJoinSession(client, msg)
	case MsgTypeReconnect:
		r.handleReconnect(client)
	case MsgTypeCommand:
		r.handleCommand(client, msg)
	case MsgTypeGhostChat:
		r.handleGhostChat(client, msg)
	default:
		client.SendError("unknown_message", "unknown message type: "+msg.Type)
	}
}

// HandleDisconnect is invoked when a client's transport drops. A host
// disconnecting while the session is in the lobby tears it down; any other
// disconnect mid-game starts the reconnect grace window, and a disconnect
// in the lobby is treated as an immediate departure.
func (r *Router) HandleDisconnect(client *Client) {
	if client.SessionID == "" {
		return
	}
	session, err := r.registry.GetByID(client.SessionID)
	if err != nil {
		return
	}

	session.Lock()
	participant := session.ByClientID(client.ClientID)
	if participant == nil {
		session.Unlock()
		return
	}

	if participant.IsHost && session.Phase == entity.PhaseLobby {
		session.Unlock()
		r.registry.Delete(session.ID)
		return
	}

	// MarkDisconnected takes the session lock itself.
	session.Unlock()
	if r.registry.MarkDisconnected(session, participant) {
		return
	}

	session.Lock()
	removed := session.RemoveParticipant(participant.ID)
	empty := len(session.Participants) == 0
	session.Unlock()
	if removed != nil {
		r.broadcastParticipantLeft(session.ID, removed.ID)
		r.broadcastSessionState(session)
		if empty {
			r.registry.ScheduleEmptySweep(session.ID)
		}
	}
}

func (r *Router) handleReconnectTimeout(sessionID, participantID string) {
	session, err := r.registry.GetByID(sessionID)
	if err != nil {
		return
	}
	session.Lock()
	removed := session.RemoveParticipant(participantID)
	if removed != nil && session.Phase != entity.PhaseLobby && session.NonHostCount() < entity.MinNonHostParticipants {
		session.ResetForAttrition()
	}
	empty := len(session.Participants) == 0
	session.Unlock()

	if removed != nil {
		r.broadcastParticipantLeft(sessionID, participantID)
		r.broadcastSessionState(session)
		if empty {
			r.registry.ScheduleEmptySweep(sessionID)
		}
		r.logger.Info("disconnected participant removed after grace timeout", "session_id", sessionID, "participant_id", participantID)
	}
}

func (r *Router) handleCreateSession(client *Client, msg *Message) {
	var payload CreateSessionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.SendError("invalid_payload", "invalid create session payload")
		return
	}

	session, host, err := r.registry.Create(client.ClientID, payload.HostName)
	if err != nil {
		client.SendError("create_failed", "failed to create session")
		return
	}

	r.hub.JoinSession(client, session.ID)
	client.Send(MustMessage(EventTypeSessionCreated, SessionCreatedPayload{
		SessionID:     session.ID,
		JoinCode:      session.Code,
		ParticipantID: host.ID,
		Token:         r.continuityToken(client.ClientID, session.ID),
	}))
	r.broadcastSessionState(session)

	r.logger.Info("session created", "session_id", session.ID, "code", session.Code, "client_id", client.ClientID)
}

func (r *Router) handleJoinSession(client *Client, msg *Message) {
	var payload JoinSessionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.SendError("invalid_payload", "invalid join session payload")
		return
	}

	session, err := r.registry.GetByCode(payload.JoinCode)
	if err != nil {
		client.SendError("session_not_found", "no session with that join code")
		return
	}

	session.Lock()
	participant, err := r.lifecycle.Join(session, client.ClientID, payload.DisplayName)
	session.Unlock()
	if err != nil {
		r.sendDomainError(client, err)
		return
	}

	r.hub.JoinSession(client, session.ID)
	client.Send(MustMessage(EventTypeSessionJoined, SessionJoinedPayload{
		SessionID:     session.ID,
		ParticipantID: participant.ID,
		Token:         r.continuityToken(client.ClientID, session.ID),
	}))
	r.registry.CancelEmptySweep(session.ID)
	r.hub.BroadcastToSession(session.ID, MustMessage(EventTypeParticipantJoined, ParticipantJoinedPayload{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
	}), client)
	r.broadcastSessionState(session)

	r.logger.Info("participant joined session", "session_id", session.ID, "participant_id", participant.ID)
}

func (r *Router) handleReconnect(client *Client) {
	session, participant, err := r.registry.Reconnect(client.ClientID)
	if err != nil {
		client.SendError("reconnect_failed", "no active session to reconnect to")
		return
	}

	r.hub.JoinSession(client, session.ID)
	client.Send(MustMessage(EventTypeSessionJoined, SessionJoinedPayload{
		SessionID:     session.ID,
		ParticipantID: participant.ID,
	}))
	r.broadcastSessionState(session)

	r.logger.Info("participant reconnected", "session_id", session.ID, "participant_id", participant.ID)
}

func (r *Router) handleCommand(client *Client, msg *Message) {
	if client.SessionID == "" {
		client.SendError("not_in_session", "not in a session")
		return
	}
	var payload CommandPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.SendError("invalid_payload", "invalid command payload")
		return
	}

	session, err := r.registry.GetByID(client.SessionID)
	if err != nil {
		client.SendError("session_not_found", "session no longer exists")
		return
	}

	lockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	acquired, lockErr := r.pipeline.AcquireLock(lockCtx, session.ID)
	cancel()
	if lockErr != nil {
		r.sendDomainError(client, lockErr)
		return
	}
	if !acquired {
		r.sendDomainError(client, entity.ErrPhaseConflict)
		return
	}

	start := time.Now()
	session.Lock()
	result, err := r.dispatcher.Dispatch(session, client.ClientID, service.Action(payload.Action), payload.Data)
	ended := session.Phase == entity.PhaseEnded
	session.Unlock()
	r.pipeline.AfterCommand(session, client.ClientID, payload.Action, err, time.Since(start))

	releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
	r.pipeline.ReleaseLock(releaseCtx, session.ID)
	releaseCancel()

	if err != nil {
		r.sendDomainError(client, err)
		return
	}

	client.Send(MustMessage(EventTypeCommandAck, CommandAckPayload{
		Action: payload.Action,
		Data:   result.Data,
	}))
	r.broadcastSessionState(session)

	if payload.Action == string(service.ActionEndGame) || ended {
		r.registry.Delete(session.ID)
		r.pipeline.AfterDelete(session.ID)
	}
}

func (r *Router) handleGhostChat(client *Client, msg *Message) {
	if client.SessionID == "" {
		client.SendError("not_in_session", "not in a session")
		return
	}
	var payload GhostChatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Message == "" || len(payload.Message) > 500 {
		client.SendError("invalid_message", "message must be 1-500 characters")
		return
	}

	session, err := r.registry.GetByID(client.SessionID)
	if err != nil {
		client.SendError("session_not_found", "session no longer exists")
		return
	}

	session.RLock()
	sender := session.ByClientID(client.ClientID)
	if sender == nil || sender.IsHost || sender.Alive {
		session.RUnlock()
		client.SendError("not_eliminated", "only eliminated participants may use the ghost channel")
		return
	}
	var deadClientIDs []string
	for _, id := range session.ParticipantOrder {
		p := session.Participants[id]
		if !p.IsHost && !p.Alive {
			deadClientIDs = append(deadClientIDs, p.ClientID)
		}
	}
	senderName := sender.DisplayName
	session.RUnlock()

	r.hub.BroadcastToClients(client.SessionID, deadClientIDs, MustMessage(EventTypeGhostChatBroadcast, GhostChatBroadcastPayload{
		FromID:          sender.ID,
		FromDisplayName: senderName,
		Message:         payload.Message,
		TimestampMillis: time.Now().UnixMilli(),
	}))
}

// broadcastSessionState sends each subscribed client its own role-masked
// projection, never the same bytes to two different viewers, since the
// projection differs per viewer.
func (r *Router) broadcastSessionState(session *entity.Session) {
	session.RLock()
	defer session.RUnlock()
	for _, client := range r.hub.GetSessionClients(session.ID) {
		viewerID := ""
		if p := session.ByClientID(client.ClientID); p != nil {
			viewerID = p.ID
		}
		view := projection.Project(session, viewerID)
		client.Send(MustMessage(EventTypeSessionState, view))
	}
}

func (r *Router) broadcastParticipantLeft(sessionID, participantID string) {
	r.hub.BroadcastToSession(sessionID, MustMessage(EventTypeParticipantLeft, ParticipantLeftPayload{
		ParticipantID: participantID,
	}), nil)
}

func (r *Router) sendDomainError(client *Client, err error) {
	if ge, ok := err.(*entity.GameError); ok {
		client.SendError(string(ge.Kind), ge.Message)
		return
	}
	client.SendError("internal", err.Error())
}
