package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/pkg/id"
)

// EmptySessionTTL is how long a session with zero participants persists
// before the cleanup sweep removes it, grounded on the teacher's RoomTTL.
const EmptySessionTTL = 5 * time.Minute

// ReconnectGrace is how long a disconnected participant may reconnect with
// the same clientId before being treated as a departure, grounded on the
// teacher's ReconnectTimeout.
const ReconnectGrace = 60 * time.Second

// disconnected tracks a participant awaiting reconnection.
type disconnected struct {
	sessionID     string
	participantID string
	timer         *time.Timer
	expiresAt     time.Time
}

// Registry owns the set of live sessions, keyed by id and by join code. Each
// Session carries its own sync.RWMutex, and the registry map itself is
// guarded separately, so that commands against different sessions proceed
// in parallel while commands against the same session serialize.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*entity.Session
	byCode   map[string]*entity.Session
	emptyTTL map[string]*time.Timer

	disconnMu    sync.Mutex
	disconnected map[string]*disconnected // clientId -> disconnect record

	logger *slog.Logger

	onReconnectTimeout func(sessionID, participantID string)
	onSizeChange       func(n int)
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byID:         make(map[string]*entity.Session),
		byCode:       make(map[string]*entity.Session),
		emptyTTL:     make(map[string]*time.Timer),
		disconnected: make(map[string]*disconnected),
		logger:       logger,
	}
}

func (r *Registry) SetReconnectTimeoutHandler(h func(sessionID, participantID string)) {
	r.onReconnectTimeout = h
}

// SetSizeChangeHandler registers a callback invoked with the current live
// session count whenever a session is created, deleted, or swept.
func (r *Registry) SetSizeChangeHandler(h func(n int)) {
	r.onSizeChange = h
}

// notifySizeChange must be called with r.mu held.
func (r *Registry) notifySizeChange() {
	if r.onSizeChange != nil {
		r.onSizeChange(len(r.byID))
	}
}

// Create allocates a fresh session with a unique join code and registers the
// creating client as its host.
func (r *Registry) Create(hostClientID, hostDisplayName string) (*entity.Session, *entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		code = id.GenerateJoinCode()
		if _, exists := r.byCode[code]; !exists {
			break
		}
	}

	sessionID := id.Generate()
	hostID := id.Generate()
	session := entity.NewSession(sessionID, code, hostID, hostClientID)

	host := entity.NewParticipant(hostID, sessionID, hostClientID, hostDisplayName, true)
	session.AddParticipant(host)

	r.byID[sessionID] = session
	r.byCode[code] = session
	r.notifySizeChange()

	r.logger.Info("session created", "session_id", sessionID, "code", code)
	return session, host, nil
}

func (r *Registry) GetByID(sessionID string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) GetByCode(code string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byCode[code]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s, nil
}

// Delete cascades removal of a session from both indices and cancels any
// pending TTL timer for it.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	delete(r.byCode, s.Code)
	if t, ok := r.emptyTTL[sessionID]; ok {
		t.Stop()
		delete(r.emptyTTL, sessionID)
	}
	r.notifySizeChange()
	r.logger.Info("session deleted", "session_id", sessionID)
}

// ScheduleEmptySweep starts (or restarts) the cleanup TTL for a session that
// has just lost its last participant. When the TTL fires, the session is
// removed only if it still has no participants at all, host included.
func (r *Registry) ScheduleEmptySweep(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.emptyTTL[sessionID]; ok {
		t.Stop()
	}
	r.emptyTTL[sessionID] = time.AfterFunc(EmptySessionTTL, func() {
		r.mu.Lock()
		s, exists := r.byID[sessionID]
		if exists && len(s.Participants) == 0 {
			delete(r.byID, sessionID)
			delete(r.byCode, s.Code)
			r.notifySizeChange()
			r.logger.Info("session expired and swept", "session_id", sessionID)
		}
		delete(r.emptyTTL, sessionID)
		r.mu.Unlock()
	})
}

func (r *Registry) CancelEmptySweep(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.emptyTTL[sessionID]; ok {
		t.Stop()
		delete(r.emptyTTL, sessionID)
	}
}

// MarkDisconnected starts the reconnection grace timer for a participant
// whose transport dropped mid-game. Returns false (caller should treat this
// as an immediate departure) when the session is in the lobby, since the
// reconnect grace only matters once roles are in play.
func (r *Registry) MarkDisconnected(session *entity.Session, participant *entity.Participant) bool {
	session.Lock()
	if session.Phase == entity.PhaseLobby {
		session.Unlock()
		return false
	}
	participant.IsConnected = false
	session.Unlock()

	r.disconnMu.Lock()
	defer r.disconnMu.Unlock()

	timer := time.AfterFunc(ReconnectGrace, func() {
		r.handleReconnectTimeout(participant.ClientID)
	})
	r.disconnected[participant.ClientID] = &disconnected{
		sessionID:     session.ID,
		participantID: participant.ID,
		timer:         timer,
		expiresAt:     time.Now().Add(ReconnectGrace),
	}
	return true
}

func (r *Registry) handleReconnectTimeout(clientID string) {
	r.disconnMu.Lock()
	d, ok := r.disconnected[clientID]
	if !ok {
		r.disconnMu.Unlock()
		return
	}
	delete(r.disconnected, clientID)
	r.disconnMu.Unlock()

	if r.onReconnectTimeout != nil {
		r.onReconnectTimeout(d.sessionID, d.participantID)
	}
}

// Reconnect restores connectivity for a clientId within its grace window.
func (r *Registry) Reconnect(clientID string) (*entity.Session, *entity.Participant, error) {
	r.disconnMu.Lock()
	d, ok := r.disconnected[clientID]
	if !ok {
		r.disconnMu.Unlock()
		return nil, nil, entity.ErrParticipantNotFound
	}
	if time.Now().After(d.expiresAt) {
		r.disconnMu.Unlock()
		return nil, nil, entity.ErrParticipantNotFound
	}
	d.timer.Stop()
	delete(r.disconnected, clientID)
	r.disconnMu.Unlock()

	session, err := r.GetByID(d.sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.Lock()
	defer session.Unlock()
	p := session.ByClientID(clientID)
	if p == nil {
		return nil, nil, entity.ErrParticipantNotFound
	}
	p.IsConnected = true
	return session, p, nil
}

func (r *Registry) CancelReconnectGrace(clientID string) {
	r.disconnMu.Lock()
	defer r.disconnMu.Unlock()
	if d, ok := r.disconnected[clientID]; ok {
		d.timer.Stop()
		delete(r.disconnected, clientID)
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
