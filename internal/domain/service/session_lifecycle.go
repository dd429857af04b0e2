package service

import (
	"time"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/pkg/id"
)

// SessionLifecycle handles membership and the administrative actions that
// don't belong to the phase/night/vote machinery: join, leave requests,
// their approval, forced removal, role correction, and ending a game.
type SessionLifecycle struct{}

func NewSessionLifecycle() *SessionLifecycle {
	return &SessionLifecycle{}
}

// Join adds a new participant, or returns the existing one untouched if
// clientId already names one (idempotent rejoin). Caller must hold the
// session lock.
func (l *SessionLifecycle) Join(session *entity.Session, clientID, displayName string) (*entity.Participant, error) {
	if existing := session.ByClientID(clientID); existing != nil {
		return existing, nil
	}
	if session.Phase != entity.PhaseLobby {
		return nil, entity.ErrSessionNotLobby
	}
	if session.NonHostCount() >= entity.MaxNonHostParticipants {
		return nil, entity.ErrSessionFull
	}

	if displayName == "" {
		displayName = id.FallbackDisplayName()
	} else {
		for _, participantID := range session.ParticipantOrder {
			if session.Participants[participantID].DisplayName == displayName {
				return nil, entity.ErrNicknameInUse
			}
		}
	}
	p := entity.NewParticipant(id.Generate(), session.ID, clientID, displayName, false)
	session.AddParticipant(p)
	return p, nil
}

// RequestLeave creates a pending leave request for a non-host participant.
func (l *SessionLifecycle) RequestLeave(session *entity.Session, participantID string) (*entity.LeaveRequest, error) {
	p := session.Get(participantID)
	if p == nil {
		return nil, entity.ErrParticipantNotFound
	}
	if p.IsHost {
		return nil, entity.ErrForbidden
	}
	if existing, ok := session.LeaveRequests[participantID]; ok && existing.Status == entity.LeaveRequestPending {
		return nil, entity.ErrLeaveRequestExists
	}
	lr := entity.NewLeaveRequest(session.ID, participantID, time.Now())
	session.LeaveRequests[participantID] = lr
	return lr, nil
}

// ApproveLeave removes the requesting participant and triggers attrition
// reset if the departure drops the session below the viable threshold.
func (l *SessionLifecycle) ApproveLeave(session *entity.Session, participantID, processedBy string) error {
	lr, ok := session.LeaveRequests[participantID]
	if !ok || lr.Status != entity.LeaveRequestPending {
		return entity.ErrParticipantNotFound
	}
	lr.Status = entity.LeaveRequestApproved
	lr.ProcessedBy = processedBy
	return l.removeAndMaybeReset(session, participantID)
}

// DenyLeave marks a pending leave request denied without removing anyone.
func (l *SessionLifecycle) DenyLeave(session *entity.Session, participantID, processedBy string) error {
	lr, ok := session.LeaveRequests[participantID]
	if !ok || lr.Status != entity.LeaveRequestPending {
		return entity.ErrParticipantNotFound
	}
	lr.Status = entity.LeaveRequestDenied
	lr.ProcessedBy = processedBy
	return nil
}

// RemovePlayer is the host's unilateral eviction, bypassing any leave
// request. It triggers attrition reset the same way ApproveLeave does.
func (l *SessionLifecycle) RemovePlayer(session *entity.Session, participantID string) error {
	p := session.Get(participantID)
	if p == nil {
		return entity.ErrParticipantNotFound
	}
	if p.IsHost {
		return entity.ErrForbidden
	}
	return l.removeAndMaybeReset(session, participantID)
}

func (l *SessionLifecycle) removeAndMaybeReset(session *entity.Session, participantID string) error {
	if session.RemoveParticipant(participantID) == nil {
		return entity.ErrParticipantNotFound
	}
	if session.Phase != entity.PhaseLobby && session.NonHostCount() < entity.MinNonHostParticipants {
		session.ResetForAttrition()
	}
	return nil
}

// ChangeRole lets the host correct a misassigned role outside normal
// assignment, e.g. after a manual ruling. The target must be a non-host
// participant; whether it is alive is not checked.
func (l *SessionLifecycle) ChangeRole(session *entity.Session, participantID string, newRole entity.Role) error {
	p := session.Get(participantID)
	if p == nil {
		return entity.ErrParticipantNotFound
	}
	if p.IsHost {
		return entity.ErrForbidden
	}
	switch newRole {
	case entity.RoleVillager, entity.RoleWerewolf, entity.RoleDoctor, entity.RolePolice, entity.RoleNone:
	default:
		return entity.ErrInvalidInput
	}
	p.Role = newRole
	return nil
}

// EndGame lets the host terminate a session at any point; the caller is
// responsible for cascading destruction of the Session aggregate itself.
func (l *SessionLifecycle) EndGame(session *entity.Session) {
	session.Phase = entity.PhaseEnded
}
