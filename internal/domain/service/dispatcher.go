package service

import (
	"encoding/json"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/domain/projection"
)

// Action names a command as submitted over the command endpoint.
type Action string

const (
	ActionAssignRoles     Action = "assign_roles"
	ActionNextPhase       Action = "next_phase"
	ActionWolfSelect      Action = "wolf_select"
	ActionDoctorSave      Action = "doctor_save"
	ActionPoliceInspect   Action = "police_inspect"
	ActionRevealDead      Action = "reveal_dead"
	ActionBeginVoting     Action = "begin_voting"
	ActionVote            Action = "vote"
	ActionRevokeVote      Action = "revoke_vote"
	ActionFinalVote       Action = "final_vote"
	ActionEliminatePlayer Action = "eliminate_player"
	ActionRequestLeave    Action = "request_leave"
	ActionApproveLeave    Action = "approve_leave"
	ActionDenyLeave       Action = "deny_leave"
	ActionRemovePlayer    Action = "remove_player"
	ActionChangeRole      Action = "change_role"
	ActionEndGame         Action = "end_game"
)

// authRule is one row of the authorization matrix: which of host-only,
// non-host-only, role, phase, and liveness must hold for an action.
type authRule struct {
	hostOnly    bool
	nonHostOnly bool
	role        entity.Role // "" = no role requirement
	phaseOK     func(entity.Phase) bool
	aliveReq    bool
}

func phaseIs(phases ...entity.Phase) func(entity.Phase) bool {
	return func(p entity.Phase) bool {
		for _, want := range phases {
			if p == want {
				return true
			}
		}
		return false
	}
}

func notEnded(p entity.Phase) bool { return p != entity.PhaseEnded }
func anyPhase(entity.Phase) bool   { return true }

var authMatrix = map[Action]authRule{
	ActionAssignRoles:     {hostOnly: true, phaseOK: phaseIs(entity.PhaseLobby)},
	ActionNextPhase:       {hostOnly: true, phaseOK: notEnded},
	ActionWolfSelect:      {role: entity.RoleWerewolf, phaseOK: phaseIs(entity.PhaseNightWolf), aliveReq: true},
	ActionDoctorSave:      {role: entity.RoleDoctor, phaseOK: phaseIs(entity.PhaseNightDoctor), aliveReq: true},
	ActionPoliceInspect:   {role: entity.RolePolice, phaseOK: phaseIs(entity.PhaseNightPolice), aliveReq: true},
	ActionRevealDead:      {hostOnly: true, phaseOK: phaseIs(entity.PhaseNightPolice)},
	ActionBeginVoting:     {hostOnly: true, phaseOK: phaseIs(entity.PhaseReveal)},
	ActionVote:            {nonHostOnly: true, phaseOK: phaseIs(entity.PhaseDayVote, entity.PhaseDayFinalVote), aliveReq: true},
	ActionRevokeVote:      {nonHostOnly: true, phaseOK: phaseIs(entity.PhaseDayVote, entity.PhaseDayFinalVote), aliveReq: true},
	ActionFinalVote:       {hostOnly: true, phaseOK: phaseIs(entity.PhaseDayVote)},
	ActionEliminatePlayer: {hostOnly: true, phaseOK: phaseIs(entity.PhaseDayFinalVote)},
	ActionRequestLeave:    {nonHostOnly: true, phaseOK: anyPhase},
	ActionApproveLeave:    {hostOnly: true, phaseOK: anyPhase},
	ActionDenyLeave:       {hostOnly: true, phaseOK: anyPhase},
	ActionRemovePlayer:    {hostOnly: true, phaseOK: anyPhase},
	ActionChangeRole:      {hostOnly: true, phaseOK: anyPhase},
	ActionEndGame:         {hostOnly: true, phaseOK: anyPhase},
}

// targetPayload covers wolf_select, doctor_save, police_inspect, vote.
type targetPayload struct {
	TargetID string `json:"targetId"`
}

// participantPayload covers approve_leave, deny_leave, remove_player,
// change_role.
type participantPayload struct {
	ParticipantID string `json:"participantId"`
	NewRole       string `json:"newRole"`
}

// nextPhasePayload optionally carries the client's belief of the current
// phase, so the handler's optimistic-concurrency guard can reject a stale
// caller with conflict instead of silently acting on a phase that has
// since moved on.
type nextPhasePayload struct {
	Phase string `json:"phase"`
}

// Result is what a successfully dispatched command hands back: the
// caller's own view of the post-command state, plus whatever the handler
// itself returned (a list of ids, an elimination target, and so on).
type Result struct {
	View projection.SessionView
	Data any
}

// Dispatcher is the authorization-and-routing core described by the
// command dispatcher component: resolve the caller, authorize, invoke the
// one handler the action maps to, and project the caller's own view of the
// result. The caller is responsible for holding the session lock for the
// full duration of Dispatch and for signaling any push/eventbus/eventlog
// side effects once it returns successfully.
type Dispatcher struct {
	phases    *PhaseMachine
	night     *NightResolver
	votes     *VoteTally
	lifecycle *SessionLifecycle
}

func NewDispatcher(phases *PhaseMachine, night *NightResolver, votes *VoteTally, lifecycle *SessionLifecycle) *Dispatcher {
	return &Dispatcher{phases: phases, night: night, votes: votes, lifecycle: lifecycle}
}

// Dispatch authorizes and applies one command against an already-locked
// session and returns the issuing participant's projected view.
func (d *Dispatcher) Dispatch(session *entity.Session, clientID string, action Action, raw json.RawMessage) (*Result, error) {
	actor := session.ByClientID(clientID)
	if actor == nil {
		return nil, entity.ErrParticipantNotFound
	}

	rule, ok := authMatrix[action]
	if !ok {
		return nil, entity.ErrInvalidInput
	}
	if err := authorize(actor, rule, session.Phase); err != nil {
		return nil, err
	}

	data, err := d.route(session, actor, action, raw)
	if err != nil {
		return nil, err
	}

	view := projection.Project(session, actor.ID)
	return &Result{View: view, Data: data}, nil
}

func authorize(actor *entity.Participant, rule authRule, phase entity.Phase) error {
	if rule.hostOnly && !actor.IsHost {
		return entity.ErrHostOnly
	}
	if rule.nonHostOnly && actor.IsHost {
		return entity.ErrNonHostOnly
	}
	if rule.role != "" && actor.Role != rule.role {
		return entity.ErrWrongRole
	}
	if rule.phaseOK != nil && !rule.phaseOK(phase) {
		return entity.ErrWrongPhase
	}
	if rule.aliveReq && !actor.Alive {
		return entity.ErrParticipantDead
	}
	return nil
}

func (d *Dispatcher) route(session *entity.Session, actor *entity.Participant, action Action, raw json.RawMessage) (any, error) {
	switch action {
	case ActionAssignRoles:
		return nil, d.phases.AssignRoles(session)

	case ActionNextPhase:
		expected := session.Phase
		if len(raw) > 0 {
			var p nextPhasePayload
			if err := json.Unmarshal(raw, &p); err == nil && p.Phase != "" {
				expected = entity.Phase(p.Phase)
			}
		}
		return nil, d.phases.NextPhase(session, expected)

	case ActionWolfSelect:
		p, err := decodeTarget(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.night.WolfSelect(session, actor.ID, p.TargetID)

	case ActionDoctorSave:
		p, err := decodeTarget(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.night.DoctorSave(session, actor.ID, p.TargetID)

	case ActionPoliceInspect:
		p, err := decodeTarget(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.night.PoliceInspect(session, actor.ID, p.TargetID)

	case ActionRevealDead:
		return d.night.RevealDead(session)

	case ActionBeginVoting:
		return nil, d.votes.BeginVoting(session)

	case ActionVote:
		p, err := decodeTarget(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.votes.CastVote(session, actor.ID, p.TargetID)

	case ActionRevokeVote:
		return nil, d.votes.RevokeVote(session, actor.ID)

	case ActionFinalVote:
		return nil, d.votes.FinalVote(session)

	case ActionEliminatePlayer:
		return d.votes.EliminatePlayer(session)

	case ActionRequestLeave:
		return d.lifecycle.RequestLeave(session, actor.ID)

	case ActionApproveLeave:
		p, err := decodeParticipant(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.lifecycle.ApproveLeave(session, p.ParticipantID, actor.ID)

	case ActionDenyLeave:
		p, err := decodeParticipant(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.lifecycle.DenyLeave(session, p.ParticipantID, actor.ID)

	case ActionRemovePlayer:
		p, err := decodeParticipant(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.lifecycle.RemovePlayer(session, p.ParticipantID)

	case ActionChangeRole:
		p, err := decodeParticipant(raw)
		if err != nil {
			return nil, err
		}
		return nil, d.lifecycle.ChangeRole(session, p.ParticipantID, entity.Role(p.NewRole))

	case ActionEndGame:
		d.lifecycle.EndGame(session)
		return nil, nil

	default:
		return nil, entity.ErrInvalidInput
	}
}

func decodeTarget(raw json.RawMessage) (targetPayload, error) {
	var p targetPayload
	if len(raw) == 0 {
		return p, entity.ErrInvalidInput
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.TargetID == "" {
		return p, entity.ErrInvalidInput
	}
	return p, nil
}

func decodeParticipant(raw json.RawMessage) (participantPayload, error) {
	var p participantPayload
	if len(raw) == 0 {
		return p, entity.ErrInvalidInput
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.ParticipantID == "" {
		return p, entity.ErrInvalidInput
	}
	return p, nil
}
