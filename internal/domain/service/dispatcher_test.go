package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

func newDispatcher() *Dispatcher {
	win := NewWinEvaluator()
	return NewDispatcher(
		NewPhaseMachine(NewRoleAssigner(true)),
		NewNightResolver(win),
		NewVoteTally(win),
		NewSessionLifecycle(),
	)
}

func TestDispatchRejectsUnknownClient(t *testing.T) {
	session, _ := newLobbySession(6)
	d := newDispatcher()

	_, err := d.Dispatch(session, "not-a-client", ActionAssignRoles, nil)
	require.ErrorIs(t, err, entity.ErrParticipantNotFound)
}

func TestDispatchEnforcesHostOnly(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()

	_, err := d.Dispatch(session, ps[0].ClientID, ActionAssignRoles, nil)
	require.ErrorIs(t, err, entity.ErrHostOnly)
}

func TestDispatchEnforcesNonHostOnly(t *testing.T) {
	session, _ := newLobbySession(6)
	d := newDispatcher()
	session.Phase = entity.PhaseDayVote
	host := session.Host()

	payload, _ := json.Marshal(targetPayload{TargetID: "whoever"})
	_, err := d.Dispatch(session, host.ClientID, ActionVote, payload)
	require.ErrorIs(t, err, entity.ErrNonHostOnly)
}

func TestDispatchEnforcesRoleRequirement(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()
	require.NoError(t, d.phases.AssignRoles(session))
	session.Round.PhaseStarted = true

	var nonWolf *entity.Participant
	for _, p := range ps {
		if p.Role != entity.RoleWerewolf {
			nonWolf = p
			break
		}
	}
	require.NotNil(t, nonWolf)

	payload, _ := json.Marshal(targetPayload{TargetID: ps[0].ID})
	_, err := d.Dispatch(session, nonWolf.ClientID, ActionWolfSelect, payload)
	require.ErrorIs(t, err, entity.ErrWrongRole)
}

func TestDispatchEnforcesPhaseGate(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()
	assignRole(ps[0], entity.RoleWerewolf) // right role, wrong phase (lobby)

	payload, _ := json.Marshal(targetPayload{TargetID: ps[1].ID})
	_, err := d.Dispatch(session, ps[0].ClientID, ActionWolfSelect, payload)
	require.ErrorIs(t, err, entity.ErrWrongPhase)
}

func TestDispatchEnforcesAliveRequirement(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()
	require.NoError(t, d.phases.AssignRoles(session))
	session.Round.PhaseStarted = true

	var wolf *entity.Participant
	for _, p := range ps {
		if p.Role == entity.RoleWerewolf {
			wolf = p
			break
		}
	}
	require.NotNil(t, wolf)
	wolf.Alive = false

	payload, _ := json.Marshal(targetPayload{TargetID: ps[0].ID})
	_, err := d.Dispatch(session, wolf.ClientID, ActionWolfSelect, payload)
	require.ErrorIs(t, err, entity.ErrParticipantDead)
}

func TestDispatchReturnsCallersProjectedView(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()
	host := session.Host()

	result, err := d.Dispatch(session, host.ClientID, ActionAssignRoles, nil)
	require.NoError(t, err)
	require.Equal(t, host.ID, result.View.Viewer.ParticipantID)
	require.Equal(t, entity.PhaseNightWolf, result.View.Phase)
	for _, dto := range result.View.Participants {
		if dto.ID != host.ID {
			require.NotEmpty(t, dto.Role, "host view reveals every role")
		}
	}
	_ = ps
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	session, ps := newLobbySession(6)
	d := newDispatcher()

	_, err := d.Dispatch(session, ps[0].ClientID, Action("self_destruct"), nil)
	require.ErrorIs(t, err, entity.ErrInvalidInput)
}
