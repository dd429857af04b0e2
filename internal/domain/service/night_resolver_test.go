package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

// nightReadySession returns a lobby session advanced to a woken night_wolf
// phase, with roles forced onto specific participants rather than shuffled.
func nightReadySession(t *testing.T) (session *entity.Session, wolf, wolf2, doctor, police, villager *entity.Participant) {
	t.Helper()
	s, ps := newLobbySession(6)
	wolf, wolf2, doctor, police, villager = ps[0], ps[1], ps[2], ps[3], ps[4]
	assignRole(wolf, entity.RoleWerewolf)
	assignRole(wolf2, entity.RoleWerewolf)
	assignRole(doctor, entity.RoleDoctor)
	assignRole(police, entity.RolePolice)
	assignRole(villager, entity.RoleVillager)
	assignRole(ps[5], entity.RoleVillager)

	s.Phase = entity.PhaseNightWolf
	s.Round = entity.NewRoundState()
	s.Round.PhaseStarted = true
	return s, wolf, wolf2, doctor, police, villager
}

func TestWolfSelectMultiWolfLastWriteWins(t *testing.T) {
	session, wolf, wolf2, _, _, villager := nightReadySession(t)
	r := NewNightResolver(NewWinEvaluator())

	require.NoError(t, r.WolfSelect(session, wolf.ID, villager.ID))
	require.NoError(t, r.WolfSelect(session, wolf2.ID, villager.ID))
	require.Equal(t, villager.ID, session.Round.WolfTargets[wolf.ID])

	// A second cast by the same wolf overwrites its own prior target.
	other := session.NonHostIDs()[5]
	require.NoError(t, r.WolfSelect(session, wolf.ID, other))
	require.Equal(t, other, session.Round.WolfTargets[wolf.ID])
	require.Len(t, session.Round.WolfTargets, 2)
}

func TestWolfSelectRejectsSelfAndDeadTargets(t *testing.T) {
	session, wolf, _, _, _, villager := nightReadySession(t)
	r := NewNightResolver(NewWinEvaluator())

	require.ErrorIs(t, r.WolfSelect(session, wolf.ID, wolf.ID), entity.ErrCannotTargetSelf)

	villager.Alive = false
	require.ErrorIs(t, r.WolfSelect(session, wolf.ID, villager.ID), entity.ErrInvalidTarget)
}

func TestWolfSelectRejectsBeforePhaseWoken(t *testing.T) {
	session, wolf, _, _, _, villager := nightReadySession(t)
	session.Round.PhaseStarted = false
	r := NewNightResolver(NewWinEvaluator())

	require.ErrorIs(t, r.WolfSelect(session, wolf.ID, villager.ID), entity.ErrPhaseNotStarted)
}

func TestDoctorSaveNeutralizesKill(t *testing.T) {
	session, wolf, wolf2, doctor, police, villager := nightReadySession(t)
	r := NewNightResolver(NewWinEvaluator())

	require.NoError(t, r.WolfSelect(session, wolf.ID, villager.ID))
	require.NoError(t, r.WolfSelect(session, wolf2.ID, villager.ID))

	session.Phase = entity.PhaseNightDoctor
	session.Round.PhaseStarted = true
	require.NoError(t, r.DoctorSave(session, doctor.ID, villager.ID))

	session.Phase = entity.PhaseNightPolice
	require.NoError(t, r.PoliceInspect(session, police.ID, wolf.ID))
	require.Equal(t, entity.PoliceResultWerewolf, session.Round.PoliceInspectResult)

	deaths, err := r.RevealDead(session)
	require.NoError(t, err)
	require.Empty(t, deaths, "doctor save should neutralize the only wolf target")
	require.True(t, villager.Alive)
}

func TestRevealDeadKillsUnsavedTargets(t *testing.T) {
	session, wolf, wolf2, doctor, _, villager := nightReadySession(t)
	r := NewNightResolver(NewWinEvaluator())

	other := session.NonHostIDs()[5]
	require.NoError(t, r.WolfSelect(session, wolf.ID, villager.ID))
	require.NoError(t, r.WolfSelect(session, wolf2.ID, other))

	session.Phase = entity.PhaseNightDoctor
	session.Round.PhaseStarted = true
	require.NoError(t, r.DoctorSave(session, doctor.ID, other))

	session.Phase = entity.PhaseNightPolice
	session.Round.PhaseStarted = true

	deaths, err := r.RevealDead(session)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{villager.ID}, deaths)
	require.False(t, villager.Alive)
}

func TestPoliceInspectSealsResultAtCallTime(t *testing.T) {
	session, wolf, _, _, police, villager := nightReadySession(t)
	r := NewNightResolver(NewWinEvaluator())
	session.Phase = entity.PhaseNightPolice
	session.Round.PhaseStarted = true

	require.NoError(t, r.PoliceInspect(session, police.ID, villager.ID))
	require.Equal(t, entity.PoliceResultNotWerewolf, session.Round.PoliceInspectResult)

	// Changing the target's role after inspection does not retroactively
	// change the sealed result.
	villager.Role = entity.RoleWerewolf
	require.Equal(t, entity.PoliceResultNotWerewolf, session.Round.PoliceInspectResult)
	_ = wolf
}
