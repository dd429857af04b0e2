package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

func testSession(t *testing.T) (session *entity.Session, host, wolf, doctor, police, villager *entity.Participant) {
	t.Helper()
	session = entity.NewSession("s1", "000000", "host-id", "host-client")
	host = entity.NewParticipant("host-id", session.ID, "host-client", "Host", true)
	wolf = entity.NewParticipant("wolf-id", session.ID, "wolf-client", "Wolf", false)
	doctor = entity.NewParticipant("doctor-id", session.ID, "doctor-client", "Doctor", false)
	police = entity.NewParticipant("police-id", session.ID, "police-client", "Police", false)
	villager = entity.NewParticipant("villager-id", session.ID, "villager-client", "Villager", false)

	wolf.Role = entity.RoleWerewolf
	doctor.Role = entity.RoleDoctor
	police.Role = entity.RolePolice
	villager.Role = entity.RoleVillager

	session.AddParticipant(host)
	session.AddParticipant(wolf)
	session.AddParticipant(doctor)
	session.AddParticipant(police)
	session.AddParticipant(villager)

	session.Phase = entity.PhaseNightPolice
	session.Round = entity.NewRoundState()
	session.Round.PhaseStarted = true
	session.Round.WolfTargets[wolf.ID] = villager.ID
	session.Round.DoctorSaveTarget = villager.ID
	session.Round.PoliceInspectTarget = wolf.ID
	session.Round.PoliceInspectResult = entity.PoliceResultWerewolf

	return session, host, wolf, doctor, police, villager
}

func TestProjectHostSeesEveryRoleAndFullRoundState(t *testing.T) {
	session, host, wolf, _, _, _ := testSession(t)

	view := Project(session, host.ID)

	for _, dto := range view.Participants {
		require.NotEmpty(t, dto.Role)
	}
	require.Equal(t, session.Round.WolfTargets, view.Viewer.WolfTargets)
	require.NotEmpty(t, view.Viewer.DoctorSaveTarget)
	require.NotNil(t, view.Viewer.Inspection, "host sees the police inspection as part of the full round state")
	require.Equal(t, entity.PoliceResultWerewolf, view.Viewer.Inspection.Result)
	_ = wolf
}

func TestProjectNonHostSeesOnlyOwnRole(t *testing.T) {
	session, _, wolf, _, _, villager := testSession(t)

	view := Project(session, villager.ID)

	for _, dto := range view.Participants {
		if dto.ID == villager.ID {
			require.Equal(t, string(entity.RoleVillager), dto.Role)
		} else {
			require.Empty(t, dto.Role, "a non-host viewer must not see another participant's role")
		}
	}
	require.Nil(t, view.Viewer.WolfTargets, "wolf targets are host-only")
	_ = wolf
}

func TestProjectDoctorSeesOwnSaveTargetOnly(t *testing.T) {
	session, _, _, doctor, _, villager := testSession(t)

	view := Project(session, doctor.ID)
	require.Equal(t, villager.ID, view.Viewer.DoctorSaveTarget)

	viewerNotDoctor := Project(session, villager.ID)
	require.Empty(t, viewerNotDoctor.Viewer.DoctorSaveTarget)
}

func TestProjectPoliceSeesOwnInspectionOnly(t *testing.T) {
	session, _, wolf, _, police, villager := testSession(t)

	view := Project(session, police.ID)
	require.NotNil(t, view.Viewer.Inspection)
	require.Equal(t, wolf.ID, view.Viewer.Inspection.TargetID)
	require.Equal(t, entity.PoliceResultWerewolf, view.Viewer.Inspection.Result)

	viewerNotPolice := Project(session, villager.ID)
	require.Nil(t, viewerNotPolice.Viewer.Inspection)
}

func TestProjectNonHostSeesOnlyOwnRoleAtEnded(t *testing.T) {
	session, _, wolf, _, _, villager := testSession(t)
	session.Phase = entity.PhaseEnded
	session.WinState = entity.WinVillagers

	view := Project(session, villager.ID)

	for _, dto := range view.Participants {
		if dto.ID == villager.ID {
			require.Equal(t, string(entity.RoleVillager), dto.Role)
		} else {
			require.Empty(t, dto.Role, "roles stay masked for non-host viewers even after the game ends")
		}
	}
	_ = wolf
}

func TestProjectResolvedDeathsVisibilityByPhase(t *testing.T) {
	session, _, _, _, _, villager := testSession(t)
	session.Round.ResolvedDeaths[villager.ID] = true

	session.Phase = entity.PhaseNightWolf
	hidden := Project(session, villager.ID)
	require.Empty(t, hidden.ResolvedDeaths, "deaths are sealed until reveal")

	session.Phase = entity.PhaseReveal
	visible := Project(session, villager.ID)
	require.ElementsMatch(t, []string{villager.ID}, visible.ResolvedDeaths)
}

func TestProjectUnknownViewerGetsNoViewerState(t *testing.T) {
	session, _, _, _, _, _ := testSession(t)

	view := Project(session, "not-a-participant")
	require.Empty(t, view.Viewer.ParticipantID)
	require.Empty(t, view.Viewer.Role)
}
