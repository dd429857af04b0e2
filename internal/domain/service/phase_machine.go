package service

import "github.com/duskcircle/nightwatch/internal/domain/entity"

// PhaseMachine owns the legal phase graph and the handful of host-driven
// transitions that are not already owned by a more specific handler (role
// assignment, night resolution, vote tally, elimination).
//
// Of the phase graph's edges, only these three are driven by next_phase:
//   - night_wolf, not yet woken -> night_wolf, woken (the host's explicit
//     "wake" action for the phase the session already occupies)
//   - night_wolf, woken -> night_doctor, woken (clearing doctor selections)
//   - night_doctor, woken -> night_police, woken (clearing police selections)
// Every other edge (night_police -> reveal, reveal -> day_vote,
// day_vote -> day_final_vote, day_final_vote -> night_wolf/ended,
// lobby -> night_wolf) is owned by a dedicated action (reveal_dead,
// begin_voting, final_vote, eliminate_player, assign_roles respectively) and
// next_phase returns preconditions if called from one of those phases.
type PhaseMachine struct {
	assigner *RoleAssigner
}

func NewPhaseMachine(assigner *RoleAssigner) *PhaseMachine {
	return &PhaseMachine{assigner: assigner}
}

// AssignRoles assigns roles to the session's non-host participants and
// atomically transitions lobby -> night_wolf. Caller must hold the session
// lock.
func (m *PhaseMachine) AssignRoles(session *entity.Session) error {
	if session.Phase != entity.PhaseLobby {
		return entity.ErrSessionNotLobby
	}
	if session.NonHostCount() < entity.MinNonHostParticipants {
		return entity.ErrNotEnoughPlayers
	}

	if err := m.assigner.Assign(session); err != nil {
		return err
	}

	session.Phase = entity.PhaseNightWolf
	session.Round = entity.NewRoundState()
	return nil
}

// NextPhase applies optimistic concurrency (expectedPhase must match the
// session's current phase) and then either wakes the current night phase or
// advances to the next one, per the table above. Caller must hold the
// session lock.
func (m *PhaseMachine) NextPhase(session *entity.Session, expectedPhase entity.Phase) error {
	if session.Phase == entity.PhaseEnded {
		return entity.ErrWrongPhase
	}
	if session.Phase != expectedPhase {
		return entity.ErrPhaseConflict
	}

	switch session.Phase {
	case entity.PhaseNightWolf:
		if !session.Round.PhaseStarted {
			session.Round.PhaseStarted = true
			return nil
		}
		session.Phase = entity.PhaseNightDoctor
		session.Round.PhaseStarted = true
		session.Round.DoctorSaveTarget = ""
		return nil

	case entity.PhaseNightDoctor:
		if !session.Round.PhaseStarted {
			session.Round.PhaseStarted = true
			return nil
		}
		session.Phase = entity.PhaseNightPolice
		session.Round.PhaseStarted = true
		session.Round.PoliceInspectTarget = ""
		session.Round.PoliceInspectResult = entity.PoliceResultNone
		return nil

	default:
		return entity.ErrWrongPhase
	}
}
