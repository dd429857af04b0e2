package service

import "github.com/duskcircle/nightwatch/internal/domain/entity"

// NightResolver handles the three night-role actions and the reveal step
// that turns accumulated selections into mortality changes.
type NightResolver struct {
	win *WinEvaluator
}

func NewNightResolver(win *WinEvaluator) *NightResolver {
	return &NightResolver{win: win}
}

func validTarget(session *entity.Session, actorID, targetID string) error {
	if targetID == actorID {
		return entity.ErrCannotTargetSelf
	}
	target, ok := session.Participants[targetID]
	if !ok || target.IsHost {
		return entity.ErrInvalidTarget
	}
	if !target.Alive {
		return entity.ErrInvalidTarget
	}
	return nil
}

// WolfSelect records one werewolf's nightly target. Last write for that
// werewolf wins; distinct werewolves may target distinct participants, and
// the multiset of all wolf targets is resolved at reveal_dead.
func (r *NightResolver) WolfSelect(session *entity.Session, actorID, targetID string) error {
	if session.Phase != entity.PhaseNightWolf {
		return entity.ErrWrongPhase
	}
	if !session.Round.PhaseStarted {
		return entity.ErrPhaseNotStarted
	}
	actor := session.Participants[actorID]
	if actor == nil || actor.Role != entity.RoleWerewolf {
		return entity.ErrWrongRole
	}
	if !actor.Alive {
		return entity.ErrParticipantDead
	}
	if err := validTarget(session, actorID, targetID); err != nil {
		return err
	}
	session.Round.WolfTargets[actorID] = targetID
	return nil
}

// DoctorSave records the doctor's protection target for the night. A doctor
// may target itself.
func (r *NightResolver) DoctorSave(session *entity.Session, actorID, targetID string) error {
	if session.Phase != entity.PhaseNightDoctor {
		return entity.ErrWrongPhase
	}
	if !session.Round.PhaseStarted {
		return entity.ErrPhaseNotStarted
	}
	actor := session.Participants[actorID]
	if actor == nil || actor.Role != entity.RoleDoctor {
		return entity.ErrWrongRole
	}
	if !actor.Alive {
		return entity.ErrParticipantDead
	}
	target, ok := session.Participants[targetID]
	if !ok || target.IsHost || !target.Alive {
		return entity.ErrInvalidTarget
	}
	session.Round.DoctorSaveTarget = targetID
	return nil
}

// PoliceInspect records the police's inspection target and seals the result
// immediately, against the target's role at the moment of inspection.
func (r *NightResolver) PoliceInspect(session *entity.Session, actorID, targetID string) error {
	if session.Phase != entity.PhaseNightPolice {
		return entity.ErrWrongPhase
	}
	if !session.Round.PhaseStarted {
		return entity.ErrPhaseNotStarted
	}
	actor := session.Participants[actorID]
	if actor == nil || actor.Role != entity.RolePolice {
		return entity.ErrWrongRole
	}
	if !actor.Alive {
		return entity.ErrParticipantDead
	}
	if err := validTarget(session, actorID, targetID); err != nil {
		return err
	}

	session.Round.PoliceInspectTarget = targetID
	if session.Participants[targetID].Role == entity.RoleWerewolf {
		session.Round.PoliceInspectResult = entity.PoliceResultWerewolf
	} else {
		session.Round.PoliceInspectResult = entity.PoliceResultNotWerewolf
	}
	return nil
}

// RevealDead resolves the accumulated night selections: the deduplicated
// wolf target set minus the doctor's save, applied as a single atomic
// mortality update. It then checks for a terminal win state and advances
// the phase accordingly.
func (r *NightResolver) RevealDead(session *entity.Session) ([]string, error) {
	if session.Phase != entity.PhaseNightPolice {
		return nil, entity.ErrWrongPhase
	}
	if !session.Round.PhaseStarted {
		return nil, entity.ErrPhaseNotStarted
	}

	targets := session.Round.WolfTargetSet()
	saved := session.Round.DoctorSaveTarget
	deaths := make([]string, 0, len(targets))

	for id := range targets {
		if id == saved {
			continue
		}
		if p, ok := session.Participants[id]; ok && p.Alive {
			p.Alive = false
			session.Round.ResolvedDeaths[id] = true
			deaths = append(deaths, id)
		}
	}

	if r.win.ApplyIfTerminal(session) {
		return deaths, nil
	}

	session.Phase = entity.PhaseReveal
	return deaths, nil
}
