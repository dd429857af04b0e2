// Package projection is the single boundary through which a Session's
// internal state is turned into something safe to hand a specific viewer.
// Nothing outside this package should serialize entity.Participant or
// entity.RoundState directly to a client.
package projection

import "github.com/duskcircle/nightwatch/internal/domain/entity"

// SessionView is the role-masked, viewer-specific projection of a Session.
type SessionView struct {
	ID             string                  `json:"id"`
	Code           string                  `json:"code"`
	Phase          entity.Phase            `json:"phase"`
	DayCount       int                     `json:"dayCount"`
	WinState       entity.WinState         `json:"winState"`
	Participants   []entity.ParticipantDTO `json:"participants"`
	ResolvedDeaths []string                `json:"resolvedDeaths,omitempty"`
	Viewer         ViewerState             `json:"viewer"`
}

// ViewerState carries the private, viewer-specific slice of RoundState: a
// participant's own role, and whichever round selections the masking rules
// entitle them to see.
type ViewerState struct {
	ParticipantID    string            `json:"participantId"`
	Role             entity.Role       `json:"role"`
	IsHost           bool              `json:"isHost"`
	PhaseStarted     bool              `json:"phaseStarted"`
	Inspection       *InspectionResult `json:"inspection,omitempty"`
	DoctorSaveTarget string            `json:"doctorSaveTarget,omitempty"`
	WolfTargets      map[string]string `json:"wolfTargets,omitempty"`
}

type InspectionResult struct {
	TargetID string              `json:"targetId"`
	Result   entity.PoliceResult `json:"result"`
}

// Project builds the view a single participant is entitled to see. If
// viewerID names no participant of the session, every role is masked and the
// view carries no viewer state.
//
// Masking rules: the host sees every role and the full RoundState verbatim.
// A non-host viewer sees only their own role, never another non-host's;
// phaseStarted is visible to everyone; the police's inspection result is
// visible only to the inspecting police; wolf selections are visible only
// to the host; the doctor save target is visible only to the host and to
// the doctor who set it; resolvedDeaths is visible to all from reveal until
// the next night begins.
func Project(session *entity.Session, viewerID string) SessionView {
	viewer := session.Get(viewerID)
	hostView := viewer != nil && viewer.IsHost

	participants := make([]entity.ParticipantDTO, 0, len(session.Participants))
	for _, id := range session.ParticipantOrder {
		p := session.Participants[id]
		dto := p.ToDTO()
		if !hostView && p.ID != viewerID {
			dto.Role = ""
		}
		participants = append(participants, dto)
	}

	view := SessionView{
		ID:           session.ID,
		Code:         session.Code,
		Phase:        session.Phase,
		DayCount:     session.DayCount,
		WinState:     session.WinState,
		Participants: participants,
	}

	round := session.Round
	if round != nil && deathsVisible(session.Phase) {
		deaths := make([]string, 0, len(round.ResolvedDeaths))
		for id := range round.ResolvedDeaths {
			deaths = append(deaths, id)
		}
		view.ResolvedDeaths = deaths
	}

	if viewer == nil {
		return view
	}

	view.Viewer = ViewerState{
		ParticipantID: viewer.ID,
		Role:          viewer.Role,
		IsHost:        viewer.IsHost,
	}
	if round == nil {
		return view
	}

	view.Viewer.PhaseStarted = round.PhaseStarted

	if hostView {
		view.Viewer.WolfTargets = round.WolfTargets
		view.Viewer.DoctorSaveTarget = round.DoctorSaveTarget
	} else if viewer.Role == entity.RoleDoctor && round.DoctorSaveTarget != "" {
		view.Viewer.DoctorSaveTarget = round.DoctorSaveTarget
	}

	if (hostView || viewer.Role == entity.RolePolice) && round.PoliceInspectTarget != "" {
		view.Viewer.Inspection = &InspectionResult{
			TargetID: round.PoliceInspectTarget,
			Result:   round.PoliceInspectResult,
		}
	}

	return view
}

// deathsVisible reports whether resolvedDeaths has been sealed for this
// night cycle: true from reveal onward, until the next night resets it.
func deathsVisible(phase entity.Phase) bool {
	switch phase {
	case entity.PhaseReveal, entity.PhaseDayVote, entity.PhaseDayFinalVote, entity.PhaseEnded:
		return true
	default:
		return false
	}
}
