package service

import "github.com/duskcircle/nightwatch/internal/domain/entity"

// VoteTally owns day-phase balloting: casting and revoking a vote, the
// plurality tally (a tie for the lead eliminates no one), and the transition in and out of the
// two day phases.
type VoteTally struct {
	win *WinEvaluator
}

func NewVoteTally(win *WinEvaluator) *VoteTally {
	return &VoteTally{win: win}
}

// BeginVoting moves a session out of reveal and into its first vote round.
func (t *VoteTally) BeginVoting(session *entity.Session) error {
	if session.Phase != entity.PhaseReveal {
		return entity.ErrWrongPhase
	}
	session.Phase = entity.PhaseDayVote
	return nil
}

// CastVote records or overwrites a participant's ballot for the current
// round and phase.
func (t *VoteTally) CastVote(session *entity.Session, voterID, targetID string) error {
	if session.Phase != entity.PhaseDayVote && session.Phase != entity.PhaseDayFinalVote {
		return entity.ErrWrongPhase
	}
	voter := session.Participants[voterID]
	if voter == nil || voter.IsHost {
		return entity.ErrForbidden
	}
	if !voter.Alive {
		return entity.ErrParticipantDead
	}
	if err := validTarget(session, voterID, targetID); err != nil {
		return err
	}

	key := entity.VoteKey{VoterID: voterID, Round: session.DayCount, Phase: session.Phase}
	session.Votes[key] = &entity.Vote{
		SessionID: session.ID,
		VoterID:   voterID,
		TargetID:  targetID,
		Round:     session.DayCount,
		Phase:     session.Phase,
	}
	return nil
}

// RevokeVote removes a participant's ballot for the current round and phase.
func (t *VoteTally) RevokeVote(session *entity.Session, voterID string) error {
	if session.Phase != entity.PhaseDayVote && session.Phase != entity.PhaseDayFinalVote {
		return entity.ErrWrongPhase
	}
	key := entity.VoteKey{VoterID: voterID, Round: session.DayCount, Phase: session.Phase}
	delete(session.Votes, key)
	return nil
}

// FinalVote advances day_vote -> day_final_vote, clearing every ballot cast
// during day_vote for the current round so participants must re-cast.
func (t *VoteTally) FinalVote(session *entity.Session) error {
	if session.Phase != entity.PhaseDayVote {
		return entity.ErrWrongPhase
	}
	for key := range session.Votes {
		if key.Round == session.DayCount && key.Phase == entity.PhaseDayVote {
			delete(session.Votes, key)
		}
	}
	session.Phase = entity.PhaseDayFinalVote
	return nil
}

// tally counts ballots cast in the current round/phase, keyed by target.
func (t *VoteTally) tally(session *entity.Session) map[string]int {
	counts := make(map[string]int)
	for key, vote := range session.Votes {
		if key.Round == session.DayCount && key.Phase == session.Phase {
			counts[vote.TargetID]++
		}
	}
	return counts
}

// EliminatePlayer closes out day_final_vote: the single target with the most
// final-vote ballots is eliminated; a tie for the lead, or no ballots at all,
// eliminates no one.
// Either way the day advances: DayCount increments, RoundState resets, and
// the session returns to night_wolf unless the elimination (or lack of one)
// produced a terminal win state.
func (t *VoteTally) EliminatePlayer(session *entity.Session) (eliminated string, err error) {
	if session.Phase != entity.PhaseDayFinalVote {
		return "", entity.ErrWrongPhase
	}

	counts := t.tally(session)
	var leader string
	leaderVotes := 0
	tied := false
	for target, n := range counts {
		switch {
		case n > leaderVotes:
			leader, leaderVotes, tied = target, n, false
		case n == leaderVotes:
			tied = true
		}
	}
	if !tied && leaderVotes > 0 {
		if p, ok := session.Participants[leader]; ok {
			p.Alive = false
			eliminated = leader
		}
	}

	session.DayCount++
	for key := range session.Votes {
		if key.Round < session.DayCount {
			delete(session.Votes, key)
		}
	}

	if t.win.ApplyIfTerminal(session) {
		return eliminated, nil
	}

	session.Phase = entity.PhaseNightWolf
	session.Round = entity.NewRoundState()
	return eliminated, nil
}
