package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

func votingReadySession(t *testing.T) (*entity.Session, []*entity.Participant) {
	t.Helper()
	session, ps := newLobbySession(6)
	session.Phase = entity.PhaseReveal
	return session, ps
}

func TestBeginVotingRequiresReveal(t *testing.T) {
	session, _ := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())

	require.NoError(t, tally.BeginVoting(session))
	require.Equal(t, entity.PhaseDayVote, session.Phase)

	require.ErrorIs(t, tally.BeginVoting(session), entity.ErrWrongPhase)
}

func TestCastVoteOverwritesPriorBallot(t *testing.T) {
	session, ps := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))

	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[1].ID))
	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[2].ID))

	counts := tally.tally(session)
	require.Equal(t, 1, counts[ps[2].ID])
	require.Zero(t, counts[ps[1].ID])
}

func TestCastVoteRejectsHostAndDeadVoters(t *testing.T) {
	session, ps := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))

	host := session.Host()
	require.ErrorIs(t, tally.CastVote(session, host.ID, ps[1].ID), entity.ErrForbidden)

	ps[0].Alive = false
	require.ErrorIs(t, tally.CastVote(session, ps[0].ID, ps[1].ID), entity.ErrParticipantDead)
}

func TestFinalVoteClearsPriorBallots(t *testing.T) {
	session, ps := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))
	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[1].ID))

	require.NoError(t, tally.FinalVote(session))
	require.Equal(t, entity.PhaseDayFinalVote, session.Phase)
	require.Empty(t, tally.tally(session))
	require.Empty(t, session.Votes, "day_vote ballots for the round are deleted")
}

func TestEliminatePlayerMajority(t *testing.T) {
	session, ps := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))
	require.NoError(t, tally.FinalVote(session))

	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[5].ID))
	require.NoError(t, tally.CastVote(session, ps[1].ID, ps[5].ID))
	require.NoError(t, tally.CastVote(session, ps[2].ID, ps[3].ID))

	eliminated, err := tally.EliminatePlayer(session)
	require.NoError(t, err)
	require.Equal(t, ps[5].ID, eliminated)
	require.False(t, ps[5].Alive)
	require.Equal(t, 1, session.DayCount)
}

func TestEliminatePlayerTieEliminatesNoOne(t *testing.T) {
	session, ps := votingReadySession(t)
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))
	require.NoError(t, tally.FinalVote(session))

	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[5].ID))
	require.NoError(t, tally.CastVote(session, ps[1].ID, ps[3].ID))

	eliminated, err := tally.EliminatePlayer(session)
	require.NoError(t, err)
	require.Empty(t, eliminated)
	for _, p := range ps {
		require.True(t, p.Alive)
	}
}

func TestEliminatePlayerAdvancesToNightWolfWhenNotTerminal(t *testing.T) {
	session, ps := votingReadySession(t)
	assignRole(ps[0], entity.RoleWerewolf) // a living wolf keeps the game going
	tally := NewVoteTally(NewWinEvaluator())
	require.NoError(t, tally.BeginVoting(session))
	require.NoError(t, tally.FinalVote(session))
	require.NoError(t, tally.CastVote(session, ps[0].ID, ps[5].ID))

	_, err := tally.EliminatePlayer(session)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseNightWolf, session.Phase)
	require.NotNil(t, session.Round)
}
