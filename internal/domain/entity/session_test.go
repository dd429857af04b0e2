package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildSession(nonHosts int) (*Session, []*Participant) {
	session := NewSession("s1", "000000", "host-id", "host-client")
	host := NewParticipant("host-id", session.ID, "host-client", "Host", true)
	session.AddParticipant(host)

	ps := make([]*Participant, 0, nonHosts)
	for i := 0; i < nonHosts; i++ {
		p := NewParticipant(string(rune('a'+i))+"-id", session.ID, string(rune('a'+i))+"-client", "P", false)
		session.AddParticipant(p)
		ps = append(ps, p)
	}
	return session, ps
}

func TestRemoveParticipantCascadesVotesAndLeaveRequests(t *testing.T) {
	session, ps := buildSession(2)
	session.Votes[VoteKey{VoterID: ps[0].ID, Round: 0, Phase: PhaseDayVote}] = &Vote{VoterID: ps[0].ID, TargetID: ps[1].ID}
	session.LeaveRequests[ps[0].ID] = NewLeaveRequest(session.ID, ps[0].ID, time.Now())

	removed := session.RemoveParticipant(ps[0].ID)
	require.NotNil(t, removed)
	require.Nil(t, session.Get(ps[0].ID))
	require.NotContains(t, session.ParticipantOrder, ps[0].ID)
	require.Nil(t, session.ByClientID(ps[0].ClientID))

	for key := range session.Votes {
		require.NotEqual(t, ps[0].ID, key.VoterID)
	}
	_, hasLeaveRequest := session.LeaveRequests[ps[0].ID]
	require.False(t, hasLeaveRequest)
}

func TestRemoveParticipantUnknownIsNoOp(t *testing.T) {
	session, _ := buildSession(1)
	require.Nil(t, session.RemoveParticipant("ghost"))
}

func TestByClientIDResolvesAfterAdd(t *testing.T) {
	session, ps := buildSession(1)
	got := session.ByClientID(ps[0].ClientID)
	require.Same(t, ps[0], got)
}

func TestResetForAttritionClearsTransientStateButKeepsParticipants(t *testing.T) {
	session, ps := buildSession(2)
	ps[0].Role = RoleWerewolf
	ps[0].Alive = false
	ps[1].Role = RoleVillager
	session.Phase = PhaseNightWolf
	session.DayCount = 3
	session.WinState = WinVillagers
	session.Round = NewRoundState()

	session.ResetForAttrition()

	require.Equal(t, PhaseLobby, session.Phase)
	require.Zero(t, session.DayCount)
	require.Equal(t, WinNone, session.WinState)
	require.Nil(t, session.Round)
	require.Empty(t, session.Votes)
	require.Empty(t, session.LeaveRequests)
	require.Len(t, session.Participants, 3, "host plus two non-hosts retained")
	for _, p := range ps {
		require.Equal(t, RoleNone, p.Role)
		require.True(t, p.Alive)
	}
}

func TestAliveNonHostsExcludesHostAndDead(t *testing.T) {
	session, ps := buildSession(3)
	ps[1].Alive = false

	alive := session.AliveNonHosts()
	ids := make([]string, 0, len(alive))
	for _, p := range alive {
		ids = append(ids, p.ID)
	}
	require.ElementsMatch(t, []string{ps[0].ID, ps[2].ID}, ids)
}

func TestNonHostCount(t *testing.T) {
	session, _ := buildSession(4)
	require.Equal(t, 4, session.NonHostCount())
}
