package entity

import "sync"

// Phase is a node of the canonical phase graph.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseNightWolf    Phase = "night_wolf"
	PhaseNightDoctor  Phase = "night_doctor"
	PhaseNightPolice  Phase = "night_police"
	PhaseReveal       Phase = "reveal"
	PhaseDayVote      Phase = "day_vote"
	PhaseDayFinalVote Phase = "day_final_vote"
	PhaseEnded        Phase = "ended"
)

// WinState is the terminal outcome of the Win Evaluator.
type WinState string

const (
	WinNone       WinState = "none"
	WinVillagers  WinState = "villagers"
	WinWerewolves WinState = "werewolves"
)

const (
	MinNonHostParticipants = 6
	MaxNonHostParticipants = 20
)

// Session is the authoritative aggregate: Session + Participants + RoundState
// + Votes + LeaveRequests, all serialized behind one lock. Destroying a
// Session cascade-destroys everything it owns.
type Session struct {
	ID           string
	Code         string
	Phase        Phase
	DayCount     int
	WinState     WinState
	HostClientID string

	Participants     map[string]*Participant // keyed by participant id
	ParticipantOrder []string
	clientIndex      map[string]string // clientId -> participant id

	Round *RoundState

	// Votes keyed by (voterId, round, phase); a second cast overwrites the first.
	Votes map[VoteKey]*Vote

	// LeaveRequests keyed by participant id; at most one pending per participant.
	LeaveRequests map[string]*LeaveRequest

	mu sync.RWMutex
}

// NewSession creates a fresh lobby-phase session owned by the given host.
func NewSession(id, code, hostParticipantID, hostClientID string) *Session {
	return &Session{
		ID:               id,
		Code:             code,
		Phase:            PhaseLobby,
		DayCount:         0,
		WinState:         WinNone,
		HostClientID:     hostClientID,
		Participants:     make(map[string]*Participant),
		ParticipantOrder: make([]string, 0),
		clientIndex:      make(map[string]string),
		Votes:            make(map[VoteKey]*Vote),
		LeaveRequests:    make(map[string]*LeaveRequest),
	}
}

func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }

// AddParticipant registers a participant, indexing it by clientId for
// idempotent-rejoin lookups. Caller must hold the lock.
func (s *Session) AddParticipant(p *Participant) {
	s.Participants[p.ID] = p
	s.ParticipantOrder = append(s.ParticipantOrder, p.ID)
	s.clientIndex[p.ClientID] = p.ID
}

// RemoveParticipant deletes a participant and cascades its votes and leave
// requests. Caller must hold the lock.
func (s *Session) RemoveParticipant(participantID string) *Participant {
	p, ok := s.Participants[participantID]
	if !ok {
		return nil
	}
	delete(s.Participants, participantID)
	delete(s.clientIndex, p.ClientID)
	for i, id := range s.ParticipantOrder {
		if id == participantID {
			s.ParticipantOrder = append(s.ParticipantOrder[:i], s.ParticipantOrder[i+1:]...)
			break
		}
	}
	for key := range s.Votes {
		if key.VoterID == participantID {
			delete(s.Votes, key)
		}
	}
	delete(s.LeaveRequests, participantID)
	return p
}

// ByClientID resolves a participant by (sessionId implicit, clientId). Caller
// must hold at least a read lock.
func (s *Session) ByClientID(clientID string) *Participant {
	id, ok := s.clientIndex[clientID]
	if !ok {
		return nil
	}
	return s.Participants[id]
}

func (s *Session) Get(participantID string) *Participant {
	return s.Participants[participantID]
}

// Host returns the host participant, or nil if somehow absent.
func (s *Session) Host() *Participant {
	for _, p := range s.Participants {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// NonHostCount returns the number of non-host participants.
func (s *Session) NonHostCount() int {
	n := 0
	for _, p := range s.Participants {
		if !p.IsHost {
			n++
		}
	}
	return n
}

// NonHostIDs returns the ids of non-host participants in join order.
func (s *Session) NonHostIDs() []string {
	ids := make([]string, 0, len(s.Participants))
	for _, id := range s.ParticipantOrder {
		if p, ok := s.Participants[id]; ok && !p.IsHost {
			ids = append(ids, id)
		}
	}
	return ids
}

// AliveNonHosts returns the currently alive non-host participants.
func (s *Session) AliveNonHosts() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, id := range s.ParticipantOrder {
		p, ok := s.Participants[id]
		if ok && !p.IsHost && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// ResetForAttrition reverts the session to a fresh lobby: all transient
// state cleared, participants retained with role/alive reset.
func (s *Session) ResetForAttrition() {
	s.Phase = PhaseLobby
	s.DayCount = 0
	s.WinState = WinNone
	s.Votes = make(map[VoteKey]*Vote)
	s.LeaveRequests = make(map[string]*LeaveRequest)
	s.Round = nil
	for _, p := range s.Participants {
		if !p.IsHost {
			p.Role = RoleNone
			p.Alive = true
		}
	}
}
