package service

import (
	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/pkg/id"
)

// newLobbySession builds a session with one host and n non-host
// participants, still in the lobby phase.
func newLobbySession(n int) (*entity.Session, []*entity.Participant) {
	hostID := id.Generate()
	session := entity.NewSession(id.Generate(), "000000", hostID, "host-client")
	host := entity.NewParticipant(hostID, session.ID, "host-client", "Host", true)
	session.AddParticipant(host)

	participants := make([]*entity.Participant, 0, n)
	for i := 0; i < n; i++ {
		p := entity.NewParticipant(id.Generate(), session.ID, id.Generate(), "P", false)
		session.AddParticipant(p)
		participants = append(participants, p)
	}
	return session, participants
}

// assignRole forces a participant's role directly, bypassing the shuffle,
// for tests that need a specific composition.
func assignRole(p *entity.Participant, role entity.Role) {
	p.Role = role
}
