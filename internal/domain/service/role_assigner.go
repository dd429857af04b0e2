package service

import (
	"math/rand"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

// RoleAssigner maps the non-host participants of a lobby session onto the
// role distribution fixed by session size.
type RoleAssigner struct {
	// Deterministic, when set, seeds the shuffle from the session id instead
	// of the global random source. Each participant still learns exactly one
	// role with the distribution fixed by n; this only affects reproducibility
	// for testing.
	Deterministic bool
}

func NewRoleAssigner(deterministic bool) *RoleAssigner {
	return &RoleAssigner{Deterministic: deterministic}
}

// Assign builds the role pool for n participants and shuffles it onto them.
// Caller must hold the session lock and must have already verified
// phase == lobby and n >= MinNonHostParticipants.
func (a *RoleAssigner) Assign(session *entity.Session) error {
	nonHostIDs := session.NonHostIDs()
	n := len(nonHostIDs)
	if n < entity.MinNonHostParticipants {
		return entity.ErrNotEnoughPlayers
	}

	k := entity.WerewolfCount(n)
	roles := make([]entity.Role, 0, n)
	for i := 0; i < k; i++ {
		roles = append(roles, entity.RoleWerewolf)
	}
	roles = append(roles, entity.RoleDoctor, entity.RolePolice)
	for len(roles) < n {
		roles = append(roles, entity.RoleVillager)
	}

	rng := a.source(session.ID)
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, participantID := range nonHostIDs {
		session.Participants[participantID].Role = roles[i]
	}
	return nil
}

func (a *RoleAssigner) source(sessionID string) *rand.Rand {
	if !a.Deterministic {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	var seed int64
	for _, c := range sessionID {
		seed = seed*31 + int64(c)
	}
	return rand.New(rand.NewSource(seed))
}
