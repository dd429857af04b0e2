package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

func TestWinEvaluatorFinalTwoRule(t *testing.T) {
	tests := []struct {
		name       string
		roles      []entity.Role
		dead       []int // indices killed before evaluation
		wantOutcome entity.WinState
	}{
		{
			name:  "villagers win final two with no wolf",
			roles: []entity.Role{entity.RoleVillager, entity.RoleDoctor, entity.RoleWerewolf, entity.RolePolice, entity.RoleVillager, entity.RoleVillager},
			dead:  []int{2, 3, 4, 5},
			wantOutcome: entity.WinVillagers,
		},
		{
			name:  "werewolves win final two with a wolf present",
			roles: []entity.Role{entity.RoleWerewolf, entity.RoleDoctor, entity.RoleVillager, entity.RolePolice, entity.RoleVillager, entity.RoleVillager},
			dead:  []int{2, 3, 4, 5},
			wantOutcome: entity.WinWerewolves,
		},
		{
			name:  "villagers win once every wolf is eliminated above final two",
			roles: []entity.Role{entity.RoleWerewolf, entity.RoleDoctor, entity.RoleVillager, entity.RolePolice, entity.RoleVillager, entity.RoleVillager},
			dead:  []int{0},
			wantOutcome: entity.WinVillagers,
		},
		{
			name:  "still in progress above final two with a wolf alive",
			roles: []entity.Role{entity.RoleWerewolf, entity.RoleDoctor, entity.RoleVillager, entity.RolePolice, entity.RoleVillager, entity.RoleVillager},
			dead:  []int{},
			wantOutcome: entity.WinNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, ps := newLobbySession(len(tt.roles))
			for i, r := range tt.roles {
				assignRole(ps[i], r)
			}
			for _, i := range tt.dead {
				ps[i].Alive = false
			}

			e := NewWinEvaluator()
			require.Equal(t, tt.wantOutcome, e.Evaluate(session))
		})
	}
}

func TestApplyIfTerminalSealsPhaseAndWinState(t *testing.T) {
	session, ps := newLobbySession(6)
	assignRole(ps[0], entity.RoleWerewolf)
	for _, p := range ps[1:] {
		assignRole(p, entity.RoleVillager)
		p.Alive = false
	}
	session.Phase = entity.PhaseNightPolice

	e := NewWinEvaluator()
	require.True(t, e.ApplyIfTerminal(session))
	require.Equal(t, entity.PhaseEnded, session.Phase)
	require.Equal(t, entity.WinWerewolves, session.WinState)
}

func TestApplyIfTerminalNoOpWhenGameContinues(t *testing.T) {
	session, ps := newLobbySession(6)
	assignRole(ps[0], entity.RoleWerewolf)
	for _, p := range ps[1:] {
		assignRole(p, entity.RoleVillager)
	}
	session.Phase = entity.PhaseNightPolice

	e := NewWinEvaluator()
	require.False(t, e.ApplyIfTerminal(session))
	require.Equal(t, entity.PhaseNightPolice, session.Phase)
	require.Equal(t, entity.WinNone, session.WinState)
}
