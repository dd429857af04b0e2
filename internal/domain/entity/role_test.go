package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWerewolfCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{n: 6, want: 1},
		{n: 8, want: 1},
		{n: 9, want: 2},
		{n: 12, want: 2},
		{n: 13, want: 3},
		{n: 20, want: 3},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, WerewolfCount(tt.n), "n=%d", tt.n)
	}
}

func TestCanActAtNight(t *testing.T) {
	require.True(t, RoleWerewolf.CanActAtNight())
	require.True(t, RoleDoctor.CanActAtNight())
	require.True(t, RolePolice.CanActAtNight())
	require.False(t, RoleVillager.CanActAtNight())
	require.False(t, RoleNone.CanActAtNight())
}
