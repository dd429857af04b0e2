package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateJoinCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateJoinCode()
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "join code must be all decimal digits, got %q", code)
		}
	}
}

func TestGenerateProducesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := Generate()
		require.False(t, seen[id], "Generate produced a duplicate id")
		seen[id] = true
	}
}

func TestFallbackDisplayNameHasPrefix(t *testing.T) {
	name := FallbackDisplayName()
	require.Contains(t, name, "Player-")
	require.Greater(t, len(name), len("Player-"))
}
