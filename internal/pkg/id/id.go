package id

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/xyproto/randomstring"
)

// Generate creates a unique identifier (session, participant, fallback clientId).
func Generate() string {
	return uuid.NewString()
}

// GenerateJoinCode creates a six decimal digit, zero-padded join code,
// uniformly random. Collisions against live sessions are the caller's
// responsibility to detect and retry.
func GenerateJoinCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failure is unrecoverable; the teacher's GenerateRoomCode
		// has the same unchecked-read precedent for rand.Read.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// FallbackDisplayName produces a name for a client that joins without one,
// grounded on liav-hasson-llm-mafia's use of xyproto/randomstring for
// generated identifiers.
func FallbackDisplayName() string {
	return "Player-" + randomstring.String(5)
}
