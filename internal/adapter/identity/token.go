// Package identity issues the short-lived continuity token a client presents
// across a transport reconnect, binding its clientId to a session so the
// browser can re-assert "this is still me" without a fingerprinting scheme.
package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a clientId to the session it joined.
type Claims struct {
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

func NewIssuer(signingKey string, ttl time.Duration) *Issuer {
	return &Issuer{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue mints a continuity token for clientId scoped to sessionID.
func (i *Issuer) Issue(clientID, sessionID string) (string, error) {
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.signingKey)
}

// Verify parses a continuity token and returns the clientId/sessionId it
// binds, or an error if the token is malformed, expired, or mis-signed.
func (i *Issuer) Verify(tokenStr string) (clientID, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return i.signingKey, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	return claims.ClientID, claims.Subject, nil
}
