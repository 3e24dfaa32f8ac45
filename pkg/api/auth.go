package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// participantClaims is the opaque bearer credential issued to a
// participant on registration (spec.md §4.7: "the server MUST issue an
// opaque credential scoping the holder to one participant within one
// competition"). It is not a real authentication system — there is no
// user identity behind it, only a scoped capability token — so HMAC
// signing with a server-held secret is enough; ECDSA key management
// would be overkill for a credential with no external relying party.
type participantClaims struct {
	jwt.RegisteredClaims
	CompetitionID string `json:"competition_id"`
	ParticipantID string `json:"participant_id"`
}

// TokenIssuer signs and verifies participant credentials.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer builds a TokenIssuer over secret. secret must not be
// empty; an empty server secret would make every credential forgeable.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("api: token signing secret must not be empty")
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

// Issue mints a credential scoped to one participant within one
// competition, valid for the lifetime of a typical competition run.
func (t *TokenIssuer) Issue(competitionID, participantID string) (string, error) {
	claims := participantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
		CompetitionID: competitionID,
		ParticipantID: participantID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates tokenString, returning the scoped
// competition and participant IDs.
func (t *TokenIssuer) Verify(tokenString string) (competitionID, participantID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &participantClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*participantClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return claims.CompetitionID, claims.ParticipantID, nil
}
