// Package token issues and verifies the short-lived signed session tokens
// that bind a Discord user, their ticket and its channel to the external
// package-selection web session. Tokens are self-contained JWTs, so
// verification is synchronous and stateless.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the absolute lifetime of a session token from issuance.
const TTL = time.Hour

// Claims is the payload carried by a session token.
type Claims struct {
	UserID    string `json:"discordId"`
	ChannelID string `json:"ticketChannelId"`
	TicketID  string `json:"ticketId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the given (user, channel, ticket) triple and
// returns it together with its expiry. Each token carries a unique jti;
// previously issued tokens are not revoked.
func (s *Service) Issue(userID, channelID, ticketID, username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(TTL)
	claims := Claims{
		UserID:    userID,
		ChannelID: channelID,
		TicketID:  ticketID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token. It returns the claims and true on
// success, or nil and false on any failure (bad signature, structural
// corruption, expiry). It never consults persisted state.
func (s *Service) Verify(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}
