// Package token signs the verified-identity claims attached to listing
// submissions. The token proves to downstream services that the listing
// passed the verification gate without carrying the underlying ID number.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VerifiedIdentityClaims is the signed payload. Only masked, display-safe
// data goes in here.
type VerifiedIdentityClaims struct {
	jwt.RegisteredClaims
	SessionID  string `json:"sid"`
	IDFragment string `json:"id_fragment"`
	VerifiedAt int64  `json:"verified_at"`
}

// Signer issues and parses verified-identity tokens with an HMAC key.
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewSigner constructs a signer. The key must be non-empty.
func NewSigner(key []byte, issuer string, ttl time.Duration) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("token: signing key is required")
	}
	return &Signer{key: key, issuer: issuer, ttl: ttl}, nil
}

// Issue signs a token for a verified session.
func (s *Signer) Issue(sessionID uuid.UUID, userID, idFragment string, verifiedAt time.Time) (string, error) {
	now := time.Now()
	claims := VerifiedIdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		SessionID:  sessionID.String(),
		IDFragment: idFragment,
		VerifiedAt: verifiedAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the signature, issuer and expiry, returning the claims.
func (s *Signer) Parse(tokenString string) (*VerifiedIdentityClaims, error) {
	claims := &VerifiedIdentityClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
			}
			return s.key, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
