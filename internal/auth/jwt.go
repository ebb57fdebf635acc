// Package auth issues and verifies the signed tokens that identify link owners.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/serroba/linkstats/internal/shortener"
)

// CookieName is the cookie carrying the owner token.
const CookieName = "token"

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour * 365

var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of an owner token.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"owner_id"`
}

// Issuer signs and verifies HS256 owner tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A non-positive ttl falls back to DefaultTokenTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a new owner id and a token for it.
func (i *Issuer) Issue() (string, shortener.OwnerID, error) {
	owner := shortener.OwnerID(uuid.NewString())

	token, err := i.IssueFor(owner)
	if err != nil {
		return "", "", err
	}

	return token, owner, nil
}

// IssueFor signs a token naming owner.
func (i *Issuer) IssueFor(owner shortener.OwnerID) (string, error) {
	if owner.Anonymous() {
		return "", fmt.Errorf("%w: empty owner", ErrInvalidToken)
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		OwnerID: string(owner),
	})

	return token.SignedString(i.secret)
}

// Parse verifies tokenString and returns the owner it names.
func (i *Issuer) Parse(tokenString string) (shortener.OwnerID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.OwnerID == "" {
		return "", ErrInvalidToken
	}

	return shortener.OwnerID(claims.OwnerID), nil
}
