package token

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ApiToken is a shared-secret credential attached to a pending result so only
// the worker that ran it can post the outcome
type ApiToken string

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func RandToken(n int) ApiToken {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Int63()%int64(len(letterBytes))]
	}
	return ApiToken(b)
}

var (
	ErrInvalidToken     = fmt.Errorf("invalid worker token")
	ErrUnexpectedMethod = fmt.Errorf("unexpected token signing method")
)

// WorkerClaims carry a worker's identity and capability labels
type WorkerClaims struct {
	jwt.RegisteredClaims

	// Labels the worker advertised at registration time
	Labels map[string]string `json:"labels,omitempty"`
}

// Issuer mints and verifies worker credentials, HS256 over a shared secret
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (i *Issuer) Issue(workerName string, labels map[string]string) (string, error) {
	now := time.Now()
	claims := WorkerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   workerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Labels: labels,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Verify(raw string) (*WorkerClaims, error) {
	var claims WorkerClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedMethod, t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
