package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kazz187/todoguild/pkg/cerr"
)

// Issuer mints HS256 bearer tokens whose subject is the user id.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (i *Issuer) Issue(userID string, now time.Time) (string, error) {
	if userID == "" {
		return "", cerr.Validation("user id is required")
	}
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to sign token: %w", err))
	}
	return signed, nil
}

// Verifier checks tokens minted by an Issuer sharing the same secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify returns the user id carried by token.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "missing bearer token", nil)
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", cerr.NewError(cerr.Unauthenticated, "token expired", err)
		}
		return "", cerr.NewError(cerr.Unauthenticated, "invalid token", err)
	}
	if claims.Subject == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "token has no subject", nil)
	}
	return claims.Subject, nil
}

// SubjectOf reads the user id from token without checking the signature.
// The CLI uses it to pre-check actions as the right actor; the server still
// verifies every request.
func SubjectOf(token string) (string, error) {
	if token == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "missing bearer token", nil)
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", cerr.NewError(cerr.Unauthenticated, "invalid token", err)
	}
	if claims.Subject == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "token has no subject", nil)
	}
	return claims.Subject, nil
}
