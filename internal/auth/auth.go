// Package auth issues and verifies the HS256 tokens used for API bearer
// authentication and for read-only dashboard shares.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

// ShareScope is the only scope a share token grants.
const ShareScope = "dashboard:read"

var ErrInvalidToken = errors.New("invalid token")

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// ShareClaims identifies the share a token was issued for.
type ShareClaims struct {
	OwnerID   string
	ShareID   string
	ExpiresAt time.Time
}

// IssueUserToken signs a bearer token for userID. A zero ttl issues a token
// without expiry.
func (s *Signer) IssueUserToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", core.ErrMissingUser
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return s.sign(claims)
}

// VerifyUserToken returns the subject of a valid bearer token.
func (s *Signer) VerifyUserToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if scope, _ := claims["scope"].(string); scope != "" {
		// share tokens must not authenticate the API
		return "", fmt.Errorf("%w: scoped token", ErrInvalidToken)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

func (s *Signer) IssueShareToken(ownerID, shareID string, ttl time.Duration) (string, time.Time, error) {
	if ownerID == "" {
		return "", time.Time{}, core.ErrMissingUser
	}
	if shareID == "" || ttl <= 0 {
		return "", time.Time{}, errors.New("share token needs an id and a positive ttl")
	}
	now := s.now()
	exp := now.Add(ttl)
	tok, err := s.sign(jwt.MapClaims{
		"sub":   ownerID,
		"sid":   shareID,
		"scope": ShareScope,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, time.Unix(exp.Unix(), 0).UTC(), nil
}

// VerifyShareToken checks signature, expiry and scope. Every failure wraps
// core.ErrInvalidShareToken.
func (s *Signer) VerifyShareToken(token string) (ShareClaims, error) {
	claims, err := s.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return ShareClaims{}, fmt.Errorf("%w: %v", core.ErrInvalidShareToken, err)
	}
	if scope, _ := claims["scope"].(string); scope != ShareScope {
		return ShareClaims{}, fmt.Errorf("%w: scope %q", core.ErrInvalidShareToken, scope)
	}
	sub, _ := claims.GetSubject()
	sid, _ := claims["sid"].(string)
	if sub == "" || sid == "" {
		return ShareClaims{}, fmt.Errorf("%w: missing ids", core.ErrInvalidShareToken)
	}
	out := ShareClaims{OwnerID: sub, ShareID: sid}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	return out, nil
}

func (s *Signer) sign(claims jwt.MapClaims) (string, error) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

func (s *Signer) parse(token string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	return claims, nil
}

type userKey struct{}

// WithUser stores the authenticated user id on ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the authenticated user id, if any.
func UserFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}
