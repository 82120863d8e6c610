package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// TokenKind selects the configured lifetime for an issued credential.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var (
	// ErrExpiredCredential indicates the credential's expiry has elapsed.
	ErrExpiredCredential = errors.New("credential expired")
	// ErrMalformedCredential indicates a signature mismatch or corrupt payload.
	ErrMalformedCredential = errors.New("credential malformed")
)

// TokenClaims is the signed payload carried by access and refresh credentials.
type TokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies compact tamper-evident credentials using a
// shared HMAC secret. It holds no persisted state.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec constructs a codec. The secret is required; lifetimes fall
// back to conservative defaults when unset.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token codec: secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the internal clock, used in tests.
func (c *TokenCodec) WithClock(clock func() time.Time) {
	if clock != nil {
		c.now = clock
	}
}

// Issue encodes {userID, issuedAt, expiresAt} signed with the shared secret.
func (c *TokenCodec) Issue(userID string, kind TokenKind) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	ttl := c.accessTTL
	if kind == TokenKindRefresh {
		ttl = c.refreshTTL
	}

	// The jti keeps tokens unique even when two are issued for one user
	// within the same second.
	now := c.now().UTC()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify validates the signature and expiry, returning the embedded claims.
// Expiry and corruption are distinguished so callers can give an actionable
// message without leaking signing details.
func (c *TokenCodec) Verify(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedCredential
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrMalformedCredential
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrMalformedCredential
	}

	return claims, nil
}
