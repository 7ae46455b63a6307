package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

var errInvalidToken = errors.New("invalid token")

type tokenManager struct {
	repo   tokenrepo.Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenManager(repo tokenrepo.Repository, secret []byte, ttl time.Duration) *tokenManager {
	return &tokenManager{repo: repo, secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID and records its id as a session.
func (m *tokenManager) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	if err := m.repo.Create(ctx, tokenrepo.Token{Token: claims.ID, UserID: userID, ExpiresAt: expiresAt}); err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate returns the user id of a well-signed, unexpired token whose session exists.
func (m *tokenManager) Validate(ctx context.Context, raw string) (string, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return "", err
	}
	session, err := m.repo.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", errInvalidToken
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	if session.UserID != claims.Subject || m.now().After(session.ExpiresAt) {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// Revoke deletes the session behind raw.
func (m *tokenManager) Revoke(ctx context.Context, raw string) error {
	claims, err := m.parse(raw)
	if err != nil {
		return err
	}
	return m.repo.Delete(ctx, claims.ID)
}

func (m *tokenManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}

func (m *tokenManager) parse(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	parsed, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, errInvalidToken
	}
	if !claims.VerifyExpiresAt(m.now(), true) {
		return nil, errInvalidToken
	}
	return claims, nil
}
