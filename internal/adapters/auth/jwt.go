// Package auth verifies the bearer tokens issued by the account service.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

const (
	claimUserID   = "userID"
	claimUsername = "userUsername"
)

// JWTAuthenticator accepts HS256 tokens carrying userID and userUsername claims
// and records the user so presence and nicknames can be stored.
type JWTAuthenticator struct {
	secret []byte
	users  core.UserStore
}

func NewJWTAuthenticator(secret string, users core.UserStore) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), users: users}
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	id, nickname, err := a.Verify(token)
	if err != nil {
		return nil, domain.Wrap(domain.CodeUnauthenticated, "invalid or expired token", err)
	}
	user, err := domain.NewUser(id, nickname)
	if err != nil {
		return nil, domain.Wrap(domain.CodeUnauthenticated, "invalid or expired token", err)
	}
	if err := a.users.UpsertUser(ctx, *user); err != nil {
		return nil, domain.Internal(errors.Wrap(err, "auth.Authenticate.upsert"))
	}
	return user, nil
}

// Verify checks the signature and expiry and extracts the identity claims.
func (a *JWTAuthenticator) Verify(token string) (domain.UserID, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return 0, "", errors.New("invalid token claims")
	}
	id, err := userIDClaim(claims[claimUserID])
	if err != nil {
		return 0, "", err
	}
	name, _ := claims[claimUsername].(string)
	if name == "" {
		name = "user-" + id.String()
	}
	return id, name, nil
}

func userIDClaim(v interface{}) (domain.UserID, error) {
	switch n := v.(type) {
	case float64:
		if n <= 0 || n != float64(int64(n)) {
			return 0, errors.New("invalid userID claim")
		}
		return domain.UserID(n), nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.New("invalid userID claim")
		}
		return domain.UserID(id), nil
	}
	return 0, errors.New("missing userID claim")
}

// Sign issues a token in the format Verify accepts. Used by tooling and tests.
func Sign(secret string, id domain.UserID, nickname string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		claimUserID:   int64(id),
		claimUsername: nickname,
		"exp":         time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
