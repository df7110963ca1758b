package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Chat/internal/adapters/memstore"
	"github.com/dkeye/Chat/internal/domain"
)

const secret = "test-secret"

func TestAuthenticate_RecordsUser(t *testing.T) {
	store := memstore.New()
	a := NewJWTAuthenticator(secret, store)
	tok, err := Sign(secret, 42, "neo", time.Hour)
	require.NoError(t, err)

	u, err := a.Authenticate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(42), u.ID)
	assert.Equal(t, "neo", u.Nickname)

	stored, err := store.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "neo", stored.Nickname)
	assert.Equal(t, domain.StatusOffline, stored.Status)
}

func TestAuthenticate_Rejects(t *testing.T) {
	a := NewJWTAuthenticator(secret, memstore.New())

	expired, err := Sign(secret, 1, "a", -time.Minute)
	require.NoError(t, err)
	foreign, err := Sign("other", 1, "a", time.Hour)
	require.NoError(t, err)
	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{claimUsername: "a"}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, tok := range map[string]string{"empty": "", "expired": expired, "foreign": foreign, "no id": noID, "garbage": "x.y.z"} {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), tok)
			require.Error(t, err)
			assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
		})
	}
}

func TestVerify_StringIDAndNicknameFallback(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{claimUserID: "7"}).SignedString([]byte(secret))
	require.NoError(t, err)

	id, nick, err := NewJWTAuthenticator(secret, memstore.New()).Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(7), id)
	assert.Equal(t, "user-7", nick)
}
