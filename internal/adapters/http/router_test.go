package http

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Chat/internal/adapters/memstore"
	"github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/mocks"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := mocks.NewMockAuthenticator(gomock.NewController(t))
	auth.EXPECT().Authenticate(gomock.Any(), "good").Return(&domain.User{ID: 1, Nickname: "alice"}, nil).AnyTimes()
	auth.EXPECT().Authenticate(gomock.Any(), "bad").Return(nil, domain.ErrInvalidToken).AnyTimes()

	store := memstore.New()
	members := app.NewMembershipService(store, app.NewInviteTracker(), app.NewVoteTracker())
	channels := app.NewChannelService(store, members)
	ctl := signal.NewSignalWSController(
		orch.New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}),
		auth, members, channels,
		app.NewMessageService(store, members, channels),
		app.NewPresenceService(store),
		nil,
		signal.Options{},
	)
	cfg := &config.Config{Mode: "test", Secret: "cookie-secret", CORS: config.CORS{Origins: []string{"*"}}}
	return SetupRouter(context.Background(), cfg, ctl)
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","rooms":0}`, w.Body.String())
}

func TestSession(t *testing.T) {
	r := newRouter(t)
	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodPost, "/api/session", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"token":"good"}`)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionName+"=")
	assert.Contains(t, w.Body.String(), `"nickname":"alice"`)

	assert.Equal(t, nethttp.StatusUnauthorized, post(`{"token":"bad"}`).Code)
	assert.Equal(t, nethttp.StatusBadRequest, post(`{}`).Code)
}

func TestBearerToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(nethttp.MethodGet, "/?token=q", nil)
	c.Request.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "q", bearerToken(c))

	c.Request = httptest.NewRequest(nethttp.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "h", bearerToken(c))
}
