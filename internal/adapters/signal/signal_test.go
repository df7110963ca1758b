package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Chat/internal/adapters/memstore"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/mocks"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	srv *httptest.Server
	ctl *SignalWSController
}

var testUsers = map[string]domain.UserID{"alice": 1, "bob": 2, "carol": 3, "dave": 4}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, func(s *memstore.Store) core.Store { return s })
}

// newHarnessWith lets a test put a wrapper in front of the store.
func newHarnessWith(t *testing.T, wrap func(*memstore.Store) core.Store) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(mock)
	auth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, token string) (*domain.User, error) {
			id, ok := testUsers[token]
			if !ok {
				return nil, domain.ErrInvalidToken
			}
			return domain.NewUser(id, token)
		}).AnyTimes()

	store := memstore.New()
	for nick, id := range testUsers {
		require.NoError(t, store.UpsertUser(context.Background(), domain.User{ID: id, Nickname: nick}))
	}
	wrapped := wrap(store)
	members := app.NewMembershipService(wrapped, app.NewInviteTracker(), app.NewVoteTracker())
	channels := app.NewChannelService(wrapped, members)
	ctl := NewSignalWSController(
		orch.New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}),
		auth,
		members,
		channels,
		app.NewMessageService(wrapped, members, channels),
		app.NewPresenceService(wrapped),
		NewRateLimiter(0, time.Second),
		Options{ReadLimit: 1 << 16, PingPeriod: time.Minute, SendQueue: 64},
	)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c, c.Query("token")) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &harness{t: t, srv: srv, ctl: ctl}
}

func (h *harness) dialRaw(token string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws?token=" + token
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	return c, err
}

// dial connects token and waits until its own session announced itself online.
func (h *harness) dial(token string) *websocket.Conn {
	h.t.Helper()
	c, err := h.dialRaw(token)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = c.Close() })
	uid := testUsers[token]
	for {
		f := expect(h.t, c, core.EvUserStatus)
		var st core.UserStatus
		require.NoError(h.t, json.Unmarshal(f.Data, &st))
		if st.UserID == uid {
			return c
		}
	}
}

func send(t *testing.T, c *websocket.Conn, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, c.WriteJSON(frame{Type: typ, Data: raw}))
}

// expect reads frames until one of type typ arrives.
func expect(t *testing.T, c *websocket.Conn, typ string) frame {
	t.Helper()
	seen := readUntil(t, c, typ)
	return seen[len(seen)-1]
}

// readUntil returns every frame read up to and including the first of type typ.
func readUntil(t *testing.T, c *websocket.Conn, typ string) []frame {
	t.Helper()
	var seen []frame
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, c.ReadJSON(&f), "waiting for %s", typ)
		seen = append(seen, f)
		if f.Type == typ {
			return seen
		}
	}
}

func types(frames []frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Type)
	}
	return out
}

func createChannel(t *testing.T, c *websocket.Conn, name string, public bool) domain.Channel {
	t.Helper()
	send(t, c, "channel:create", map[string]any{"name": name, "isPublic": public})
	var ch domain.Channel
	require.NoError(t, json.Unmarshal(expect(t, c, core.EvChannelCreated).Data, &ch))
	return ch
}

func TestHandleSignal_RejectsBadToken(t *testing.T) {
	h := newHarness(t)
	c, err := h.dialRaw("mallory")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestHandleSignal_ChatRoundTrip(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	bob := h.dial("bob")

	ch := createChannel(t, alice, "general", true)
	expect(t, bob, core.EvChannelCreated)

	send(t, bob, "member:join", ch.ID)
	expect(t, alice, core.EvMemberJoined)
	expect(t, bob, core.EvMemberJoined)

	send(t, alice, "message:send", map[string]any{"channelId": ch.ID, "content": "hello"})
	var msg domain.Message
	require.NoError(t, json.Unmarshal(expect(t, bob, core.EvMessageNew).Data, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, domain.UserID(1), msg.AuthorID)
	expect(t, alice, core.EvMessageNew)

	send(t, bob, "message:fetch", map[string]any{"channelId": ch.ID})
	var page messagePage
	require.NoError(t, json.Unmarshal(expect(t, bob, core.EvMessageList).Data, &page))
	assert.Equal(t, ch.ID, page.ChannelID)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, msg.ID, page.Messages[0].ID)
}

func TestHandleSignal_TypingSkipsSender(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	bob := h.dial("bob")
	ch := createChannel(t, alice, "general", true)
	send(t, bob, "member:join", ch.ID)
	expect(t, alice, core.EvMemberJoined)
	expect(t, bob, core.EvMemberJoined)

	send(t, bob, core.EvTypingDraft, map[string]any{"channelId": ch.ID, "draft": "hel"})
	var typing core.Typing
	require.NoError(t, json.Unmarshal(expect(t, alice, core.EvTypingDraft).Data, &typing))
	assert.Equal(t, "hel", typing.Draft)
	assert.Equal(t, "bob", typing.Nickname)

	send(t, bob, "ping", nil)
	assert.NotContains(t, types(readUntil(t, bob, core.EvPong)), core.EvTypingDraft)
}

func TestHandleSignal_NonMembersSeeNothing(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	carol := h.dial("carol")
	ch := createChannel(t, alice, "general", true)

	send(t, alice, "message:send", map[string]any{"channelId": ch.ID, "content": "secret"})
	expect(t, alice, core.EvMessageNew)

	send(t, carol, "ping", nil)
	assert.NotContains(t, types(readUntil(t, carol, core.EvPong)), core.EvMessageNew)

	send(t, carol, "message:send", map[string]any{"channelId": ch.ID, "content": "let me in"})
	var e core.ErrorPayload
	require.NoError(t, json.Unmarshal(expect(t, carol, "error:"+core.ScopeMessage).Data, &e))
	assert.Equal(t, domain.CodeForbidden, e.Code)
}

func TestHandleSignal_PrivateChannelNeedsInvite(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	bob := h.dial("bob")
	ch := createChannel(t, alice, "ops", false)

	send(t, bob, "member:join", ch.ID)
	var e core.ErrorPayload
	require.NoError(t, json.Unmarshal(expect(t, bob, "error:"+core.ScopeMember).Data, &e))
	assert.Equal(t, domain.CodeForbidden, e.Code)

	send(t, alice, "member:invite", map[string]any{"userId": 2, "channelId": ch.ID})
	expect(t, bob, core.EvMemberInvited)

	send(t, bob, "member:join", ch.ID)
	expect(t, bob, core.EvMemberJoined)
}

func TestHandleSignal_BanDetachesAndPersists(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	bob := h.dial("bob")
	ch := createChannel(t, alice, "general", true)
	send(t, bob, "member:join", ch.ID)
	expect(t, alice, core.EvMemberJoined)
	expect(t, bob, core.EvMemberJoined)

	send(t, alice, "member:ban", map[string]any{"targetId": 2, "channelId": ch.ID})
	var banned core.MemberBanned
	require.NoError(t, json.Unmarshal(expect(t, bob, core.EvMemberBanned).Data, &banned))
	assert.Equal(t, domain.UserID(2), banned.UserID)

	send(t, bob, "message:send", map[string]any{"channelId": ch.ID, "content": "hi"})
	var e core.ErrorPayload
	require.NoError(t, json.Unmarshal(expect(t, bob, "error:"+core.ScopeMessage).Data, &e))
	assert.Equal(t, domain.CodeForbidden, e.Code)

	again, err := h.dialRaw("bob")
	require.NoError(t, err)
	defer again.Close()
	var snapshot []core.MemberBanned
	require.NoError(t, json.Unmarshal(expect(t, again, core.EvMemberBannedInit).Data, &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, ch.ID, snapshot[0].ChannelID)
}

// joinAll makes every token in users join ch and waits until the admin saw each join.
func joinAll(t *testing.T, admin *websocket.Conn, ch domain.ChannelID, users ...*websocket.Conn) {
	t.Helper()
	for _, c := range users {
		send(t, c, "member:join", ch)
		expect(t, c, core.EvMemberJoined)
		expect(t, admin, core.EvMemberJoined)
	}
}

func TestHandleSignal_InviteReplayedOnReconnect(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	ch := createChannel(t, alice, "ops", false)

	send(t, alice, "member:invite", map[string]any{"userId": 2, "channelId": ch.ID})
	send(t, alice, "ping", nil)
	expect(t, alice, core.EvPong)

	bob, err := h.dialRaw("bob")
	require.NoError(t, err)
	defer bob.Close()
	var inv core.MemberInvited
	require.NoError(t, json.Unmarshal(expect(t, bob, core.EvMemberInvited).Data, &inv))
	assert.Equal(t, core.MemberInvited{UserID: 2, ChannelID: ch.ID, InvitedBy: 1}, inv)
}

func TestHandleSignal_VoteBanEndToEnd(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")
	bob := h.dial("bob")
	carol := h.dial("carol")
	dave := h.dial("dave")
	ch := createChannel(t, alice, "general", true)
	joinAll(t, alice, ch.ID, bob, carol, dave)

	for i, voter := range []*websocket.Conn{bob, carol, alice} {
		send(t, voter, "member:voteBan", map[string]any{"targetId": 4, "channelId": ch.ID})
		var vote core.BanVote
		require.NoError(t, json.Unmarshal(expect(t, dave, core.EvMemberBanVote).Data, &vote))
		assert.Equal(t, i+1, vote.Votes)
		assert.Equal(t, 3, vote.Threshold)
	}

	var banned core.MemberBanned
	require.NoError(t, json.Unmarshal(expect(t, dave, core.EvMemberBanned).Data, &banned))
	assert.Equal(t, domain.UserID(4), banned.UserID)
	assert.Equal(t, domain.BanByVote, banned.Reason)
	expect(t, carol, core.EvMemberBanned)

	room, ok := h.ctl.Orch.Rooms.Get(ch.ID)
	require.True(t, ok)
	assert.False(t, room.HasUser(4))
}

func TestHandleSignal_DecodeErrorUsesFrameScope(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")

	send(t, alice, "member:kick", map[string]any{"channelId": "c1"})
	var e core.ErrorPayload
	require.NoError(t, json.Unmarshal(expect(t, alice, "error:"+core.ScopeMember).Data, &e))
	assert.Equal(t, domain.CodeValidation, e.Code)
}

// staleListing reports carol in every channel, as a listing read just
// before a kick would.
type staleListing struct {
	*memstore.Store
}

func (s staleListing) ChannelsOfUser(ctx context.Context, user domain.UserID) ([]domain.ChannelID, error) {
	if user != testUsers["carol"] {
		return s.Store.ChannelsOfUser(ctx, user)
	}
	all, err := s.Store.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChannelID, 0, len(all))
	for _, ch := range all {
		out = append(out, ch.ID)
	}
	return out, nil
}

func TestHandleSignal_BootstrapSkipsRevokedMembership(t *testing.T) {
	h := newHarnessWith(t, func(s *memstore.Store) core.Store { return staleListing{s} })
	alice := h.dial("alice")
	ch := createChannel(t, alice, "ops", false)

	carol := h.dial("carol")
	room, ok := h.ctl.Orch.Rooms.Get(ch.ID)
	require.True(t, ok)
	assert.False(t, room.HasUser(3))

	send(t, alice, "message:send", map[string]any{"channelId": ch.ID, "content": "private"})
	expect(t, alice, core.EvMessageNew)
	send(t, carol, "ping", nil)
	assert.NotContains(t, types(readUntil(t, carol, core.EvPong)), core.EvMessageNew)
}

func TestHandleSignal_InvalidFrame(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	var e core.ErrorPayload
	require.NoError(t, json.Unmarshal(expect(t, alice, "error:"+core.ScopeRequest).Data, &e))
	assert.Equal(t, domain.CodeValidation, e.Code)

	send(t, alice, "ping", nil)
	expect(t, alice, core.EvPong)
}
