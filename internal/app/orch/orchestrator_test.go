package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("queue full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recConn) Close() {}

func (c *recConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env.Type)
	}
	return out
}

func newOrch() *Orchestrator {
	return New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{})
}

func connect(t *testing.T, o *Orchestrator, sid string, uid domain.UserID) (*recConn, context.Context) {
	t.Helper()
	u, err := domain.NewUser(uid, "user")
	require.NoError(t, err)
	conn := &recConn{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o.Register(core.NewMemberSession(core.SessionID(sid), domain.NewMember(u), conn), cancel)
	return conn, ctx
}

func TestOrchestrator_RoomIsolation(t *testing.T) {
	o := newOrch()
	alice, _ := connect(t, o, "a", 1)
	bob, _ := connect(t, o, "b", 2)

	o.SubscribeUser(1, "general")
	o.BroadcastRoom("general", "", core.EvMessageNew, "hi")
	assert.Equal(t, []string{core.EvMessageNew}, alice.types(t))
	assert.Empty(t, bob.types(t))

	o.SubscribeUser(2, "general")
	o.BroadcastRoom("general", "a", core.EvTypingStart, "x")
	assert.Equal(t, []string{core.EvMessageNew}, alice.types(t))
	assert.Equal(t, []string{core.EvTypingStart}, bob.types(t))

	o.UnsubscribeUser(2, "general")
	o.BroadcastRoom("general", "", core.EvMessageNew, "again")
	assert.Len(t, bob.types(t), 1)
}

func TestOrchestrator_SendToUserReachesEveryTab(t *testing.T) {
	o := newOrch()
	tab1, _ := connect(t, o, "t1", 1)
	tab2, _ := connect(t, o, "t2", 1)
	other, _ := connect(t, o, "x", 2)

	o.SendToUser(1, core.EvMemberInvited, nil)
	o.SendToSession("x", core.EvPong, nil)
	assert.Equal(t, []string{core.EvMemberInvited}, tab1.types(t))
	assert.Equal(t, []string{core.EvMemberInvited}, tab2.types(t))
	assert.Equal(t, []string{core.EvPong}, other.types(t))
}

func TestOrchestrator_BackpressureCancelsSession(t *testing.T) {
	o := newOrch()
	slow, ctx := connect(t, o, "slow", 1)
	fast, fastCtx := connect(t, o, "fast", 2)
	o.SubscribeUser(1, "general")
	o.SubscribeUser(2, "general")

	slow.full = true
	o.BroadcastRoom("general", "", core.EvMessageNew, "hi")
	assert.Error(t, ctx.Err())
	assert.NoError(t, fastCtx.Err())
	assert.Len(t, fast.types(t), 1)
}

func TestOrchestrator_DisconnectAndEvict(t *testing.T) {
	o := newOrch()
	connect(t, o, "t1", 1)
	connect(t, o, "t2", 1)
	bob, _ := connect(t, o, "b", 2)
	o.SubscribeUser(1, "general")
	o.SubscribeUser(2, "general")

	room, ok := o.Rooms.Get("general")
	require.True(t, ok)
	assert.Equal(t, 3, room.MemberCount())

	assert.False(t, o.Disconnect("t1"))
	assert.Equal(t, 2, room.MemberCount())
	assert.True(t, o.Disconnect("t2"))
	assert.False(t, room.HasUser(1))

	o.ChannelDeleted(context.Background(), "general")
	assert.Equal(t, []string{core.EvChannelDeleted}, bob.types(t))
	_, ok = o.Rooms.Get("general")
	assert.False(t, ok)
	assert.Empty(t, o.Registry.RoomsOf("b"))
}

func TestOrchestrator_UnsubscribeSingleSession(t *testing.T) {
	o := newOrch()
	tab1, _ := connect(t, o, "t1", 1)
	tab2, _ := connect(t, o, "t2", 1)
	o.SubscribeUser(1, "general")

	o.Unsubscribe("t1", "general")
	o.BroadcastRoom("general", "", core.EvMessageNew, "hi")
	assert.Empty(t, tab1.types(t))
	assert.Equal(t, []string{core.EvMessageNew}, tab2.types(t))
	assert.Empty(t, o.Registry.RoomsOf("t1"))
}
