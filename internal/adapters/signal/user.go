package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
)

func (ctl *SignalWSController) handleSetStatus(ctx context.Context, cl *client, e SetStatus) {
	if err := ctl.Presence.SetStatus(ctx, cl.user.ID, e.Status); err != nil {
		ctl.sendError(cl, core.ScopeUser, err)
		return
	}
	cl.user.Status = e.Status
	log.Info().Str("module", "signal").Str("user", cl.user.ID.String()).Str("status", string(e.Status)).Msg("status changed")
	ctl.Orch.BroadcastAll(core.EvUserStatus, core.UserStatus{UserID: cl.user.ID, Status: e.Status})
}
