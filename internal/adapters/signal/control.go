package signal

import "github.com/dkeye/Chat/internal/core"

func (ctl *SignalWSController) handlePing(cl *client) {
	ctl.reply(cl, core.EvPong, nil)
}
