package app

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// storeErr turns an unexpected store failure into an internal AppError.
func storeErr(err error, op string) error {
	return domain.Internal(errors.Wrap(err, op))
}

func isNotFound(err error) bool  { return errors.Is(err, core.ErrNotFound) }
func isDuplicate(err error) bool { return errors.Is(err, core.ErrDuplicate) }

func loadChannel(ctx context.Context, store core.ChannelStore, id domain.ChannelID, op string) (domain.Channel, error) {
	ch, err := store.GetChannel(ctx, id)
	if isNotFound(err) {
		return domain.Channel{}, domain.ErrChannelNotFound
	}
	if err != nil {
		return domain.Channel{}, storeErr(err, op)
	}
	return ch, nil
}
