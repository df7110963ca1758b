package sqlstore

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
)

func (s *Store) UpsertBan(ctx context.Context, b domain.Ban) error {
	q := s.rebind(`INSERT INTO blacklists (user_id, channel_id, is_permanent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, channel_id) DO UPDATE SET is_permanent = excluded.is_permanent, updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, q, b.UserID, b.ChannelID, b.IsPermanent, b.CreatedAt, b.UpdatedAt)
	return mapErr(err, "sqlstore.UpsertBan")
}

func (s *Store) GetBan(ctx context.Context, user domain.UserID, channel domain.ChannelID) (domain.Ban, error) {
	q := s.rebind(`SELECT user_id, channel_id, is_permanent, created_at, updated_at FROM blacklists WHERE user_id = ? AND channel_id = ?`)
	var b domain.Ban
	err := s.db.QueryRowContext(ctx, q, user, channel).Scan(&b.UserID, &b.ChannelID, &b.IsPermanent, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Ban{}, mapErr(err, "sqlstore.GetBan")
	}
	return b, nil
}

func (s *Store) DeleteBan(ctx context.Context, user domain.UserID, channel domain.ChannelID) error {
	q := s.rebind(`DELETE FROM blacklists WHERE user_id = ? AND channel_id = ?`)
	_, err := s.db.ExecContext(ctx, q, user, channel)
	return mapErr(err, "sqlstore.DeleteBan")
}

func (s *Store) ListBans(ctx context.Context) ([]domain.Ban, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, channel_id, is_permanent, created_at, updated_at FROM blacklists`)
	if err != nil {
		return nil, mapErr(err, "sqlstore.ListBans")
	}
	defer rows.Close()
	var out []domain.Ban
	for rows.Next() {
		var b domain.Ban
		if err := rows.Scan(&b.UserID, &b.ChannelID, &b.IsPermanent, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, mapErr(err, "sqlstore.ListBans")
		}
		out = append(out, b)
	}
	return out, mapErr(rows.Err(), "sqlstore.ListBans")
}

func (s *Store) DeleteChannelBans(ctx context.Context, channel domain.ChannelID) error {
	q := s.rebind(`DELETE FROM blacklists WHERE channel_id = ?`)
	_, err := s.db.ExecContext(ctx, q, channel)
	return mapErr(err, "sqlstore.DeleteChannelBans")
}
