package sqlstore

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
)

func (s *Store) AddMembership(ctx context.Context, m domain.Membership) error {
	q := s.rebind(`INSERT INTO user_channels (id, user_id, channel_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, m.ID, m.UserID, m.ChannelID, m.CreatedAt, m.UpdatedAt)
	return mapErr(err, "sqlstore.AddMembership")
}

func (s *Store) GetMembership(ctx context.Context, user domain.UserID, channel domain.ChannelID) (domain.Membership, error) {
	q := s.rebind(`SELECT id, user_id, channel_id, created_at, updated_at FROM user_channels WHERE user_id = ? AND channel_id = ?`)
	var m domain.Membership
	err := s.db.QueryRowContext(ctx, q, user, channel).Scan(&m.ID, &m.UserID, &m.ChannelID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapErr(err, "sqlstore.GetMembership")
	}
	return m, nil
}

func (s *Store) DeleteMembership(ctx context.Context, user domain.UserID, channel domain.ChannelID) (bool, error) {
	q := s.rebind(`DELETE FROM user_channels WHERE user_id = ? AND channel_id = ?`)
	res, err := s.db.ExecContext(ctx, q, user, channel)
	if err != nil {
		return false, mapErr(err, "sqlstore.DeleteMembership")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapErr(err, "sqlstore.DeleteMembership")
	}
	return n > 0, nil
}

func (s *Store) CountMembers(ctx context.Context, channel domain.ChannelID) (int, error) {
	q := s.rebind(`SELECT COUNT(*) FROM user_channels WHERE channel_id = ?`)
	var n int
	if err := s.db.QueryRowContext(ctx, q, channel).Scan(&n); err != nil {
		return 0, mapErr(err, "sqlstore.CountMembers")
	}
	return n, nil
}

func (s *Store) ChannelsOfUser(ctx context.Context, user domain.UserID) ([]domain.ChannelID, error) {
	q := s.rebind(`SELECT channel_id FROM user_channels WHERE user_id = ? ORDER BY created_at`)
	rows, err := s.db.QueryContext(ctx, q, user)
	if err != nil {
		return nil, mapErr(err, "sqlstore.ChannelsOfUser")
	}
	defer rows.Close()
	var out []domain.ChannelID
	for rows.Next() {
		var id domain.ChannelID
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err, "sqlstore.ChannelsOfUser")
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err(), "sqlstore.ChannelsOfUser")
}

func (s *Store) DeleteChannelMemberships(ctx context.Context, channel domain.ChannelID) error {
	q := s.rebind(`DELETE FROM user_channels WHERE channel_id = ?`)
	_, err := s.db.ExecContext(ctx, q, channel)
	return mapErr(err, "sqlstore.DeleteChannelMemberships")
}
