package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

const channelColumns = `id, channel_name, is_public, admin_id, last_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (domain.Channel, error) {
	var (
		ch       domain.Channel
		isPublic bool
		last     sql.NullTime
	)
	if err := row.Scan(&ch.ID, &ch.Name, &isPublic, &ch.AdminID, &last, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return domain.Channel{}, err
	}
	ch.Visibility = domain.VisibilityOf(isPublic)
	if last.Valid {
		t := last.Time
		ch.LastActivity = &t
	}
	return ch, nil
}

func (s *Store) CreateChannel(ctx context.Context, ch domain.Channel) error {
	q := s.rebind(`INSERT INTO channels (` + channelColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, ch.ID, ch.Name, ch.IsPublic(), ch.AdminID, ch.LastActivity, ch.CreatedAt, ch.UpdatedAt)
	return mapErr(err, "sqlstore.CreateChannel")
}

func (s *Store) GetChannel(ctx context.Context, id domain.ChannelID) (domain.Channel, error) {
	q := s.rebind(`SELECT ` + channelColumns + ` FROM channels WHERE id = ?`)
	ch, err := scanChannel(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Channel{}, mapErr(err, "sqlstore.GetChannel")
	}
	return ch, nil
}

func (s *Store) UpdateChannel(ctx context.Context, ch domain.Channel) error {
	q := s.rebind(`UPDATE channels SET channel_name = ?, is_public = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, ch.Name, ch.IsPublic(), ch.UpdatedAt, ch.ID)
	if err != nil {
		return mapErr(err, "sqlstore.UpdateChannel")
	}
	return requireRow(res, "sqlstore.UpdateChannel")
}

func (s *Store) DeleteChannel(ctx context.Context, id domain.ChannelID) error {
	q := s.rebind(`DELETE FROM channels WHERE id = ?`)
	_, err := s.db.ExecContext(ctx, q, id)
	return mapErr(err, "sqlstore.DeleteChannel")
}

func (s *Store) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return s.queryChannels(ctx, "sqlstore.ListChannels", `SELECT `+channelColumns+` FROM channels ORDER BY created_at`)
}

func (s *Store) TouchChannel(ctx context.Context, id domain.ChannelID, at time.Time) error {
	q := s.rebind(`UPDATE channels SET last_message = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, at, id)
	if err != nil {
		return mapErr(err, "sqlstore.TouchChannel")
	}
	return requireRow(res, "sqlstore.TouchChannel")
}

func (s *Store) InactiveChannels(ctx context.Context, cutoff time.Time) ([]domain.Channel, error) {
	return s.queryChannels(ctx, "sqlstore.InactiveChannels",
		`SELECT `+channelColumns+` FROM channels WHERE last_message IS NULL OR last_message < ?`, cutoff)
}

func (s *Store) queryChannels(ctx context.Context, op, query string, args ...any) ([]domain.Channel, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()
	var out []domain.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, mapErr(err, op)
		}
		out = append(out, ch)
	}
	return out, mapErr(rows.Err(), op)
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, op)
	}
	if n == 0 {
		return mapErr(sql.ErrNoRows, op)
	}
	return nil
}
