package sqlstore

import (
	"context"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	status := u.Status
	if status == "" {
		status = domain.StatusOffline
	}
	now := time.Now().UTC()
	q := s.rebind(`INSERT INTO users (id, nickname, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET nickname = excluded.nickname, updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, q, u.ID, u.Nickname, status, now, now)
	return mapErr(err, "sqlstore.UpsertUser")
}

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	q := s.rebind(`SELECT id, nickname, status FROM users WHERE id = ?`)
	var u domain.User
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Nickname, &u.Status); err != nil {
		return domain.User{}, mapErr(err, "sqlstore.GetUser")
	}
	return u, nil
}

func (s *Store) SetStatus(ctx context.Context, id domain.UserID, status domain.Status) error {
	q := s.rebind(`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, status, time.Now().UTC(), id)
	if err != nil {
		return mapErr(err, "sqlstore.SetStatus")
	}
	return requireRow(res, "sqlstore.SetStatus")
}
