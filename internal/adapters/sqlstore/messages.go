package sqlstore

import (
	"context"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

const messageSelect = `SELECT m.id, m.channel_id, m.author_id, COALESCE(u.nickname, ''), m.content, m.created_at, m.updated_at
	FROM messages m LEFT JOIN users u ON u.id = m.author_id`

func scanMessage(row rowScanner) (domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.ChannelID, &m.AuthorID, &m.AuthorNickname, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *Store) CreateMessage(ctx context.Context, m domain.Message) error {
	q := s.rebind(`INSERT INTO messages (id, channel_id, author_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, m.ID, m.ChannelID, m.AuthorID, m.Content, m.CreatedAt, m.UpdatedAt)
	return mapErr(err, "sqlstore.CreateMessage")
}

func (s *Store) GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, s.rebind(messageSelect+` WHERE m.id = ?`), id))
	if err != nil {
		return domain.Message{}, mapErr(err, "sqlstore.GetMessage")
	}
	return m, nil
}

func (s *Store) UpdateMessage(ctx context.Context, id domain.MessageID, content string, at time.Time) error {
	q := s.rebind(`UPDATE messages SET content = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, content, at, id)
	if err != nil {
		return mapErr(err, "sqlstore.UpdateMessage")
	}
	return requireRow(res, "sqlstore.UpdateMessage")
}

func (s *Store) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	q := s.rebind(`DELETE FROM messages WHERE id = ?`)
	_, err := s.db.ExecContext(ctx, q, id)
	return mapErr(err, "sqlstore.DeleteMessage")
}

// ListMessages pages on the id column; message ids are UUIDv7 and sort by creation time.
func (s *Store) ListMessages(ctx context.Context, channel domain.ChannelID, before domain.MessageID, limit int) ([]domain.Message, error) {
	query := messageSelect + ` WHERE m.channel_id = ?`
	args := []any{channel}
	if before != "" {
		query += ` AND m.id < ?`
		args = append(args, before)
	}
	query += ` ORDER BY m.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, mapErr(err, "sqlstore.ListMessages")
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, mapErr(err, "sqlstore.ListMessages")
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err(), "sqlstore.ListMessages")
}
