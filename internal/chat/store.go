package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devparmar16/campus-ease/internal/feed"
	"github.com/devparmar16/campus-ease/internal/session"
	"github.com/devparmar16/campus-ease/internal/utils"
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) ListMessages(ctx context.Context, college string, beforeID int64, limit int) ([]feed.Message, error) {
	// Fetch the newest page descending, then reverse, so the cursor pages
	// backward while responses stay ascending.
	q := `SELECT id, sender_id, sender_name, sender_role, content, created_at, college_id, is_edited
		FROM community_messages WHERE college_id=?`
	args := []any{college}
	if beforeID > 0 {
		q += ` AND id<?`
		args = append(args, beforeID)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var desc []feed.Message
	for rows.Next() {
		var m feed.Message
		var at string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.SenderRole, &m.Content, &at, &m.College, &m.Edited); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.CreatedAt, err = utils.ParseTime(at); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		desc = append(desc, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	asc := make([]feed.Message, len(desc))
	for i, m := range desc {
		asc[len(desc)-1-i] = m
	}
	return asc, nil
}

func (s *SQLStore) InsertMessage(ctx context.Context, m feed.Message) (feed.Message, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO community_messages (sender_id, sender_name, sender_role, content, college_id)
		 VALUES (?, ?, ?, ?, ?)`,
		m.SenderID, m.SenderName, m.SenderRole, m.Content, m.College)
	if err != nil {
		return feed.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getMessage(ctx, id)
}

func (s *SQLStore) UpdateMessage(ctx context.Context, id, senderID int64, content string) (feed.Message, bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE community_messages SET content=?, is_edited=1 WHERE id=? AND sender_id=?`,
		content, id, senderID)
	if err != nil {
		return feed.Message{}, false, fmt.Errorf("update message: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return feed.Message{}, false, nil
	}
	m, err := s.getMessage(ctx, id)
	if err != nil {
		return feed.Message{}, false, err
	}
	return m, true, nil
}

func (s *SQLStore) DeleteMessage(ctx context.Context, id, senderID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM community_messages WHERE id=? AND sender_id=?`, id, senderID)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLStore) GetProfile(ctx context.Context, userID int64) (session.Profile, error) {
	var p session.Profile
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, campus_id, first_name, last_name, email, role, college_id FROM users WHERE id=?`,
		userID).Scan(&p.ID, &p.CampusID, &p.FirstName, &p.LastName, &p.Email, &p.Role, &p.College)
	if err != nil {
		return session.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *SQLStore) getMessage(ctx context.Context, id int64) (feed.Message, error) {
	var m feed.Message
	var at string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, sender_id, sender_name, sender_role, content, created_at, college_id, is_edited
		 FROM community_messages WHERE id=?`, id).
		Scan(&m.ID, &m.SenderID, &m.SenderName, &m.SenderRole, &m.Content, &at, &m.College, &m.Edited)
	if err != nil {
		return feed.Message{}, fmt.Errorf("get message: %w", err)
	}
	if m.CreatedAt, err = utils.ParseTime(at); err != nil {
		return feed.Message{}, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}
