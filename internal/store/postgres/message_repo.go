package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"voxchat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, sender_id, receiver_id, group_id, content, message_type, file_url, status, is_deleted, created_at, updated_at`

func scanMessage(row interface{ Scan(...any) error }) (*domain.Message, error) {
	m := &domain.Message{}
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.GroupID,
		&m.Content,
		&m.MessageType,
		&m.FileURL,
		&m.Status,
		&m.IsDeleted,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) Insert(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, group_id, content, message_type, file_url, status, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.SenderID,
		m.ReceiverID,
		m.GroupID,
		m.Content,
		m.MessageType,
		m.FileURL,
		m.Status,
		m.IsDeleted,
		m.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	return scanMessage(row)
}

// AdvanceStatus applies a forward-only transition. The WHERE clause only
// matches rows whose current status ranks below the target, which makes
// regressions and repeats no-ops at the store level regardless of caller
// interleaving.
func (r *MessageRepo) AdvanceStatus(ctx context.Context, id string, status domain.MessageStatus) (bool, error) {
	below := domain.StatusesBelow(status)
	if len(below) == 0 {
		return false, nil
	}

	placeholders := make([]string, len(below))
	args := make([]any, 0, len(below)+2)
	args = append(args, status, id)
	for i, s := range below {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, s)
	}
	query := `UPDATE messages SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN (` + strings.Join(placeholders, ",") + `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("advance status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *MessageRepo) ListDirect(ctx context.Context, userA, userB string, offset, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_deleted = FALSE
		  AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, userA, userB, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list direct messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepo) CountDirect(ctx context.Context, userA, userB string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE is_deleted = FALSE
		  AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&count); err != nil {
		return 0, fmt.Errorf("count direct messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) ListGroup(ctx context.Context, groupID string, offset, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_deleted = FALSE AND group_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *MessageRepo) CountGroup(ctx context.Context, groupID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE is_deleted = FALSE AND group_id = $1`, groupID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count group messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) MarkDirectRead(ctx context.Context, readerID, peerID string) error {
	query := `
		UPDATE messages
		SET status = $1, updated_at = NOW()
		WHERE receiver_id = $2 AND sender_id = $3 AND status != $1
	`
	if _, err := r.db.ExecContext(ctx, query,
		domain.StatusRead, readerID, peerID,
	); err != nil {
		return fmt.Errorf("mark direct read: %w", err)
	}
	return nil
}

func collectMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var res []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
