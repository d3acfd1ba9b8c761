package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voxchat/internal/domain"
)

type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

var _ domain.GroupRepository = (*GroupRepo)(nil)

const groupColumns = `id, name, description, group_picture, created_by, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (*domain.Group, error) {
	g := &domain.Group{}
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.GroupPicture,
		&g.CreatedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return g, nil
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (id, name, description, group_picture, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		g.ID, g.Name, g.Description, g.GroupPicture, g.CreatedBy,
	); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)
	return scanGroup(row)
}

func (r *GroupRepo) Update(ctx context.Context, g *domain.Group) error {
	query := `
		UPDATE groups
		SET name = $1, description = $2, group_picture = $3, updated_at = NOW()
		WHERE id = $4
	`
	if _, err := r.db.ExecContext(ctx, query,
		g.Name, g.Description, g.GroupPicture, g.ID,
	); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Group, int, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE id IN (SELECT group_id FROM group_members WHERE user_id = $1)
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var res []*domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return res, total, nil
}

func (r *GroupRepo) AddMember(ctx context.Context, m *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (id, group_id, user_id, is_admin)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID, m.GroupID, m.UserID, m.IsAdmin,
	); err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

func (r *GroupRepo) GetMember(ctx context.Context, groupID, memberID string) (*domain.GroupMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, is_admin, joined_at
		FROM group_members
		WHERE id = $1 AND group_id = $2
	`, memberID, groupID)

	m := &domain.GroupMember{}
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.IsAdmin, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan group member: %w", err)
	}
	return m, nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, memberID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE id = $1 AND group_id = $2`, memberID, groupID,
	); err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, is_admin, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var res []*domain.GroupMember
	for rows.Next() {
		m := &domain.GroupMember{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.IsAdmin, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (r *GroupRepo) CountAdmins(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND is_admin = TRUE
	`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}
