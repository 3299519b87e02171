package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, cm *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	ExistsByUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.CommentWithUser, error)
	Update(ctx context.Context, id int64, content string, rating int) (*model.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type commentRepository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func (r *commentRepository) Create(ctx context.Context, cm *model.Comment) error {
	query := `
		INSERT INTO comments (user_id, event_id, content, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query, cm.UserID, cm.EventID, cm.Content, cm.Rating)
	if err := row.Scan(&cm.ID, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var cm model.Comment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, content, rating, created_at, updated_at
		FROM comments WHERE id = $1
	`, id).Scan(&cm.ID, &cm.UserID, &cm.EventID, &cm.Content, &cm.Rating, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &cm, nil
}

func (r *commentRepository) ExistsByUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM comments WHERE user_id = $1 AND event_id = $2)
	`, userID, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing comment: %w", err)
	}
	return exists, nil
}

func (r *commentRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.CommentWithUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.event_id, c.content, c.rating, c.created_at, c.updated_at,
		       u.id, u.name, COALESCE(u.avatar, '')
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.event_id = $1
		ORDER BY c.created_at DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithUser
	for rows.Next() {
		var cw model.CommentWithUser
		if err := rows.Scan(
			&cw.ID, &cw.UserID, &cw.EventID, &cw.Content, &cw.Rating, &cw.CreatedAt, &cw.UpdatedAt,
			&cw.User.ID, &cw.User.Name, &cw.User.Avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, cw)
	}
	return comments, rows.Err()
}

func (r *commentRepository) Update(ctx context.Context, id int64, content string, rating int) (*model.Comment, error) {
	var cm model.Comment
	err := r.db.QueryRowContext(ctx, `
		UPDATE comments
		SET content = $2, rating = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, event_id, content, rating, created_at, updated_at
	`, id, content, rating).Scan(
		&cm.ID, &cm.UserID, &cm.EventID, &cm.Content, &cm.Rating, &cm.CreatedAt, &cm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return &cm, nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
