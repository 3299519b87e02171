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

// EventFilter narrows public event listings.
type EventFilter struct {
	Status       model.EventStatus
	UpcomingOnly bool
}

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	GetDetail(ctx context.Context, id int64) (*model.EventWithOrganizer, error)
	List(ctx context.Context, f EventFilter) ([]model.EventWithOrganizer, error)
	ListByOrganizer(ctx context.Context, organizerID int64) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id int64) error
}

type eventRepository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

const eventColumns = `id, title, description, location, start_time, end_time, organizer_id,
	       capacity, is_premium, price::text, COALESCE(image_url, ''), status, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *model.Event) error {
	query := `
		INSERT INTO events (title, description, location, start_time, end_time,
		                    organizer_id, capacity, is_premium, price, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, NULLIF($10, ''), $11)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.StartTime, e.EndTime,
		e.OrganizerID, e.Capacity, e.IsPremium, e.Price, e.ImageURL, e.Status,
	)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var e model.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime,
		&e.OrganizerID, &e.Capacity, &e.IsPremium, &e.Price, &e.ImageURL,
		&e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

const eventDetailQuery = `
	SELECT e.id, e.title, e.description, e.location, e.start_time, e.end_time,
	       e.organizer_id, e.capacity, e.is_premium, e.price::text,
	       COALESCE(e.image_url, ''), e.status, e.created_at, e.updated_at,
	       u.id, u.name, u.email, COALESCE(u.avatar, ''),
	       (SELECT COUNT(*) FROM registrations r
	         WHERE r.event_id = e.id AND r.status != 'cancelled') AS registered
	FROM events e
	JOIN users u ON u.id = e.organizer_id
`

func (r *eventRepository) GetDetail(ctx context.Context, id int64) (*model.EventWithOrganizer, error) {
	row := r.db.QueryRowContext(ctx, eventDetailQuery+` WHERE e.id = $1`, id)
	detail, err := scanEventDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return detail, nil
}

func (r *eventRepository) List(ctx context.Context, f EventFilter) ([]model.EventWithOrganizer, error) {
	query := eventDetailQuery + ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	if f.UpcomingOnly {
		query += " AND e.start_time >= NOW()"
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.EventWithOrganizer
	for rows.Next() {
		detail, err := scanEventDetail(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *detail)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID int64) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime,
			&e.OrganizerID, &e.Capacity, &e.IsPremium, &e.Price, &e.ImageURL,
			&e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, start_time = $4, end_time = $5,
		    capacity = $6, is_premium = $7, price = $8::numeric, image_url = NULLIF($9, ''),
		    status = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.StartTime, e.EndTime,
		e.Capacity, e.IsPremium, e.Price, e.ImageURL, e.Status, e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventDetail(row rowScanner) (*model.EventWithOrganizer, error) {
	var d model.EventWithOrganizer
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Location, &d.StartTime, &d.EndTime,
		&d.OrganizerID, &d.Capacity, &d.IsPremium, &d.Price, &d.ImageURL,
		&d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.Organizer.ID, &d.Organizer.Name, &d.Organizer.Email, &d.Organizer.Avatar,
		&d.RegisteredCount,
	)
	if err != nil {
		return nil, err
	}
	d.AvailableSpots = d.Capacity - d.RegisteredCount
	return &d, nil
}
