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

type RegistrationRepository interface {
	// RegisterTx inserts a registration while the event row is locked, so the
	// capacity and duplicate checks cannot race with a concurrent insert.
	RegisterTx(ctx context.Context, reg *model.Registration) error
	GetByID(ctx context.Context, id int64) (*model.Registration, error)
	GetByIDAndUser(ctx context.Context, id, userID int64) (*model.Registration, error)
	Confirm(ctx context.Context, id int64, paymentIntentID string) (*model.Registration, error)
	Cancel(ctx context.Context, id int64) (*model.Registration, error)
	// CancelIfPendingUnpaidTx flips a registration to cancelled only when it is
	// still pending and unpaid. Used by the payment-timeout worker.
	CancelIfPendingUnpaidTx(ctx context.Context, id int64) (bool, error)
	HasConfirmed(ctx context.Context, userID, eventID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Attendee, error)
}

type registrationRepository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

const registrationColumns = `id, user_id, event_id, status, COALESCE(payment_intent_id, ''),
	       is_paid, ticket_code, created_at, updated_at`

func (r *registrationRepository) RegisterTx(ctx context.Context, reg *model.Registration) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var (
		status   model.EventStatus
		capacity int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, capacity
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, reg.EventID).Scan(&status, &capacity)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to lock event row: %w", err)
	}
	if status != model.EventStatusPublished {
		_ = tx.Rollback()
		return ErrEventNotPublished
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2
		)
	`, reg.EventID, reg.UserID).Scan(&exists)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if exists {
		_ = tx.Rollback()
		return ErrDuplicateRegistration
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND status != 'cancelled'
	`, reg.EventID).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to count registrations: %w", err)
	}
	if count >= capacity {
		_ = tx.Rollback()
		return ErrEventFull
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (user_id, event_id, status, payment_intent_id, is_paid, ticket_code)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at, updated_at
	`, reg.UserID, reg.EventID, reg.Status, reg.PaymentIntentID, reg.IsPaid, reg.TicketCode).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id int64) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return r.scanRegistration(r.db.QueryRowContext(ctx, query, id))
}

func (r *registrationRepository) GetByIDAndUser(ctx context.Context, id, userID int64) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 AND user_id = $2`
	return r.scanRegistration(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *registrationRepository) Confirm(ctx context.Context, id int64, paymentIntentID string) (*model.Registration, error) {
	query := `
		UPDATE registrations
		SET status = 'confirmed', is_paid = TRUE,
		    payment_intent_id = COALESCE(NULLIF($2, ''), payment_intent_id),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + registrationColumns
	return r.scanRegistration(r.db.QueryRowContext(ctx, query, id, paymentIntentID))
}

func (r *registrationRepository) Cancel(ctx context.Context, id int64) (*model.Registration, error) {
	query := `
		UPDATE registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
		RETURNING ` + registrationColumns
	return r.scanRegistration(r.db.QueryRowContext(ctx, query, id))
}

func (r *registrationRepository) CancelIfPendingUnpaidTx(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var (
		status model.RegistrationStatus
		isPaid bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, is_paid
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &isPaid)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrRegistrationNotFound
		}
		return false, fmt.Errorf("failed to select registration for expiry: %w", err)
	}

	if status != model.RegistrationStatusPending || isPaid {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
	`, id); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to expire registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit expiry transaction: %w", err)
	}
	return true, nil
}

func (r *registrationRepository) HasConfirmed(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE user_id = $1 AND event_id = $2 AND status = 'confirmed'
		)
	`, userID, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check confirmed registration: %w", err)
	}
	return exists, nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID int64) ([]model.RegistrationWithEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.event_id, r.status, COALESCE(r.payment_intent_id, ''),
		       r.is_paid, r.ticket_code, r.created_at, r.updated_at,
		       e.id, e.title, e.location, e.start_time
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.RegistrationWithEvent
	for rows.Next() {
		var rw model.RegistrationWithEvent
		if err := rows.Scan(
			&rw.ID, &rw.UserID, &rw.EventID, &rw.Status, &rw.PaymentIntentID,
			&rw.IsPaid, &rw.TicketCode, &rw.CreatedAt, &rw.UpdatedAt,
			&rw.Event.ID, &rw.Event.Title, &rw.Event.Location, &rw.Event.StartTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, rw)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.event_id, r.status, COALESCE(r.payment_intent_id, ''),
		       r.is_paid, r.ticket_code, r.created_at, r.updated_at,
		       u.id, u.name, u.email, COALESCE(u.avatar, '')
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.EventID, &a.Status, &a.PaymentIntentID,
			&a.IsPaid, &a.TicketCode, &a.CreatedAt, &a.UpdatedAt,
			&a.User.ID, &a.User.Name, &a.User.Email, &a.User.Avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (r *registrationRepository) scanRegistration(row *sql.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.PaymentIntentID,
		&reg.IsPaid, &reg.TicketCode, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration: %w", err)
	}
	return &reg, nil
}
