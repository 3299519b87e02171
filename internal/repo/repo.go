// Package repo implements PostgreSQL persistence for the event platform.
// Every write that has to hold an invariant (capacity, single registration
// per user) runs inside a single transaction here rather than as separate
// check-then-write round trips in the services.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotPublished     = errors.New("event is not published")
	ErrEventFull             = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrCommentNotFound       = errors.New("comment not found")
	ErrNotificationNotFound  = errors.New("notification not found")
)

// Store bundles the per-entity repositories over one connection pool.
type Store struct {
	Users         UserRepository
	Events        EventRepository
	Registrations RegistrationRepository
	Comments      CommentRepository
	Notifications NotificationRepository

	db *dbpg.DB
}

func NewStore(db *dbpg.DB, log *zerolog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &Store{
		Users:         &userRepository{db: db, log: log},
		Events:        &eventRepository{db: db, log: log},
		Registrations: &registrationRepository{db: db, log: log},
		Comments:      &commentRepository{db: db, log: log},
		Notifications: &notificationRepository{db: db, log: log},
		db:            db,
	}, nil
}

// MigrateUp applies every *.up.sql file in the migrations directory in
// lexical order.
func (s *Store) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := s.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	return nil
}
