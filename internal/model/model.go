package model

import (
	"math"
	"strconv"
	"time"
)

type AuthProvider string

const (
	AuthProviderLocal    AuthProvider = "local"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

type User struct {
	ID           int64        `db:"id" json:"id"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Name         string       `db:"name" json:"name"`
	Avatar       string       `db:"avatar,omitempty" json:"avatar,omitempty"`
	AuthProvider AuthProvider `db:"auth_provider" json:"auth_provider"`
	ProviderID   string       `db:"provider_id,omitempty" json:"-"`
	IsVerified   bool         `db:"is_verified" json:"is_verified"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID          int64       `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	Location    string      `db:"location" json:"location"`
	StartTime   time.Time   `db:"start_time" json:"start_time"`
	EndTime     time.Time   `db:"end_time" json:"end_time"`
	OrganizerID int64       `db:"organizer_id" json:"organizer_id"`
	Capacity    int         `db:"capacity" json:"capacity"`
	IsPremium   bool        `db:"is_premium" json:"is_premium"`
	Price       string      `db:"price" json:"price"`
	ImageURL    string      `db:"image_url,omitempty" json:"image_url,omitempty"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// PriceCents converts the decimal price string to integer cents, the unit the
// payment provider bills in. An empty price counts as zero.
func (e *Event) PriceCents() (int64, error) {
	if e.Price == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(e.Price, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

// RequiresPayment reports whether registering for the event goes through the
// payment branch. Free and non-premium events confirm immediately.
func (e *Event) RequiresPayment() bool {
	cents, err := e.PriceCents()
	if err != nil {
		return false
	}
	return e.IsPremium && cents > 0
}

type Registration struct {
	ID              int64              `db:"id" json:"id"`
	UserID          int64              `db:"user_id" json:"user_id"`
	EventID         int64              `db:"event_id" json:"event_id"`
	Status          RegistrationStatus `db:"status" json:"status"`
	PaymentIntentID string             `db:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	IsPaid          bool               `db:"is_paid" json:"is_paid"`
	TicketCode      string             `db:"ticket_code" json:"ticket_code"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

type Comment struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	Content   string    `db:"content" json:"content"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	EventID   *int64    `db:"event_id,omitempty" json:"event_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserSummary is the public slice of a user embedded in joined reads.
type UserSummary struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email,omitempty" json:"email,omitempty"`
	Avatar string `db:"avatar,omitempty" json:"avatar,omitempty"`
}

// EventSummary is the slice of an event attached to a user's registrations.
type EventSummary struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Location  string    `db:"location" json:"location"`
	StartTime time.Time `db:"start_time" json:"start_time"`
}

// RegistrationWithEvent is a registration joined with its event summary,
// returned by the my-registrations listing.
type RegistrationWithEvent struct {
	Registration
	Event EventSummary `json:"event"`
}

// Attendee is a registration joined with its user summary, returned by the
// organizer-only attendee listing.
type Attendee struct {
	Registration
	User UserSummary `json:"user"`
}

// CommentWithUser is a comment joined with its author summary.
type CommentWithUser struct {
	Comment
	User UserSummary `json:"user"`
}

// EventWithOrganizer is an event joined with its organizer summary plus
// occupancy figures for the public detail view.
type EventWithOrganizer struct {
	Event
	Organizer       UserSummary `json:"organizer"`
	RegisteredCount int         `json:"registered_count"`
	AvailableSpots  int         `json:"available_spots"`
}
