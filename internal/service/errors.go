// Package service holds the business workflows between the HTTP handlers and
// the store. Services return sentinel errors; the handlers translate them to
// response codes. Repositories and collaborators come in as interfaces so the
// workflows are testable without Postgres, Stripe, SMTP or RabbitMQ.
package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")

	ErrForbidden        = errors.New("operation not allowed for this user")
	ErrInvalidTimeRange = errors.New("event end time must be after start time")

	ErrAlreadyConfirmed      = errors.New("registration is already confirmed")
	ErrRegistrationCancelled = errors.New("registration is cancelled")
	ErrPaymentNotSucceeded   = errors.New("payment has not succeeded")

	ErrNotAttendee      = errors.New("only confirmed attendees can comment")
	ErrAlreadyCommented = errors.New("user already commented on this event")
)
