package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/mailer"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/payment"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/push"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/rabbit"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

type RegistrationService struct {
	events        repo.EventRepository
	registrations repo.RegistrationRepository
	users         repo.UserRepository
	notifications repo.NotificationRepository

	payments       payment.Provider
	mail           mailer.Mailer
	push           push.Broadcaster
	queue          rabbit.Publisher
	paymentTimeout time.Duration

	log *zerolog.Logger
}

func NewRegistrationService(
	store *repo.Store,
	payments payment.Provider,
	mail mailer.Mailer,
	broadcaster push.Broadcaster,
	queue rabbit.Publisher,
	paymentTimeout time.Duration,
	log *zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		events:         store.Events,
		registrations:  store.Registrations,
		users:          store.Users,
		notifications:  store.Notifications,
		payments:       payments,
		mail:           mail,
		push:           broadcaster,
		queue:          queue,
		paymentTimeout: paymentTimeout,
		log:            log,
	}
}

// Register signs userID up for eventID. Free events confirm immediately;
// premium events create a single payment intent up front and insert the
// registration as pending. The insert itself runs as one transaction in the
// store, so capacity and the one-registration-per-user rule hold under
// concurrent requests.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID int64) (*dto.RegistrationCreated, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusPublished {
		return nil, repo.ErrEventNotPublished
	}

	reg := &model.Registration{
		UserID:     userID,
		EventID:    eventID,
		TicketCode: uuid.NewString(),
	}

	var intent *payment.Intent
	if event.RequiresPayment() {
		cents, err := event.PriceCents()
		if err != nil {
			return nil, fmt.Errorf("invalid event price: %w", err)
		}
		// One intent per registration attempt. If the insert below fails the
		// intent is simply never confirmed.
		intent, err = s.payments.CreateIntent(ctx, cents, eventID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}
		reg.Status = model.RegistrationStatusPending
		reg.PaymentIntentID = intent.ID
	} else {
		reg.Status = model.RegistrationStatusConfirmed
		reg.IsPaid = true
	}

	if err := s.registrations.RegisterTx(ctx, reg); err != nil {
		return nil, err
	}

	resp := &dto.RegistrationCreated{Registration: reg}
	if intent != nil {
		resp.ClientSecret = intent.ClientSecret

		msg, err := json.Marshal(dto.RegistrationExpiryMessage{
			RegistrationID: reg.ID,
			EventID:        eventID,
			ExpireAt:       time.Now().Add(s.paymentTimeout),
		})
		if err == nil {
			if err := s.queue.Publish(msg, int(s.paymentTimeout.Seconds())); err != nil {
				s.log.Error().Err(err).Int64("registration_id", reg.ID).
					Msg("failed to schedule payment timeout")
			}
		}
		return resp, nil
	}

	s.confirmSideEffects(ctx, userID, event, reg, false)
	return resp, nil
}

// ConfirmPayment moves a pending registration to confirmed after verifying
// with the payment provider that the intent actually succeeded. The caller's
// word alone is never enough to flip is_paid.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, userID, registrationID int64, paymentIntentID string) (*model.Registration, error) {
	reg, err := s.registrations.GetByIDAndUser(ctx, registrationID, userID)
	if err != nil {
		return nil, err
	}

	switch reg.Status {
	case model.RegistrationStatusCancelled:
		return nil, ErrRegistrationCancelled
	case model.RegistrationStatusConfirmed:
		return nil, ErrAlreadyConfirmed
	}
	if reg.PaymentIntentID != "" && reg.PaymentIntentID != paymentIntentID {
		return nil, ErrPaymentNotSucceeded
	}

	succeeded, err := s.payments.IntentSucceeded(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment intent: %w", err)
	}
	if !succeeded {
		return nil, ErrPaymentNotSucceeded
	}

	confirmed, err := s.registrations.Confirm(ctx, registrationID, paymentIntentID)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, confirmed.EventID)
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", confirmed.EventID).
			Msg("failed to load event for payment side effects")
		return confirmed, nil
	}
	s.confirmSideEffects(ctx, userID, event, confirmed, true)
	return confirmed, nil
}

// Cancel sets the caller's registration to cancelled. Cancelling an already
// cancelled registration is a no-op; there is no way back out of cancelled.
func (s *RegistrationService) Cancel(ctx context.Context, userID, registrationID int64) (*model.Registration, error) {
	reg, err := s.registrations.GetByIDAndUser(ctx, registrationID, userID)
	if err != nil {
		return nil, err
	}
	if reg.Status == model.RegistrationStatusCancelled {
		return reg, nil
	}
	cancelled, err := s.registrations.Cancel(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("registration_id", registrationID).Int64("user_id", userID).
		Msg("registration cancelled")
	return cancelled, nil
}

func (s *RegistrationService) MyRegistrations(ctx context.Context, userID int64) ([]model.RegistrationWithEvent, error) {
	return s.registrations.ListByUser(ctx, userID)
}

// EventAttendees lists registrations for an event. Only the organizer may
// see who registered.
func (s *RegistrationService) EventAttendees(ctx context.Context, userID, eventID int64) ([]model.Attendee, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != userID {
		return nil, ErrForbidden
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// confirmSideEffects sends the email, stores the notification row and pushes
// the realtime event for a freshly confirmed registration. Failures are
// logged and never undo the confirmation.
func (s *RegistrationService) confirmSideEffects(ctx context.Context, userID int64, event *model.Event, reg *model.Registration, paid bool) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user for side effects")
		return
	}

	title := "Registration confirmed"
	message := fmt.Sprintf("You are registered for %q.", event.Title)
	pushEvent := "registration-confirmed"
	if paid {
		title = "Payment confirmed"
		message = fmt.Sprintf("Your payment for %q was received. See you there!", event.Title)
		pushEvent = "payment-confirmed"
		if err := s.mail.SendPaymentConfirmation(user.Email, event.Title, event.Price); err != nil {
			s.log.Warn().Err(err).Str("email", user.Email).Msg("failed to send payment confirmation")
		}
	} else {
		if err := s.mail.SendRegistrationConfirmation(user.Email, event.Title, event.StartTime); err != nil {
			s.log.Warn().Err(err).Str("email", user.Email).Msg("failed to send registration confirmation")
		}
	}

	if err := s.notifications.Create(ctx, &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		EventID: &event.ID,
	}); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to store notification")
	}

	s.push.EmitToUser(userID, pushEvent, reg)
}
