// Package consumerWorker expires unpaid registrations. The delayed message
// published at registration time arrives here once the payment timeout has
// elapsed; if the registration is still pending and unpaid it gets cancelled
// and the user is told.
package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/mailer"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/push"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/rabbit"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

type Reader struct {
	rmq    *rabbit.Client
	store  *repo.Store
	mail   mailer.Mailer
	push   push.Broadcaster
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, store *repo.Store, mail mailer.Mailer, broadcaster push.Broadcaster) *Reader {
	return &Reader{
		rmq:   rmq,
		store: store,
		mail:  mail,
		push:  broadcaster,
		done:  make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("payment timeout worker started")

	go func() {
		defer close(r.done)

		if err := r.rmq.Consume(func(body []byte) error {
			return r.handle(cctx, body)
		}); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("payment timeout worker stopped")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Reader) handle(ctx context.Context, body []byte) error {
	var msg dto.RegistrationExpiryMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().Err(err).Msgf("failed to unmarshal expiry message: %s", string(body))
		// Malformed payloads would loop forever on requeue.
		return nil
	}

	zlog.Logger.Info().
		Int64("registration_id", msg.RegistrationID).
		Int64("event_id", msg.EventID).
		Msg("payment timeout message received")

	cancelled, err := r.store.Registrations.CancelIfPendingUnpaidTx(ctx, msg.RegistrationID)
	if err != nil {
		if err == repo.ErrRegistrationNotFound {
			return nil
		}
		zlog.Logger.Error().Err(err).
			Int64("registration_id", msg.RegistrationID).
			Msg("failed to expire registration")
		return err
	}
	if !cancelled {
		zlog.Logger.Info().
			Int64("registration_id", msg.RegistrationID).
			Msg("registration already confirmed or cancelled, skipping")
		return nil
	}

	// Everything past the cancellation is best effort.
	reg, err := r.store.Registrations.GetByID(ctx, msg.RegistrationID)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Int64("registration_id", msg.RegistrationID).
			Msg("failed to load expired registration")
		return nil
	}

	event, err := r.store.Events.GetByID(ctx, reg.EventID)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Int64("event_id", reg.EventID).
			Msg("failed to load event for expired registration")
		return nil
	}

	user, err := r.store.Users.GetByID(ctx, reg.UserID)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Int64("user_id", reg.UserID).
			Msg("failed to load user for expired registration")
		return nil
	}

	if err := r.mail.SendRegistrationExpired(user.Email, event.Title); err != nil {
		zlog.Logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send expiry email")
	}

	if err := r.store.Notifications.Create(ctx, &model.Notification{
		UserID:  user.ID,
		Title:   "Registration expired",
		Message: "Your registration for \"" + event.Title + "\" was cancelled because the payment was not completed in time.",
		EventID: &event.ID,
	}); err != nil {
		zlog.Logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to store expiry notification")
	}

	r.push.EmitToUser(user.ID, "registration-expired", reg)

	zlog.Logger.Info().
		Int64("registration_id", reg.ID).
		Str("email", user.Email).
		Msg("unpaid registration expired")
	return nil
}
