package api

import (
	"errors"
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/service"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/pkg/validator"
)

func (r *Routers) registerToEvent(c *ginext.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	resp, err := r.Registrations.Register(c.Request.Context(), userID(c), eventID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
		case errors.Is(err, repo.ErrEventNotPublished):
			dto.BadRequestError(c, dto.InvalidState, "Event is not open for registration")
		case errors.Is(err, repo.ErrEventFull):
			dto.ConflictError(c, dto.CapacityExceeded, "Event is full")
		case errors.Is(err, repo.ErrDuplicateRegistration):
			dto.ConflictError(c, dto.RegistrationDuplicate, "Already registered for this event")
		default:
			r.Log.Error().Err(err).Int64("event_id", eventID).Msg("failed to register to event")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessCreatedResponse(c, resp)
}

func (r *Routers) confirmPayment(c *ginext.Context) {
	registrationID, ok := pathID(c, "registrationId")
	if !ok {
		return
	}
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := r.Registrations.ConfirmPayment(c.Request.Context(), userID(c), registrationID, req.PaymentIntentID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrRegistrationNotFound):
			dto.NotFoundError(c, dto.RegistrationNotFound, "Registration not found")
		case errors.Is(err, service.ErrRegistrationCancelled):
			dto.ConflictError(c, dto.InvalidState, "Registration is cancelled")
		case errors.Is(err, service.ErrAlreadyConfirmed):
			dto.ConflictError(c, dto.InvalidState, "Registration is already confirmed")
		case errors.Is(err, service.ErrPaymentNotSucceeded):
			dto.BadRequestError(c, dto.PaymentNotSucceeded, "Payment has not succeeded")
		default:
			r.Log.Error().Err(err).Int64("registration_id", registrationID).Msg("failed to confirm payment")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, reg)
}

func (r *Routers) cancelRegistration(c *ginext.Context) {
	registrationID, ok := pathID(c, "registrationId")
	if !ok {
		return
	}
	reg, err := r.Registrations.Cancel(c.Request.Context(), userID(c), registrationID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.NotFoundError(c, dto.RegistrationNotFound, "Registration not found")
			return
		}
		r.Log.Error().Err(err).Int64("registration_id", registrationID).Msg("failed to cancel registration")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, reg)
}

func (r *Routers) eventAttendees(c *ginext.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	attendees, err := r.Registrations.EventAttendees(c.Request.Context(), userID(c), eventID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
		case errors.Is(err, service.ErrForbidden):
			dto.ForbiddenError(c, "Only the organizer can list attendees")
		default:
			r.Log.Error().Err(err).Int64("event_id", eventID).Msg("failed to list attendees")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, attendees)
}

func (r *Routers) myRegistrations(c *ginext.Context) {
	regs, err := r.Registrations.MyRegistrations(c.Request.Context(), userID(c))
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, regs)
}
