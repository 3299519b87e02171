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

func (r *Routers) createEvent(c *ginext.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	event, err := r.Events.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeRange) {
			dto.BadRequestError(c, dto.ValidationError, err.Error())
			return
		}
		r.Log.Error().Err(err).Msg("failed to create event")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessCreatedResponse(c, event)
}

func (r *Routers) listEvents(c *ginext.Context) {
	upcoming := c.Query("upcoming") == "true"
	events, err := r.Events.List(c.Request.Context(), upcoming)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, events)
}

func (r *Routers) getEvent(c *ginext.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	event, err := r.Events.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
			return
		}
		r.Log.Error().Err(err).Int64("event_id", id).Msg("failed to load event")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, event)
}

func (r *Routers) myEvents(c *ginext.Context) {
	events, err := r.Events.MyEvents(c.Request.Context(), userID(c))
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to list organizer events")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, events)
}

func (r *Routers) updateEvent(c *ginext.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	event, err := r.Events.Update(c.Request.Context(), id, userID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
		case errors.Is(err, service.ErrForbidden):
			dto.ForbiddenError(c, "Only the organizer can update this event")
		case errors.Is(err, service.ErrInvalidTimeRange):
			dto.BadRequestError(c, dto.ValidationError, err.Error())
		default:
			r.Log.Error().Err(err).Int64("event_id", id).Msg("failed to update event")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, event)
}

func (r *Routers) deleteEvent(c *ginext.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.Events.Delete(c.Request.Context(), id, userID(c)); err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
		case errors.Is(err, service.ErrForbidden):
			dto.ForbiddenError(c, "Only the organizer can delete this event")
		default:
			r.Log.Error().Err(err).Int64("event_id", id).Msg("failed to delete event")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, map[string]string{"message": "Event deleted"})
}
