package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/push"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

type EventService struct {
	events repo.EventRepository
	push   push.Broadcaster
	log    *zerolog.Logger
}

func NewEventService(events repo.EventRepository, broadcaster push.Broadcaster, log *zerolog.Logger) *EventService {
	return &EventService{events: events, push: broadcaster, log: log}
}

func (s *EventService) Create(ctx context.Context, organizerID int64, req dto.CreateEventRequest) (*model.Event, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}

	event := &model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		OrganizerID: organizerID,
		Capacity:    req.Capacity,
		IsPremium:   req.IsPremium,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Status:      model.EventStatusDraft,
	}
	if req.Status != "" {
		event.Status = model.EventStatus(req.Status)
	}
	if event.Price == "" {
		event.Price = "0"
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if event.Status == model.EventStatusPublished {
		s.push.EmitToAll("event-created", event)
	}
	s.log.Info().Int64("event_id", event.ID).Int64("organizer_id", organizerID).Msg("event created")
	return event, nil
}

func (s *EventService) List(ctx context.Context, upcomingOnly bool) ([]model.EventWithOrganizer, error) {
	// Public listings only ever show published events.
	return s.events.List(ctx, repo.EventFilter{
		Status:       model.EventStatusPublished,
		UpcomingOnly: upcomingOnly,
	})
}

func (s *EventService) Get(ctx context.Context, id int64) (*model.EventWithOrganizer, error) {
	return s.events.GetDetail(ctx, id)
}

func (s *EventService) MyEvents(ctx context.Context, organizerID int64) ([]model.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

func (s *EventService) Update(ctx context.Context, id, userID int64, req dto.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != userID {
		return nil, ErrForbidden
	}

	wasPublished := event.Status == model.EventStatusPublished

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.IsPremium != nil {
		event.IsPremium = *req.IsPremium
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.ImageURL != nil {
		event.ImageURL = *req.ImageURL
	}
	if req.Status != nil {
		event.Status = model.EventStatus(*req.Status)
	}

	if !event.EndTime.After(event.StartTime) {
		return nil, ErrInvalidTimeRange
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	switch {
	case event.Status == model.EventStatusPublished && !wasPublished:
		s.push.EmitToAll("event-created", event)
	case event.Status == model.EventStatusPublished:
		s.push.EmitToAll("event-updated", event)
	}
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id, userID int64) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != userID {
		return ErrForbidden
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	s.log.Info().Int64("event_id", id).Msg("event deleted")
	return nil
}
