package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

type CommentService struct {
	comments      repo.CommentRepository
	events        repo.EventRepository
	registrations repo.RegistrationRepository
	log           *zerolog.Logger
}

func NewCommentService(comments repo.CommentRepository, events repo.EventRepository, registrations repo.RegistrationRepository, log *zerolog.Logger) *CommentService {
	return &CommentService{comments: comments, events: events, registrations: registrations, log: log}
}

// Create stores a comment. Only users holding a confirmed registration for
// the event may comment, and only once.
func (s *CommentService) Create(ctx context.Context, userID, eventID int64, req dto.CreateCommentRequest) (*model.Comment, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	attended, err := s.registrations.HasConfirmed(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attendance: %w", err)
	}
	if !attended {
		return nil, ErrNotAttendee
	}

	exists, err := s.comments.ExistsByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing comment: %w", err)
	}
	if exists {
		return nil, ErrAlreadyCommented
	}

	comment := &model.Comment{
		UserID:  userID,
		EventID: eventID,
		Content: req.Content,
		Rating:  req.Rating,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListByEvent returns the event's comments newest first, with the average
// rating formatted to one decimal place.
func (s *CommentService) ListByEvent(ctx context.Context, eventID int64) (*dto.CommentsPage, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	var sum int
	for _, c := range comments {
		sum += c.Rating
	}
	avg := "0.0"
	if len(comments) > 0 {
		avg = strconv.FormatFloat(float64(sum)/float64(len(comments)), 'f', 1, 64)
	}

	return &dto.CommentsPage{
		Comments:      comments,
		AverageRating: avg,
		TotalComments: len(comments),
	}, nil
}

func (s *CommentService) Update(ctx context.Context, userID, commentID int64, req dto.CreateCommentRequest) (*model.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}
	return s.comments.Update(ctx, commentID, req.Content, req.Rating)
}

func (s *CommentService) Delete(ctx context.Context, userID, commentID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.comments.Delete(ctx, commentID)
}
