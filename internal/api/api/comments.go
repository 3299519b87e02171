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

func (r *Routers) createComment(c *ginext.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	comment, err := r.Comments.Create(c.Request.Context(), userID(c), eventID, req)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
		case errors.Is(err, service.ErrNotAttendee):
			dto.ForbiddenError(c, "Only confirmed attendees can comment")
		case errors.Is(err, service.ErrAlreadyCommented):
			dto.ConflictError(c, dto.CommentDuplicate, "You already commented on this event")
		default:
			r.Log.Error().Err(err).Int64("event_id", eventID).Msg("failed to create comment")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessCreatedResponse(c, comment)
}

func (r *Routers) listComments(c *ginext.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	page, err := r.Comments.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.NotFoundError(c, dto.EventNotFound, "Event not found")
			return
		}
		r.Log.Error().Err(err).Int64("event_id", eventID).Msg("failed to list comments")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, page)
}

func (r *Routers) updateComment(c *ginext.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	comment, err := r.Comments.Update(c.Request.Context(), userID(c), commentID, req)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrCommentNotFound):
			dto.NotFoundError(c, dto.CommentNotFound, "Comment not found")
		case errors.Is(err, service.ErrForbidden):
			dto.ForbiddenError(c, "Only the author can update this comment")
		default:
			r.Log.Error().Err(err).Int64("comment_id", commentID).Msg("failed to update comment")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, comment)
}

func (r *Routers) deleteComment(c *ginext.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	if err := r.Comments.Delete(c.Request.Context(), userID(c), commentID); err != nil {
		switch {
		case errors.Is(err, repo.ErrCommentNotFound):
			dto.NotFoundError(c, dto.CommentNotFound, "Comment not found")
		case errors.Is(err, service.ErrForbidden):
			dto.ForbiddenError(c, "Only the author can delete this comment")
		default:
			r.Log.Error().Err(err).Int64("comment_id", commentID).Msg("failed to delete comment")
			dto.InternalServerError(c)
		}
		return
	}
	dto.SuccessResponse(c, map[string]string{"message": "Comment deleted"})
}
