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

func (r *Routers) registerUser(c *ginext.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	resp, err := r.Auth.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			dto.ConflictError(c, dto.EmailTaken, "Email is already registered")
			return
		}
		r.Log.Error().Err(err).Msg("failed to register user")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessCreatedResponse(c, resp)
}

func (r *Routers) login(c *ginext.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(c, dto.ValidationError, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadRequestError(c, dto.ValidationError, fmt.Sprintf("%v", verr))
		return
	}

	resp, err := r.Auth.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			dto.ErrorResponse(c, 401, dto.Unauthorized, "Invalid email or password")
			return
		}
		r.Log.Error().Err(err).Msg("failed to log user in")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, resp)
}

func (r *Routers) profile(c *ginext.Context) {
	user, err := r.Auth.Profile(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			dto.NotFoundError(c, dto.UserNotFound, "User not found")
			return
		}
		r.Log.Error().Err(err).Msg("failed to load profile")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, user)
}
