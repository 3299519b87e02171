package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
)

const (
	ValidationError    = "VALIDATION_ERROR"
	Unauthorized       = "UNAUTHORIZED"
	Forbidden          = "FORBIDDEN"
	InvalidState       = "INVALID_STATE"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalErrorDesc  = "Service is currently unavailable. Please try again later."

	UserNotFound         = "USER_NOT_FOUND"
	EventNotFound        = "EVENT_NOT_FOUND"
	RegistrationNotFound = "REGISTRATION_NOT_FOUND"
	CommentNotFound      = "COMMENT_NOT_FOUND"
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	EmailTaken            = "EMAIL_TAKEN"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	CommentDuplicate      = "COMMENT_DUPLICATE"
	CapacityExceeded      = "CAPACITY_EXCEEDED"
	PaymentNotSucceeded   = "PAYMENT_NOT_SUCCEEDED"
)

type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"required,min=10"`
	Location    string    `json:"location" validate:"required,min=3,max=255"`
	StartTime   time.Time `json:"start_time" validate:"required,future"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,positive"`
	IsPremium   bool      `json:"is_premium"`
	Price       string    `json:"price" validate:"omitempty,price"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	Status      string    `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty,min=10"`
	Location    *string    `json:"location" validate:"omitempty,min=3,max=255"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *int       `json:"capacity" validate:"omitempty,positive"`
	IsPremium   *bool      `json:"is_premium"`
	Price       *string    `json:"price" validate:"omitempty,price"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=10"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// RegistrationCreated carries the new registration plus the client secret the
// frontend needs to complete a pending payment. ClientSecret is empty on the
// free path.
type RegistrationCreated struct {
	Registration *model.Registration `json:"registration"`
	ClientSecret string              `json:"client_secret,omitempty"`
}

type CommentsPage struct {
	Comments      []model.CommentWithUser `json:"comments"`
	AverageRating string                  `json:"average_rating"`
	TotalComments int                     `json:"total_comments"`
}

type NotificationsPage struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

// RegistrationExpiryMessage is the delayed queue payload that triggers the
// payment-timeout cancellation of a pending registration.
type RegistrationExpiryMessage struct {
	RegistrationID int64     `json:"registration_id"`
	EventID        int64     `json:"event_id"`
	ExpireAt       time.Time `json:"expire_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func ErrorResponse(c *ginext.Context, httpStatus int, code, desc string) {
	c.JSON(httpStatus, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadRequestError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 400, code, desc)
}

func UnauthorizedError(c *ginext.Context) {
	ErrorResponse(c, 401, Unauthorized, "Authentication required")
}

func ForbiddenError(c *ginext.Context, desc string) {
	ErrorResponse(c, 403, Forbidden, desc)
}

func NotFoundError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 404, code, desc)
}

func ConflictError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 409, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, 500, ServiceUnavailable, InternalErrorDesc)
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
