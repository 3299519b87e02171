// Package api wires the HTTP surface: route groups, middleware and the
// websocket upgrade endpoint.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/cmd/middleware"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/push"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/service"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/pkg/auth"
)

type Routers struct {
	Auth          *service.AuthService
	Events        *service.EventService
	Registrations *service.RegistrationService
	Comments      *service.CommentService
	Notifications *service.NotificationService

	Hub    *push.Hub
	Tokens *auth.TokenManager
	Log    *zerolog.Logger
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/health", func(c *ginext.Context) {
		dto.SuccessResponse(c, map[string]string{"status": "up"})
	})
	app.GET("/ws", r.serveWS)

	authed := middleware.Auth(r.Tokens)
	apiGroup := app.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", r.registerUser)
	authGroup.POST("/login", r.login)
	authGroup.GET("/profile", authed, r.profile)

	events := apiGroup.Group("/events")
	events.GET("", r.listEvents)
	events.GET("/:id", r.getEvent)
	events.POST("", authed, r.createEvent)
	events.GET("/my-events", authed, r.myEvents)
	events.PUT("/:id", authed, r.updateEvent)
	events.DELETE("/:id", authed, r.deleteEvent)

	regs := apiGroup.Group("/registrations", authed)
	regs.POST("/event/:eventId", r.registerToEvent)
	regs.POST("/:registrationId/confirm-payment", r.confirmPayment)
	regs.PUT("/:registrationId/cancel", r.cancelRegistration)
	regs.GET("/event/:eventId/attendees", r.eventAttendees)
	regs.GET("/my-registrations", r.myRegistrations)

	comments := apiGroup.Group("/comments")
	comments.GET("/event/:eventId", r.listComments)
	comments.POST("/event/:eventId", authed, r.createComment)
	comments.PUT("/:commentId", authed, r.updateComment)
	comments.DELETE("/:commentId", authed, r.deleteComment)

	notifications := apiGroup.Group("/notifications", authed)
	notifications.GET("", r.listNotifications)
	notifications.PUT("/:id/read", r.markNotificationRead)
	notifications.PUT("/read-all", r.markAllNotificationsRead)
	notifications.DELETE("/:id", r.deleteNotification)

	return app
}

// serveWS authenticates the upgrade itself: browsers cannot attach headers to
// a websocket handshake, so the token also travels as a query parameter.
func (r *Routers) serveWS(c *ginext.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	claims, err := r.Tokens.Parse(token)
	if err != nil {
		dto.UnauthorizedError(c)
		return
	}
	r.Hub.ServeWS(c.Writer, c.Request, claims.UserID)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
