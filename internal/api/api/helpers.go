package api

import (
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/cmd/middleware"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
)

// userID returns the caller id stored by the auth middleware. Routes using it
// are always behind that middleware, so a zero value never reaches a service.
func userID(c *ginext.Context) int64 {
	v, _ := c.Get(middleware.UserIDKey)
	id, _ := v.(int64)
	return id
}

// pathID parses a positive integer path parameter. On failure it writes the
// error response and returns false.
func pathID(c *ginext.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		dto.BadRequestError(c, dto.ValidationError, "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}
