package announcements

import (
	"github.com/labstack/echo/v4"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers announcement routes. Anyone can read the
// board; only admins post to it.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		backendService: backend.NewService(db),
	}

	g.GET("", h.list)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireRole(models.RoleAdmin))
}
