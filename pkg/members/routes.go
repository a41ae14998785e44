package members

import (
	"github.com/labstack/echo/v4"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers member routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		memberService: NewService(db, backend.NewService(db)),
	}

	staff := authMiddleware.RequireRole(models.RoleLibrarian, models.RoleAdmin)

	g.GET("", h.list, staff)
	g.GET("/:id", h.retrieve, staff)
	g.POST("/:id/extend", h.extend, staff)
	g.POST("/:id/revoke", h.revoke, staff)
}

// RegisterDashboardRoutes registers the admin dashboard.
func RegisterDashboardRoutes(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		memberService: NewService(db, backend.NewService(db)),
	}

	g.GET("", h.dashboard, authMiddleware.RequireRole(models.RoleAdmin))
}
