package books

import (
	"github.com/labstack/echo/v4"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/reservations"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// Browsing is public, with the viewer's wishlist overlaid when signed in;
// everything that changes a book needs a session.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, store *catalog.Store, dialect csvbooks.Dialect, authMiddleware *auth.Middleware) {
	h := &handler{
		catalog:        store,
		workflow:       reservations.NewWorkflow(store),
		backendService: backend.NewService(db),
		dialect:        dialect,
	}

	viewer := authMiddleware.AuthenticateOptional
	signedIn := authMiddleware.Authenticate
	staff := authMiddleware.RequireRole(models.RoleLibrarian, models.RoleAdmin)

	g.GET("", h.list, viewer)
	g.GET("/genres", h.genres)
	g.GET("/:id", h.retrieve, viewer)

	g.POST("/:id/reservation", h.requestReservation, signedIn)
	g.DELETE("/:id/reservation", h.cancelReservation, signedIn)
	g.POST("/:id/reservation/approve", h.approveReservation, signedIn, staff)
	g.PUT("/:id/wishlist", h.updateWishlist, signedIn)

	g.PATCH("/:id/copies", h.updateCopies, signedIn, staff)
	g.POST("/:id/issue", h.issue, signedIn, staff)
	g.POST("/import", h.importBooks, signedIn, staff)
}

// RegisterReservationRoutes registers the signed-in member's reservation list.
func RegisterReservationRoutes(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		backendService: backend.NewService(db),
	}

	g.GET("", h.listReservations, authMiddleware.Authenticate)
}
