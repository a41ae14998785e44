package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/announcements"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/binder"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/books"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/config"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/members"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/testutils"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, store *catalog.Store) (*http.Server, error) {
	e, err := newEcho(cfg, db, store)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, store *catalog.Store) (*echo.Echo, error) {
	dialect, err := csvbooks.ParseDialect(cfg.DatasetDialect)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authMiddleware := auth.RegisterRoutes(e, db, cfg.JWTSecret)

	books.RegisterRoutesWithGroup(e.Group("/books"), db, store, dialect, authMiddleware)
	books.RegisterReservationRoutes(e.Group("/reservations"), db, authMiddleware)
	announcements.RegisterRoutesWithGroup(e.Group("/announcements"), db, authMiddleware)

	membersGroup := e.Group("/members")
	membersGroup.Use(authMiddleware.Authenticate)
	members.RegisterRoutesWithGroup(membersGroup, db, authMiddleware)

	dashboardGroup := e.Group("/dashboard")
	dashboardGroup.Use(authMiddleware.Authenticate)
	members.RegisterDashboardRoutes(dashboardGroup, db, authMiddleware)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db, authMiddleware.Service())
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
