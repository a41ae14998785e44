package announcements

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

type handler struct {
	backendService *backend.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAnnouncementsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	announcements, err := h.backendService.ListAnnouncements(ctx, params.Limit)
	if err != nil {
		return backend.UserError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, announcements))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateAnnouncementPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	announcement := &models.Announcement{
		Title:   params.Title,
		Content: params.Content,
	}
	if params.Date != nil {
		date, err := time.Parse(time.DateOnly, *params.Date)
		if err != nil {
			return errcodes.ValidationError(`"date" is not a valid date`)
		}
		announcement.Date = date
	}

	if err := h.backendService.CreateAnnouncement(ctx, announcement); err != nil {
		return backend.UserError(err)
	}

	logger.FromContext(c.Request().Context()).Info("announcement posted", logger.Data{"announcement_id": announcement.ID})
	return errors.WithStack(c.JSON(http.StatusCreated, announcement))
}
