package members

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
)

type handler struct {
	memberService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListMembersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	roster := NewRoster(h.memberService)
	defer roster.Close()

	select {
	case <-roster.Refresh(ctx, ListMembersOptions{Search: params.Search}):
	case <-ctx.Done():
		logger.FromContext(c.Request().Context()).Info("member list request went away before the load finished")
		return errors.WithStack(ctx.Err())
	}

	snap := roster.Snapshot()
	if snap.Err != nil {
		return errors.WithStack(snap.Err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListMembersResponse{
		Members: snap.Data,
		Message: snap.Message,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	member, err := h.memberService.RetrieveMember(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, member))
}

func (h *handler) extend(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	member, err := h.memberService.ExtendMembership(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(c.Request().Context()).Info("membership extended", logger.Data{"user_id": id, "expires_at": member.ExpiresAt})
	return errors.WithStack(c.JSON(http.StatusOK, member))
}

func (h *handler) revoke(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	member, err := h.memberService.RevokeMembership(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(c.Request().Context()).Info("membership revoked", logger.Data{"user_id": id})
	return errors.WithStack(c.JSON(http.StatusOK, member))
}

func (h *handler) dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	d, err := h.memberService.Dashboard(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, d))
}
