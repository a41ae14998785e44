package testutils

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" default:"Member" validate:"oneof=Member Librarian Admin"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// createUser creates a test user with any role, skipping the signup rules.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.CreateUser(ctx, auth.CreateUserOptions{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}))
}

// deleteAllUsersResponse is the response body for deleting all users.
type deleteAllUsersResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes every user along with their loans, reservations and
// wishlists.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	var deleted int64
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{(*models.WishlistItem)(nil), (*models.Reservation)(nil), (*models.IssuedBook)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("1=1").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		result, err := tx.NewDelete().Model((*models.User)(nil)).Where("1=1").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	return errors.WithStack(c.JSON(http.StatusOK, deleteAllUsersResponse{
		Deleted: int(deleted),
	}))
}
