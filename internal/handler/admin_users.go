package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// AdminUsersHandler exposes account management for the admin console.
type AdminUsersHandler struct {
	Users *service.AdminUsers
}

func NewAdminUsersHandler(u *service.AdminUsers) *AdminUsersHandler {
	return &AdminUsersHandler{Users: u}
}

type adminUserReq struct {
	Name     *string  `json:"name"`
	Email    *string  `json:"email"`
	Password *string  `json:"password"`
	Active   *bool    `json:"active"`
	Portals  []string `json:"portals"`
	Role     *string  `json:"role"`
}

func (r adminUserReq) input() service.AdminUserInput {
	return service.AdminUserInput{Name: r.Name, Email: r.Email, Password: r.Password, Active: r.Active, Portals: r.Portals, Role: r.Role}
}

func views(users []*model.User) []model.UserView {
	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}

func (h *AdminUsersHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": views(users)})
}

func (h *AdminUsersHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, middleware.Principal(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u.View()})
}

func (h *AdminUsersHandler) Create(c echo.Context) error {
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, middleware.Principal(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "User created successfully", "user": u.View()})
}

func (h *AdminUsersHandler) Update(c echo.Context) error {
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, middleware.Principal(c), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User updated successfully", "user": u.View()})
}

// Delete deactivates the account; the record is kept.
func (h *AdminUsersHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Deactivate(ctx, middleware.Principal(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *AdminUsersHandler) ToggleActive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Users.ToggleActive(ctx, middleware.Principal(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User status updated successfully",
		"active":  st.Active(),
		"status":  st,
	})
}

func (h *AdminUsersHandler) SetPortals(c echo.Context) error {
	var req struct {
		Portals []string `json:"portals"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.SetPortals(ctx, middleware.Principal(c), c.Param("id"), req.Portals)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User portals updated successfully", "user": u.View()})
}
