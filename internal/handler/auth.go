package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// AuthHandler serves the shared login used by every portal.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type sessionResp struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Token   string         `json:"token"`
	User    model.UserView `json:"user"`
}

// Login: verify credentials and return a token with the user profile.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResp{Success: true, Message: "Login successful", Token: s.Token, User: s.User.View()})
}

// Signup: create an account, mirror it into the directory and log it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Signup(ctx, service.SignupInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResp{Success: true, Message: "User created successfully", Token: s.Token, User: s.User.View()})
}

// Verify returns the principal resolved by the auth middleware.
func (h *AuthHandler) Verify(c echo.Context) error {
	p := middleware.Principal(c)
	if p == nil {
		return service.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": p.View()})
}
