package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"campus/internal/errors"
	"campus/internal/middleware"
	"campus/internal/model"
	"campus/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request. ADMIN users are created by the seed command.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Role       string `json:"role" validate:"required,oneof=STUDENT FACULTY"`
	StudentID  string `json:"studentId" validate:"required_if=Role STUDENT,max=64"`
	EmployeeID string `json:"employeeId" validate:"required_if=Role FACULTY,max=64"`
	Section    string `json:"section" validate:"max=32"`
	Year       int    `json:"year" validate:"omitempty,min=1,max=10"`
}

// LoginRequest represents a user login request. Identifier is an email, student number or employee number.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Role       model.Role `json:"role"`
	StudentID  *string    `json:"studentId,omitempty"`
	EmployeeID *string    `json:"employeeId,omitempty"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// LogoutAllResponse reports how many sessions were closed.
type LogoutAllResponse struct {
	Message  string `json:"message"`
	Sessions int64  `json:"sessions"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		StudentID:  u.StudentID,
		EmployeeID: u.EmployeeID,
	}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       model.Role(req.Role),
		StudentID:  req.StudentID,
		EmployeeID: req.EmployeeID,
		Section:    req.Section,
		Year:       req.Year,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Logout godoc
// @Summary Logout the current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Unauthorized()
	}

	if err := h.authService.Logout(c.Request().Context(), p.Token); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// LogoutAll godoc
// @Summary Logout every session of the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} LogoutAllResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Unauthorized()
	}

	n, err := h.authService.LogoutAll(c.Request().Context(), p.User.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, LogoutAllResponse{
		Message:  "logged out from all sessions",
		Sessions: n,
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Unauthorized()
	}
	return c.JSON(http.StatusOK, toUserResponse(p.User))
}

// bindAndValidate decodes the body into req and runs the validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}
	return nil
}

// httpError maps a service error to an ErrorResponse body.
func httpError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// parseUUID reads a uuid path parameter.
func parseUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

// parseOptionalUUID reads an optional uuid query parameter.
func parseOptionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
		})
	}
	return &id, nil
}
