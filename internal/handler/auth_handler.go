package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "authd/internal/errors"
	"authd/internal/model"
	"authd/internal/service"
)

// AuthHandler handles the account lifecycle endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CredentialsRequest is the body of both /register and /login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,min=5,max=120,emailshape"`
	Password string `json:"password" validate:"required,min=5,max=120"`
}

// MessageResponse is a plain informational response body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries the session token issued on login.
type TokenResponse struct {
	Token string `json:"token"`
}

// WhoamiResponse reports the identity behind a valid session token.
type WhoamiResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// Register godoc
// @Summary Register an account, or reset the password of an unconfirmed one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ValidationErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBodyResponse)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.NewValidationErrorResponse(fieldErrors(err)))
	}

	if err := h.authService.Register(c.Request().Context(), req.Email, req.Password); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Email confirmation link is sent"})
}

// Confirm godoc
// @Summary Confirm ownership of an email address
// @Tags auth
// @Produce json
// @Param token path string true "Confirmation token"
// @Success 201 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /confirm/{token} [get]
func (h *AuthHandler) Confirm(c echo.Context) error {
	if err := h.authService.Confirm(c.Request().Context(), c.Param("token")); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Email is confirmed"})
}

// Login godoc
// @Summary Log in with a confirmed account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBodyResponse)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.NewValidationErrorResponse(fieldErrors(err)))
	}

	sessionToken, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, TokenResponse{Token: sessionToken})
}

// Whoami godoc
// @Summary Report the identity behind the presented session token
// @Tags auth
// @Produce json
// @Success 200 {object} WhoamiResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router / [get]
func (h *AuthHandler) Whoami(c echo.Context) error {
	account, ok := c.Get("user").(*model.Account)
	if !ok {
		httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated)
		return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, WhoamiResponse{Message: "Welcome!", Email: account.Email})
}

var invalidBodyResponse = apperrors.ErrorResponse{
	Error: "Request body must be valid JSON",
	Code:  "INVALID_BODY",
}

// fieldErrors flattens validator failures into the {property, message} pairs
// the API exposes.
func fieldErrors(err error) []apperrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperrors.FieldError{{Property: "", Message: "is invalid"}}
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Property: strings.ToLower(fe.Field()),
			Message:  fieldMessage(fe),
		})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "emailshape":
		return "Incorrect format"
	default:
		return "is invalid"
	}
}
