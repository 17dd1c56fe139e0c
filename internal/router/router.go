package router

import (
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	apperrors "authd/internal/errors"
	"authd/internal/handler"
	"authd/internal/service"
)

// Register wires routes and middleware.
func Register(e *echo.Echo, authService service.AuthService, authHandler *handler.AuthHandler) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.POST("/register", authHandler.Register)
	e.GET("/confirm/:token", authHandler.Confirm)
	e.POST("/login", authHandler.Login)

	// The whoami route accepts the session token from the login cookie or a
	// bearer header; authentication runs through the lifecycle service so
	// invalid, expired and orphaned tokens all map to the same 401.
	e.GET("/", authHandler.Whoami, echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:token,header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated)
			if jsonErr := c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse()); jsonErr != nil {
				return jsonErr
			}
			return httpErr
		},
	}))
}

// emailShapeRegexp is the local@domain.tld shape: non-whitespace segments
// around exactly one @, with at least one dot in the domain part.
var emailShapeRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the request validator with the email-shape rule registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShapeRegexp.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
