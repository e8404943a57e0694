package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/echoshop/pkg/middleware/logging"
)

type Options struct {
	// AllowOrigin is the storefront origin allowed by CORS. Empty allows any.
	AllowOrigin string
	BodyLimit   string
}

// New builds the echo instance with the shared middleware chain and every
// route registered.
func New(logger *slog.Logger, opts Options, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())

	cors := echomw.DefaultCORSConfig
	if opts.AllowOrigin != "" {
		cors.AllowOrigins = []string{opts.AllowOrigin}
		cors.AllowCredentials = true
	}
	e.Use(echomw.CORSWithConfig(cors))

	limit := opts.BodyLimit
	if limit == "" {
		limit = "10M"
	}
	e.Use(echomw.BodyLimit(limit))

	Register(e, d)
	return e
}
