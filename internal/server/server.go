// Package server exposes the transfer trigger over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// uploadField is the multipart field the upload endpoint reads.
const uploadField = "file"

// Forwarder is what the handlers drive.
type Forwarder interface {
	Run(ctx context.Context) domain.Result
	Drop(name string, r io.Reader) (string, error)
}

// Server serves the trigger, upload and health endpoints.
type Server struct {
	echo      *echo.Echo
	forwarder Forwarder
	logger    ports.Logger
}

// New creates a server with routes registered.
func New(f Forwarder, logger ports.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, forwarder: f, logger: logger}
	s.RegisterRoutes(e)
	return s
}

// RegisterRoutes registers all routes on e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.HandleHealth)
	e.POST("/transfer/", s.HandleTransfer)
	e.POST("/transfer/upload/", s.HandleUpload)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", ports.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones up to timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleTransfer runs one scan. Success answers 200 and failure 424, both
// with an empty body. A trigger while a run is active answers 409.
func (s *Server) HandleTransfer(c echo.Context) error {
	// A client hanging up must not abort a half-sent run.
	ctx := context.WithoutCancel(c.Request().Context())

	res := s.forwarder.Run(ctx)
	switch {
	case res.Succeeded():
		return c.NoContent(http.StatusOK)
	case errors.Is(res.Err, domain.ErrAlreadyRunning):
		return echo.NewHTTPError(http.StatusConflict, "a transfer is already running")
	default:
		return c.NoContent(http.StatusFailedDependency)
	}
}

// HandleUpload stores the "file" part in the watched folder.
func (s *Server) HandleUpload(c echo.Context) error {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing multipart field \"file\"")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload").SetInternal(err)
	}
	defer src.Close()

	if _, err := s.forwarder.Drop(fh.Filename, src); err != nil {
		if errors.Is(err, domain.ErrInvalidFileName) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("upload could not be stored",
			ports.String("name", fh.Filename),
			ports.Err(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "upload could not be stored").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
