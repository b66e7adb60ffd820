// Package rest exposes the board over HTTP with echo: the card API under
// /api/cartoes, attachment downloads under /files and a health check.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/flowrev/internal/logging"
	"github.com/dmitrijs2005/flowrev/internal/server/services"
)

// Options configures the HTTP server.
type Options struct {
	Address         string
	MaxUploadSize   int64
	ShutdownTimeout time.Duration
}

type Server struct {
	opts        Options
	echo        *echo.Echo
	cards       *services.CardService
	attachments *services.AttachmentService
	comments    *services.CommentService
	logger      logging.Logger
}

func NewServer(opts Options, l logging.Logger, cs *services.CardService, as *services.AttachmentService, ms *services.CommentService) *Server {
	s := &Server{
		opts:        opts,
		cards:       cs,
		attachments: as,
		comments:    ms,
		logger:      l.With("module", "http_server"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(requestLogger(s.logger))
	if opts.MaxUploadSize > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt(opts.MaxUploadSize, 10)))
	}

	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/ping", s.ping)
	s.echo.GET("/files/:name", s.downloadFile)

	g := s.echo.Group("/api/cartoes")
	g.GET("", s.listCards)
	g.POST("", s.createCard)
	g.GET("/:id", s.getCard)
	g.PUT("/:id", s.updateCard)
	g.PUT("/:id/mover", s.moveCard)
	g.DELETE("/:id", s.deleteCard)
	g.POST("/:id/anexos", s.uploadAttachment)
	g.GET("/:id/anexos", s.listAttachments)
	g.POST("/:id/comentarios", s.addComment)
	g.GET("/:id/comentarios", s.listComments)
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "graceful shutdown failed", "error", err)
			_ = srv.Close()
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	err = srv.Serve(listen)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
