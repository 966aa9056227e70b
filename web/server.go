// Package web serves the operator form: choose an input mode, run the
// extraction, correct the pre-filled fields and save the row.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vivaneiona/fabriclog"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "fabriclog_session"

// Config tunes request handling.
type Config struct {
	MaxImagePx int  // longest side of uploaded photos, 0 keeps them as sent
	FetchPages bool // read product pages in URL mode
	BodyLimit  string
	Log        *slog.Logger
}

// Server is the HTTP front end over a SessionStore.
type Server struct {
	echo  *echo.Echo
	store *fabriclog.SessionStore
	cfg   Config
	log   *slog.Logger
}

// Template renders html/template pages for echo.
type Template struct {
	Templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.Templates.ExecuteTemplate(w, name, data)
}

// New builds the server and registers its routes.
func New(store *fabriclog.SessionStore, cfg Config) (*Server, error) {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "32M"
	}

	tpl, err := template.New("").Funcs(template.FuncMap{
		"length": fabriclog.FormatLength,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &Template{Templates: tpl}

	s := &Server{echo: e, store: store, cfg: cfg, log: cfg.Log}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))

	e.GET("/", s.index)
	e.POST("/extract", s.extract)
	e.POST("/save", s.save)
	e.POST("/manual", s.manual)
	e.POST("/clear", s.clear)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "sessions": store.Len()})
	})

	api := e.Group("/api")
	api.GET("/record", s.apiRecord)
	api.POST("/extract", s.apiExtract)
	api.POST("/begin", s.apiBegin)
	api.POST("/save", s.apiSave)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("Serving form", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// session returns the caller's session, issuing a cookie for new ones.
func (s *Server) session(c echo.Context) *fabriclog.Session {
	var id string
	if ck, err := c.Cookie(sessionCookie); err == nil {
		id = ck.Value
	}
	sess, created := s.store.Get(id)
	if created {
		c.SetCookie(&http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(24 * time.Hour),
		})
	}
	return sess
}
