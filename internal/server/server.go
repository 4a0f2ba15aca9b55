// Package server wires the HTTP surface: the router with its page routes
// and static aliases, the middleware chain, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/borisrunfast/auction-house/internal/auth"
	"github.com/borisrunfast/auction-house/internal/gateway"
	"github.com/borisrunfast/auction-house/internal/handler"
	"github.com/borisrunfast/auction-house/internal/middleware"
	"github.com/borisrunfast/auction-house/internal/repository/sqlite"
	"github.com/borisrunfast/auction-house/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Config holds everything the server needs to start.
type Config struct {
	Port          string
	TemplateDir   string
	StaticDir     string
	DBPath        string
	APIBaseURL    string
	APIKey        string
	SessionSecret string
}

// Server is the assembled application.
type Server struct {
	cfg    Config
	logger *slog.Logger
	db     *sqlite.DB
	http   *http.Server
}

// New builds the full dependency graph and mounts all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring session tokens: %w", err)
	}

	renderer, err := handler.NewRenderer(cfg.TemplateDir, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	gw := gateway.New(cfg.APIBaseURL, cfg.APIKey, logger)

	authSvc := service.NewAuthService(gw, db, tokens, logger)
	listingSvc := service.NewListingService(gw, logger)
	bidSvc := service.NewBidService(gw, logger)
	profileSvc := service.NewProfileService(gw, logger)

	home := handler.NewHomeHandler(listingSvc, authSvc, renderer, logger)
	authPages := handler.NewAuthHandler(authSvc, renderer, logger)
	listings := handler.NewListingHandler(listingSvc, bidSvc, db, renderer, logger)
	forms := handler.NewListingFormHandler(listingSvc, db, renderer, logger)
	profiles := handler.NewProfileHandler(profileSvc, authSvc, db, renderer, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.LoadSession(tokens, db, logger))

	r.NotFound(renderer.NotFound)

	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
	r.Get("/static/*", fileServer.ServeHTTP)

	r.Get("/", home.HandleHome)

	// Page routes keep trailing-slash directory paths; each also answers
	// on its index.html alias so old bookmarks keep working.
	page := func(path string, get http.HandlerFunc, post http.HandlerFunc) {
		r.Get(path, get)
		r.Get(path+"index.html", get)
		if post != nil {
			r.Post(path, post)
		}
	}

	page("/auth/login/", authPages.HandleLoginPage, authPages.HandleLogin)
	page("/auth/register/", authPages.HandleRegisterPage, authPages.HandleRegister)
	page("/auth/logout/", authPages.HandleLogoutPage, authPages.HandleLogout)

	page("/listings/view/", listings.HandleView, nil)
	r.Post("/listings/view/bid", listings.HandleBid)
	page("/listings/create/", forms.HandleCreatePage, forms.HandleCreate)
	page("/listings/edit/", forms.HandleEditPage, forms.HandleEdit)
	page("/listings/delete/", listings.HandleDeleteConfirm, listings.HandleDelete)

	page("/profile/", profiles.HandleProfile, nil)
	r.Post("/profile/update/confirm/", profiles.HandleUpdateConfirm)
	r.Post("/profile/update/", profiles.HandleUpdate)

	return &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the mounted router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.db.Close()
		return fmt.Errorf("serving: %w", err)
	case sig := <-stop:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing session store: %w", err)
	}
	return nil
}
