// Package server is the browser storefront: a chi router rendering the
// catalog with html/template, one selection per session cookie.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/selector"
	"catalog/storefront/internal/service"
	"catalog/storefront/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Server struct {
	cfg       *config.Config
	service   *service.Service
	sessions  *Sessions
	templates *template.Template
}

type pageData struct {
	view.Page
	HomeURL  string
	LogoURL  string
	Checkout *checkoutData
	Toast    string
}

type checkoutData struct {
	URL         string
	ProductName string
}

func New(cfg *config.Config, svc *service.Service) (*Server, error) {
	tmpl, err := template.New("storefront").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		cfg:       cfg,
		service:   svc,
		sessions:  NewSessions(cfg.Session),
		templates: tmpl,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Get("/", s.handleIndex)
		r.Get("/select/first/{index}", s.handleSelectFirst)
		r.Get("/select/second/{index}", s.handleSelectSecond)
		r.Post("/order/{id}", s.handleOrder)
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 Storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("🛑 Shutting down storefront server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Page(r.Context(), SessionID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, s.data(page))
}

func (s *Server) handleSelectFirst(w http.ResponseWriter, r *http.Request) {
	s.handleSelect(w, r, s.service.SelectFirst)
}

func (s *Server) handleSelectSecond(w http.ResponseWriter, r *http.Request) {
	s.handleSelect(w, r, s.service.SelectSecond)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, selectFn func(context.Context, string, int) (view.Page, error)) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	page, err := selectFn(r.Context(), SessionID(r.Context()), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, s.data(page))
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sessionID := SessionID(r.Context())
	intent, err := s.service.Order(r.Context(), sessionID, productID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page, err := s.service.Page(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := s.data(page)
	data.Checkout = &checkoutData{URL: intent.CheckoutURL, ProductName: intent.ProductName}
	data.Toast = "Order started: " + intent.ProductName
	s.render(w, r, data)
}

func (s *Server) data(page view.Page) pageData {
	return pageData{
		Page:    page,
		HomeURL: s.cfg.Catalog.HomeURL,
		LogoURL: s.cfg.Catalog.LogoURL,
	}
}

// render writes the full layout, or only the catalog fragment for htmx requests.
func (s *Server) render(w http.ResponseWriter, r *http.Request, data pageData) {
	name := "layout"
	if isHTMX(r) {
		name = "catalog"
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Errorf("❌ Failed to render %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	log.Errorf("❌ %s %s failed: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func isNotFound(err error) bool {
	return errors.Is(err, selector.ErrNotLoaded) ||
		errors.Is(err, selector.ErrNoFirstGroup) ||
		errors.Is(err, selector.ErrFirstGroupOutOfRange) ||
		errors.Is(err, selector.ErrSecondGroupOutOfRange) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, domain.ErrEmptyCatalog)
}
