package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/pipeline"
	"kotoba-gateway/internal/router"
)

const (
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	minWriteTimeout     = 90 * time.Second
	writeMargin         = 10 * time.Second
	idleTimeout         = 120 * time.Second
)

const (
	msgNoText       = "No text provided"
	msgNoInput      = "No input provided"
	msgNotFound     = "Not found"
	msgInternalFail = "internal server error"
)

type Server struct {
	cfg     config.Config
	router  *router.Router
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, rt *router.Router) (*Server, error) {
	if rt == nil {
		return nil, errors.New("router must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	srv := &Server{
		cfg:     cfg,
		router:  rt,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the configured echo instance.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(os.Stdout, s.cfg.Server.Port, s.router.Providers(), s.router.Availability())
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout(s.cfg),
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.POST("/classify", s.handleClassify)
	s.app.POST("/translate", s.handleTranslate)
	s.app.POST("/vocabLookup", s.handleVocabLookup)

	// Paths used by the browser client.
	api := s.app.Group("/api")
	api.GET("/ping", s.handlePing)
	api.POST("/classify", s.handleClassify)
	api.POST("/translate", s.handleLegacyTranslate)
	api.POST("/vocab/lookup", s.handleVocabLookup)
}

type healthResponse struct {
	OK                   bool                `json:"ok"`
	Time                 int64               `json:"time"`
	ProviderAvailability map[string]bool     `json:"providerAvailability"`
	Routes               map[string][]string `json:"routes"`
}

type pingResponse struct {
	healthResponse
	HasGemini bool `json:"hasGemini"`
}

// legacyTranslation is the response shape the browser client expects from
// /api/translate.
type legacyTranslation struct {
	JP       string `json:"jp"`
	VI       string `json:"vi"`
	Provider string `json:"provider"`
}

func (s *Server) health() healthResponse {
	return healthResponse{
		OK:                   true,
		Time:                 time.Now().UnixMilli(),
		ProviderAvailability: s.router.Availability(),
		Routes:               s.router.Routes(),
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.health())
}

func (s *Server) handlePing(c echo.Context) error {
	h := s.health()
	return c.JSON(http.StatusOK, pingResponse{
		healthResponse: h,
		HasGemini:      h.ProviderAvailability[config.ProviderGemini],
	})
}

func (s *Server) handleClassify(c echo.Context) error {
	text, err := readTextField(c, "text", msgNoText)
	if err != nil {
		return err
	}

	result, err := s.router.Classify(c.Request().Context(), text)
	if err != nil {
		return toHTTPError(err, msgNoText)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleTranslate(c echo.Context) error {
	result, err := s.translate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleLegacyTranslate(c echo.Context) error {
	result, err := s.translate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, legacyTranslation{
		JP:       result.Source,
		VI:       result.Translated,
		Provider: result.Provider,
	})
}

func (s *Server) translate(c echo.Context) (models.Translation, error) {
	text, err := readTextField(c, "text", msgNoText)
	if err != nil {
		return models.Translation{}, err
	}

	result, err := s.router.Translate(c.Request().Context(), text)
	if err != nil {
		return models.Translation{}, toHTTPError(err, msgNoText)
	}
	return result, nil
}

func (s *Server) handleVocabLookup(c echo.Context) error {
	input, err := readTextField(c, "input", msgNoInput)
	if err != nil {
		return err
	}

	result, err := s.router.LookupVocab(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, msgNoInput)
	}
	return c.JSON(http.StatusOK, result)
}

// readTextField decodes the request body and returns the named string field.
// A missing body, malformed JSON, a non-string value or a blank string are all
// reported as a 400 carrying missingMsg.
func readTextField(c echo.Context, field, missingMsg string) (string, error) {
	var body map[string]any
	if err := decodeRequestBody(c, &body); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return "", err
		}
		slog.Debug("rejecting request body", "field", field, "err", err)
		return "", badRequest(missingMsg)
	}

	value, _ := body[field].(string)
	if strings.TrimSpace(value) == "" {
		return "", badRequest(missingMsg)
	}
	return value, nil
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return echo.ErrStatusRequestEntityTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

func badRequest(message string) requestError {
	return requestError{Status: http.StatusBadRequest, Message: message}
}

type errorBody struct {
	Error string `json:"error"`
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = c.JSON(reqErr.Status, errorBody{Error: reqErr.Message})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			_ = c.JSON(http.StatusNotFound, errorBody{Error: msgNotFound})
		default:
			_ = c.JSON(he.Code, errorBody{Error: http.StatusText(he.Code)})
		}
		return
	}

	slog.Error("unhandled request error", "uri", c.Request().RequestURI, "err", err)
	_ = c.JSON(http.StatusInternalServerError, errorBody{Error: msgInternalFail})
}

func toHTTPError(err error, noInputMsg string) error {
	if errors.Is(err, pipeline.ErrNoInput) {
		return badRequest(noInputMsg)
	}
	return err
}

// writeTimeout leaves room for a request that walks its whole provider chain
// before the response is written.
func writeTimeout(cfg config.Config) time.Duration {
	return max(minWriteTimeout, cfg.RequestBudget()+writeMargin)
}

func printStartupBanner(w io.Writer, port int, providers []string, availability map[string]bool) {
	host := "127.0.0.1"
	fmt.Fprintln(w)
	fmt.Fprintln(w, "kotoba-gateway ready")
	fmt.Fprintf(w, "Listening on http://%s:%d\n", host, port)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  GET  /health")
	fmt.Fprintln(w, "  POST /classify      {\"text\": \"...\"}")
	fmt.Fprintln(w, "  POST /translate     {\"text\": \"...\"}")
	fmt.Fprintln(w, "  POST /vocabLookup   {\"input\": \"...\"}")
	fmt.Fprintln(w, "Providers:")
	for _, name := range providers {
		state := "no credentials, skipped"
		if availability[name] {
			state = "available"
		}
		fmt.Fprintf(w, "  %-15s %s\n", name, state)
	}
	fmt.Fprintf(w, "Example:\n  curl http://%s:%d/translate -H 'Content-Type: application/json' -d '{\"text\":\"こんにちは\"}'\n\n", host, port)
}
