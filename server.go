package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// HTTP API
// ---------------------------------------------------------------------------

type thesisRequest struct {
	Title              string `json:"title" validate:"required,max=300"`
	StudentName        string `json:"student_name" validate:"required,max=120"`
	StudentEmail       string `json:"student_email" validate:"required,email"`
	RegistrationNumber string `json:"registration_number" validate:"omitempty,max=40"`
	IsLPU              bool   `json:"is_lpu"`
	Campus             string `json:"campus" validate:"required,max=120"`
	Program            string `json:"program" validate:"required,max=160"`
	Degree             string `json:"degree" validate:"required,max=80"`
}

type feedbackRequest struct {
	Rating   int        `json:"rating" validate:"required,min=1,max=5"`
	Comments *string    `json:"comments" validate:"omitempty,max=2000"`
	ThesisID *uuid.UUID `json:"thesis_id"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Server exposes thesis registration, feedback and the admin reports.
type Server struct {
	app      *fiber.App
	cfg      *Config
	store    *Store
	agg      *Aggregator
	opts     ReportOptions
	validate *validator.Validate
}

func newServer(cfg *Config, store *Store, agg *Aggregator) (*Server, error) {
	if cfg.App.JWTSecret == "" {
		return nil, errors.New("app.jwt_secret is required to serve the API")
	}
	opts, err := cfg.reportOptions()
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:      fiber.New(fiber.Config{AppName: systemName, DisableStartupMessage: true}),
		cfg:      cfg,
		store:    store,
		agg:      agg,
		opts:     opts,
		validate: validator.New(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.app.Group("/api/v1")
	api.Post("/theses", s.createThesis)
	api.Post("/feedback", s.createFeedback)
	api.Post("/auth/login", s.login)

	reports := api.Group("/reports", adminRequired(s.cfg.App.JWTSecret))
	reports.Get("/statistics", s.statistics)
	reports.Get("/export", s.export)
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.App.Port)
	zap.L().Info("server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// bind parses and validates a JSON body.
func (s *Server) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errors.New("invalid request body")
	}
	return s.validate.Struct(dst)
}

func (s *Server) createThesis(c *fiber.Ctx) error {
	var req thesisRequest
	if err := s.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	t := Thesis{
		Title:              strings.TrimSpace(req.Title),
		StudentName:        strings.TrimSpace(req.StudentName),
		StudentEmail:       strings.ToLower(req.StudentEmail),
		RegistrationNumber: req.RegistrationNumber,
		IsLPU:              req.IsLPU,
		Campus:             strings.TrimSpace(req.Campus),
		Program:            strings.TrimSpace(req.Program),
		Degree:             strings.TrimSpace(req.Degree),
	}
	if err := s.store.CreateThesis(c.UserContext(), &t); err != nil {
		zap.L().Error("thesis registration failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to register thesis")
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) createFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := s.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	f := Feedback{Rating: req.Rating, Comments: req.Comments, ThesisID: req.ThesisID}
	if err := s.store.CreateFeedback(c.UserContext(), &f); err != nil {
		zap.L().Error("feedback submission failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to save feedback")
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	user, err := s.store.FindUserByEmail(c.UserContext(), req.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Error("login lookup failed", zap.Error(err))
		}
		return errorJSON(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !checkPassword(req.Password, user.HashedPassword) {
		return errorJSON(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	expiry := time.Duration(s.cfg.App.TokenExpiry) * time.Minute
	token, err := newAccessToken(s.cfg.App.JWTSecret, user, expiry)
	if err != nil {
		zap.L().Error("token signing failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to sign in")
	}
	return c.JSON(fiber.Map{"access_token": token, "expires_in": int(expiry.Seconds())})
}

func (s *Server) filter(c *fiber.Ctx) (ReportFilter, error) {
	return parseFilter(c.Query("year"), c.Query("start"), c.Query("end"))
}

func (s *Server) statistics(c *fiber.Ctx) error {
	filter, err := s.filter(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	stats, err := s.agg.Statistics(c.UserContext(), filter)
	if err != nil {
		zap.L().Error("statistics failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to compute statistics")
	}
	return c.JSON(stats)
}

func (s *Server) export(c *fiber.Ctx) error {
	filter, err := s.filter(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	stats, err := s.agg.Statistics(c.UserContext(), filter)
	if err != nil {
		zap.L().Error("statistics failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to compute statistics")
	}

	opts := s.opts
	if s.cfg.Report.Charts {
		opts.Capturer = newChartRasterizer(stats, opts.Theme)
	}
	report, err := generateReport(c.UserContext(), stats, filter, opts)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, ErrReportFailed.Error())
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, report.FileName))
	return c.Send(report.Data)
}
