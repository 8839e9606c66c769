package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"photopipe/internal/auth"
	"photopipe/internal/models"
)

const maxBodyBytes = 1 << 20

// Processor runs one processing request; *pipeline.Pipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResult, error)
}

type Server struct {
	cfg       *models.Config
	router    *gin.Engine
	http      *http.Server
	processor Processor
	verifier  *auth.Verifier
	log       *slog.Logger
}

func NewServer(cfg *models.Config, processor Processor, verifier *auth.Verifier, log *slog.Logger) *Server {
	r := gin.New()
	s := &Server{cfg: cfg, router: r, processor: processor, verifier: verifier, log: log}

	r.Use(s.recovery(), requestID(), accessLog(log), cors())

	r.GET("/healthz", s.handleHealth)
	for _, path := range []string{"/process-image", "/functions/v1/process-image"} {
		r.OPTIONS(path, handlePreflight)
		r.POST(path, s.requireBearer(), s.handleProcessImage)
	}

	s.http = &http.Server{Addr: cfg.ServerAddr, Handler: r}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.cfg.ServerAddr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handlePreflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleProcessImage(c *gin.Context) {
	const op = "server.handleProcessImage"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	// The run is not cancelled if the caller goes away mid-pipeline.
	ctx := context.WithoutCancel(c.Request.Context())
	res, err := s.processor.Process(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrValidation) {
			status = http.StatusBadRequest
		}
		s.log.Warn("process image failed", "op", op, "photo_id", req.PhotoID, "status", status, "error", err)
		c.JSON(status, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
