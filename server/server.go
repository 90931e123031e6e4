// Package server exposes the pipeline over HTTP: POST /chat,
// POST /reset, GET /health. The handlers are thin glue; all behavior
// lives in the engine.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/serenechat/serene-go/core"
	"github.com/serenechat/serene-go/logger"
)

// defaultUserID is assumed when a chat request carries no user_id. There
// is no auth layer; user_id is just a conversation partition key.
const defaultUserID = "default_user"

// Pipeline is the inbound interface the HTTP surface exposes. *engine.Engine
// satisfies it.
type Pipeline interface {
	GenerateReply(ctx context.Context, userID, userInput string) (*core.Reply, error)
	ResetSession(ctx context.Context, userID string) (*core.ResetResult, error)
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AllowOrigins enables CORS for the given origins. Empty disables CORS
	// headers entirely.
	AllowOrigins []string
}

// Server wraps a gin router around the pipeline.
type Server struct {
	log      *logger.Logger
	pipeline Pipeline
	router   *gin.Engine
	cfg      Config
}

// New builds the server and its routes.
func New(log *logger.Logger, pipeline Pipeline, cfg Config) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		log:      log.With("component", "server"),
		pipeline: pipeline,
		cfg:      cfg,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
		}))
	}

	router.GET("/health", s.handleHealth)
	router.POST("/chat", s.handleChat)
	router.POST("/reset", s.handleReset)

	s.router = router
	return s
}

// Router exposes the gin router for embedding and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.log.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	reply, err := s.pipeline.GenerateReply(c.Request.Context(), req.UserID, req.Message)
	switch {
	case errors.Is(err, core.ErrEmptyUserID), errors.Is(err, core.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.log.Error("generate reply failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate a response."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":      reply.Text,
		"quick_replies": reply.QuickReplies,
	})
}

type resetRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	result, err := s.pipeline.ResetSession(c.Request.Context(), req.UserID)
	if err != nil {
		s.log.Error("reset failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset chat history."})
		return
	}

	if result.Cleared {
		c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared!"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "No messages found for this user."})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Serene Chat API is running!",
	})
}
