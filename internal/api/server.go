// Package api serves the mini-app HTTP interface: static assets and the
// JSON endpoints the web app calls for cards, reviews, stats and export.
package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkdmitry/flashka/assets"
	"github.com/mkdmitry/flashka/internal/domain"
	"github.com/mkdmitry/flashka/internal/export"
	"github.com/mkdmitry/flashka/internal/store"
)

const defaultDueLimit = 20

// Server holds the dependencies for the mini-app HTTP API.
type Server struct {
	repo      store.Repo
	log       *zap.Logger
	engine    *gin.Engine
	botToken  string
	devMode   bool
	devUserID int64
}

// Options configure the server's auth behavior.
type Options struct {
	BotToken  string
	DevMode   bool
	DevUserID int64
}

// New creates and configures the API server.
func New(repo store.Repo, log *zap.Logger, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		repo:      repo,
		log:       log,
		engine:    gin.New(),
		botToken:  opts.BotToken,
		devMode:   opts.DevMode,
		devUserID: opts.DevUserID,
	}
	s.engine.Use(s.requestLogger(), gin.Recovery())
	s.routes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	staticFS, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		// The subtree is embedded at build time; a failure here is a
		// packaging defect.
		panic(err)
	}
	s.engine.StaticFileFS("/", "index.html", http.FS(staticFS))
	s.engine.StaticFS("/static", http.FS(staticFS))

	api := s.engine.Group("/api", s.authMiddleware())
	api.POST("/cards", s.createCard)
	api.GET("/cards/due", s.dueCards)
	api.POST("/cards/:id/review", s.recordReview)
	api.GET("/stats", s.stats)
	api.GET("/export", s.export)
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// --- Handlers ---

type createCardRequest struct {
	Front string `json:"front" binding:"required"`
	Back  string `json:"back" binding:"required"`
}

func (s *Server) createCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "front and back are required"})
		return
	}
	id, err := s.repo.CreateCard(c.Request.Context(), userID(c), req.Front, req.Back)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "card_id": id})
}

type cardResponse struct {
	ID           int64  `json:"id"`
	Front        string `json:"front"`
	Back         string `json:"back"`
	New          bool   `json:"new"`
	NextReviewAt string `json:"next_review_date,omitempty"`
}

func toCardResponse(c domain.Card) cardResponse {
	out := cardResponse{ID: c.ID, Front: c.Front, Back: c.Back, New: c.New()}
	if c.NextReviewAt != nil {
		out.NextReviewAt = c.NextReviewAt.Format("2006-01-02")
	}
	return out
}

func (s *Server) dueCards(c *gin.Context) {
	limit := defaultDueLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid limit"})
			return
		}
		limit = parsed
	}

	cards, err := s.repo.DueCards(c.Request.Context(), userID(c), time.Now().UTC(), limit)
	if err != nil {
		s.abortError(c, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cards": out})
}

type reviewRequest struct {
	Quality int `json:"quality" binding:"required,min=1,max=5"`
}

func (s *Server) recordReview(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid card id"})
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "quality must be between 1 and 5"})
		return
	}

	session, err := s.repo.RecordReview(c.Request.Context(), userID(c), cardID, req.Quality, time.Now().UTC())
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":               true,
		"interval_days":    session.IntervalDays,
		"ease_factor":      session.EaseFactor,
		"next_review_date": session.NextReviewAt.Format("2006-01-02"),
	})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.repo.UserStats(c.Request.Context(), userID(c), time.Now().UTC())
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": st})
}

func (s *Server) export(c *gin.Context) {
	uid := userID(c)
	now := time.Now().UTC()

	user, err := s.repo.User(c.Request.Context(), uid)
	if err != nil {
		s.abortError(c, err)
		return
	}
	st, err := s.repo.UserStats(c.Request.Context(), uid, now)
	if err != nil {
		s.abortError(c, err)
		return
	}
	cards, err := s.repo.Cards(c.Request.Context(), uid)
	if err != nil {
		s.abortError(c, err)
		return
	}

	snapshot := export.Build(user, st, cards, now)
	c.Header("Content-Disposition", `attachment; filename="user_`+strconv.FormatInt(uid, 10)+`_data.json"`)
	c.JSON(http.StatusOK, snapshot)
}

// abortError maps domain errors to HTTP statuses.
func (s *Server) abortError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
