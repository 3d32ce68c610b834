// Package api serves the operator endpoints: health, metrics and a read-only
// leaderboard.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trendbet-bot/internal/models"
	"trendbet-bot/internal/utils"
)

type Leaderboard interface {
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	Addr        string
	Leaderboard Leaderboard
	Checks      map[string]HealthCheck
	AllowList   *utils.IPAllowList
	Log         *zap.Logger

	engine *gin.Engine
}

func NewServer(port string, board Leaderboard, checks map[string]HealthCheck, allow *utils.IPAllowList, log *zap.Logger) *Server {
	s := &Server{
		Addr:        ":" + port,
		Leaderboard: board,
		Checks:      checks,
		AllowList:   allow,
		Log:         log,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// ClientIP is the socket peer; forwarded headers are never trusted.
	if err := r.SetTrustedProxies(nil); err != nil {
		s.Log.Error("disabling trusted proxies failed", zap.Error(err))
	}
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.healthz)

	admin := r.Group("/", s.allowList())
	admin.GET("/metrics", gin.WrapH(promhttp.Handler()))
	admin.GET("/api/leaderboard", s.leaderboard)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("admin http server listening", zap.String("addr", s.Addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.Log.Info("admin http server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) allowList() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.AllowList.Allows(c.ClientIP()) {
			s.Log.Warn("admin request refused", zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(gin.H, len(s.Checks))
	for name, check := range s.Checks {
		if err := check(ctx); err != nil {
			s.Log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	c.JSON(status, report)
}

type leaderboardRow struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
}

func (s *Server) leaderboard(c *gin.Context) {
	n := 10
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	entries, err := s.Leaderboard.Top(c.Request.Context(), n)
	if err != nil {
		s.Log.Error("leaderboard query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}

	rows := make([]leaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, leaderboardRow{
			Rank:        i + 1,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Wins:        e.Wins,
			Losses:      e.Losses,
		})
	}
	c.JSON(http.StatusOK, rows)
}
