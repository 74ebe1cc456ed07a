package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/source"
	"github.com/ppiankov/ignoromenot/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// idleClientTTL is how long a client's rate bucket is kept without requests
const idleClientTTL = 10 * time.Minute

// Server exposes a session over HTTP
type Server struct {
	config  *model.Config
	session *pipeline.Session
	limiter *worker.Limiter
	router  *gin.Engine
	logger  *zap.Logger
}

// New builds the router for a loaded session
func New(cfg *model.Config, session *pipeline.Session, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	SetupRoutes(router, session, limiter, logger)

	return &Server{
		config:  cfg,
		session: session,
		limiter: limiter,
		router:  router,
		logger:  logger,
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully. When source
// watching is enabled, artifact changes reload the session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(idleClientTTL)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := s.limiter.Sweep(idleClientTTL); n > 0 {
					s.logger.Debug("forgot idle clients", zap.Int("clients", n))
				}
			}
		}
	})

	if s.config.Server.WatchSources {
		proteinsPath, mentionsPath := s.session.Paths()
		watcher, err := source.NewWatcher([]string{proteinsPath, mentionsPath}, s.config.Server.ReloadDebounce, s.logger)
		if err != nil {
			s.logger.Warn("source watching disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				return watcher.Run(gctx, func(ctx context.Context) {
					if _, err := s.session.Reload(ctx); err != nil {
						s.logger.Warn("reload skipped", zap.Error(err))
					}
				})
			})
		}
	}

	return g.Wait()
}
