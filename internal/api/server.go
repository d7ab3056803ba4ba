// Package api serves the test asset store over a JSON REST API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/evidence"
	"github.com/besttest/besttest/internal/executor"
	"github.com/besttest/besttest/internal/store"
)

// Options configure a Server.
type Options struct {
	Addr         string
	AllowOrigins []string
	Executor     executor.Executor
	Logger       *slog.Logger
	// Evidence enables the /api/evidence routes and serves the files
	// under /evidence.
	Evidence *evidence.Dir
}

// Server is the REST API server.
type Server struct {
	router   *gin.Engine
	catalog  *store.Catalog
	exec     executor.Executor
	evidence *evidence.Dir
	addr     string
	logger   *slog.Logger

	mu     sync.Mutex
	stores map[string]*store.Store
}

// NewServer builds the router. Stores are opened lazily per project and kept
// for the lifetime of the server so the in-memory state stays authoritative
// across requests.
func NewServer(catalog *store.Catalog, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = executor.NewSimulated(executor.DefaultPassRatio, 0, 0)
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(opts.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	s := &Server{
		router:   router,
		catalog:  catalog,
		exec:     opts.Executor,
		evidence: opts.Evidence,
		addr:     opts.Addr,
		logger:   opts.Logger,
		stores:   make(map[string]*store.Store),
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("api server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	// Execution contract served by the simulated executor.
	for _, fw := range []string{executor.FrameworkPlaywright, executor.FrameworkPytest, executor.FrameworkRobot} {
		s.router.POST("/api/"+fw+"/run", s.runFramework(fw))
	}

	if s.evidence != nil {
		s.router.Static("/evidence", s.evidence.Root())
		s.router.GET("/api/evidence", s.listEvidence)
		s.router.DELETE("/api/evidence/*path", s.deleteEvidence)
	}

	api := s.router.Group("/api/projects")
	{
		api.GET("", s.listProjects)
		api.POST("", s.createProject)
		api.GET("/:pid", s.getProject)
		api.PUT("/:pid", s.updateProject)
		api.DELETE("/:pid", s.deleteProject)

		api.GET("/:pid/modules", s.listModules)
		api.POST("/:pid/modules", s.createModule)
		api.PUT("/:pid/modules/:mid", s.renameModule)
		api.DELETE("/:pid/modules/:mid", s.deleteModule)
		api.POST("/:pid/modules/:mid/toggle", s.toggleModule)

		api.POST("/:pid/modules/:mid/scenarios", s.createScenario)
		api.PUT("/:pid/modules/:mid/scenarios/:sid", s.renameScenario)
		api.DELETE("/:pid/modules/:mid/scenarios/:sid", s.deleteScenario)
		api.POST("/:pid/modules/:mid/scenarios/:sid/toggle", s.toggleScenario)

		api.POST("/:pid/modules/:mid/scenarios/:sid/cases", s.createCase)
		api.PUT("/:pid/modules/:mid/scenarios/:sid/cases/:key", s.updateCase)
		api.DELETE("/:pid/modules/:mid/scenarios/:sid/cases/:key", s.deleteCase)
		api.POST("/:pid/modules/:mid/scenarios/:sid/cases/:key/duplicate", s.duplicateCase)

		api.GET("/:pid/cases", s.listCases)
		api.POST("/:pid/cases/regenerate-ids", s.regenerateCaseIDs)
		api.POST("/:pid/import", s.importRecords)

		api.GET("/:pid/plans", s.listPlans)
		api.POST("/:pid/plans", s.createPlan)
		api.GET("/:pid/plans/:id", s.getPlan)
		api.PUT("/:pid/plans/:id", s.updatePlan)
		api.DELETE("/:pid/plans/:id", s.deletePlan)
		api.POST("/:pid/plans/:id/duplicate", s.duplicatePlan)
		api.GET("/:pid/plans/:id/completion", s.planCompletion)

		api.GET("/:pid/results", s.listResults)
		api.POST("/:pid/results", s.recordResult)
		api.GET("/:pid/results/:id", s.getResult)
		api.PUT("/:pid/results/:id", s.renameResult)
		api.DELETE("/:pid/results/:id", s.deleteResult)
		api.GET("/:pid/results/:id/evidence", s.resultEvidence)

		api.POST("/:pid/runs", s.runPlan)
		api.GET("/:pid/summary", s.summary)
	}
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
