package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/metrics"
	"github.com/cuemby/rollwatch/pkg/state"
	"github.com/cuemby/rollwatch/pkg/types"
)

// listenPort is fixed; only the bind address is configurable
const listenPort = 8080

// staticDir is mounted when present so the same binary can serve the web UI
const staticDir = "./static"

// TaskStarter schedules a verification task on a background worker
type TaskStarter interface {
	Start(task types.Task)
}

// HealthChecker reports ArgoCD reachability as "up" or "down"
type HealthChecker interface {
	Check() string
}

// Server is the rollwatch HTTP ingress. Submission handlers hand tasks to
// the watcher and return immediately; every other handler reads the store
// directly.
type Server struct {
	store   state.Store
	watcher TaskStarter
	argo    HealthChecker
	version string
	http    *http.Server
}

// NewServer wires the ingress with its collaborators
func NewServer(store state.Store, w TaskStarter, argo HealthChecker, version string) *Server {
	return &Server{
		store:   store,
		watcher: w,
		argo:    argo,
		version: version,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(requestMetrics())

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/tasks", s.addTask)
		v1.GET("/tasks", s.getState)
		v1.GET("/tasks/:id", s.getTaskStatus)
		v1.GET("/apps", s.getAppList)
		v1.GET("/version", s.getVersion)
	}

	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		router.Static("/static", staticDir)
		router.NoRoute(func(c *gin.Context) {
			c.File(staticDir + "/index.html")
		})
	}

	return router
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully
func (s *Server) Start(ctx context.Context, bindIP string) error {
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", bindIP, listenPort),
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		apiLogger := log.WithComponent("api")
		apiLogger.Info().Msgf("Listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
