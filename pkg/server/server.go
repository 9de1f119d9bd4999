// Package server exposes the rename engine over HTTP (JSON API) and MCP.
package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/pkg/engine"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/home"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/preview"
	"github.com/renamekit/renamekit/pkg/rules"
	"github.com/renamekit/renamekit/pkg/store"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("server")
}

// App bundles the long-lived components behind the HTTP and MCP surfaces.
// Config mutations (template and rule CRUD) are serialized by mu and
// persisted back to config.yaml.
type App struct {
	mu        sync.Mutex
	homeMgr   *home.Manager
	config    *home.Config
	templates *store.Manager
	history   history.Store
	engine    *engine.Engine
	generator *preview.Generator
	resolver  *rules.Resolver
}

// NewApp loads configuration from the home directory and opens the history
// database.
func NewApp(homeMgr *home.Manager) (*App, error) {
	if err := homeMgr.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize home directory: %w", err)
	}

	config, err := homeMgr.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	histPath := homeMgr.HistoryPath()
	if config.History.Path != "" && config.History.Path != home.HistoryFile {
		histPath = config.History.Path
	}
	hist, err := history.NewSQLiteStore(histPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	resolver := rules.NewResolver(nil)
	return &App{
		homeMgr:   homeMgr,
		config:    config,
		templates: store.NewManager(),
		history:   hist,
		engine:    engine.New(hist),
		generator: preview.New(store.NewManager(), resolver),
		resolver:  resolver,
	}, nil
}

// Close releases the history database.
func (a *App) Close() error {
	return a.history.Close()
}

// saveConfig persists the current config; callers hold mu.
func (a *App) saveConfig() error {
	return a.homeMgr.SaveConfig(a.config)
}

// Start runs the HTTP server with the JSON API and the MCP endpoint mounted
// at /mcp.
func (a *App) Start(host string, port int) error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	a.registerRoutes(router)

	mcpServer := server.NewMCPServer(
		"renamekit",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	a.RegisterMCPTools(mcpServer)

	mcpHTTPServer := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithStateLess(true),
	)
	router.Any("/mcp", gin.WrapH(mcpHTTPServer))

	addr := fmt.Sprintf("%s:%d", host, port)
	log.WithFields(logrus.Fields{
		"host":         host,
		"port":         port,
		"mcp_endpoint": "/mcp",
	}).Info("Server starting")

	return router.Run(addr)
}

// requestLogger logs each request with the original client IP, honoring
// proxy forwarding headers.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		clientIP := c.Request.RemoteAddr
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			clientIP = realIP
		} else if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
			// first entry in the chain is the original client
			for i := 0; i < len(forwardedFor); i++ {
				if forwardedFor[i] == ',' {
					forwardedFor = forwardedFor[:i]
					break
				}
			}
			clientIP = forwardedFor
		}

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"clientIP": clientIP,
		}).Debug("Incoming request")

		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(startTime).Milliseconds(),
			"clientIP": clientIP,
		}).Info("Request completed")
	}
}

func jsonError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func jsonBadRequest(c *gin.Context, err error) {
	jsonError(c, http.StatusBadRequest, err)
}
