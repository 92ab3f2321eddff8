package application

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/intelligenttrading/data-sources/internal/api"
	"github.com/intelligenttrading/data-sources/internal/health"
	"github.com/intelligenttrading/data-sources/internal/logging"
	"github.com/intelligenttrading/data-sources/internal/publish"
	"github.com/intelligenttrading/data-sources/internal/settings"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	settings  settings.Settings
	publisher *publish.Publisher
	checker   *health.Checker
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server

	redis *redis.Client
	db    *sql.DB
}

// New initializes the application with all dependencies from the provided settings.
func New(s settings.Settings, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{settings: s, logger: logger}

	var probes []health.Probe
	if s.RedisURL != "" {
		client, err := publish.NewRedisClient(s.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure redis: %w", err)
		}
		app.redis = client
		probes = append(probes, health.RedisProbe{Client: client})
	}
	if s.DatabaseURL != "" {
		db, err := health.OpenPostgres(s.DatabaseURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
		app.db = db
		probes = append(probes, health.PostgresProbe{DB: db})
	}

	var client publish.Client
	if app.redis != nil {
		client = app.redis
	} else if s.PublishMessages {
		logger.Warn("publishing requested but REDIS_URL is not set, messages will be dropped")
	}
	publisher, err := publish.New(publish.Config{
		Enabled:   s.PublishMessages && client != nil,
		Channel:   s.PublishChannel,
		BatchSize: s.PricesBatchSize,
	}, client, logging.Component(logger, "publish", s.QuietComponents))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to configure publisher: %w", err)
	}
	app.publisher = publisher

	app.checker = health.NewChecker(logging.Component(logger, "health", s.QuietComponents), probes)
	app.handler = api.NewHandler(s, api.WithReadiness(app.checker))
	app.router = api.NewRouter(app.handler, logging.Component(logger, "api", s.QuietComponents),
		api.WithLogging(s.Server.EnableRequestLogging),
		api.WithRateLimit(s.Server.RateLimitRPS, s.Server.RateLimitBurst),
		api.WithAllowedHosts(s.AllowedHosts),
		api.WithProxySSLHeader(s.ProxySSLHeader),
		api.WithDebug(s.Debug),
	)

	rootHandler, err := BuildRootHandler(app.router, s.StaticURL, s.StaticDir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}
	app.server = NewServer(s.Server, rootHandler)

	return app, nil
}

// BuildRootHandler routes API requests and, when staticDir can be found,
// serves static files under staticURL.
func BuildRootHandler(apiHandler http.Handler, staticURL, staticDir string) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)

	if staticURL != "" && staticDir != "" {
		if !strings.HasPrefix(staticURL, "/") || !strings.HasSuffix(staticURL, "/") {
			return nil, fmt.Errorf("static url %q must start and end with a slash", staticURL)
		}
		if staticPath, err := resolveProjectPath(staticDir); err == nil {
			mux.Handle(staticURL, http.StripPrefix(staticURL, http.FileServer(http.Dir(staticPath))))
		}
	}

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided settings.
func NewServer(cfg settings.ServerSettings, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Stringer("mode", a.settings.Mode),
			zap.Bool("publish_messages", a.publisher.Enabled()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Publisher returns the outbound message publisher. Message producers use it
// to emit prices; it drops messages when publishing is disabled.
func (a *App) Publisher() *publish.Publisher {
	return a.publisher
}

// Close releases connections to backing services.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		if _, err := os.Stat(relative); err != nil {
			return "", err
		}
		return relative, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
