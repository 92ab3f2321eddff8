package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/intelligenttrading/data-sources/internal/application"
	"github.com/intelligenttrading/data-sources/internal/logging"
	"github.com/intelligenttrading/data-sources/internal/settings"
)

var signalNotify = signal.Notify

type cliFlags struct {
	envFile        string
	settingsDir    string
	port           string
	rateLimitRPS   float64
	rateLimitBurst int
	printSettings  bool
}

func main() {
	kingpinApp := kingpin.New("itt-data-sources", "ITT data sources - resolves deployment settings and serves the runtime API")
	flags := &cliFlags{}
	kingpinApp.Flag("env-file", "Path to a dotenv file merged under the process environment").Default(".env").StringVar(&flags.envFile)
	kingpinApp.Flag("settings-dir", "Directory holding vendor_services.yaml and local.yaml").Default(settings.DefaultOverlayDir).StringVar(&flags.settingsDir)
	kingpinApp.Flag("port", "HTTP port exposed by the service").StringVar(&flags.port)
	kingpinApp.Flag("rate-limit-rps", "Requests per second allowed per client (set 0 to disable)").Default("-1").Float64Var(&flags.rateLimitRPS)
	kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").IntVar(&flags.rateLimitBurst)
	kingpinApp.Flag("print-settings", "Print the public settings as JSON and exit").BoolVar(&flags.printSettings)

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	env, err := loadEnv(flags.envFile)
	if err != nil {
		panic(fmt.Sprintf("failed to load environment: %v", err))
	}

	mode, err := settings.ModeFromEnv(env)
	if err != nil {
		panic(err.Error())
	}

	logger, err := logging.New(settings.LogLevel(mode))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	s, err := settings.Resolve(env,
		settings.WithLogger(logger.Named("settings")),
		settings.WithOverlayDir(flags.settingsDir),
		settings.WithCLIOverrides(flags.overrides()),
	)
	if err != nil {
		logger.Fatal("failed to resolve settings", zap.Error(err))
	}

	if flags.printSettings {
		if err := printSettings(os.Stdout, s); err != nil {
			logger.Fatal("failed to print settings", zap.Error(err))
		}
		return
	}

	app, err := application.New(s, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), s.Server.ShutdownGracePeriod, logger)
}

// loadEnv merges the dotenv file, when present, under the process environment.
func loadEnv(path string) (settings.Env, error) {
	env := settings.OSEnv()
	if path == "" {
		return env, nil
	}

	fileEnv, err := settings.LoadEnvFile(path)
	if err != nil {
		if settings.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}
	return fileEnv.Merge(env), nil
}

func (f *cliFlags) overrides() *settings.CLIOverrides {
	overrides := &settings.CLIOverrides{}

	if f.port != "" {
		overrides.Port = &f.port
	}

	if f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = &f.rateLimitRPS
	}

	if f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = &f.rateLimitBurst
	}

	return overrides
}

func printSettings(w io.Writer, s settings.Settings) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Public())
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
