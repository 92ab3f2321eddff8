package settings

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// CLIOverrides holds command-line flag overrides for the server section.
type CLIOverrides struct {
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Option configures Resolve.
type Option func(*resolver)

// WithLogger sets the logger that records resolution progress.
func WithLogger(logger *zap.Logger) Option {
	return func(r *resolver) {
		r.logger = logger
	}
}

// WithVendorServicesOverlay replaces the vendor services overlay source.
func WithVendorServicesOverlay(src OverlaySource) Option {
	return func(r *resolver) {
		r.vendor = src
	}
}

// WithLocalOverlay replaces the local overlay source.
func WithLocalOverlay(src OverlaySource) Option {
	return func(r *resolver) {
		r.local = src
	}
}

// WithOverlayDir reads both overlays from dir.
func WithOverlayDir(dir string) Option {
	return func(r *resolver) {
		r.vendor = VendorServicesOverlay(dir)
		r.local = LocalOverlay(dir)
	}
}

// WithCLIOverrides applies command-line overrides last.
func WithCLIOverrides(overrides *CLIOverrides) Option {
	return func(r *resolver) {
		r.cli = overrides
	}
}

type resolver struct {
	logger *zap.Logger
	vendor OverlaySource
	local  OverlaySource
	cli    *CLIOverrides
}

// Resolve builds the settings bundle from env.
// Precedence, lowest first: mode defaults, environment, vendor services
// overlay, local overlay, server environment keys, CLI flags.
// The API host and key are read from env after the overlays.
func Resolve(env Env, opts ...Option) (Settings, error) {
	r := resolver{
		logger: zap.NewNop(),
		vendor: VendorServicesOverlay(DefaultOverlayDir),
		local:  LocalOverlay(DefaultOverlayDir),
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	mode, err := ModeFromEnv(env)
	if err != nil {
		return Settings{}, err
	}
	r.logger.Info("deployment environment detected",
		zap.String("deployment_type", mode.Selector()),
		zap.Stringer("mode", mode),
	)

	s := baseSettings(mode)
	s.SecretKey = env.Get(EnvSecretKey)
	s.SiteBaseURL = env.Get(EnvSiteBaseURL)
	s.RedisURL = env.Get(EnvRedisURL)
	s.DatabaseURL = env.Get(EnvDatabaseURL)
	s.PublishMessages = publishMessages(mode, env)

	r.logger.Info("importing vendor services settings", zap.String("source", sourceName(r.vendor)))
	res := TryLoadOverlay(r.vendor)
	if res.OK() {
		s, res.Err = mergeOverlay(s, res.Overlay)
	}
	if res.Err != nil {
		r.logger.Warn("failed to import vendor services settings",
			zap.String("source", res.Source),
			zap.Error(res.Err),
		)
	}

	if mode == ModeLocal {
		r.logger.Info("local environment detected, importing local settings", zap.String("source", sourceName(r.local)))
		res := TryLoadOverlay(r.local)
		if res.OK() {
			s, res.Err = mergeOverlay(s, res.Overlay)
		}
		if res.Err != nil {
			r.logger.Error("could not import local settings, they are required when running locally",
				zap.String("source", res.Source),
				zap.Error(res.Err),
			)
			return Settings{}, &OverlayError{Layer: LayerLocal, Source: res.Source, Err: res.Err}
		}
	}

	s.APIHost = env.GetOrDefault(EnvAPIHost, DefaultAPIHost)
	s.APIKey = env.GetOrDefault(EnvAPIKey, DefaultAPIKey)

	applyServerEnv(&s.Server, env)
	applyCLIOverrides(&s.Server, r.cli)

	if err := validate(s); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// mergeOverlay applies o to a copy of s. When the merged settings are
// invalid, s is returned unchanged with the validation error.
func mergeOverlay(s Settings, o Overlay) (Settings, error) {
	merged := s
	o.apply(&merged)
	if err := validate(merged); err != nil {
		return s, err
	}
	return merged, nil
}

// publishMessages is always false locally. Elsewhere the variable is
// compared case-insensitively with "true" and defaults to true.
func publishMessages(mode Mode, env Env) bool {
	if mode == ModeLocal {
		return false
	}
	raw, ok := env.Lookup(EnvPublish)
	if !ok {
		raw, ok = env.Lookup(EnvPublishLegacy)
	}
	if !ok {
		return true
	}
	return strings.EqualFold(raw, "true")
}

func sourceName(src OverlaySource) string {
	if src == nil {
		return ""
	}
	return src.Name()
}

// applyServerEnv applies server environment variables. Unparseable values are ignored.
func applyServerEnv(cfg *ServerSettings, env Env) {
	if port := strings.TrimSpace(env.Get(EnvPort)); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(env.Get(EnvRateLimitRPS)); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(env.Get(EnvRateLimitBurst)); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

func applyCLIOverrides(cfg *ServerSettings, overrides *CLIOverrides) {
	if overrides == nil {
		return
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

func validate(s Settings) error {
	if strings.TrimSpace(s.Server.Port) == "" {
		return fmt.Errorf("%w: server port cannot be empty", ErrInvalidSettings)
	}
	if s.Server.RateLimitRPS < 0 {
		return fmt.Errorf("%w: server rate limit rps must be >= 0, got %g", ErrInvalidSettings, s.Server.RateLimitRPS)
	}
	if s.Server.RateLimitBurst < 0 {
		return fmt.Errorf("%w: server rate limit burst must be >= 0, got %d", ErrInvalidSettings, s.Server.RateLimitBurst)
	}
	if s.PricesBatchSize <= 0 {
		return fmt.Errorf("%w: prices batch size must be positive, got %d", ErrInvalidSettings, s.PricesBatchSize)
	}
	if len(s.Exchanges) == 0 {
		return fmt.Errorf("%w: at least one exchange is required", ErrInvalidSettings)
	}
	if len(s.CounterCurrencies) == 0 {
		return fmt.Errorf("%w: at least one counter currency is required", ErrInvalidSettings)
	}
	return nil
}
