package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intelligenttrading/data-sources/internal/market"
)

// Overlay layer names.
const (
	LayerVendorServices = "vendor services"
	LayerLocal          = "local"
)

// DefaultOverlayDir is where overlay files are looked up when no directory is given.
const DefaultOverlayDir = "settings"

// OverlaySource produces an Overlay.
type OverlaySource interface {
	Name() string
	Load() (Overlay, error)
}

// Overlay holds optional overrides. Nil and empty fields leave the
// corresponding setting untouched.
type Overlay struct {
	SecretKey               *string                  `yaml:"secret_key"`
	SiteBaseURL             *string                  `yaml:"site_base_url"`
	AllowedHosts            []string                 `yaml:"allowed_hosts"`
	PublishMessages         *bool                    `yaml:"publish_messages"`
	PublishChannel          *string                  `yaml:"publish_channel"`
	PricesBatchSize         *int                     `yaml:"prices_batch_size"`
	TickersMinimumUSDVolume *float64                 `yaml:"tickers_minimum_usd_volume"`
	Exchanges               []market.Exchange        `yaml:"exchanges"`
	CounterCurrencies       []market.CounterCurrency `yaml:"counter_currencies"`
	RedisURL                *string                  `yaml:"redis_url"`
	DatabaseURL             *string                  `yaml:"database_url"`
	StaticDir               *string                  `yaml:"static_dir"`
	Server                  *ServerOverlay           `yaml:"server"`
}

// ServerOverlay overrides ServerSettings.
type ServerOverlay struct {
	Port                 *string           `yaml:"port"`
	ReadHeaderTimeout    *string           `yaml:"read_header_timeout"`
	WriteTimeout         *string           `yaml:"write_timeout"`
	IdleTimeout          *string           `yaml:"idle_timeout"`
	ShutdownGracePeriod  *string           `yaml:"shutdown_grace_period"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	RateLimit            *RateLimitOverlay `yaml:"rate_limit"`

	durations map[string]time.Duration
}

// RateLimitOverlay overrides the rate limiter.
type RateLimitOverlay struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// OverlayResult is the outcome of TryLoadOverlay.
type OverlayResult struct {
	Source  string
	Overlay Overlay
	Err     error
}

// OK reports whether the overlay loaded.
func (r OverlayResult) OK() bool {
	return r.Err == nil
}

// TryLoadOverlay loads src and reports the outcome without deciding
// whether a failure is fatal.
func TryLoadOverlay(src OverlaySource) OverlayResult {
	if src == nil {
		return OverlayResult{Err: ErrNoOverlaySource}
	}
	overlay, err := src.Load()
	if err != nil {
		return OverlayResult{Source: src.Name(), Err: err}
	}
	return OverlayResult{Source: src.Name(), Overlay: overlay}
}

// FileOverlay reads an Overlay from a YAML file.
type FileOverlay struct {
	Path string
}

// VendorServicesOverlay returns the vendor services overlay file in dir.
func VendorServicesOverlay(dir string) FileOverlay {
	return FileOverlay{Path: filepath.Join(dir, "vendor_services.yaml")}
}

// LocalOverlay returns the local overlay file in dir.
func LocalOverlay(dir string) FileOverlay {
	return FileOverlay{Path: filepath.Join(dir, "local.yaml")}
}

func (f FileOverlay) Name() string {
	return f.Path
}

func (f FileOverlay) Load() (Overlay, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Overlay{}, fmt.Errorf("read file: %w", err)
	}
	return ParseOverlay(data)
}

// ParseOverlay decodes YAML overlay data. Unknown keys are rejected.
func ParseOverlay(data []byte) (Overlay, error) {
	var overlay Overlay
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&overlay); err != nil && !errors.Is(err, io.EOF) {
		return Overlay{}, fmt.Errorf("parse YAML: %w", err)
	}
	if overlay.Server != nil {
		if err := overlay.Server.parseDurations(); err != nil {
			return Overlay{}, err
		}
	}
	return overlay, nil
}

func (o *ServerOverlay) parseDurations() error {
	o.durations = make(map[string]time.Duration)
	fields := map[string]*string{
		"read_header_timeout":   o.ReadHeaderTimeout,
		"write_timeout":         o.WriteTimeout,
		"idle_timeout":          o.IdleTimeout,
		"shutdown_grace_period": o.ShutdownGracePeriod,
	}
	for key, raw := range fields {
		if raw == nil {
			continue
		}
		d, err := time.ParseDuration(*raw)
		if err != nil {
			return fmt.Errorf("server.%s: %w", key, err)
		}
		o.durations[key] = d
	}
	return nil
}

// apply merges o into s.
func (o Overlay) apply(s *Settings) {
	setString(&s.SecretKey, o.SecretKey)
	setString(&s.SiteBaseURL, o.SiteBaseURL)
	setString(&s.PublishChannel, o.PublishChannel)
	setString(&s.RedisURL, o.RedisURL)
	setString(&s.DatabaseURL, o.DatabaseURL)
	setString(&s.StaticDir, o.StaticDir)

	if len(o.AllowedHosts) > 0 {
		s.AllowedHosts = append([]string(nil), o.AllowedHosts...)
	}
	if o.PublishMessages != nil {
		s.PublishMessages = *o.PublishMessages
	}
	if o.PricesBatchSize != nil {
		s.PricesBatchSize = *o.PricesBatchSize
	}
	if o.TickersMinimumUSDVolume != nil {
		s.TickersMinimumUSDVolume = *o.TickersMinimumUSDVolume
	}
	if len(o.Exchanges) > 0 {
		s.Exchanges = append([]market.Exchange(nil), o.Exchanges...)
	}
	if len(o.CounterCurrencies) > 0 {
		s.CounterCurrencies = append([]market.CounterCurrency(nil), o.CounterCurrencies...)
	}
	if o.Server != nil {
		o.Server.apply(&s.Server)
	}
}

func (o *ServerOverlay) apply(cfg *ServerSettings) {
	setString(&cfg.Port, o.Port)

	if d, ok := o.durations["read_header_timeout"]; ok {
		cfg.ReadHeaderTimeout = d
	}
	if d, ok := o.durations["write_timeout"]; ok {
		cfg.WriteTimeout = d
	}
	if d, ok := o.durations["idle_timeout"]; ok {
		cfg.IdleTimeout = d
	}
	if d, ok := o.durations["shutdown_grace_period"]; ok {
		cfg.ShutdownGracePeriod = d
	}
	if o.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *o.EnableRequestLogging
	}
	if o.RateLimit != nil {
		if o.RateLimit.RPS != nil {
			cfg.RateLimitRPS = *o.RateLimit.RPS
		}
		if o.RateLimit.Burst != nil {
			cfg.RateLimitBurst = *o.RateLimit.Burst
		}
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
