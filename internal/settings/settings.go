package settings

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/intelligenttrading/data-sources/internal/market"
)

const (
	DefaultAPIHost  = "http://127.0.0.1:8000/api"
	DefaultAPIKey   = "ABC123"
	defaultEmail    = "info@intelligenttrading.org"
	defaultPort     = "8080"
	defaultChannel  = "itt.prices"
	defaultBatch    = 100
	defaultMinUSD   = 5000
	defaultRPS      = 25.0
	defaultBurst    = 50
	staticURL       = "/static/"
	staticDir       = "static"
	languageCode    = "en-us"
	timeZone        = "UTC"
	proxyHeaderName = "X-Forwarded-Proto"
)

var defaultAllowedHosts = []string{
	".intelligenttrading.org",
	".in7el.trade",
	".herokuapp.com",
	"localhost",
}

// Components whose debug output is suppressed in the local and staging modes.
var quietComponents = []string{"publish", "health"}

// Settings is the resolved configuration bundle.
type Settings struct {
	Mode     Mode
	Debug    bool
	LogLevel zapcore.Level
	// QuietComponents are capped at info level regardless of LogLevel.
	QuietComponents []string

	SecretKey   string
	SiteBaseURL string
	APIHost     string
	APIKey      string
	RedisURL    string
	DatabaseURL string

	ServiceEmail     string
	SupportEmail     string
	DefaultFromEmail string
	AllowedHosts     []string
	LanguageCode     string
	TimeZone         string
	StaticURL        string
	StaticDir        string

	PublishMessages bool
	PublishChannel  string
	PricesBatchSize int

	Exchanges               []market.Exchange
	CounterCurrencies       []market.CounterCurrency
	TickersMinimumUSDVolume float64

	// ProxySSLHeader is nil unless requests arrive through a trusted proxy.
	ProxySSLHeader *ProxyHeader

	Server ServerSettings
}

// ProxyHeader names the header, and the value of it, that marks a proxied
// request as having arrived over HTTPS.
type ProxyHeader struct {
	Name  string
	Value string
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Port                 string
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	ShutdownGracePeriod  time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// PublicSettings is the subset of Settings that is safe to expose.
type PublicSettings struct {
	Mode                    string                   `json:"mode"`
	Debug                   bool                     `json:"debug"`
	SiteBaseURL             string                   `json:"siteBaseUrl"`
	PublishMessages         bool                     `json:"publishMessages"`
	PricesBatchSize         int                      `json:"pricesBatchSize"`
	Exchanges               []market.Exchange        `json:"exchanges"`
	CounterCurrencies       []market.CounterCurrency `json:"counterCurrencies"`
	TickersMinimumUSDVolume float64                  `json:"tickersMinimumUsdVolume"`
	LanguageCode            string                   `json:"languageCode"`
	TimeZone                string                   `json:"timeZone"`
	StaticURL               string                   `json:"staticUrl"`
}

// Flags returns the one-hot mode flags.
func (s Settings) Flags() ModeFlags {
	return s.Mode.Flags()
}

// Public returns the non-secret view of s.
func (s Settings) Public() PublicSettings {
	return PublicSettings{
		Mode:                    s.Mode.String(),
		Debug:                   s.Debug,
		SiteBaseURL:             s.SiteBaseURL,
		PublishMessages:         s.PublishMessages,
		PricesBatchSize:         s.PricesBatchSize,
		Exchanges:               append([]market.Exchange(nil), s.Exchanges...),
		CounterCurrencies:       append([]market.CounterCurrency(nil), s.CounterCurrencies...),
		TickersMinimumUSDVolume: s.TickersMinimumUSDVolume,
		LanguageCode:            s.LanguageCode,
		TimeZone:                s.TimeZone,
		StaticURL:               s.StaticURL,
	}
}

// baseSettings returns the mode-dependent defaults.
func baseSettings(mode Mode) Settings {
	s := Settings{
		Mode:                    mode,
		Debug:                   mode.Debug(),
		LogLevel:                LogLevel(mode),
		ServiceEmail:            defaultEmail,
		SupportEmail:            defaultEmail,
		DefaultFromEmail:        defaultEmail,
		AllowedHosts:            append([]string(nil), defaultAllowedHosts...),
		LanguageCode:            languageCode,
		TimeZone:                timeZone,
		StaticURL:               staticURL,
		StaticDir:               staticDir,
		PublishChannel:          defaultChannel,
		PricesBatchSize:         defaultBatch,
		Exchanges:               market.SupportedExchanges(),
		CounterCurrencies:       market.SupportedCounterCurrencies(),
		TickersMinimumUSDVolume: defaultMinUSD,
		Server:                  defaultServerSettings(),
	}

	if mode == ModeLocal || mode == ModeStaging {
		s.QuietComponents = append([]string(nil), quietComponents...)
	}

	if mode == ModeProduction || mode == ModeStaging {
		s.ProxySSLHeader = &ProxyHeader{Name: proxyHeaderName, Value: "https"}
	}

	return s
}

func defaultServerSettings() ServerSettings {
	return ServerSettings{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRPS,
		RateLimitBurst:       defaultBurst,
	}
}
