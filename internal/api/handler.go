package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/intelligenttrading/data-sources/internal/health"
	"github.com/intelligenttrading/data-sources/internal/market"
	"github.com/intelligenttrading/data-sources/internal/settings"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	secureContextKey    contextKey = "secure"
)

// Readiness reports on the backing services.
type Readiness interface {
	Run(ctx context.Context) health.Report
}

// Handler serves read-only views of the resolved settings.
type Handler struct {
	settings  settings.Settings
	readiness Readiness

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReadiness sets the checker behind /api/ready.
func WithReadiness(r Readiness) HandlerOption {
	return func(h *Handler) {
		h.readiness = r
	}
}

// NewHandler constructs a Handler for the provided settings.
func NewHandler(s settings.Settings, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings: s,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		Mode:      h.settings.Mode.String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	report := health.Report{Healthy: true, Results: []health.Result{}}
	if h.readiness != nil {
		report = h.readiness.Run(r.Context())
	}

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, readyResponse{Report: report, Timestamp: h.clock()})
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, h.settings.Public())
}

func (h *Handler) handleExchanges(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := exchangesResponse{
		Exchanges:               h.settings.Exchanges,
		CounterCurrencies:       h.settings.CounterCurrencies,
		ExchangeChoices:         market.ExchangeChoices(),
		CounterCurrencyChoices:  market.CounterCurrencyChoices(),
		TickersMinimumUSDVolume: h.settings.TickersMinimumUSDVolume,
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// IsSecure reports whether the request arrived over HTTPS, either directly
// or through a trusted proxy.
func IsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	secure, _ := r.Context().Value(secureContextKey).(bool)
	return secure
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
}

type readyResponse struct {
	health.Report
	Timestamp time.Time `json:"timestamp"`
}

type exchangesResponse struct {
	Exchanges               []market.Exchange        `json:"exchanges"`
	CounterCurrencies       []market.CounterCurrency `json:"counterCurrencies"`
	ExchangeChoices         []market.Choice          `json:"exchangeChoices"`
	CounterCurrencyChoices  []market.Choice          `json:"counterCurrencyChoices"`
	TickersMinimumUSDVolume float64                  `json:"tickersMinimumUsdVolume"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
