package market

import "errors"

var (
	// ErrUnknownExchange is returned when a name does not match any exchange.
	ErrUnknownExchange = errors.New("unknown exchange")
	// ErrUnknownCounterCurrency is returned when a symbol does not match any counter currency.
	ErrUnknownCounterCurrency = errors.New("unknown counter currency")
)

// Choice pairs an enumeration code with its display name.
type Choice struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}
