package market

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Exchange identifies a market data source. Codes are persisted downstream
// and must not be reordered.
type Exchange int

const (
	Poloniex Exchange = iota
	Bittrex
	Binance
	Bitfinex
	Kucoin
	GDAX
	HitBTC
)

var exchangeNames = [...]string{
	Poloniex: "poloniex",
	Bittrex:  "bittrex",
	Binance:  "binance",
	Bitfinex: "bitfinex",
	Kucoin:   "kucoin",
	GDAX:     "gdax",
	HitBTC:   "hitbtc",
}

// gdax cannot fetch all tickers in a single call, bitfinex and kucoin are not enabled yet.
var supportedExchanges = []Exchange{Poloniex, Binance, Bittrex}

// Exchanges returns every known exchange in code order.
func Exchanges() []Exchange {
	out := make([]Exchange, len(exchangeNames))
	for i := range exchangeNames {
		out[i] = Exchange(i)
	}
	return out
}

// SupportedExchanges returns the exchanges polled by default.
func SupportedExchanges() []Exchange {
	out := make([]Exchange, len(supportedExchanges))
	copy(out, supportedExchanges)
	return out
}

// ParseExchange maps a lowercase exchange name to its Exchange.
func ParseExchange(name string) (Exchange, error) {
	for i, n := range exchangeNames {
		if n == name {
			return Exchange(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExchange, name)
}

// Valid reports whether e is one of the known exchanges.
func (e Exchange) Valid() bool {
	return e >= 0 && int(e) < len(exchangeNames)
}

// Code returns the integer code of the exchange.
func (e Exchange) Code() int {
	return int(e)
}

func (e Exchange) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Exchange(%d)", int(e))
	}
	return exchangeNames[e]
}

// ExchangeChoices returns the code/name table for all exchanges.
func ExchangeChoices() []Choice {
	choices := make([]Choice, 0, len(exchangeNames))
	for _, e := range Exchanges() {
		choices = append(choices, Choice{Code: e.Code(), Name: e.String()})
	}
	return choices
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownExchange, int(e))
	}
	return json.Marshal(e.String())
}

func (e *Exchange) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseExchange(name)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e *Exchange) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseExchange(name)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
