package market

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CounterCurrency is the quote side of a trading pair.
type CounterCurrency int

const (
	BTC CounterCurrency = iota
	ETH
	USDT
	XMR
)

var counterCurrencySymbols = [...]string{
	BTC:  "BTC",
	ETH:  "ETH",
	USDT: "USDT",
	XMR:  "XMR",
}

// Only pairs quoted in these currencies are kept in history.
var supportedCounterCurrencies = []CounterCurrency{BTC, ETH, USDT}

// CounterCurrencies returns every known counter currency in code order.
func CounterCurrencies() []CounterCurrency {
	out := make([]CounterCurrency, len(counterCurrencySymbols))
	for i := range counterCurrencySymbols {
		out[i] = CounterCurrency(i)
	}
	return out
}

// SupportedCounterCurrencies returns the counter currencies kept by default.
func SupportedCounterCurrencies() []CounterCurrency {
	out := make([]CounterCurrency, len(supportedCounterCurrencies))
	copy(out, supportedCounterCurrencies)
	return out
}

// ParseCounterCurrency maps an uppercase ticker symbol to its CounterCurrency.
func ParseCounterCurrency(symbol string) (CounterCurrency, error) {
	for i, s := range counterCurrencySymbols {
		if s == symbol {
			return CounterCurrency(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCounterCurrency, symbol)
}

func (c CounterCurrency) Valid() bool {
	return c >= 0 && int(c) < len(counterCurrencySymbols)
}

func (c CounterCurrency) Code() int {
	return int(c)
}

func (c CounterCurrency) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CounterCurrency(%d)", int(c))
	}
	return counterCurrencySymbols[c]
}

// CounterCurrencyChoices returns the code/symbol table for all counter currencies.
func CounterCurrencyChoices() []Choice {
	choices := make([]Choice, 0, len(counterCurrencySymbols))
	for _, c := range CounterCurrencies() {
		choices = append(choices, Choice{Code: c.Code(), Name: c.String()})
	}
	return choices
}

func (c CounterCurrency) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownCounterCurrency, int(c))
	}
	return json.Marshal(c.String())
}

func (c *CounterCurrency) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil {
		return err
	}
	parsed, err := ParseCounterCurrency(symbol)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *CounterCurrency) UnmarshalYAML(node *yaml.Node) error {
	var symbol string
	if err := node.Decode(&symbol); err != nil {
		return err
	}
	parsed, err := ParseCounterCurrency(symbol)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
