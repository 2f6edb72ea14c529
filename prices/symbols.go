package prices

import "strings"

// symbolToID maps supported crypto symbols to CoinGecko coin ids.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"XLM":   "stellar",
}

var idToSymbol = func() map[string]string {
	m := make(map[string]string, len(symbolToID))
	for sym, id := range symbolToID {
		m[id] = sym
	}
	return m
}()

// IsSupported checks if a crypto symbol is supported
func IsSupported(symbol string) bool {
	_, ok := symbolToID[strings.ToUpper(symbol)]
	return ok
}

// Supported returns all supported symbols (the candidate universe).
func Supported() []string {
	out := make([]string, 0, len(symbolToID))
	for sym := range symbolToID {
		out = append(out, sym)
	}
	return out
}
