package domain

import "time"

// PricePoint is a single observed (or predicted) price at an instant.
type PricePoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Price      float64   `json:"price"`
	Prediction bool      `json:"is_prediction,omitempty"`
}

// Series is an ordered price history for one (symbol, timeframe) pair.
// Synthetic marks series fabricated by the generator after every real
// source failed or returned degenerate data; callers surface this to the
// user as a "simulated data" notice rather than an error.
type Series struct {
	Symbol    string       `json:"symbol"`
	Timeframe Timeframe    `json:"timeframe"`
	Points    []PricePoint `json:"points"`
	Source    string       `json:"source"`
	Synthetic bool         `json:"synthetic"`
}

// Last returns the final point of the series, or a zero point if empty.
func (s *Series) Last() PricePoint {
	if len(s.Points) == 0 {
		return PricePoint{}
	}
	return s.Points[len(s.Points)-1]
}

// Tail returns the last n points (the whole series if shorter).
func (s *Series) Tail(n int) []PricePoint {
	if len(s.Points) <= n {
		return s.Points
	}
	return s.Points[len(s.Points)-n:]
}

// PriceSnapshot represents the latest quote for an asset.
type PriceSnapshot struct {
	Symbol          string  `json:"symbol"`
	PriceUSD        float64 `json:"price_usd"`
	Volume24h       float64 `json:"volume_24h"`
	Change24hPct    float64 `json:"change_24h_pct"`
	LastUpdatedUnix int64   `json:"last_updated_unix"`
}

// CoinGeckoID maps internal symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

// CoinCapID maps internal symbols to CoinCap asset identifiers.
var CoinCapID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "xrp",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche",
	"LINK":  "chainlink",
	"MATIC": "polygon",
}

// CoinGeckoIDToSymbol is the reverse mapping.
var CoinGeckoIDToSymbol map[string]string

func init() {
	CoinGeckoIDToSymbol = make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		CoinGeckoIDToSymbol[id] = sym
	}
}

// SupportedSymbols lists all tracked crypto symbols.
var SupportedSymbols = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "MATIC",
}

// IsSupported reports whether the symbol is tracked.
func IsSupported(symbol string) bool {
	_, ok := CoinGeckoID[symbol]
	return ok
}
