package symbols

import "strings"

// AssetClass selects which provider stack serves a symbol.
type AssetClass string

const (
	Crypto AssetClass = "crypto"
	Stock  AssetClass = "stock"
	ETF    AssetClass = "etf"
)

// cryptoIDs maps common tickers to the crypto provider's internal coin
// ids. Tickers missing here pass through lower-cased, which matches the
// provider's id scheme often enough to be a useful best-effort guess.
var cryptoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"BNB":   "binancecoin",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

// Resolve maps a user-facing ticker to the identifier the class's
// history provider expects. Resolution always succeeds: unmapped crypto
// tickers fall back to their lower-cased form and equities keep their
// upper-cased ticker. A wrong guess surfaces later as a failed provider
// call, which the orchestrator treats as "no data".
func Resolve(class AssetClass, symbol string) string {
	switch class {
	case Crypto:
		if id, ok := cryptoIDs[strings.ToUpper(symbol)]; ok {
			return id
		}
		return strings.ToLower(symbol)
	default:
		return strings.ToUpper(symbol)
	}
}
