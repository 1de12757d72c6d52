// Package catalog holds the supported-token universe used for scanner
// expansion and plan scoping.
package catalog

import "strings"

// FreeTokens is the universe available to free-plan users.
var FreeTokens = []string{"BTC", "ETH", "SOL"}

// FullTokens is the full supported universe, used when a persona's token
// selector is the scanner marker.
var FullTokens = []string{
	"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "MATIC",
	"TRX", "LTC", "SHIB", "UNI", "ATOM", "LINK", "XLM", "BCH", "ALGO", "NEAR",
	"FIL", "VET", "ICP", "HBAR", "EGLD", "SAND", "MANA", "AXS", "THETA", "EOS",
	"AAVE", "XTZ", "FLOW", "FTM", "GRT", "KCS", "MKR", "SNX", "ZEC", "RUNE",
	"NEO", "CRV", "CHZ", "BAT", "ENJ", "DASH", "CAKE", "STX", "SUSHI", "COMP",
	"ZIL", "YFI", "1INCH", "LRC", "WAVES", "KSM", "RVN", "ONE", "OMG", "ONT",
	"IOST", "QTUM", "ICX", "ANKR", "ZEN", "ZRX", "DGB", "SC", "UMA", "HOT",
	"PEPE", "FLOKI", "BONK", "WIF", "JUP", "PYTH", "TIA", "SEI", "SUI", "APT",
	"ARB", "OP", "BLUR", "LDO", "RNDR", "INJ", "IMX", "KAS", "FET", "AGIX",
	"OCEAN", "GALA", "CFX", "ACH", "WOO", "JASMY", "GLM", "GMT", "APE", "LUNC",
}

// ForPlan returns the token universe a plan is entitled to.
func ForPlan(plan string) []string {
	switch strings.ToUpper(strings.TrimSpace(plan)) {
	case "PRO", "TRADER", "WHALE", "OWNER", "ADMIN":
		return FullTokens
	default:
		return FreeTokens
	}
}

// Supported reports whether a symbol is in the full universe.
func Supported(token string) bool {
	t := strings.ToUpper(strings.TrimSpace(token))
	for _, s := range FullTokens {
		if s == t {
			return true
		}
	}
	return false
}
