package trade

import (
	"regexp"
	"strings"
)

const (
	SymbolError  = "!!!ERROR!!!"
	tickerWidth  = 6
	tickerFiller = "^"
)

var localSymbolRe = regexp.MustCompile(`^\s*(\S+)\s+(.*\S)\s*$`)

// NormalizeSymbol turns an IB local symbol such as "SPX   130921P01660000"
// into "SPX^^^130921P01660000". Anything that is not two tokens yields SymbolError.
func NormalizeSymbol(localSymbol string) string {
	m := localSymbolRe.FindStringSubmatch(localSymbol)
	if m == nil {
		return SymbolError
	}

	ticker := m[1]
	if pad := tickerWidth - len(ticker); pad > 0 {
		ticker += strings.Repeat(tickerFiller, pad)
	}
	return ticker + m[2]
}
