package models

// Universe is the fixed allow-list of tradable tickers for a pipeline
// instance. Generator, validator, and trade validator must share one
// universe; mixing variants within a pipeline is a configuration error.
type Universe []string

// DefaultUniverse is the compact 10-symbol allow-list.
func DefaultUniverse() Universe {
	return Universe{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "JPM", "WMT", "V"}
}

// ExtendedUniverse is the full 20-symbol allow-list.
func ExtendedUniverse() Universe {
	return Universe{
		"UNH", "TSLA", "QCOM", "ORCL", "NVDA", "NFLX", "MSFT", "META", "LLY", "JNJ",
		"INTC", "IBM", "GOOGL", "GM", "F", "CSCO", "AMZN", "AMD", "ADBE", "AAPL",
	}
}

// Contains reports whether symbol is a member of the universe.
func (u Universe) Contains(symbol string) bool {
	for _, s := range u {
		if s == symbol {
			return true
		}
	}
	return false
}
