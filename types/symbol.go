package types

import "fmt"

// Symbol is a GMO Coin instrument identifier as it appears on the wire.
type Symbol string

// Spot symbols.
const (
	BTC  Symbol = "BTC"
	ETH  Symbol = "ETH"
	BCH  Symbol = "BCH"
	LTC  Symbol = "LTC"
	XRP  Symbol = "XRP"
	XEM  Symbol = "XEM"
	XLM  Symbol = "XLM"
	BAT  Symbol = "BAT"
	XTZ  Symbol = "XTZ"
	QTUM Symbol = "QTUM"
	ENJ  Symbol = "ENJ"
	DOT  Symbol = "DOT"
	ATOM Symbol = "ATOM"
	MKR  Symbol = "MKR"
	DAI  Symbol = "DAI"
	XYM  Symbol = "XYM"
	MONA Symbol = "MONA"
	FCR  Symbol = "FCR"
	ADA  Symbol = "ADA"
	LINK Symbol = "LINK"
	DOGE Symbol = "DOGE"
	SOL  Symbol = "SOL"
	ASTR Symbol = "ASTR"
	NAC  Symbol = "NAC"
)

// Leverage symbols.
const (
	BTC_JPY  Symbol = "BTC_JPY"
	ETH_JPY  Symbol = "ETH_JPY"
	BCH_JPY  Symbol = "BCH_JPY"
	LTC_JPY  Symbol = "LTC_JPY"
	XRP_JPY  Symbol = "XRP_JPY"
	DOT_JPY  Symbol = "DOT_JPY"
	ATOM_JPY Symbol = "ATOM_JPY"
	ADA_JPY  Symbol = "ADA_JPY"
	LINK_JPY Symbol = "LINK_JPY"
	DOGE_JPY Symbol = "DOGE_JPY"
	SOL_JPY  Symbol = "SOL_JPY"
	ASTR_JPY Symbol = "ASTR_JPY"
)

var knownSymbols = map[Symbol]struct{}{
	BTC: {}, ETH: {}, BCH: {}, LTC: {}, XRP: {}, XEM: {}, XLM: {}, BAT: {}, XTZ: {}, QTUM: {},
	ENJ: {}, DOT: {}, ATOM: {}, MKR: {}, DAI: {}, XYM: {}, MONA: {}, FCR: {}, ADA: {}, LINK: {},
	DOGE: {}, SOL: {}, ASTR: {}, NAC: {},
	BTC_JPY: {}, ETH_JPY: {}, BCH_JPY: {}, LTC_JPY: {}, XRP_JPY: {}, DOT_JPY: {}, ATOM_JPY: {},
	ADA_JPY: {}, LINK_JPY: {}, DOGE_JPY: {}, SOL_JPY: {}, ASTR_JPY: {},
}

// ParseSymbol returns the Symbol for s, or an error if GMO Coin does not list it.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(s)
	if !sym.Valid() {
		return "", fmt.Errorf("unknown symbol %q", s)
	}
	return sym, nil
}

func (s Symbol) Valid() bool {
	_, ok := knownSymbols[s]
	return ok
}

// Leveraged reports whether s is a leverage (*_JPY) pair.
func (s Symbol) Leveraged() bool {
	n := len(s)
	return n > 4 && s[n-4:] == "_JPY"
}

func (s Symbol) String() string {
	return string(s)
}
