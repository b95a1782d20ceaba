package entity

import (
	"regexp"
	"strings"
)

// Market is the display market an event or ticker belongs to.
type Market string

const (
	MarketCN Market = "A股"
	MarketHK Market = "港股"
	MarketUS Market = "美股"
)

// Eastmoney market numbers. Shenzhen and Shanghai are separate numbers but
// both map to the A-share market.
const (
	MktNumShenzhen = "0"
	MktNumShanghai = "1"
	MktNumHongKong = "116"
	MktNumNasdaq   = "105"
	MktNumNYSE     = "106"
	MktNumAmex     = "107"
)

var nonDigits = regexp.MustCompile(`\D`)

// MarketFromMktNum maps an Eastmoney market number to a display market.
func MarketFromMktNum(mktNum string) (Market, bool) {
	switch mktNum {
	case MktNumShenzhen, MktNumShanghai:
		return MarketCN, true
	case MktNumHongKong:
		return MarketHK, true
	case MktNumNasdaq, MktNumNYSE, MktNumAmex:
		return MarketUS, true
	}
	return "", false
}

// GroupFromMktNum maps an Eastmoney market number to a market group hint
// (A, HK or US).
func GroupFromMktNum(mktNum string) (string, bool) {
	switch mktNum {
	case MktNumShenzhen, MktNumShanghai:
		return "A", true
	case MktNumHongKong:
		return "HK", true
	case MktNumNasdaq, MktNumNYSE, MktNumAmex:
		return "US", true
	}
	return "", false
}

// MktNumsForGroup returns the market numbers covered by a group hint; an
// empty or unknown group means all markets.
func MktNumsForGroup(group string) map[string]bool {
	switch group {
	case "A":
		return map[string]bool{MktNumShenzhen: true, MktNumShanghai: true}
	case "HK":
		return map[string]bool{MktNumHongKong: true}
	case "US":
		return map[string]bool{MktNumNasdaq: true, MktNumNYSE: true, MktNumAmex: true}
	}
	return map[string]bool{
		MktNumShenzhen: true, MktNumShanghai: true, MktNumHongKong: true,
		MktNumNasdaq: true, MktNumNYSE: true, MktNumAmex: true,
	}
}

// SuffixToMktNum maps canonical code suffixes to market numbers.
var SuffixToMktNum = map[string]string{
	"XSHE": MktNumShenzhen,
	"XSHG": MktNumShanghai,
	"XHKG": MktNumHongKong,
	"US":   MktNumNasdaq,
	"XNAS": MktNumNasdaq,
	"XNYS": MktNumNYSE,
}

// DisplayCode renders a raw ticker in canonical TICKER.SUFFIX form for its
// market number, zero-padding numeric tickers to their market width.
func DisplayCode(code, mktNum string) string {
	raw := strings.ToUpper(strings.TrimSpace(code))
	if raw == "" || strings.Contains(raw, ".") {
		return raw
	}

	switch mktNum {
	case MktNumShenzhen, MktNumShanghai:
		digits := nonDigits.ReplaceAllString(raw, "")
		if digits == "" {
			return raw
		}
		suffix := "XSHE"
		if mktNum == MktNumShanghai {
			suffix = "XSHG"
		}
		return zfill(digits, 6) + "." + suffix
	case MktNumHongKong:
		digits := nonDigits.ReplaceAllString(raw, "")
		if digits == "" {
			return raw
		}
		return zfill(digits, 5) + ".XHKG"
	case MktNumNasdaq, MktNumNYSE, MktNumAmex:
		return raw + ".US"
	}
	return raw
}

func zfill(digits string, width int) string {
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits
}

// StripKnownSuffix splits a canonical code into its base ticker and market
// suffix. Unknown suffixes are left attached.
func StripKnownSuffix(text string) (base, suffix string) {
	raw := strings.ToUpper(strings.TrimSpace(text))
	idx := strings.LastIndex(raw, ".")
	if idx < 0 {
		return raw, ""
	}
	if _, ok := SuffixToMktNum[raw[idx+1:]]; ok {
		return raw[:idx], raw[idx+1:]
	}
	return raw, ""
}
