package entity

import (
	"regexp"
	"strings"
)

// WatchlistEntry is one user-configured ticker. Code is kept in canonical
// TICKER.SUFFIX form; MarketCode is the upstream market number used when
// querying the feeds.
type WatchlistEntry struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Market     Market `json:"market"`
	MarketCode string `json:"marketCode"`
}

var (
	hkCodePattern = regexp.MustCompile(`^\d{5}$`)
	cnCodePattern = regexp.MustCompile(`^\d{6}$`)
	usCodePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]{0,11}$`)
)

// Ticker returns the bare ticker without its market suffix, as the upstream
// feeds expect it.
func (e WatchlistEntry) Ticker() string {
	base, _ := StripKnownSuffix(e.Code)
	return base
}

// Normalize validates an entry and fills its market fields. The market is
// taken from the code suffix when present, otherwise inferred from the code
// shape: 5-digit → Hong Kong, 6-digit → A-share (leading 5/6/9 → Shanghai),
// alphabetic → US. Returns false when name or code is empty or the code
// shape is unrecognizable.
func (e WatchlistEntry) Normalize() (WatchlistEntry, bool) {
	name := strings.TrimSpace(e.Name)
	rawCode := strings.TrimSpace(e.Code)
	if name == "" || rawCode == "" {
		return WatchlistEntry{}, false
	}

	base, suffix := StripKnownSuffix(rawCode)
	mktNum := strings.TrimSpace(e.MarketCode)

	if mktNum == "" && suffix != "" {
		mktNum = SuffixToMktNum[suffix]
	}

	if mktNum == "" {
		switch {
		case hkCodePattern.MatchString(base):
			mktNum = MktNumHongKong
		case cnCodePattern.MatchString(base):
			if strings.HasPrefix(base, "5") || strings.HasPrefix(base, "6") || strings.HasPrefix(base, "9") {
				mktNum = MktNumShanghai
			} else {
				mktNum = MktNumShenzhen
			}
		case usCodePattern.MatchString(base):
			mktNum = MktNumNasdaq
		default:
			return WatchlistEntry{}, false
		}
	}

	market, ok := MarketFromMktNum(mktNum)
	if !ok {
		return WatchlistEntry{}, false
	}

	return WatchlistEntry{
		Name:       name,
		Code:       DisplayCode(base, mktNum),
		Market:     market,
		MarketCode: mktNum,
	}, true
}

// IsAShare reports whether the entry trades on a domestic A-share exchange.
func (e WatchlistEntry) IsAShare() bool {
	return e.MarketCode == MktNumShenzhen || e.MarketCode == MktNumShanghai
}
