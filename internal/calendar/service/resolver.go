package service

import (
	"context"
	"fmt"
	"strings"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// ResolverService turns free-text names or partial codes into a canonical
// (name, code, market) triple.
type ResolverService interface {
	Resolve(ctx context.Context, query, group string) (*dto.ResolvedTicker, error)
}

type resolverService struct {
	emRepo repository.EastmoneyRepository
	log    *logger.Logger
	// Resolved tickers are effectively static, so hits are cached for the
	// process lifetime.
	cache *gocache.Cache
}

// NewResolverService creates a resolver backed by the suggest endpoint.
func NewResolverService(emRepo repository.EastmoneyRepository, log *logger.Logger) ResolverService {
	return &resolverService{
		emRepo: emRepo,
		log:    log,
		cache:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Resolve resolves a query scoped to an optional market group hint (A, HK or
// US). Fully-qualified codes parse locally without an external lookup.
// Upstream failures and empty candidate sets both surface as
// ErrTickerNotFound, never as a hard error.
func (s *resolverService) Resolve(ctx context.Context, query, group string) (*dto.ResolvedTicker, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrTickerNotFound
	}
	group = strings.ToUpper(strings.TrimSpace(group))

	base, suffix := entity.StripKnownSuffix(query)
	if suffix != "" {
		return resolveQualifiedCode(base, suffix)
	}

	cacheKey := group + "|" + strings.ToUpper(query)
	if cached, found := s.cache.Get(cacheKey); found {
		resolved := cached.(dto.ResolvedTicker)
		return &resolved, nil
	}

	allowed := allowedMktNums(base, group)

	rows, err := s.emRepo.Suggest(ctx, query)
	if err != nil {
		s.log.Warn("Ticker lookup failed", logger.StringField("query", query), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", ErrTickerNotFound, err)
	}

	best, ok := pickBestCandidate(rows, base, query, group, allowed)
	if !ok {
		return nil, ErrTickerNotFound
	}

	market, ok := entity.MarketFromMktNum(best.MktNum)
	if !ok {
		return nil, ErrTickerNotFound
	}
	marketGroup, _ := entity.GroupFromMktNum(best.MktNum)

	resolved := dto.ResolvedTicker{
		Name:       strings.TrimSpace(best.Name),
		Code:       entity.DisplayCode(best.Code, best.MktNum),
		Market:     market,
		MarketCode: best.MktNum,
		Group:      marketGroup,
	}
	s.cache.Set(cacheKey, resolved, gocache.NoExpiration)

	return &resolved, nil
}

// resolveQualifiedCode parses a code that already carries a market suffix.
// The name stays empty; the caller fills it.
func resolveQualifiedCode(base, suffix string) (*dto.ResolvedTicker, error) {
	mktNum := entity.SuffixToMktNum[suffix]
	market, ok := entity.MarketFromMktNum(mktNum)
	if !ok {
		return nil, ErrTickerNotFound
	}
	marketGroup, _ := entity.GroupFromMktNum(mktNum)

	return &dto.ResolvedTicker{
		Code:       entity.DisplayCode(base, mktNum),
		Market:     market,
		MarketCode: mktNum,
		Group:      marketGroup,
	}, nil
}

// allowedMktNums scopes the candidate set by the group hint, or by the code
// shape when no hint is given: 5-digit → HK, 6-digit → A-share, alphabetic
// ticker shape → US. Free text that fits no code shape stays unscoped.
func allowedMktNums(base, group string) map[string]bool {
	if group == "" {
		switch {
		case hkCodeShape(base):
			group = "HK"
		case cnCodeShape(base):
			group = "A"
		case usCodeShape(base):
			group = "US"
		}
	}
	return entity.MktNumsForGroup(group)
}

func hkCodeShape(code string) bool {
	return len(code) == 5 && allDigits(code)
}

func cnCodeShape(code string) bool {
	return len(code) == 6 && allDigits(code)
}

func usCodeShape(code string) bool {
	if len(code) == 0 || len(code) > 6 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// pickBestCandidate scores the source-ranked candidates and keeps the
// highest score; the first seen wins ties. The weights mirror how users
// search: exact code beats exact name beats prefixes beats substrings.
func pickBestCandidate(rows []dto.SuggestRow, base, rawQuery, group string, allowed map[string]bool) (dto.SuggestRow, bool) {
	queryUpper := strings.ToUpper(base)
	queryText := strings.ToLower(strings.TrimSpace(rawQuery))
	hinted := entity.MktNumsForGroup(group)

	var best dto.SuggestRow
	bestScore := -1
	seen := make(map[string]bool)

	for _, row := range rows {
		mktNum := strings.TrimSpace(row.MktNum)
		if _, valid := entity.MarketFromMktNum(mktNum); !valid {
			continue
		}
		if !allowed[mktNum] {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(row.Code))
		name := strings.TrimSpace(row.Name)
		if code == "" || name == "" {
			continue
		}

		uniqueKey := mktNum + ":" + code
		if seen[uniqueKey] {
			continue
		}
		seen[uniqueKey] = true

		score := 0
		if code == queryUpper {
			score += 120
		} else if queryUpper != "" && strings.HasPrefix(code, queryUpper) {
			score += 85
		}

		nameLower := strings.ToLower(name)
		switch {
		case nameLower == queryText:
			score += 110
		case queryText != "" && strings.HasPrefix(nameLower, queryText):
			score += 70
		case queryText != "" && strings.Contains(nameLower, queryText):
			score += 45
		}

		pinyin := strings.ToUpper(strings.TrimSpace(row.PinYin))
		if queryUpper != "" && pinyin == queryUpper {
			score += 65
		} else if queryUpper != "" && strings.HasPrefix(pinyin, queryUpper) {
			score += 35
		}

		if group != "" && hinted[mktNum] {
			score += 5
		}

		if score > bestScore {
			bestScore = score
			best = row
			best.MktNum = mktNum
		}
	}

	return best, bestScore >= 0
}
