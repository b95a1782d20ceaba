package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang-market-calendar/internal/calendar/config"
	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"
	"golang-market-calendar/pkg/utils"

	"golang.org/x/time/rate"
)

const (
	announcementMaxPages = 8
	calendarMaxPages     = 5
	upstreamPageSize     = 100
)

// EastmoneyRepository fetches raw records from the Eastmoney public
// endpoints. Every method returns the raw upstream shape; normalization
// happens in the service layer.
type EastmoneyRepository interface {
	GetAnnouncements(ctx context.Context, entry entity.WatchlistEntry) ([]dto.NoticeItem, error)
	GetDisclosureCalendar(ctx context.Context, entry entity.WatchlistEntry) ([]dto.CalendarRow, error)
	GetFastNews(ctx context.Context, maxPages int, oldestAllowed time.Time) ([]dto.FastNewsItem, error)
	Suggest(ctx context.Context, query string) ([]dto.SuggestRow, error)
}

type eastmoneyRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewEastmoneyRepository creates an Eastmoney client with a shared request
// rate limiter.
func NewEastmoneyRepository(cfg *config.Config, log *logger.Logger) EastmoneyRepository {
	maxPerMinute := cfg.Eastmoney.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	secondsPerRequest := time.Minute / time.Duration(maxPerMinute)

	timeout := 30 * time.Second
	if d, err := time.ParseDuration(cfg.Eastmoney.RequestTimeout); err == nil && d > 0 {
		timeout = d
	}

	return &eastmoneyRepository{
		cfg:            cfg,
		log:            log,
		httpClient:     &http.Client{Timeout: timeout},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// GetAnnouncements pages through the announcement feed for one ticker.
func (r *eastmoneyRepository) GetAnnouncements(ctx context.Context, entry entity.WatchlistEntry) ([]dto.NoticeItem, error) {
	var records []dto.NoticeItem

	for pageIndex := 1; pageIndex <= announcementMaxPages; pageIndex++ {
		params := url.Values{}
		params.Set("page_size", strconv.Itoa(upstreamPageSize))
		params.Set("page_index", strconv.Itoa(pageIndex))
		params.Set("market_code", entry.MarketCode)
		params.Set("stock_list", entry.Ticker())
		params.Set("client_source", "web")

		body, err := r.sendRequest(ctx, r.cfg.Eastmoney.NoticeBaseURL+"/api/security/ann", params)
		if err != nil {
			return nil, fmt.Errorf("fetch announcements for %s: %w", entry.Code, err)
		}

		var payload dto.NoticeResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode announcements for %s: %w", entry.Code, err)
		}

		if len(payload.Data.List) == 0 {
			break
		}
		records = append(records, payload.Data.List...)

		if pageIndex >= payload.Data.PageCount {
			break
		}
	}

	return records, nil
}

// GetDisclosureCalendar pages through the scheduled-disclosure calendar for
// one A-share ticker.
func (r *eastmoneyRepository) GetDisclosureCalendar(ctx context.Context, entry entity.WatchlistEntry) ([]dto.CalendarRow, error) {
	var rows []dto.CalendarRow

	for pageNumber := 1; pageNumber <= calendarMaxPages; pageNumber++ {
		params := url.Values{}
		params.Set("reportName", "RPT_STOCKCALENDAR")
		params.Set("columns", "SECUCODE,SECURITY_CODE,SECURITY_INNER_CODE,ORG_CODE,NOTICE_DATE,INFO_CODE,EVENT_TYPE,EVENT_TYPE_CODE,LEVEL1_CONTENT")
		params.Set("quoteColumns", "")
		params.Set("filter", fmt.Sprintf(`(SECURITY_CODE="%s")(EVENT_TYPE_CODE in ("006"))`, entry.Ticker()))
		params.Set("pageNumber", strconv.Itoa(pageNumber))
		params.Set("pageSize", strconv.Itoa(upstreamPageSize))
		params.Set("sortTypes", "1")
		params.Set("sortColumns", "NOTICE_DATE")
		params.Set("source", "QuoteWeb")
		params.Set("client", "WEB")

		body, err := r.sendRequest(ctx, r.cfg.Eastmoney.DataCenterBaseURL+"/api/data/v1/get", params)
		if err != nil {
			return nil, fmt.Errorf("fetch disclosure calendar for %s: %w", entry.Code, err)
		}

		var payload dto.CalendarResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode disclosure calendar for %s: %w", entry.Code, err)
		}

		if len(payload.Result.Data) == 0 {
			break
		}
		rows = append(rows, payload.Result.Data...)

		if pageNumber >= payload.Result.Pages {
			break
		}
	}

	return rows, nil
}

// GetFastNews pages backwards through the 7x24 news flash, stopping once a
// page ends older than oldestAllowed.
func (r *eastmoneyRepository) GetFastNews(ctx context.Context, maxPages int, oldestAllowed time.Time) ([]dto.FastNewsItem, error) {
	var items []dto.FastNewsItem
	sortEnd := ""

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("client", "web")
		params.Set("biz", "web_724")
		params.Set("fastColumn", "125,126,127,128,129,130,131")
		params.Set("sortEnd", sortEnd)
		params.Set("pageSize", strconv.Itoa(upstreamPageSize))
		params.Set("req_trace", fmt.Sprintf("macro_%d_%d", page, time.Now().Unix()))

		body, err := r.sendRequest(ctx, r.cfg.Eastmoney.FastNewsBaseURL+"/comm/web/getFastNewsList", params)
		if err != nil {
			return nil, fmt.Errorf("fetch fast news page %d: %w", page, err)
		}

		var payload dto.FastNewsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode fast news page %d: %w", page, err)
		}

		list := payload.Data.FastNewsList
		if len(list) == 0 {
			break
		}
		items = append(items, list...)

		sortEnd = payload.Data.SortEnd
		if sortEnd == "" {
			break
		}
		if lastDay, err := utils.ParseDate(list[len(list)-1].ShowTime); err == nil && lastDay.Before(oldestAllowed) {
			break
		}
	}

	return items, nil
}

// Suggest queries the name/code lookup endpoint.
func (r *eastmoneyRepository) Suggest(ctx context.Context, query string) ([]dto.SuggestRow, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("type", "14")

	body, err := r.sendRequest(ctx, r.cfg.Eastmoney.SuggestBaseURL+"/api/suggest/get", params)
	if err != nil {
		return nil, fmt.Errorf("fetch suggestions for %q: %w", query, err)
	}

	var payload dto.SuggestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode suggestions for %q: %w", query, err)
	}

	return payload.QuotationCodeTable.Data, nil
}

func (r *eastmoneyRepository) sendRequest(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Upstream request failed", logger.StringField("url", rawURL), logger.ErrorField(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Upstream returned non-OK status", logger.StringField("url", rawURL), logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}
