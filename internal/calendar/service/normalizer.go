package service

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"
	"golang-market-calendar/pkg/utils"
)

// Report classification for announcements, per market.
var aReportColumns = map[string]bool{
	"年度报告全文":     true,
	"年度报告摘要":     true,
	"年度报告全文(英文)": true,
	"半年度报告全文":    true,
	"半年度报告摘要":    true,
	"一季度报告全文":    true,
	"三季度报告全文":    true,
	"季度报告全文":     true,
}

var usReportColumns = map[string]bool{
	"10-Q":         true,
	"10-K":         true,
	"8-K 2.02":     true,
	"PRESENTATION": true,
}

var (
	hkEarningsPattern = regexp.MustCompile(`业绩公告|年度业绩|中期业绩|季度业绩|董事会会议召开日期`)
	usTitlePattern    = regexp.MustCompile(`(?i)earnings|financial results|10-q|10-k|业绩`)
)

// macroMarketPatterns is ordered: the first match wins.
var macroMarketPatterns = []struct {
	market  entity.Market
	pattern *regexp.Regexp
}{
	{entity.MarketHK, regexp.MustCompile(`香港|港元|香港特区|金管局`)},
	{entity.MarketUS, regexp.MustCompile(`(?i)美国|美联储|华尔街|非农|初请失业金|ADP`)},
	{entity.MarketCN, regexp.MustCompile(`中国|国家统计局|中国人民银行|全国城镇|内地|国务院`)},
}

// macroTopicPatterns is the configured set of macro topics; ordered, first
// match wins.
var macroTopicPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"就业率/就业数据", regexp.MustCompile(`(?i)失业|就业|非农|初请失业金|adp|unemployment|employment|jobless`)},
	{"PMI", regexp.MustCompile(`(?i)PMI|采购经理`)},
	{"CPI", regexp.MustCompile(`(?i)CPI|消费者物价|通胀|inflation`)},
	{"GDP", regexp.MustCompile(`(?i)GDP|国内生产总值|gross domestic product`)},
	{"住宅价格", regexp.MustCompile(`(?i)房价|住宅|新屋销售|成屋销售|case-shiller|s&p/cs|fhfa|home\s*price|house\s*price`)},
}

var (
	macroReleaseHintPattern = regexp.MustCompile(`(?i)指数|数据|同比|环比|录得|公布|预期|前值|上涨|下降|增加|减少|百分点|万人|%|pct`)
	macroQuestionPattern    = regexp.MustCompile(`[？?]`)
	macroCommentaryPattern  = regexp.MustCompile(`前瞻|解读|点评|缘何|驳斥|观察|速览|展望|专访|怎么看|重磅来袭|心跳时刻`)
	macroNumberPattern      = regexp.MustCompile(`\d`)
	macroUnitPattern        = regexp.MustCompile(`%|万人|万|亿|点|同比|环比|指数|初值|终值|前值|预期`)
	macroAgencyPattern      = regexp.MustCompile(`(国家统计局|美国劳工部|ADP|中国人民银行|香港特区政府统计处|FHFA|Case-Shiller)\s*[：:]`)
)

const (
	disclosureLookbackDays = 7
	disclosureHorizonDays  = 365
	macroLookbackDays      = 120
)

// Normalizer converts raw upstream records into canonical events. One method
// per source variant; malformed records are skipped and logged, never fatal.
type Normalizer struct {
	log *logger.Logger
	now func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{log: log, now: time.Now}
}

// NormalizeAnnouncements maps confirmed announcements for one watchlist
// entry to events, keeping only earnings-report items for the entry's
// market.
func (n *Normalizer) NormalizeAnnouncements(entry entity.WatchlistEntry, items []dto.NoticeItem) []entity.Event {
	events := make([]entity.Event, 0, len(items))

	for _, item := range items {
		eventType, ok := classifyAnnouncement(entry, item)
		if !ok {
			continue
		}

		title := strings.TrimSpace(item.DisplayTitle())
		if title == "" {
			continue
		}

		day, err := utils.ParseDate(item.NoticeDate)
		if err != nil {
			n.log.Warn("Skipping announcement with malformed date",
				logger.StringField("stock_code", entry.Code),
				logger.StringField("notice_date", item.NoticeDate),
			)
			continue
		}

		cleanTitle := title
		if idx := strings.Index(cleanTitle, "|"); idx >= 0 {
			cleanTitle = strings.TrimSpace(cleanTitle[idx+1:])
		}

		artCode := strings.TrimSpace(item.ArtCode)
		sourceURL := ""
		if artCode != "" {
			sourceURL = fmt.Sprintf("https://data.eastmoney.com/notices/detail/%s/%s.html", entry.Ticker(), artCode)
		}

		events = append(events, entity.Event{
			ID:          fmt.Sprintf("stock:%s:%s:%s", entry.Ticker(), artCode, eventType),
			Category:    entity.CategoryStock,
			Title:       fmt.Sprintf("%s · %s", entry.Name, cleanTitle),
			Start:       day.Format(utils.DateLayout),
			AllDay:      true,
			Market:      entry.Market,
			StockCode:   entry.Code,
			EventType:   eventType,
			Description: title,
			SourceURL:   sourceURL,
			SourceLabel: "东方财富公告",
		})
	}

	return events
}

func classifyAnnouncement(entry entity.WatchlistEntry, item dto.NoticeItem) (string, bool) {
	title := item.DisplayTitle()
	columns := item.ColumnNames()

	switch entry.MarketCode {
	case entity.MktNumShenzhen, entity.MktNumShanghai:
		for name := range columns {
			if aReportColumns[name] {
				return "财报公告", true
			}
		}

	case entity.MktNumHongKong:
		if hkEarningsPattern.MatchString(title) {
			if strings.Contains(title, "董事会会议召开日期") {
				return "董事会会议（财报相关）", true
			}
			return "业绩公告", true
		}

	case entity.MktNumNasdaq, entity.MktNumNYSE, entity.MktNumAmex:
		hasReportColumn := false
		for name := range columns {
			if usReportColumns[name] {
				hasReportColumn = true
				break
			}
		}
		if !hasReportColumn && !usTitlePattern.MatchString(title) {
			return "", false
		}
		switch {
		case columns["10-K"]:
			return "10-K 年度报告", true
		case columns["10-Q"]:
			return "10-Q 季度报告", true
		case columns["8-K 2.02"]:
			return "8-K 业绩披露", true
		case columns["PRESENTATION"]:
			return "业绩演示文稿", true
		default:
			return "财报相关公告", true
		}
	}

	return "", false
}

// NormalizeDisclosureCalendar maps scheduled-disclosure rows for one A-share
// entry to forecast events. Rows outside the lookback/horizon window are
// dropped.
func (n *Normalizer) NormalizeDisclosureCalendar(entry entity.WatchlistEntry, rows []dto.CalendarRow) []entity.Event {
	today := utils.DateOnly(n.now())
	earliest := today.AddDate(0, 0, -disclosureLookbackDays)
	horizon := today.AddDate(0, 0, disclosureHorizonDays)

	events := make([]entity.Event, 0, len(rows))
	for _, row := range rows {
		day, err := utils.ParseDate(row.NoticeDate)
		if err != nil {
			n.log.Warn("Skipping disclosure row with malformed date",
				logger.StringField("stock_code", entry.Code),
				logger.StringField("notice_date", row.NoticeDate),
			)
			continue
		}
		if day.Before(earliest) || day.After(horizon) {
			continue
		}

		content := strings.TrimSpace(row.Level1Content)
		if content == "" {
			content = "财报预约披露日"
		}
		hash := md5.Sum([]byte(content))
		hashPart := hex.EncodeToString(hash[:])[:8]

		events = append(events, entity.Event{
			ID:          fmt.Sprintf("stock:%s:appointment:%s:%s", entry.Ticker(), day.Format(utils.DateLayout), hashPart),
			Category:    entity.CategoryStock,
			Title:       fmt.Sprintf("%s · %s", entry.Name, content),
			Start:       day.Format(utils.DateLayout),
			AllDay:      true,
			Market:      entry.Market,
			StockCode:   entry.Code,
			EventType:   "财报预约披露日",
			IsForecast:  true,
			Description: content,
			SourceURL:   fmt.Sprintf("https://data.eastmoney.com/bbsj/%s.html", entry.Ticker()),
			SourceLabel: "东方财富业绩日历",
		})
	}

	return events
}

// NormalizeFastNews maps news-flash items to macro events, keeping only
// release-style items that match a configured macro topic. Items older than
// the lookback window are dropped and at most maxEvents are kept.
func (n *Normalizer) NormalizeFastNews(items []dto.FastNewsItem, maxEvents int) []entity.Event {
	oldestAllowed := utils.DateOnly(n.now()).AddDate(0, 0, -macroLookbackDays)

	var events []entity.Event
	for _, item := range items {
		if maxEvents > 0 && len(events) >= maxEvents {
			break
		}

		title := strings.TrimSpace(item.Title)
		summary := strings.TrimSpace(item.Summary)
		text := strings.TrimSpace(title + " " + summary)
		if text == "" {
			continue
		}

		eventType, ok := classifyMacroTopic(text)
		if !ok {
			continue
		}
		if !isMacroReleaseText(text) {
			continue
		}

		day, err := utils.ParseDate(item.ShowTime)
		if err != nil {
			n.log.Warn("Skipping news flash with malformed date",
				logger.StringField("show_time", item.ShowTime),
			)
			continue
		}
		if day.Before(oldestAllowed) {
			continue
		}

		code := strings.TrimSpace(item.Code)
		if code == "" {
			continue
		}

		// Macro events default to the domestic market when no market
		// pattern matches.
		market := classifyMacroMarket(text)

		description := summary
		if description == "" {
			description = title
		}

		events = append(events, entity.Event{
			ID:          "macro:" + code,
			Category:    entity.CategoryMacro,
			Title:       fmt.Sprintf("%s · %s", market, title),
			Start:       day.Format(utils.DateLayout),
			AllDay:      true,
			Market:      market,
			EventType:   eventType,
			Description: description,
			SourceURL:   fmt.Sprintf("https://finance.eastmoney.com/a/%s.html", code),
			SourceLabel: "东方财富快讯",
		})
	}

	return events
}

func classifyMacroTopic(text string) (string, bool) {
	for _, topic := range macroTopicPatterns {
		if topic.pattern.MatchString(text) {
			return topic.name, true
		}
	}
	return "", false
}

func classifyMacroMarket(text string) entity.Market {
	for _, candidate := range macroMarketPatterns {
		if candidate.pattern.MatchString(text) {
			return candidate.market
		}
	}
	return entity.MarketCN
}

// isMacroReleaseText keeps release-like messages and rejects commentary
// headlines.
func isMacroReleaseText(text string) bool {
	if macroQuestionPattern.MatchString(text) {
		return false
	}
	if macroCommentaryPattern.MatchString(text) {
		return false
	}
	if macroNumberPattern.MatchString(text) && macroUnitPattern.MatchString(text) {
		return true
	}
	if macroAgencyPattern.MatchString(text) {
		return true
	}
	return macroReleaseHintPattern.MatchString(text)
}
