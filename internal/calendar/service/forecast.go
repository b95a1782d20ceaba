package service

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/utils"
)

// forecastRule describes one recurring macro release: which markets/topic it
// belongs to and how its expected date falls within a month.
type forecastRule struct {
	market      entity.Market
	eventType   string
	title       string
	description string
	sourceURL   string
	sourceLabel string
	months      map[time.Month]bool // nil means every month
	day         func(year int, month time.Month) time.Time
}

func dayOfMonth(day int) func(int, time.Month) time.Time {
	return func(year int, month time.Month) time.Time {
		return utils.AdjustBusinessDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true)
	}
}

var quarterStartMonths = map[time.Month]bool{time.January: true, time.April: true, time.July: true, time.October: true}
var quarterSecondMonths = map[time.Month]bool{time.February: true, time.May: true, time.August: true, time.November: true}

// forecastRules follows the published release rhythm of each statistics
// agency; exact dates are windows, not guarantees, hence isForecast.
var forecastRules = []forecastRule{
	// A股
	{
		market: entity.MarketCN, eventType: "CPI",
		title:       "A股 · 中国CPI月度数据（预计）",
		description: "预计发布窗口，具体发布时间以国家统计局公告为准。",
		sourceURL:   "https://www.stats.gov.cn/sj/zxfb/",
		sourceLabel: "国家统计局发布日历",
		day:         dayOfMonth(10),
	},
	{
		market: entity.MarketCN, eventType: "PMI",
		title:       "A股 · 中国官方制造业PMI（预计）",
		description: "通常在月末发布，遇节假日可能顺延，具体以国家统计局公告为准。",
		sourceURL:   "https://www.stats.gov.cn/sj/zxfb/",
		sourceLabel: "国家统计局发布日历",
		day:         utils.LastBusinessDay,
	},
	{
		market: entity.MarketCN, eventType: "就业率/就业数据",
		title:       "A股 · 中国城镇调查失业率（月度）（预计）",
		description: "通常随国民经济月度数据发布，具体以国家统计局公告为准。",
		sourceURL:   "https://www.stats.gov.cn/sj/zxfb/",
		sourceLabel: "国家统计局发布日历",
		day:         dayOfMonth(15),
	},
	{
		market: entity.MarketCN, eventType: "住宅价格",
		title:       "A股 · 70城住宅销售价格月度报告（预计）",
		description: "预计发布窗口，具体发布时间以国家统计局公告为准。",
		sourceURL:   "https://www.stats.gov.cn/sj/zxfb/",
		sourceLabel: "国家统计局发布日历",
		day:         dayOfMonth(16),
	},
	{
		market: entity.MarketCN, eventType: "GDP",
		title:       "A股 · 中国季度GDP数据（预计）",
		description: "通常在季度后次月中旬发布，具体以国家统计局公告为准。",
		sourceURL:   "https://www.stats.gov.cn/sj/zxfb/",
		sourceLabel: "国家统计局发布日历",
		months:      quarterStartMonths,
		day:         dayOfMonth(15),
	},
	// 港股
	{
		market: entity.MarketHK, eventType: "PMI",
		title:       "港股 · 香港PMI（月度，预计）",
		description: "预计发布窗口，具体时间以发布机构公告为准。",
		sourceURL:   "https://www.spglobal.com/marketintelligence/en/mi/research-analysis/pmi.html",
		sourceLabel: "S&P Global PMI 日历",
		day:         utils.FirstBusinessDay,
	},
	{
		market: entity.MarketHK, eventType: "CPI",
		title:       "港股 · 香港CPI月度数据（预计）",
		description: "预计发布窗口，具体发布时间以香港政府统计处公告为准。",
		sourceURL:   "https://www.censtatd.gov.hk/en/press_release_list.html",
		sourceLabel: "香港政府统计处发布日历",
		day:         dayOfMonth(22),
	},
	{
		market: entity.MarketHK, eventType: "就业率/就业数据",
		title:       "港股 · 香港失业率（月度）（预计）",
		description: "预计发布窗口，具体发布时间以香港政府统计处公告为准。",
		sourceURL:   "https://www.censtatd.gov.hk/en/press_release_list.html",
		sourceLabel: "香港政府统计处发布日历",
		day:         dayOfMonth(18),
	},
	{
		market: entity.MarketHK, eventType: "住宅价格",
		title:       "港股 · 香港私人住宅售价指数（月度）（预计）",
		description: "预计发布窗口，具体发布时间以差饷物业估价署公告为准。",
		sourceURL:   "https://www.rvd.gov.hk/en/property_market_statistics/index.html",
		sourceLabel: "香港差饷物业估价署",
		day:         dayOfMonth(28),
	},
	{
		market: entity.MarketHK, eventType: "GDP",
		title:       "港股 · 香港季度GDP数据（预计）",
		description: "通常在季度结束后一个月左右发布，具体以香港政府统计处公告为准。",
		sourceURL:   "https://www.censtatd.gov.hk/en/press_release_list.html",
		sourceLabel: "香港政府统计处发布日历",
		months:      quarterSecondMonths,
		day:         utils.FirstBusinessDay,
	},
	// 美股
	{
		market: entity.MarketUS, eventType: "CPI",
		title:       "美股 · 美国CPI月度数据（预计）",
		description: "预计发布时间窗口，具体以美国劳工统计局（BLS）日历为准。",
		sourceURL:   "https://www.bls.gov/schedule/news_release/cpi.htm",
		sourceLabel: "BLS 发布日历",
		day:         dayOfMonth(12),
	},
	{
		market: entity.MarketUS, eventType: "PMI",
		title:       "美股 · ISM制造业PMI（月度，预计）",
		description: "通常在每月首个工作日发布，具体以ISM公告为准。",
		sourceURL:   "https://www.ismworld.org/supply-management-news-and-reports/reports/ism-report-on-business/",
		sourceLabel: "ISM 发布日历",
		day:         utils.FirstBusinessDay,
	},
	{
		market: entity.MarketUS, eventType: "就业率/就业数据",
		title:       "美股 · 美国非农就业/失业率（月度，预计）",
		description: "通常在每月首个周五发布，具体以BLS公告为准。",
		sourceURL:   "https://www.bls.gov/schedule/news_release/empsit.htm",
		sourceLabel: "BLS 发布日历",
		day: func(year int, month time.Month) time.Time {
			return utils.NthWeekdayOfMonth(year, month, time.Friday, 1)
		},
	},
	{
		market: entity.MarketUS, eventType: "住宅价格",
		title:       "美股 · 美国住宅价格指数（月度，预计）",
		description: "预计发布窗口，具体时间以FHFA/S&P相关机构公告为准。",
		sourceURL:   "https://www.fhfa.gov/DataTools/Downloads/Pages/House-Price-Index-Datasets.aspx",
		sourceLabel: "FHFA 指数发布页",
		day: func(year int, month time.Month) time.Time {
			return utils.NthWeekdayOfMonth(year, month, time.Tuesday, 4)
		},
	},
	{
		market: entity.MarketUS, eventType: "GDP",
		title:       "美股 · 美国季度GDP（预估值，预计）",
		description: "通常在季度结束后下月末发布，具体以BEA发布日历为准。",
		sourceURL:   "https://www.bea.gov/news/schedule",
		sourceLabel: "BEA 发布日历",
		months:      quarterStartMonths,
		day:         utils.LastBusinessDay,
	},
}

// Forecaster generates the expected macro release calendar locally; it is
// the one source that cannot fail.
type Forecaster struct {
	now func() time.Time
}

// NewForecaster creates a Forecaster.
func NewForecaster() *Forecaster {
	return &Forecaster{now: time.Now}
}

// Generate emits forecast events for every rule across the coming
// monthsAhead months, dropping dates outside [today, horizon].
func (f *Forecaster) Generate(monthsAhead int) []entity.Event {
	today := utils.DateOnly(f.now())
	horizon := today.AddDate(0, 0, monthsAhead*32)

	var events []entity.Event
	for offset := 0; offset < monthsAhead+2; offset++ {
		year, month := utils.AddMonths(today.Year(), today.Month(), offset)

		for _, rule := range forecastRules {
			if rule.months != nil && !rule.months[month] {
				continue
			}
			day := rule.day(year, month)
			if day.Before(today) || day.After(horizon) {
				continue
			}
			events = append(events, makeForecastEvent(rule, day))
		}
	}

	return events
}

func makeForecastEvent(rule forecastRule, day time.Time) entity.Event {
	date := day.Format(utils.DateLayout)
	hash := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s", rule.market, rule.eventType, rule.title, date)))
	hashPart := hex.EncodeToString(hash[:])[:10]

	return entity.Event{
		ID:          fmt.Sprintf("macrof:%s:%s:%s:%s", rule.market, rule.eventType, date, hashPart),
		Category:    entity.CategoryMacro,
		Title:       rule.title,
		Start:       date,
		AllDay:      true,
		Market:      rule.market,
		EventType:   rule.eventType,
		IsForecast:  true,
		Description: rule.description,
		SourceURL:   rule.sourceURL,
		SourceLabel: rule.sourceLabel,
	}
}
