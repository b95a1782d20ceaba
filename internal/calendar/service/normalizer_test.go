package service

import (
	"testing"
	"time"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNormalizer(t *testing.T, now string) *Normalizer {
	t.Helper()
	day, err := time.Parse("2006-01-02", now)
	require.NoError(t, err)
	n := NewNormalizer(logger.NewNop())
	n.now = func() time.Time { return day }
	return n
}

func aShareEntry() entity.WatchlistEntry {
	return entity.WatchlistEntry{
		Name:       "贵州茅台",
		Code:       "600519.XSHG",
		Market:     entity.MarketCN,
		MarketCode: entity.MktNumShanghai,
	}
}

func TestNormalizeAnnouncements_AShareReportColumns(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := aShareEntry()

	items := []dto.NoticeItem{
		{
			ArtCode:    "AN2025001",
			TitleCh:    "贵州茅台：2024年年度报告",
			NoticeDate: "2025-04-02 00:00:00",
			Columns:    []dto.NoticeColumn{{ColumnName: "年度报告全文"}},
		},
		{
			// No report column: filtered out.
			ArtCode:    "AN2025002",
			TitleCh:    "贵州茅台：股东大会决议",
			NoticeDate: "2025-03-10 00:00:00",
			Columns:    []dto.NoticeColumn{{ColumnName: "股东大会"}},
		},
	}

	events := n.NormalizeAnnouncements(entry, items)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "stock:600519:AN2025001:财报公告", ev.ID)
	assert.Equal(t, entity.CategoryStock, ev.Category)
	assert.Equal(t, "2025-04-02", ev.Start)
	assert.Equal(t, entity.MarketCN, ev.Market)
	assert.Equal(t, "600519.XSHG", ev.StockCode)
	assert.False(t, ev.IsForecast)
	assert.Contains(t, ev.Title, "贵州茅台")
	assert.Contains(t, ev.SourceURL, "AN2025001")
}

func TestNormalizeAnnouncements_Idempotent(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := aShareEntry()
	items := []dto.NoticeItem{{
		ArtCode:    "AN2025001",
		TitleCh:    "贵州茅台：2024年年度报告",
		NoticeDate: "2025-04-02",
		Columns:    []dto.NoticeColumn{{ColumnName: "年度报告全文"}},
	}}

	first := n.NormalizeAnnouncements(entry, items)
	second := n.NormalizeAnnouncements(entry, items)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestNormalizeAnnouncements_HKBoardMeeting(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := entity.WatchlistEntry{
		Name:       "腾讯控股",
		Code:       "00700.XHKG",
		Market:     entity.MarketHK,
		MarketCode: entity.MktNumHongKong,
	}

	items := []dto.NoticeItem{
		{ArtCode: "HK1", Title: "董事会会议召开日期", NoticeDate: "2025-03-05"},
		{ArtCode: "HK2", Title: "截至2024年12月31日止年度业绩公告", NoticeDate: "2025-03-19"},
		{ArtCode: "HK3", Title: "翌日披露报表", NoticeDate: "2025-03-20"},
	}

	events := n.NormalizeAnnouncements(entry, items)
	require.Len(t, events, 2)
	assert.Equal(t, "董事会会议（财报相关）", events[0].EventType)
	assert.Equal(t, "业绩公告", events[1].EventType)
}

func TestNormalizeAnnouncements_USFilingTypes(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := entity.WatchlistEntry{
		Name:       "Apple",
		Code:       "AAPL.US",
		Market:     entity.MarketUS,
		MarketCode: entity.MktNumNasdaq,
	}

	items := []dto.NoticeItem{
		{ArtCode: "US1", Title: "Annual report", NoticeDate: "2025-01-30", Columns: []dto.NoticeColumn{{ColumnName: "10-K"}}},
		{ArtCode: "US2", Title: "Quarterly report", NoticeDate: "2025-02-01", Columns: []dto.NoticeColumn{{ColumnName: "10-Q"}}},
		{ArtCode: "US3", Title: "Q1 earnings release", NoticeDate: "2025-02-02"},
		{ArtCode: "US4", Title: "Registration statement", NoticeDate: "2025-02-03"},
	}

	events := n.NormalizeAnnouncements(entry, items)
	require.Len(t, events, 3)
	assert.Equal(t, "10-K 年度报告", events[0].EventType)
	assert.Equal(t, "10-Q 季度报告", events[1].EventType)
	assert.Equal(t, "财报相关公告", events[2].EventType)
}

func TestNormalizeAnnouncements_MalformedDateSkipped(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := aShareEntry()
	items := []dto.NoticeItem{{
		ArtCode:    "AN1",
		TitleCh:    "2024年年度报告",
		NoticeDate: "soon",
		Columns:    []dto.NoticeColumn{{ColumnName: "年度报告全文"}},
	}}

	assert.Empty(t, n.NormalizeAnnouncements(entry, items))
}

func TestNormalizeDisclosureCalendar_WindowAndForecastFlag(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")
	entry := aShareEntry()

	rows := []dto.CalendarRow{
		{NoticeDate: "2025-04-18", Level1Content: "2024年年报预约披露"},
		{NoticeDate: "2024-06-01", Level1Content: "太旧"},       // before lookback
		{NoticeDate: "2026-06-01", Level1Content: "太远"},       // past horizon
		{NoticeDate: "下周", Level1Content: "无法解析"},            // malformed date
	}

	events := n.NormalizeDisclosureCalendar(entry, rows)
	require.Len(t, events, 1)

	ev := events[0]
	assert.True(t, ev.IsForecast)
	assert.Equal(t, "财报预约披露日", ev.EventType)
	assert.Equal(t, "2025-04-18", ev.Start)
	assert.Contains(t, ev.ID, "stock:600519:appointment:2025-04-18:")
}

func TestNormalizeDisclosureCalendar_DistinctFromAnnouncementID(t *testing.T) {
	// A forecast disclosure and a confirmed announcement for the same
	// period keep different ids so both can show on the calendar.
	n := fixedNormalizer(t, "2025-03-01")
	entry := aShareEntry()

	forecast := n.NormalizeDisclosureCalendar(entry, []dto.CalendarRow{
		{NoticeDate: "2025-04-02", Level1Content: "2024年年报预约披露"},
	})
	confirmed := n.NormalizeAnnouncements(entry, []dto.NoticeItem{{
		ArtCode:    "AN2025001",
		TitleCh:    "2024年年度报告",
		NoticeDate: "2025-04-02",
		Columns:    []dto.NoticeColumn{{ColumnName: "年度报告全文"}},
	}})

	require.Len(t, forecast, 1)
	require.Len(t, confirmed, 1)
	assert.NotEqual(t, forecast[0].ID, confirmed[0].ID)
}

func TestNormalizeFastNews_TopicAndMarketClassification(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")

	items := []dto.FastNewsItem{
		{Code: "n1", Title: "美国2月CPI同比上涨3.2%", ShowTime: "2025-02-13 20:30:00"},
		{Code: "n2", Title: "国家统计局：2月官方制造业PMI为50.2", ShowTime: "2025-02-28 09:00:00"},
		{Code: "n3", Title: "专家解读：CPI未来怎么看？", ShowTime: "2025-02-14 10:00:00"},   // commentary
		{Code: "n4", Title: "央行开展逆回购操作2000亿元", ShowTime: "2025-02-14 10:00:00"}, // no macro topic
		{Code: "n5", Title: "香港失业率维持3.1%", ShowTime: "2024-09-01 10:00:00"},      // too old
	}

	events := n.NormalizeFastNews(items, 80)
	require.Len(t, events, 2)

	assert.Equal(t, "macro:n1", events[0].ID)
	assert.Equal(t, entity.MarketUS, events[0].Market)
	assert.Equal(t, "CPI", events[0].EventType)
	assert.Equal(t, "2025-02-13", events[0].Start)
	assert.Equal(t, entity.CategoryMacro, events[0].Category)

	assert.Equal(t, entity.MarketCN, events[1].Market)
	assert.Equal(t, "PMI", events[1].EventType)
}

func TestNormalizeFastNews_DefaultsToDomesticMarket(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")

	items := []dto.FastNewsItem{
		{Code: "n1", Title: "2月CPI环比上涨0.4%", ShowTime: "2025-02-13 20:30:00"},
	}

	events := n.NormalizeFastNews(items, 80)
	require.Len(t, events, 1)
	assert.Equal(t, entity.MarketCN, events[0].Market)
}

func TestNormalizeFastNews_MaxEventsCap(t *testing.T) {
	n := fixedNormalizer(t, "2025-03-01")

	items := []dto.FastNewsItem{
		{Code: "n1", Title: "美国1月CPI同比上涨3.0%", ShowTime: "2025-01-15 20:30:00"},
		{Code: "n2", Title: "美国2月CPI同比上涨3.2%", ShowTime: "2025-02-13 20:30:00"},
	}

	events := n.NormalizeFastNews(items, 1)
	assert.Len(t, events, 1)
}
