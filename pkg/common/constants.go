package common

const (
	SourceAnnouncements      = "stock.announcements"
	SourceDisclosureCalendar = "stock.disclosure_calendar"
	SourceMacroFastNews      = "macro.fastnews"
	SourceMacroForecast      = "macro.forecast"
)

// Sources lists every refresh source in a stable order.
var Sources = []string{
	SourceAnnouncements,
	SourceDisclosureCalendar,
	SourceMacroFastNews,
	SourceMacroForecast,
}
