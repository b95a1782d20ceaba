package dto

// Raw shapes returned by the Eastmoney endpoints. Only the fields the
// normalizer reads are mapped.

// NoticeColumn is one classification column attached to an announcement.
type NoticeColumn struct {
	ColumnName string `json:"column_name"`
}

// NoticeItem is one security announcement.
type NoticeItem struct {
	ArtCode    string         `json:"art_code"`
	Title      string         `json:"title"`
	TitleCh    string         `json:"title_ch"`
	NoticeDate string         `json:"notice_date"`
	Columns    []NoticeColumn `json:"columns"`
}

// NoticeResponse is the security announcement list payload.
type NoticeResponse struct {
	Data struct {
		List      []NoticeItem `json:"list"`
		PageCount int          `json:"page_count"`
	} `json:"data"`
}

// ColumnNames collects the column names attached to an announcement.
func (n NoticeItem) ColumnNames() map[string]bool {
	names := make(map[string]bool, len(n.Columns))
	for _, col := range n.Columns {
		if col.ColumnName != "" {
			names[col.ColumnName] = true
		}
	}
	return names
}

// DisplayTitle prefers the Chinese title when present.
func (n NoticeItem) DisplayTitle() string {
	if n.TitleCh != "" {
		return n.TitleCh
	}
	return n.Title
}

// CalendarRow is one scheduled-disclosure row from the data-center calendar.
type CalendarRow struct {
	SecurityCode  string `json:"SECURITY_CODE"`
	NoticeDate    string `json:"NOTICE_DATE"`
	EventType     string `json:"EVENT_TYPE"`
	Level1Content string `json:"LEVEL1_CONTENT"`
}

// CalendarResponse is the data-center calendar payload.
type CalendarResponse struct {
	Result struct {
		Data  []CalendarRow `json:"data"`
		Pages int           `json:"pages"`
	} `json:"result"`
}

// FastNewsItem is one 7x24 news-flash item.
type FastNewsItem struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	ShowTime string `json:"showTime"`
}

// FastNewsResponse is the news-flash list payload.
type FastNewsResponse struct {
	Data struct {
		FastNewsList []FastNewsItem `json:"fastNewsList"`
		SortEnd      string         `json:"sortEnd"`
	} `json:"data"`
}

// SuggestRow is one candidate from the name/code suggest endpoint.
type SuggestRow struct {
	MktNum string `json:"MktNum"`
	Code   string `json:"Code"`
	Name   string `json:"Name"`
	PinYin string `json:"PinYin"`
}

// SuggestResponse is the suggest payload.
type SuggestResponse struct {
	QuotationCodeTable struct {
		Data []SuggestRow `json:"Data"`
	} `json:"QuotationCodeTable"`
}
