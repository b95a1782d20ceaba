package config

import (
	"golang-market-calendar/pkg/config"
)

// Eastmoney holds the upstream endpoint configuration.
type Eastmoney struct {
	NoticeBaseURL       string `mapstructure:"notice_base_url"`
	DataCenterBaseURL   string `mapstructure:"data_center_base_url"`
	FastNewsBaseURL     string `mapstructure:"fast_news_base_url"`
	SuggestBaseURL      string `mapstructure:"suggest_base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	RequestTimeout      string `mapstructure:"request_timeout"`
}

// Refresh holds refresh-cycle configuration.
type Refresh struct {
	Schedule       string `mapstructure:"schedule"`         // cron spec, e.g. "@every 6h"
	MaxCacheAge    string `mapstructure:"max_cache_age"`    // refresh on boot when the loaded cache is older
	MaxConcurrent  int    `mapstructure:"max_concurrent"`   // parallel source fetches within one cycle
	ForecastMonths int    `mapstructure:"forecast_months"`  // macro forecast horizon
	MacroMaxPages  int    `mapstructure:"macro_max_pages"`  // fast-news pagination cap
	MacroMaxEvents int    `mapstructure:"macro_max_events"` // fast-news event cap per cycle
}

// Storage holds the local persistence paths.
type Storage struct {
	WatchlistFile  string `mapstructure:"watchlist_file"`
	EventCacheFile string `mapstructure:"event_cache_file"`
}

// Config holds the full configuration for the calendar service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Eastmoney Eastmoney       `mapstructure:"eastmoney"`
	Refresh   Refresh         `mapstructure:"refresh"`
	Storage   Storage         `mapstructure:"storage"`
}

// Load loads the calendar service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
