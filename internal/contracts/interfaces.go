package contracts

import "context"

// QuoteFetcher fetches one batch of quotes.
// Invalid records are dropped by the implementation.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, codes []string) ([]Quote, error)
}

// CandleFetcher fetches daily candles ascending by date
type CandleFetcher interface {
	FetchDailyCandles(ctx context.Context, code string, lookbackDays int) ([]Candle, error)
}

// KLineFetcher fetches candles of one period ascending by date
type KLineFetcher interface {
	FetchKLines(ctx context.Context, code string, period Period, count int) ([]Candle, error)
}

// IndexFetcher fetches daily candles of a reference index (e.g. sh000001)
type IndexFetcher interface {
	FetchIndexCandles(ctx context.Context, indexCode string, lookbackDays int) ([]Candle, error)
}

// MinuteFetcher fetches today's in-session minute bars
type MinuteFetcher interface {
	FetchMinuteBars(ctx context.Context, code string) (MinuteWindow, error)
}

// AnnouncementFetcher fetches recent company announcements
type AnnouncementFetcher interface {
	FetchAnnouncements(ctx context.Context, code string, days int) ([]Announcement, error)
}

// NewsSearcher searches external news by security name
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string) ([]Announcement, error)
}

// ResultPublisher ships a finished result downstream
type ResultPublisher interface {
	Publish(ctx context.Context, result *ScreenResult) error
	Close() error
}
