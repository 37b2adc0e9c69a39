package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

// FetchAnnouncements fetches company notices published within the last days
func (c *Client) FetchAnnouncements(ctx context.Context, code string, days int) ([]contracts.Announcement, error) {
	params := url.Values{}
	params.Set("sr", "-1")
	params.Set("page_size", "30")
	params.Set("page_index", "1")
	params.Set("ann_type", "A")
	params.Set("client_source", "web")
	params.Set("stock_list", code)

	body, err := c.httpClient.GetBytes(ctx, c.urls.AnnouncementURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("eastmoney announcements %s: %w", code, err)
	}

	since := c.now().AddDate(0, 0, -days)
	return parseAnnouncements(body, since), nil
}

// parseAnnouncements keeps notices dated on or after since
func parseAnnouncements(body []byte, since time.Time) []contracts.Announcement {
	var out []contracts.Announcement
	gjson.GetBytes(body, "data.list").ForEach(func(_, v gjson.Result) bool {
		title := strings.TrimSpace(v.Get("title").String())
		if title == "" {
			return true
		}
		raw := v.Get("notice_date").String()
		if len(raw) >= 10 {
			raw = raw[:10]
		}
		date, err := time.ParseInLocation("2006-01-02", raw, since.Location())
		if err != nil {
			return true
		}
		if date.Before(truncateDay(since)) {
			return true
		}
		out = append(out, contracts.Announcement{Title: title, Date: date})
		return true
	})
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
