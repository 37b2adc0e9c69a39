package sina

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

var newsDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// SearchNews searches Sina news titles mentioning query
func (c *Client) SearchNews(ctx context.Context, query string) ([]contracts.Announcement, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("c", "news")
	params.Set("range", "title")
	params.Set("ie", "utf-8")

	body, err := c.httpClient.GetBytes(ctx, c.urls.SearchURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("sina news search: %w", err)
	}

	items, err := parseNews(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse news html: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"query": query,
		"count": len(items),
	}).Debug("Searched news")

	return items, nil
}

// parseNews extracts result titles and dates from the search page
func parseNews(html string) ([]contracts.Announcement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var items []contracts.Announcement
	doc.Find("div.box-result").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h2 a").First().Text())
		if title == "" {
			return
		}
		item := contracts.Announcement{Title: title}
		if d := newsDate.FindString(s.Find(".fgray_time").Text()); d != "" {
			if t, err := time.Parse("2006-01-02", d); err == nil {
				item.Date = t
			}
		}
		items = append(items, item)
	})
	return items, nil
}
