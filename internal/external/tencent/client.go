package tencent

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/httputil"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

const referer = "https://gu.qq.com/"

// Client fetches intraday minute data from Tencent
// ⭐ SSOT: 腾讯分时接口调用只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       config.TencentConfig
}

// NewClient creates a new Tencent client
func NewClient(httpClient *httputil.Client, urls config.TencentConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("Referer", referer),
		logger:     log.WithComponent("tencent"),
		urls:       urls,
	}
}

// FetchMinuteBars fetches today's minute bars, keeping trading hours only
func (c *Client) FetchMinuteBars(ctx context.Context, code string) (contracts.MinuteWindow, error) {
	symbol := universe.Symbol(code)

	params := url.Values{}
	params.Set("code", symbol)

	body, err := c.httpClient.GetBytes(ctx, c.urls.MinuteURL+"?"+params.Encode())
	if err != nil {
		return contracts.MinuteWindow{}, fmt.Errorf("tencent minute %s: %w", code, err)
	}

	lines := gjson.GetBytes(body, "data."+symbol+".data.data")
	if !lines.IsArray() {
		return contracts.MinuteWindow{}, fmt.Errorf("tencent minute %s: no data", code)
	}

	raw := make([]string, 0, 242)
	for _, v := range lines.Array() {
		raw = append(raw, v.String())
	}

	window := parseMinutes(raw)
	c.logger.WithFields(map[string]interface{}{
		"code":        code,
		"bars":        len(window.Bars),
		"after_close": window.AfterClose,
	}).Debug("Fetched minute bars")

	return window, nil
}

// parseMinutes turns "HHMM price cumVolume cumAmount" lines into bars.
// Per-minute volume and amount are deltas of the cumulative values.
func parseMinutes(lines []string) contracts.MinuteWindow {
	var (
		window           contracts.MinuteWindow
		prevVol, prevAmt float64
	)

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 || len(fields[0]) != 4 {
			continue
		}

		price, err1 := strconv.ParseFloat(fields[1], 64)
		cumVol, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || price <= 0 {
			continue
		}
		var cumAmt float64
		if len(fields) >= 4 {
			cumAmt, _ = strconv.ParseFloat(fields[3], 64)
		}

		clock := fields[0][:2] + ":" + fields[0][2:]
		vol := max(cumVol-prevVol, 0)
		amt := max(cumAmt-prevAmt, 0)
		prevVol, prevAmt = cumVol, cumAmt

		if !InSession(clock) {
			continue
		}

		window.Bars = append(window.Bars, contracts.MinuteBar{
			Clock:     clock,
			Price:     price,
			Volume:    vol,
			CumVolume: cumVol,
			Amount:    amt,
		})
	}

	if n := len(window.Bars); n > 0 && window.Bars[n-1].Clock >= "15:00" {
		window.AfterClose = true
	}
	return window
}

// InSession reports whether HH:MM lies in 09:30-11:30 or 13:00-15:00
func InSession(clock string) bool {
	return (clock >= "09:30" && clock <= "11:30") || (clock >= "13:00" && clock <= "15:00")
}
