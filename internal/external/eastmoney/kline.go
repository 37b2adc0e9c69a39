package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// klt 周期代码
var klt = map[contracts.Period]string{
	contracts.PeriodDaily:   "101",
	contracts.PeriodWeekly:  "102",
	contracts.PeriodMonthly: "103",
}

// FetchDailyCandles fetches forward-adjusted daily candles, ascending by date
func (c *Client) FetchDailyCandles(ctx context.Context, code string, lookbackDays int) ([]contracts.Candle, error) {
	return c.fetchKLines(ctx, code, contracts.PeriodDaily, lookbackDays, "1")
}

// FetchKLines fetches forward-adjusted candles of one period, ascending by date
func (c *Client) FetchKLines(ctx context.Context, code string, period contracts.Period, count int) ([]contracts.Candle, error) {
	return c.fetchKLines(ctx, code, period, count, "1")
}

// FetchIndexCandles fetches daily candles of an index such as sh000001
func (c *Client) FetchIndexCandles(ctx context.Context, indexCode string, lookbackDays int) ([]contracts.Candle, error) {
	return c.fetchKLines(ctx, indexCode, contracts.PeriodDaily, lookbackDays, "0")
}

func (c *Client) fetchKLines(ctx context.Context, code string, period contracts.Period, count int, fqt string) ([]contracts.Candle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid lookback %d", count)
	}
	kltCode, ok := klt[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", contracts.ErrInvalidPeriod, period)
	}

	params := url.Values{}
	params.Set("secid", universe.SecID(code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56")
	params.Set("klt", kltCode)
	params.Set("fqt", fqt)
	params.Set("end", "20500101")
	params.Set("lmt", strconv.Itoa(count))

	body, err := c.httpClient.GetBytes(ctx, c.urls.KLineURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("eastmoney kline %s: %w", code, err)
	}

	candles := parseKLines(body)
	c.logger.WithFields(map[string]interface{}{
		"code":   code,
		"period": period,
		"count":  len(candles),
	}).Debug("Fetched candles")

	return candles, nil
}

// parseKLines decodes "date,open,close,high,low,volume" lines; bad lines are skipped
func parseKLines(body []byte) []contracts.Candle {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.IsArray() {
		return nil
	}

	arr := klines.Array()
	candles := make([]contracts.Candle, 0, len(arr))
	for _, v := range arr {
		candle, ok := parseKLine(v.String())
		if ok {
			candles = append(candles, candle)
		}
	}
	return candles
}

func parseKLine(line string) (contracts.Candle, bool) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 6 {
		return contracts.Candle{}, false
	}

	date, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return contracts.Candle{}, false
	}

	var vals [5]float64
	for i := range vals {
		f, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return contracts.Candle{}, false
		}
		vals[i] = f
	}

	candle := contracts.Candle{
		Date:   date,
		Open:   vals[0],
		Close:  vals[1],
		High:   vals[2],
		Low:    vals[3],
		Volume: vals[4],
	}
	if !candle.Valid() {
		return contracts.Candle{}, false
	}
	return candle, true
}
