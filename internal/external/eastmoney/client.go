package eastmoney

import (
	"time"

	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/httputil"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

const referer = "https://quote.eastmoney.com/"

// quoteFields 行情字段 (fltt=2 返回小数):
// f2 现价 f3 涨跌幅 f5 成交量(手) f6 成交额 f8 换手率 f9 市盈率 f10 量比
// f12 代码 f14 名称 f15 最高 f16 最低 f17 今开 f18 昨收 f20 总市值 f21 流通市值
const quoteFields = "f2,f3,f5,f6,f8,f9,f10,f12,f14,f15,f16,f17,f18,f20,f21"

// Client handles communication with Eastmoney
// ⭐ SSOT: 东方财富接口调用只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       config.EastmoneyConfig
	now        func() time.Time
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, urls config.EastmoneyConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("Referer", referer),
		logger:     log.WithComponent("eastmoney"),
		urls:       urls,
		now:        time.Now,
	}
}
