package sina

import (
	"context"
	"fmt"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/httputil"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

const referer = "https://finance.sina.com.cn/"

// Client handles communication with Sina Finance
// ⭐ SSOT: 新浪接口调用只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       config.SinaConfig
}

// NewClient creates a new Sina client
func NewClient(httpClient *httputil.Client, urls config.SinaConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("Referer", referer),
		logger:     log.WithComponent("sina"),
		urls:       urls,
	}
}

// fetchGBK fetches a GBK-encoded page and returns it as UTF-8
func (c *Client) fetchGBK(ctx context.Context, fullURL string) (string, error) {
	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return "", err
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode gbk: %w", err)
	}
	return string(decoded), nil
}
