// 包 fetch 封装 HTTP 客户端（代理/超时/浏览器请求头），用于请求直播 API。
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client 为基于 resty 的 JSON 客户端，不做重试：失败由调用方决定如何处理。
type Client struct {
	rc *resty.Client
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	UserAgent  string
	Referer    string
}

// StatusError 表示非 2xx 的 HTTP 响应。
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http status %s", e.URL, e.Status)
}

// New 创建客户端，支持 http/https 代理、单次请求超时与固定请求头。
func New(opts Options) (*Client, error) {
	var proxyHTTP, proxyHTTPS *url.URL
	var err error
	if opts.ProxyHTTP != "" {
		if proxyHTTP, err = url.Parse(opts.ProxyHTTP); err != nil {
			return nil, fmt.Errorf("parse http proxy %q: %w", opts.ProxyHTTP, err)
		}
	}
	if opts.ProxyHTTPS != "" {
		if proxyHTTPS, err = url.Parse(opts.ProxyHTTPS); err != nil {
			return nil, fmt.Errorf("parse https proxy %q: %w", opts.ProxyHTTPS, err)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	// 响应等待不单独设上限：整个请求只受 opts.Timeout 约束
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && proxyHTTPS != nil {
				return proxyHTTPS, nil
			}
			if req.URL.Scheme == "http" && proxyHTTP != nil {
				return proxyHTTP, nil
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	rc := resty.New().
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Referer != "" {
		rc.SetHeader("Referer", opts.Referer)
	}
	return &Client{rc: rc}, nil
}

// GetJSON 发送 GET 请求并将响应体解码到 out。
// 传输错误、非 2xx 状态与 JSON 解码失败都以 error 返回。
func (c *Client) GetJSON(ctx context.Context, rawURL string, query map[string]string, out any) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(rawURL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return &StatusError{URL: rawURL, Status: resp.Status(), Code: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}
