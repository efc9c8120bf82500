package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"SipSound/logger"
	"SipSound/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerName     = "aidj-recommender"
	maxResponseSize = 4 << 20
)

// Settings 可在运行时替换的调用参数
type Settings struct {
	BaseURL string
	Timeout time.Duration
}

// Client 推荐服务 HTTP 客户端
type Client struct {
	settings   atomic.Pointer[Settings]
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Response]
}

// NewClient 创建推荐服务客户端。httpClient 为 nil 时使用默认 Transport；
// 超时由 context 控制，不设置 http.Client.Timeout。
//
// Circuit breaker configuration:
//   - Max 1 probe request in half-open state
//   - 1 minute measurement window
//   - 30 seconds before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewClient(settings Settings, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{httpClient: httpClient}
	c.Update(settings)

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		// 调用方主动取消不算服务故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAborted)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Recommender circuit breaker state transition",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return c
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Update 替换服务地址和超时，正在进行的调用不受影响
func (c *Client) Update(s Settings) {
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.Timeout <= 0 {
		s.Timeout = 5 * time.Second
	}
	c.settings.Store(&s)
}

// Settings returns the settings currently in effect.
func (c *Client) Settings() Settings {
	return *c.settings.Load()
}

// Recommend issues one POST /recommend bounded by the configured timeout.
// Errors wrap one of the package sentinels so callers can classify them
// with OutcomeOf; the call is never retried.
func (c *Client) Recommend(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.cb.Execute(func() (*Response, error) {
		return c.do(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return resp, err
}

func (c *Client) do(parent context.Context, req *Request) (*Response, error) {
	s := c.Settings()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal recommend request: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, s.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyContext(parent, ctx, err)
	}
	defer drainAndClose(httpResp.Body)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: httpResp.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseSize)).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return nil, classifyContext(parent, ctx, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}

// Health 查询推荐服务 /health，不经过熔断器
func (c *Client) Health(ctx context.Context) (*Health, error) {
	s := c.Settings()

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyContext(context.Background(), ctx, err)
	}
	defer drainAndClose(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: httpResp.StatusCode}
	}
	var h Health
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseSize)).Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &h, nil
}

// classifyContext tells a deadline hit apart from a caller abort.
func classifyContext(parent, call context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// drainAndClose 读完剩余数据后关闭，连接可以回到连接池
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
