// internal/dex/jupiter/client.go
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "https://quote-api.jup.ag/v6"
	defaultRequestTimeout = 10 * time.Second
	maxRetries            = 3
	retryDelay            = 500 * time.Millisecond

	// Quote API допускает ~10 rps на бесплатном тарифе; работаем с запасом.
	quoteRatePerSec = 8
	quoteBurst      = 4
)

// ErrQuoteUnavailable возвращается, когда котировка недоступна или маршрут не найден.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote представляет ответ quote API. Поле OutAmount приходит строкой
// и разбирается через OutAmountRaw; остальная структура маршрута
// для сканера непрозрачна.
type Quote struct {
	InputMint      string            `json:"inputMint"`
	InAmount       string            `json:"inAmount"`
	OutputMint     string            `json:"outputMint"`
	OutAmount      string            `json:"outAmount"`
	SwapMode       string            `json:"swapMode"`
	SlippageBps    int               `json:"slippageBps"`
	PriceImpactPct string            `json:"priceImpactPct"`
	RoutePlan      []json.RawMessage `json:"routePlan"`
}

// OutAmountRaw возвращает котируемый выход в наименьших единицах токена.
func (q *Quote) OutAmountRaw() (uint64, error) {
	v, err := strconv.ParseUint(q.OutAmount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed outAmount %q", ErrQuoteUnavailable, q.OutAmount)
	}
	return v, nil
}

// Client – HTTP клиент quote API с rate limiting и retry.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient создает новый quote клиент. Пустой baseURL означает production API.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(quoteRatePerSec, quoteBurst),
		logger:  logger.Named("jupiter-quotes"),
	}
}

// GetQuote запрашивает котировку обмена amountRaw входного токена на выходной.
// Любой сбой, включая отсутствие маршрута, сворачивается в ErrQuoteUnavailable.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*Quote, error) {
	if inputMint == "" || outputMint == "" || amountRaw == 0 {
		return nil, fmt.Errorf("%w: empty quote request", ErrQuoteUnavailable)
	}

	operation := func() (*Quote, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		return c.doGetQuote(ctx, inputMint, outputMint, amountRaw, slippageBps)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryDelay
	policy.MaxInterval = retryDelay * 10

	notify := func(err error, duration time.Duration) {
		c.logger.Debug("retrying quote request",
			zap.String("input", inputMint),
			zap.String("output", outputMint),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	quote, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxRetries),
		backoff.WithNotify(notify))
	if err != nil {
		if errors.Is(err, ErrQuoteUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return quote, nil
}

func (c *Client) doGetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(amountRaw, 10))
	params.Set("slippageBps", strconv.Itoa(slippageBps))
	params.Set("onlyDirectRoutes", "false")

	reqURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("quote request completed",
		zap.String("input", inputMint),
		zap.String("output", outputMint),
		zap.Duration("duration", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusOK:
		// ok
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Нет маршрута или некорректная пара: повтор бессмысленен.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d, body: %s", ErrQuoteUnavailable, resp.StatusCode, string(body)))
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if quote.OutAmount == "" {
		return nil, backoff.Permanent(fmt.Errorf("%w: empty outAmount", ErrQuoteUnavailable))
	}
	return &quote, nil
}
