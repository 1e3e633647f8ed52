// internal/dex/meteora/pools.go
package meteora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	defaultBaseURL        = "https://dammv2-api.meteora.ag"
	defaultRequestTimeout = 10 * time.Second
	defaultPageSize       = 100
	maxRetries            = 3
	retryDelay            = 500 * time.Millisecond
)

// ErrListingUnavailable возвращается, когда листинг пулов полностью недоступен.
var ErrListingUnavailable = errors.New("pool listing unavailable")

// PoolRecord – нормализованный снимок пула DAMM v2 за один цикл сканирования.
// Создается при парсинге ответа API и больше не изменяется.
type PoolRecord struct {
	Address         string
	Name            string
	MintX           string
	MintY           string
	CurrentPrice    float64
	ReserveX        uint64
	ReserveY        uint64
	BaseFeeRate     float64
	ProtocolFeeRate float64
	CreatedAt       time.Time
}

// HasMint reports whether the pool pairs the given mint on either side.
func (p PoolRecord) HasMint(mint string) bool {
	return p.MintX == mint || p.MintY == mint
}

// ClientConfig configures the pool listing client.
type ClientConfig struct {
	BaseURL string
	// Limit caps the total number of pools fetched across pages. Zero means
	// a single page of the default size.
	Limit int
	// MaxPoolAge drops pools older than the window. Zero disables the filter.
	MaxPoolAge time.Duration
}

// Client получает листинг пулов DAMM v2 через HTTP API.
type Client struct {
	http       *http.Client
	baseURL    string
	limit      int
	maxPoolAge time.Duration
	logger     *zap.Logger
}

// NewClient создает новый клиент листинга пулов.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:    baseURL,
		limit:      limit,
		maxPoolAge: cfg.MaxPoolAge,
		logger:     logger.Named("meteora-pools"),
	}
}

// apiResponse представляет структуру ответа API со страницей пулов.
type apiResponse struct {
	Data  []apiPool `json:"data"`
	Total int       `json:"total"`
}

// flexNumber принимает числовые поля, которые API отдает то числами,
// то строками в зависимости от ревизии.
type flexNumber string

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexNumber(s)
	return nil
}

// apiPool представляет сырую запись пула из API.
type apiPool struct {
	Address         string     `json:"address"`
	Name            string     `json:"name"`
	MintX           string     `json:"mint_x"`
	MintY           string     `json:"mint_y"`
	CurrentPrice    flexNumber `json:"current_price"`
	ReserveX        flexNumber `json:"reserve_x_amount"`
	ReserveY        flexNumber `json:"reserve_y_amount"`
	BaseFee         flexNumber `json:"base_fee_percentage"`
	ProtocolFee     flexNumber `json:"protocol_fee_percentage"`
	CreatedAtSlotTS flexNumber `json:"created_at_slot_timestamp"`
}

// ListPools возвращает плоский список нормализованных пулов, применяя
// фильтр по времени создания. Пагинация схлопывается здесь.
func (c *Client) ListPools(ctx context.Context) ([]PoolRecord, error) {
	var pools []PoolRecord
	page := 0

	for len(pools) < c.limit {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			if len(pools) > 0 {
				// Частичный листинг лучше пустого цикла.
				c.logger.Warn("pool listing truncated after page failure",
					zap.Int("page", page),
					zap.Int("pools", len(pools)),
					zap.Error(err))
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrListingUnavailable, err)
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, raw := range resp.Data {
			record, ok := c.normalize(raw)
			if !ok {
				continue
			}
			pools = append(pools, record)
			if len(pools) >= c.limit {
				break
			}
		}

		if len(resp.Data) < defaultPageSize {
			break
		}
		page++
	}

	filtered := c.filterByAge(pools)
	c.logger.Debug("pool listing completed",
		zap.Int("fetched", len(pools)),
		zap.Int("after_age_filter", len(filtered)))
	return filtered, nil
}

// fetchPage выполняет один запрос страницы с экспоненциальным retry.
func (c *Client) fetchPage(ctx context.Context, page int) (*apiResponse, error) {
	operation := func() (*apiResponse, error) {
		return c.doFetchPage(ctx, page)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryDelay
	policy.MaxInterval = retryDelay * 10

	notify := func(err error, duration time.Duration) {
		c.logger.Warn("retrying pool listing page",
			zap.Int("page", page),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxRetries),
		backoff.WithNotify(notify))
}

func (c *Client) doFetchPage(ctx context.Context, page int) (*apiResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(defaultPageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("order_by", "created_at_slot_timestamp")
	params.Set("order", "desc")

	reqURL := fmt.Sprintf("%s/pools?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("pool listing request completed",
		zap.Int("page", page),
		zap.Duration("duration", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}

// normalize валидирует сырую запись и приводит ее к PoolRecord.
// Запись без адреса или mint'ов непригодна и отбрасывается.
func (c *Client) normalize(raw apiPool) (PoolRecord, bool) {
	if raw.Address == "" || raw.MintX == "" || raw.MintY == "" {
		c.logger.Debug("skipping incomplete pool record",
			zap.String("address", raw.Address),
			zap.String("name", raw.Name))
		return PoolRecord{}, false
	}

	record := PoolRecord{
		Address:         raw.Address,
		Name:            raw.Name,
		MintX:           raw.MintX,
		MintY:           raw.MintY,
		CurrentPrice:    parseFloat(raw.CurrentPrice),
		ReserveX:        parseUint(raw.ReserveX),
		ReserveY:        parseUint(raw.ReserveY),
		BaseFeeRate:     parseFloat(raw.BaseFee),
		ProtocolFeeRate: parseFloat(raw.ProtocolFee),
	}

	if ts := parseInt(raw.CreatedAtSlotTS); ts > 0 {
		record.CreatedAt = time.Unix(ts, 0)
	}

	return record, true
}

func (c *Client) filterByAge(pools []PoolRecord) []PoolRecord {
	if c.maxPoolAge <= 0 {
		return pools
	}

	cutoff := time.Now().Add(-c.maxPoolAge)
	filtered := make([]PoolRecord, 0, len(pools))
	for _, pool := range pools {
		if pool.CreatedAt.IsZero() || pool.CreatedAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, pool)
	}
	return filtered
}

func parseFloat(n flexNumber) float64 {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseUint(n flexNumber) uint64 {
	v, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil {
		// Некоторые ревизии API отдают резервы в научной нотации.
		if f, ferr := strconv.ParseFloat(string(n), 64); ferr == nil && f > 0 {
			return uint64(f)
		}
		return 0
	}
	return v
}

func parseInt(n flexNumber) int64 {
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
