package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/core-coin/gutta/internal/retry"
	"github.com/core-coin/gutta/pkg/logger"
)

// USDOracle queries the balance-aggregation API for the fiat-equivalent
// value of an address. The oracle is the slowest and flakiest dependency
// of a scraper pass, so its calls run behind a circuit breaker: after a
// streak of failures the breaker opens and candidates are rejected fast
// instead of stalling the whole pass on timeouts.
type USDOracle struct {
	logger     *logger.Logger
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
	apiKey     string
	retryOpts  retry.Options
}

func NewUSDOracle(log *logger.Logger, baseURL, apiKey string) *USDOracle {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "usd-oracle",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &USDOracle{
		logger:     log,
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    breaker,
		retryOpts:  retry.Options{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 15 * time.Second},
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type oracleResponse struct {
	Data struct {
		Items []struct {
			Quote float64 `json:"quote"`
		} `json:"items"`
	} `json:"data"`
}

// Value returns the aggregate USD value of all holdings at address.
func (o *USDOracle) Value(ctx context.Context, address string) (float64, error) {
	result, err := o.breaker.Execute(func() (interface{}, error) {
		return o.query(ctx, address)
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

func (o *USDOracle) query(ctx context.Context, address string) (float64, error) {
	requestURL := fmt.Sprintf("%s/address/%s/balances_v2/?key=%s", o.baseURL, address, o.apiKey)

	var body []byte
	err := retry.Do(ctx, o.retryOpts, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		resp, err := o.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceResponseSize))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Body:       data,
				RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		body = data
		return nil
	})
	if err != nil {
		return 0, err
	}

	var parsed oracleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse oracle response: %w", err)
	}

	total := 0.0
	for _, item := range parsed.Data.Items {
		total += item.Quote
	}
	return total, nil
}
