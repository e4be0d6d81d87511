// Package scraper harvests candidate recipient wallets from the block
// explorer, filters them down to funded EOAs and feeds the wallet pool.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/core-coin/gutta/internal/retry"
	"github.com/core-coin/gutta/pkg/logger"
	"github.com/core-coin/gutta/pkg/validation"
)

const maxSourceResponseSize = 10 * 1024 * 1024

// ExplorerSource pulls recent activity around known router contracts from
// the block-explorer API. Token transfers capture swap participants,
// internal transactions capture native-coin swaps.
type ExplorerSource struct {
	logger     *logger.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	contracts  []string
	retryOpts  retry.Options
}

func NewExplorerSource(log *logger.Logger, baseURL, apiKey string, contracts []string, interval time.Duration) *ExplorerSource {
	return &ExplorerSource{
		logger:     log,
		baseURL:    baseURL,
		apiKey:     apiKey,
		contracts:  contracts,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		retryOpts:  retry.Options{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type explorerTx struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type explorerResponse struct {
	Result json.RawMessage `json:"result"`
}

// FetchRawAddresses returns up to limit unique, syntactically valid
// addresses seen in recent router activity. Per-endpoint failures are
// logged and skipped; only an empty overall harvest is an error for the
// caller to handle.
func (e *ExplorerSource) FetchRawAddresses(ctx context.Context, limit int) ([]string, error) {
	seen := make(map[string]struct{})

	for _, contract := range e.contracts {
		e.logger.Infof("collecting activity around contract %s", contract)

		endpoints := map[string]url.Values{
			"tokentx": {
				"module":          {"account"},
				"action":          {"tokentx"},
				"contractaddress": {contract},
				"page":            {"1"},
				"offset":          {"10000"},
				"sort":            {"desc"},
			},
			"txlistinternal": {
				"module":  {"account"},
				"action":  {"txlistinternal"},
				"address": {contract},
				"page":    {"1"},
				"offset":  {"10000"},
				"sort":    {"desc"},
			},
		}

		for name, params := range endpoints {
			txs, err := e.fetch(ctx, params)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				e.logger.Errorf("failed to fetch %s for %s: %v", name, contract, err)
				continue
			}
			e.logger.Infof("%s for %s: %d transactions", name, contract, len(txs))

			for _, tx := range txs {
				for _, addr := range []string{tx.From, tx.To} {
					if addr == "" {
						continue
					}
					normalized, err := validation.ValidateAndNormalizeAddress(addr)
					if err != nil {
						continue
					}
					seen[normalized] = struct{}{}
					if len(seen) >= limit {
						e.logger.Infof("raw address target reached: %d", len(seen))
						return lo.Keys(seen), nil
					}
				}
			}
		}
	}

	e.logger.Infof("collected %d raw addresses", len(seen))
	return lo.Keys(seen), nil
}

func (e *ExplorerSource) fetch(ctx context.Context, params url.Values) ([]explorerTx, error) {
	if e.apiKey != "" {
		params.Set("apikey", e.apiKey)
	}
	requestURL := e.baseURL + "?" + params.Encode()

	var body []byte
	err := retry.Do(ctx, e.retryOpts, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		resp, err := e.httpClient.Do(req)
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
		return nil, err
	}

	var parsed explorerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse explorer response: %w", err)
	}

	// The explorer returns a string in the result field for some error
	// conditions instead of a transaction list.
	var txs []explorerTx
	if err := json.Unmarshal(parsed.Result, &txs); err != nil {
		var msg string
		if json.Unmarshal(parsed.Result, &msg) == nil {
			return nil, fmt.Errorf("explorer error: %s", strings.TrimSpace(msg))
		}
		return nil, fmt.Errorf("failed to parse explorer result: %w", err)
	}
	return txs, nil
}
