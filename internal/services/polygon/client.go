package polygon

import (
	"context"
	"fmt"
	"time"

	xhttp "GammaPull/pkg/http"
	"GammaPull/pkg/logger"
	"GammaPull/pkg/util"

	"GammaPull/internal/domain/models"
)

// Client talks to the Polygon REST API. It implements the provider
// interfaces the analyzers consume: daily bars, chain snapshots, and
// spot resolution.
type Client struct {
	http    *xhttp.Client
	log     *logger.Logger
	baseURL string
	apiKey  string

	maxRetries int
	retryDelay time.Duration
}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("polygon: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.polygon.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Client{
		http:       xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		log:        log,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// getJSON fetches a URL with retries and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, url string, query map[string][]string, dest interface{}) error {
	if query == nil {
		query = map[string][]string{}
	}
	query["apiKey"] = []string{c.apiKey}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lastErr = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         url,
			QueryParams: query,
		}, dest)
		if lastErr == nil {
			return nil
		}
		c.log.Warn("polygon request failed",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Error(lastErr))
	}
	return lastErr
}

type aggsResponse struct {
	Ticker  string `json:"ticker"`
	Results []struct {
		Timestamp int64   `json:"t"` // unix millis
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
	} `json:"results"`
}

// DailyBars returns one OHLCV bar per trading day in [from, to].
func (c *Client) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.baseURL, ticker, util.DayString(from), util.DayString(to))

	var resp aggsResponse
	if err := c.getJSON(ctx, url, map[string][]string{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"50000"},
	}, &resp); err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", ticker, err)
	}

	bars := make([]models.PriceBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, models.PriceBar{
			Ticker: ticker,
			Day:    util.DayOf(time.UnixMilli(r.Timestamp)),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

type chainResponse struct {
	Results []struct {
		Details struct {
			ContractType   string  `json:"contract_type"` // call | put
			StrikePrice    float64 `json:"strike_price"`
			ExpirationDate string  `json:"expiration_date"` // YYYY-MM-DD
		} `json:"details"`
		Greeks *struct {
			Gamma *float64 `json:"gamma"`
		} `json:"greeks"`
		OpenInterest float64 `json:"open_interest"`
		Day          struct {
			Volume float64 `json:"volume"`
		} `json:"day"`
		UnderlyingAsset struct {
			Price float64 `json:"price"`
		} `json:"underlying_asset"`
	} `json:"results"`
	NextURL string `json:"next_url"`
}

// ChainSnapshot fetches the full option chain for an underlying,
// following pagination. Contracts without greeks keep a nil gamma so
// downstream filtering can drop them explicitly.
func (c *Client) ChainSnapshot(ctx context.Context, ticker string) (*models.ChainSnapshot, error) {
	snap := &models.ChainSnapshot{
		Ticker:  ticker,
		TakenAt: time.Now().UTC(),
	}

	url := fmt.Sprintf("%s/v3/snapshot/options/%s", c.baseURL, ticker)
	query := map[string][]string{"limit": {"250"}}
	for url != "" {
		var resp chainResponse
		if err := c.getJSON(ctx, url, query, &resp); err != nil {
			return nil, fmt.Errorf("chain snapshot %s: %w", ticker, err)
		}

		for _, r := range resp.Results {
			side := models.SideCall
			if r.Details.ContractType == "put" {
				side = models.SidePut
			}
			exp, ok := util.ParseTime(r.Details.ExpirationDate)
			if !ok {
				continue
			}
			var gamma *float64
			if r.Greeks != nil && r.Greeks.Gamma != nil {
				g := *r.Greeks.Gamma
				gamma = &g
			}
			if snap.Spot == 0 && r.UnderlyingAsset.Price > 0 {
				snap.Spot = r.UnderlyingAsset.Price
			}
			snap.Contracts = append(snap.Contracts, models.OptionContract{
				Ticker:       ticker,
				Side:         side,
				Strike:       r.Details.StrikePrice,
				Expiration:   exp,
				OpenInterest: r.OpenInterest,
				Volume:       r.Day.Volume,
				Gamma:        gamma,
			})
		}

		url = resp.NextURL
		query = nil // next_url already carries the cursor params
	}

	return snap, nil
}

type prevCloseResponse struct {
	Results []struct {
		Close float64 `json:"c"`
	} `json:"results"`
}

// Spot resolves a reference price from the previous close. Stream-based
// last trades, when enabled, take precedence upstream of this rung.
func (c *Client) Spot(ctx context.Context, ticker string) (float64, string, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev", c.baseURL, ticker)

	var resp prevCloseResponse
	if err := c.getJSON(ctx, url, map[string][]string{"adjusted": {"true"}}, &resp); err != nil {
		return 0, "", fmt.Errorf("prev close %s: %w", ticker, err)
	}
	if len(resp.Results) == 0 || resp.Results[0].Close <= 0 {
		return 0, "", nil
	}
	return resp.Results[0].Close, "prev_close", nil
}
