package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
)

// RateSource is the upstream capability the scheduler drives: one fetch
// against one base currency yields a full snapshot or a typed error.
type RateSource interface {
	Fetch(ctx context.Context, base string) (*models.RateSnapshot, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// latestResponse mirrors the rate source payload:
// {"rates": {...}, "date": "YYYY-MM-DD", "base": "..."}.
type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Fetch retrieves the latest snapshot for the given base. The base is not
// validated against a whitelist: the source decides what it accepts.
func (c *Client) Fetch(ctx context.Context, base string) (*models.RateSnapshot, error) {
	const op = "source.Fetch"

	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("%s: %w: base is required", op, custom_err.ErrInvalidCurrency)
	}

	reqURL := fmt.Sprintf("%s/latest?from=%s", c.baseURL, url.QueryEscape(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: status %d", op, custom_err.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrMalformedResponse, err)
	}

	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%s: %w: missing rates field", op, custom_err.ErrMalformedResponse)
	}

	snapBase := payload.Base
	if snapBase == "" {
		snapBase = base
	}

	snapshot := &models.RateSnapshot{
		Base:      snapBase,
		Date:      payload.Date,
		Rates:     payload.Rates,
		FetchedAt: time.Now().UTC(),
	}

	c.log.Debug("fetched rate snapshot",
		slog.String("base", snapshot.Base),
		slog.String("date", snapshot.Date),
		slog.Int("currencies", len(snapshot.Rates)))

	return snapshot, nil
}
