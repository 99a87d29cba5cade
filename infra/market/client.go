// Package market builds merchant price curves from a wholesale market price API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/assetfin/core/model"
)

// Response is the wholesale exchange payload: per-day blocks of hourly prices.
type Response struct {
	PowerExchanges []struct {
		StartDate   string  `json:"start_date"`
		EndDate     string  `json:"end_date"`
		UpdatedDate string  `json:"updated_date"`
		Values      []Value `json:"values"`
	} `json:"france_power_exchanges"`
}

// Value is one traded interval.
type Value struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Value     float64 `json:"value"`
	Price     float64 `json:"price"`
}

// MonthlyAverage is the mean traded price of one calendar month.
type MonthlyAverage struct {
	Month time.Time
	Price float64
	// Samples is the number of intervals averaged.
	Samples int
}

// MonthlyAverages groups interval prices by UTC month and averages them.
func (r Response) MonthlyAverages() ([]MonthlyAverage, error) {
	byMonth := make(map[time.Time][]float64)
	for _, ex := range r.PowerExchanges {
		for _, v := range ex.Values {
			t, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			m := model.MonthStart(t.UTC())
			byMonth[m] = append(byMonth[m], v.Price)
		}
	}
	out := make([]MonthlyAverage, 0, len(byMonth))
	for m, prices := range byMonth {
		out = append(out, MonthlyAverage{Month: m, Price: stat.Mean(prices, nil), Samples: len(prices)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

// Client fetches wholesale prices over a date range.
type Client struct {
	baseURL string
	creds   *ClientCred
	http    *http.Client
}

// NewClient creates a client. creds may be nil for unauthenticated endpoints.
func NewClient(baseURL string, creds *ClientCred, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, creds: creds, http: hc}
}

// Fetch retrieves the prices traded between start and end.
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Response{}, fmt.Errorf("invalid url: %w", err)
	}
	q := u.Query()
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.creds != nil {
		if err := c.creds.SetAuthHeader(req); err != nil {
			return Response{}, fmt.Errorf("failed to set auth header: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Response{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
