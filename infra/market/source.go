package market

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/assetfin/core/factory"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
)

func init() {
	if err := pricing.RegisterSource("market", func(conf map[string]any) (pricing.Source, error) {
		var c Conf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
		defer cancel()
		return NewSource(ctx, c, nil)
	}); err != nil {
		panic(err)
	}
}

// Conf configures the "market" price source.
type Conf struct {
	URL  string   `json:"url"`
	Auth AuthConf `json:"auth"`
	// Region the fetched prices are filed under, e.g. "FR".
	Region string `json:"region"`
	// Profiles lists the technologies the prices apply to.
	Profiles  []string `json:"profiles"`
	PriceType string   `json:"price_type"`
	Start     string   `json:"start"`
	End       string   `json:"end"`

	Fallback       float64 `json:"fallback"`
	EscalationRate float64 `json:"escalation_rate"`
	ReferenceDate  string  `json:"reference_date"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

func (c Conf) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Conf) setDefaults() {
	if len(c.Profiles) == 0 {
		c.Profiles = []string{string(model.TechSolar), string(model.TechWind)}
	}
	if c.PriceType == "" {
		c.PriceType = string(pricing.Energy)
	}
}

func (c Conf) window() (time.Time, time.Time, error) {
	if c.URL == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("url is required")
	}
	if c.Region == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("region is required")
	}
	start, err := model.ParseDate(c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := model.ParseDate(c.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if !end.After(start.Time) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s must be after start %s", end, start)
	}
	return start.Time, end.Time, nil
}

// NewSource fetches the configured window and returns a monthly price curve
// with one series per profile.
func NewSource(ctx context.Context, c Conf, hc *http.Client) (*pricing.Curve, error) {
	c.setDefaults()
	start, end, err := c.window()
	if err != nil {
		return nil, fmt.Errorf("market source: %w", err)
	}
	var creds *ClientCred
	if c.Auth.enabled() {
		creds = NewClientCred(c.Auth)
	}
	resp, err := NewClient(c.URL, creds, hc).Fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("market source: %w", err)
	}
	avgs, err := resp.MonthlyAverages()
	if err != nil {
		return nil, fmt.Errorf("market source: %w", err)
	}
	points := make([]pricing.MonthlyPoint, 0, len(avgs)*len(c.Profiles))
	for _, p := range c.Profiles {
		for _, a := range avgs {
			points = append(points, pricing.MonthlyPoint{
				Profile: p,
				Type:    pricing.PriceType(c.PriceType),
				Region:  c.Region,
				Month:   a.Month,
				Price:   a.Price,
			})
		}
	}

	var opts []pricing.CurveOption
	if c.Fallback > 0 {
		opts = append(opts, pricing.WithFallback(c.Fallback))
	}
	if c.EscalationRate != 0 {
		ref := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		if c.ReferenceDate != "" {
			d, err := model.ParseDate(c.ReferenceDate)
			if err != nil {
				return nil, fmt.Errorf("reference_date: %w", err)
			}
			ref = d.Time
		}
		opts = append(opts, pricing.WithEscalation(pricing.Escalation{Rate: c.EscalationRate, Reference: ref}))
	}
	return pricing.NewCurve(points, nil, opts...), nil
}
