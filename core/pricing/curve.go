package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/assetfin/core/logger"
)

const (
	// DefaultFallback is the price used when a curve has no usable point.
	DefaultFallback = 50.0
	// backwardSearchMonths bounds the search for an earlier monthly price.
	backwardSearchMonths = 60
)

// Escalation grows curve prices from a reference date.
type Escalation struct {
	Rate      float64
	Reference time.Time
}

// Factor is (1+rate)^years since the reference, never below 1.
func (e Escalation) Factor(t time.Time) float64 {
	if e.Rate == 0 || e.Reference.IsZero() {
		return 1
	}
	years := float64(t.Year()-e.Reference.Year()) + float64(int(t.Month())-int(e.Reference.Month()))/12
	return math.Pow(1+e.Rate, math.Max(0, years))
}

// MonthlyPoint is one row of a monthly price curve.
type MonthlyPoint struct {
	Profile string
	Type    PriceType
	Region  string
	Month   time.Time
	Price   float64
}

// SpreadPoint is one row of a yearly storage spread table.
type SpreadPoint struct {
	Region   string
	Year     int
	Duration float64
	Spread   float64
}

type seriesKey struct {
	profile string
	typ     PriceType
	region  string
}

type spreadKey struct {
	region string
	year   int
}

// gapKey marks a series with months beyond the backward search window.
type gapKey struct{ seriesKey }

// spreadRegion marks a region with missing spread years.
type spreadRegion string

// Curve serves merchant prices from monthly curves and yearly spreads.
type Curve struct {
	escalation Escalation
	fallback   float64
	log        logger.Logger

	monthly map[seriesKey]map[int]float64
	spreads map[spreadKey][]SpreadPoint

	once        sync.Once
	fingerprint string
	// warned holds the gap keys already logged so each is reported once.
	warned sync.Map
}

// CurveOption configures a Curve.
type CurveOption func(*Curve)

// WithEscalation sets the curve escalation.
func WithEscalation(e Escalation) CurveOption { return func(c *Curve) { c.escalation = e } }

// WithFallback overrides the fallback price.
func WithFallback(p float64) CurveOption { return func(c *Curve) { c.fallback = p } }

// WithLogger sets the logger used for missing data warnings.
func WithLogger(l logger.Logger) CurveOption { return func(c *Curve) { c.log = l } }

// NewCurve indexes monthly points and spread points.
func NewCurve(monthly []MonthlyPoint, spreads []SpreadPoint, opts ...CurveOption) *Curve {
	c := &Curve{
		fallback: DefaultFallback,
		log:      logger.Nop{},
		monthly:  make(map[seriesKey]map[int]float64),
		spreads:  make(map[spreadKey][]SpreadPoint),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrNop(c.log)
	for _, p := range monthly {
		k := seriesKey{strings.ToLower(p.Profile), PriceType(strings.ToLower(string(p.Type))), strings.ToUpper(p.Region)}
		if c.monthly[k] == nil {
			c.monthly[k] = make(map[int]float64)
		}
		c.monthly[k][monthKey(p.Month)] = p.Price
	}
	for _, p := range spreads {
		k := spreadKey{strings.ToUpper(p.Region), p.Year}
		c.spreads[k] = append(c.spreads[k], p)
	}
	for k := range c.spreads {
		pts := c.spreads[k]
		sort.Slice(pts, func(i, j int) bool { return pts[i].Duration < pts[j].Duration })
	}
	return c
}

func monthKey(t time.Time) int { return t.Year()*12 + int(t.Month()) - 1 }

// MerchantPrice implements Source.
func (c *Curve) MerchantPrice(q Query) float64 {
	esc := c.escalation.Factor(q.Date)
	if q.Type == Spread {
		return c.spread(q) * esc
	}
	return c.monthlyPrice(q) * esc
}

func (c *Curve) monthlyPrice(q Query) float64 {
	k := seriesKey{strings.ToLower(string(q.Technology)), q.Type, strings.ToUpper(q.Region)}
	series := c.monthly[k]
	if series == nil {
		c.warnOnce(k, "no %s %s price curve for region %s, using fallback %.2f", q.Technology, q.Type, q.Region, c.fallback)
		return c.fallback
	}
	m := monthKey(q.Date)
	for back := 0; back <= backwardSearchMonths; back++ {
		if p, ok := series[m-back]; ok {
			return p
		}
	}
	c.warnOnce(gapKey{k}, "no %s %s price in %s within %d months before %s, using fallback from here on", q.Technology, q.Type, q.Region, backwardSearchMonths, q.Date.Format("2006-01"))
	return c.fallback
}

func (c *Curve) spread(q Query) float64 {
	pts := c.spreads[spreadKey{strings.ToUpper(q.Region), q.Date.Year()}]
	if len(pts) == 0 {
		c.warnOnce(spreadRegion(strings.ToUpper(q.Region)), "no storage spread for %s in %d, using fallback", q.Region, q.Date.Year())
		return c.fallback
	}
	return interpolate(pts, q.Duration)
}

func (c *Curve) warnOnce(key any, format string, args ...any) {
	if _, seen := c.warned.LoadOrStore(key, struct{}{}); !seen {
		c.log.Warnf(format, args...)
	}
}

// interpolate returns the spread at d, linear between neighbours and flat beyond the ends.
func interpolate(pts []SpreadPoint, d float64) float64 {
	if d <= pts[0].Duration {
		return pts[0].Spread
	}
	last := pts[len(pts)-1]
	if d >= last.Duration {
		return last.Spread
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Duration >= d })
	hi, lo := pts[i], pts[i-1]
	if hi.Duration == d || hi.Duration == lo.Duration {
		return hi.Spread
	}
	return lo.Spread + (hi.Spread-lo.Spread)*(d-lo.Duration)/(hi.Duration-lo.Duration)
}

// Fingerprint hashes the curve content and settings.
func (c *Curve) Fingerprint() string {
	c.once.Do(func() {
		h := sha256.New()
		fmt.Fprintf(h, "esc:%g:%s|fb:%g|", c.escalation.Rate, c.escalation.Reference.Format(time.DateOnly), c.fallback)
		keys := make([]seriesKey, 0, len(c.monthly))
		for k := range c.monthly {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, b := keys[i], keys[j]
			if a.profile != b.profile {
				return a.profile < b.profile
			}
			if a.typ != b.typ {
				return a.typ < b.typ
			}
			return a.region < b.region
		})
		for _, k := range keys {
			months := make([]int, 0, len(c.monthly[k]))
			for m := range c.monthly[k] {
				months = append(months, m)
			}
			sort.Ints(months)
			for _, m := range months {
				fmt.Fprintf(h, "%s/%s/%s/%d=%g;", k.profile, k.typ, k.region, m, c.monthly[k][m])
			}
		}
		skeys := make([]spreadKey, 0, len(c.spreads))
		for k := range c.spreads {
			skeys = append(skeys, k)
		}
		sort.Slice(skeys, func(i, j int) bool {
			if skeys[i].region != skeys[j].region {
				return skeys[i].region < skeys[j].region
			}
			return skeys[i].year < skeys[j].year
		})
		for _, k := range skeys {
			for _, p := range c.spreads[k] {
				fmt.Fprintf(h, "%s/%d/%g=%g;", k.region, k.year, p.Duration, p.Spread)
			}
		}
		c.fingerprint = "curve:" + hex.EncodeToString(h.Sum(nil))
	})
	return c.fingerprint
}

// Len reports the number of monthly points and spread points loaded.
func (c *Curve) Len() (monthly, spreads int) {
	for _, s := range c.monthly {
		monthly += len(s)
	}
	for _, s := range c.spreads {
		spreads += len(s)
	}
	return monthly, spreads
}

var _ Source = (*Curve)(nil)
var _ Fingerprinter = (*Curve)(nil)
