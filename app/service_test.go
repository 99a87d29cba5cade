package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/config"
	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/model"
	coremon "github.com/kilianp07/assetfin/core/monitoring"
	"github.com/kilianp07/assetfin/core/validate"
)

func newService(t *testing.T, dbPath string) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Store.Path = dbPath
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func windPortfolio() model.Portfolio {
	return model.Portfolio{
		Name: "Windy",
		Assets: map[string]model.Asset{"1": {
			Name:                     "Gust",
			Type:                     model.TechWind,
			Region:                   "VIC",
			CapacityMW:               50,
			QuarterlyCapacityFactors: []float64{35, 30, 30, 35},
			OperatingStart:           model.NewDate(2027, time.July, 1),
			LifeYears:                20,
		}},
	}
}

func TestCalculateMemoizesAndStores(t *testing.T) {
	svc := newService(t, filepath.Join(t.TempDir(), "runs.db"))
	ctx := context.Background()

	first, err := svc.Calculate(ctx, windPortfolio(), svc.Options())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "Windy", first.PortfolioID)
	assert.Contains(t, first.Result.Metrics, "Gust")

	second, err := svc.Calculate(ctx, windPortfolio(), svc.Options())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.InputHash, second.InputHash)
	assert.NotEqual(t, first.ID, second.ID)

	st := svc.CacheStats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)

	latest, err := svc.Latest(ctx, "Windy")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestCalculateRejectsInvalid(t *testing.T) {
	svc := newService(t, "")
	_, err := svc.Calculate(context.Background(), model.Portfolio{}, svc.Options())
	assert.ErrorIs(t, err, validate.ErrInvalidPortfolio)
}

func TestLatestWithoutStore(t *testing.T) {
	svc := newService(t, "")
	_, err := svc.Latest(context.Background(), "Windy")
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestSummaries(t *testing.T) {
	svc := newService(t, "")
	out, err := svc.Calculate(context.Background(), windPortfolio(), svc.Options())
	require.NoError(t, err)
	s, err := svc.Summaries(out.Result.Metrics["Gust"])
	require.NoError(t, err)
	require.NotEmpty(t, s["fiscal"])
	labels := make([]string, 0, len(s["fiscal"]))
	for _, r := range s["fiscal"] {
		labels = append(labels, r.Label)
	}
	// July 2027 falls in the fiscal year ending June 2028.
	assert.Contains(t, labels, "FY2028")
}

type recorder struct{ tags []map[string]string }

func (r *recorder) CaptureException(_ error, tags map[string]string) { r.tags = append(r.tags, tags) }
func (r *recorder) Recover()                                         {}
func (r *recorder) Flush(time.Duration)                              {}

func TestReportSkipsInputErrors(t *testing.T) {
	prev := coremon.Current()
	rec := &recorder{}
	coremon.Init(rec)
	t.Cleanup(func() { coremon.Init(prev) })

	opts := finance.DefaultOptions()
	report(fmt.Errorf("wrap: %w", finance.ErrNoAssets), windPortfolio(), opts)
	report(context.Canceled, windPortfolio(), opts)
	report(errors.New("disk full"), windPortfolio(), opts)

	require.Len(t, rec.tags, 1)
	assert.Equal(t, "Windy", rec.tags[0]["portfolio_id"])
	assert.Equal(t, "base", rec.tags[0]["revenue_case"])
}
