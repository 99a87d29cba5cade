package pricing

import (
	"fmt"
	"time"

	"github.com/kilianp07/assetfin/core/factory"
	"github.com/kilianp07/assetfin/core/logger"
	"github.com/kilianp07/assetfin/core/model"
)

var sourceRegistry = factory.NewRegistry[Source]()

func init() {
	sourceRegistry.MustRegister("flat", func(conf map[string]any) (Source, error) {
		f := Flat{Energy: DefaultFallback}
		if err := factory.Decode(conf, &f); err != nil {
			return nil, err
		}
		return f, nil
	})
	sourceRegistry.MustRegister("csv", func(conf map[string]any) (Source, error) {
		var c struct {
			Monthly        string  `json:"monthly"`
			Spreads        string  `json:"spreads"`
			Fallback       float64 `json:"fallback"`
			EscalationRate float64 `json:"escalation_rate"`
			ReferenceDate  string  `json:"reference_date"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		opts := []CurveOption{}
		if c.Fallback > 0 {
			opts = append(opts, WithFallback(c.Fallback))
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
			opts = append(opts, WithEscalation(Escalation{Rate: c.EscalationRate, Reference: ref}))
		}
		return LoadCurveFiles(c.Monthly, c.Spreads, opts...)
	})
}

// RegisterSource adds a price source factory identified by name.
func RegisterSource(name string, f factory.Factory[Source]) error {
	return sourceRegistry.Register(name, f)
}

// NewSource builds the configured source. An empty type yields a flat $50 energy price.
func NewSource(cfg factory.ModuleConfig, log logger.Logger) (Source, error) {
	if cfg.Type == "" {
		return Flat{Energy: DefaultFallback}, nil
	}
	src, err := sourceRegistry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("price source: %w", err)
	}
	if c, ok := src.(*Curve); ok && log != nil {
		c.log = log
	}
	return src, nil
}
