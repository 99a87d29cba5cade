package revalue

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/assetfin/core/model"
)

// LoadFunc reads a portfolio file.
type LoadFunc func(path string) (model.Portfolio, error)

// ValueFunc values one portfolio.
type ValueFunc func(ctx context.Context, p model.Portfolio) error

// Portfolios re-values a fixed list of portfolio files.
type Portfolios struct {
	Files []string
	Load  LoadFunc
	Value ValueFunc
}

// Name implements Job.
func (Portfolios) Name() string { return "revalue-portfolios" }

// Run loads and values every file. A failing file does not stop the others;
// all errors are joined.
func (j Portfolios) Run(ctx context.Context) error {
	var errs []error
	for _, f := range j.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := j.Load(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := j.Value(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}
