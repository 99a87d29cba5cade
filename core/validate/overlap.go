package validate

import (
	"time"

	"github.com/kilianp07/assetfin/core/model"
)

// Overlap is a run of months where active contracts cover more than 100% of
// one product of an asset's output.
type Overlap struct {
	Start time.Time
	End   time.Time
	// Total is the highest contracted percentage seen in the run.
	Total float64
}

// Overlaps scans the asset's contract months for contracted shares above 100%.
// Green and energy are tracked separately; bundled contracts count toward both.
// Contracts that earn nothing on the asset's technology are skipped, as in the
// revenue engine.
func Overlaps(a model.Asset) []Overlap {
	var first, last time.Time
	for _, c := range a.Contracts {
		if c.StartDate.IsZero() || c.EndDate.IsZero() {
			continue
		}
		if first.IsZero() || c.StartDate.Before(first) {
			first = c.StartDate.Time
		}
		if c.EndDate.After(last) {
			last = c.EndDate.Time
		}
	}
	if first.IsZero() {
		return nil
	}
	var (
		out []Overlap
		cur *Overlap
	)
	for t := model.MonthStart(first); !t.After(last); t = t.AddDate(0, 1, 0) {
		green, energy := contractedShares(a, t)
		total := green
		if energy > total {
			total = energy
		}
		if total > 100+1e-9 {
			if cur == nil {
				cur = &Overlap{Start: t, End: t, Total: total}
			} else {
				cur.End = t
				if total > cur.Total {
					cur.Total = total
				}
			}
			continue
		}
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func contractedShares(a model.Asset, t time.Time) (green, energy float64) {
	for _, c := range a.Contracts {
		if c.StartDate.IsZero() || !c.Active(t) || !c.Type.AppliesTo(a.Type) {
			continue
		}
		if a.Type == model.TechStorage {
			energy += c.BuyersPercentage
			continue
		}
		switch c.Type {
		case model.ContractGreen:
			green += c.BuyersPercentage
		case model.ContractBundled:
			green += c.BuyersPercentage
			energy += c.BuyersPercentage
		default:
			energy += c.BuyersPercentage
		}
	}
	return green, energy
}
