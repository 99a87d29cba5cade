package finance

import "math"

const (
	gearingIterations = 60
	feasibilityTol    = 1e-9
	balanceEpsilon    = 1e-7
)

// debtInput describes the operating phase seen by the lender.
type debtInput struct {
	cfads   []float64
	targets []float64
	rate    float64 // per period
	tenor   int     // repayment periods from operating start
}

// debtSchedule is the per-operating-period repayment profile.
type debtSchedule struct {
	amount    float64
	interest  []float64
	principal []float64
	service   []float64
	balance   []float64
	dscr      []*float64
	// minRatio is min(DSCR/target) over serviced periods, +Inf when none.
	minRatio float64
	minDSCR  *float64
	// annuityFallback is set when sculpting had no positive cash flow to size against.
	annuityFallback bool
}

func (s debtSchedule) totalService() float64 {
	var t float64
	for _, v := range s.service {
		t += v
	}
	return t
}

// blendedTarget weights contract and merchant DSCR by the contracted revenue share.
func blendedTarget(contracted, total, dscrContract, dscrMerchant float64) float64 {
	if total <= 0 {
		t := math.Min(dscrContract, dscrMerchant)
		if t <= 0 {
			return 1
		}
		return t
	}
	share := contracted / total
	t := share*dscrContract + (1-share)*dscrMerchant
	if t <= 0 {
		return 1
	}
	return t
}

func scheduleDebt(amount float64, in debtInput, rep Repayment) debtSchedule {
	if amount <= 0 || in.tenor <= 0 {
		return runSchedule(0, make([]float64, len(in.cfads)), in)
	}
	if rep == Annuity {
		return runSchedule(amount, annuityPayments(amount, in), in)
	}
	caps := make([]float64, len(in.cfads))
	var pv float64
	for t := 0; t < in.tenor && t < len(in.cfads); t++ {
		caps[t] = math.Max(0, in.cfads[t]) / in.targets[t]
		pv += caps[t] / math.Pow(1+in.rate, float64(t+1))
	}
	if pv <= 0 {
		s := runSchedule(amount, annuityPayments(amount, in), in)
		s.annuityFallback = true
		return s
	}
	k := amount / pv
	for t := range caps {
		caps[t] *= k
	}
	return runSchedule(amount, caps, in)
}

func annuityPayments(amount float64, in debtInput) []float64 {
	out := make([]float64, len(in.cfads))
	n := in.tenor
	if n > len(out) {
		n = len(out)
	}
	if n == 0 {
		return out
	}
	pmt := amount / float64(n)
	if in.rate > 0 {
		pmt = amount * in.rate / (1 - math.Pow(1+in.rate, -float64(n)))
	}
	for t := 0; t < n; t++ {
		out[t] = pmt
	}
	return out
}

// runSchedule accrues interest on the opening balance and applies payments.
func runSchedule(amount float64, payments []float64, in debtInput) debtSchedule {
	n := len(in.cfads)
	s := debtSchedule{
		amount:    amount,
		interest:  make([]float64, n),
		principal: make([]float64, n),
		service:   make([]float64, n),
		balance:   make([]float64, n),
		dscr:      make([]*float64, n),
		minRatio:  math.Inf(1),
	}
	bal := amount
	eps := balanceEpsilon * math.Max(1, amount)
	for t := 0; t < n; t++ {
		if bal > eps && t < in.tenor {
			s.interest[t] = bal * in.rate
			s.service[t] = payments[t]
			s.principal[t] = payments[t] - s.interest[t]
			bal -= s.principal[t]
			if math.Abs(bal) < eps {
				bal = 0
			}
		}
		s.balance[t] = bal
		if s.service[t] > 0 {
			d := in.cfads[t] / s.service[t]
			s.dscr[t] = &d
			if s.minDSCR == nil || d < *s.minDSCR {
				v := d
				s.minDSCR = &v
			}
			if r := d / in.targets[t]; r < s.minRatio {
				s.minRatio = r
			}
		}
	}
	return s
}

func (s debtSchedule) feasible() bool { return s.minRatio >= 1-feasibilityTol }

// outstanding is the balance left after the last period.
func (s debtSchedule) outstanding() float64 {
	if len(s.balance) == 0 {
		return s.amount
	}
	return s.balance[len(s.balance)-1]
}

// solveGearing bisects gearing in [0, maxGearing] for the highest level whose
// schedule keeps every serviced period at or above its DSCR target.
func solveGearing(capex, maxGearing float64, in debtInput, rep Repayment) (float64, debtSchedule) {
	if capex <= 0 || maxGearing <= 0 {
		return 0, scheduleDebt(0, in, rep)
	}
	top := scheduleDebt(capex*maxGearing, in, rep)
	if top.feasible() && !top.annuityFallback {
		return maxGearing, top
	}
	lo, hi := 0.0, maxGearing
	for i := 0; i < gearingIterations; i++ {
		mid := (lo + hi) / 2
		s := scheduleDebt(capex*mid, in, rep)
		if s.feasible() && !s.annuityFallback {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo < feasibilityTol {
		return 0, scheduleDebt(0, in, rep)
	}
	return lo, scheduleDebt(capex*lo, in, rep)
}
