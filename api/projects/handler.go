// Package projects exposes the valuation engines over HTTP.
package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/assetfin/app"
	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/irr"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/sensitivity"
	"github.com/kilianp07/assetfin/core/summary"
	"github.com/kilianp07/assetfin/core/validate"
	"github.com/kilianp07/assetfin/infra/logger"
	"github.com/kilianp07/assetfin/infra/store"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

// Service is the valuation backend used by the handlers.
type Service interface {
	Options() finance.Options
	Validate(p model.Portfolio) validate.Report
	Calculate(ctx context.Context, p model.Portfolio, opts finance.Options) (app.Outcome, error)
	Sensitivity(ctx context.Context, p model.Portfolio, opts finance.Options, set sensitivity.Set) (app.SensitivityOutcome, error)
	Latest(ctx context.Context, portfolioID string) (store.Run, error)
	Summaries(m model.ProjectMetrics) (map[summary.Basis][]summary.Row, error)
}

// Handlers serves the project valuation endpoints.
type Handlers struct {
	svc Service
	log logger.Logger
}

// NewHandlers creates the handlers.
func NewHandlers(svc Service, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handlers{svc: svc, log: log}
}

// RegisterRoutes registers the project routes under /api.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/irr", h.IRR)
		r.Route("/projects", func(r chi.Router) {
			r.Post("/metrics", h.Metrics)
			r.Post("/validate", h.Validate)
			r.Post("/sensitivity", h.Sensitivity)
			r.Get("/{portfolioID}/runs/latest", h.LatestRun)
		})
	})
}

// MetricsRequest is the body of POST /api/projects/metrics. Options fields
// that are present override the configured defaults.
type MetricsRequest struct {
	Portfolio model.Portfolio `json:"portfolio"`
	Options   json.RawMessage `json:"options,omitempty"`
	Summaries bool            `json:"summaries"`
}

// MetricsResponse is a stored run plus optional roll-ups keyed by metrics key.
type MetricsResponse struct {
	app.Outcome
	Summaries map[string]map[summary.Basis][]summary.Row `json:"summaries,omitempty"`
}

// Metrics values a portfolio.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts, err := h.options(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.svc.Calculate(r.Context(), req.Portfolio, opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := MetricsResponse{Outcome: out}
	if req.Summaries {
		resp.Summaries = make(map[string]map[summary.Basis][]summary.Row, len(out.Result.Metrics))
		for name, m := range out.Result.Metrics {
			s, err := h.svc.Summaries(m)
			if err != nil {
				h.fail(w, err)
				return
			}
			resp.Summaries[name] = s
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateResponse wraps a validation report.
type ValidateResponse struct {
	Valid bool `json:"valid"`
	validate.Report
}

// Validate checks a portfolio without valuing it.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	var p model.Portfolio
	if !h.decode(w, r, &p) {
		return
	}
	rep := h.svc.Validate(p)
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: rep.Valid(), Report: rep})
}

// SensitivityRequest is the body of POST /api/projects/sensitivity.
type SensitivityRequest struct {
	Portfolio model.Portfolio        `json:"portfolio"`
	Options   json.RawMessage        `json:"options,omitempty"`
	Drivers   []sensitivity.Driver   `json:"drivers"`
	Scenarios []sensitivity.Scenario `json:"scenarios"`
}

// Sensitivity runs a tornado sweep.
func (h *Handlers) Sensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts, err := h.options(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.svc.Sensitivity(r.Context(), req.Portfolio, opts, sensitivity.Set{Drivers: req.Drivers, Scenarios: req.Scenarios})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// IRRRequest is the body of POST /api/irr. With dates the rate is an XIRR;
// otherwise the periodic rate is annualized by periodsPerYear.
type IRRRequest struct {
	CashFlows      []float64    `json:"cashFlows"`
	Dates          []model.Date `json:"dates,omitempty"`
	PeriodsPerYear int          `json:"periodsPerYear,omitempty"`
	// DiscountRate, when set, also returns the NPV at that periodic rate.
	DiscountRate *float64 `json:"discountRate,omitempty"`
}

// IRRResponse carries the solved rate.
type IRRResponse struct {
	IRR model.IRRResult `json:"irr"`
	NPV *float64        `json:"npv,omitempty"`
}

// IRR solves the internal rate of return of a cash-flow vector.
func (h *Handlers) IRR(w http.ResponseWriter, r *http.Request) {
	var req IRRRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Dates) > 0 && len(req.Dates) != len(req.CashFlows) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%d dates for %d cash flows", len(req.Dates), len(req.CashFlows)))
		return
	}
	var resp IRRResponse
	if len(req.Dates) > 0 {
		dates := make([]time.Time, len(req.Dates))
		for i, d := range req.Dates {
			dates[i] = d.Time
		}
		resp.IRR = irr.XIRR(req.CashFlows, dates)
		if req.DiscountRate != nil {
			v := irr.XNPV(*req.DiscountRate, req.CashFlows, dates)
			resp.NPV = &v
		}
	} else {
		resp.IRR = irr.Calculate(req.CashFlows).Annualize(req.PeriodsPerYear)
		if req.DiscountRate != nil {
			v := irr.NPV(*req.DiscountRate, req.CashFlows)
			resp.NPV = &v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestRun returns the most recent stored run of a portfolio.
func (h *Handlers) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Latest(r.Context(), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) options(raw json.RawMessage) (finance.Options, error) {
	opts := h.svc.Options()
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("options: %w", err)
	}
	return opts, opts.Validate()
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validate.ErrInvalidPortfolio),
		errors.Is(err, finance.ErrNoAssets),
		errors.Is(err, finance.ErrContractOverlap),
		errors.Is(err, finance.ErrUnknownTechnology),
		errors.Is(err, finance.ErrMissingStart):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, app.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, err)
	default:
		h.log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
