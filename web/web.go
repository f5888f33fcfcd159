// Package web provides the JSON API over a shared billing engine.
// Stateless design - every request resolves against the engine directly.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/artpar/storagemeter/app"
	"github.com/artpar/storagemeter/domain/fee"
	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/artpar/storagemeter/domain/unit"
	"github.com/artpar/storagemeter/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler provides the HTTP API endpoints.
type Handler struct {
	engine     *app.Engine
	mu         sync.RWMutex // guards catalog, swapped by config reload
	catalog    []plan.Plan
	hasher     ports.Hasher
	apiKeyHash []byte // empty disables auth
	authHeader string
	metricsOn  bool
	logger     zerolog.Logger
	startTime  time.Time
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Engine         *app.Engine
	Catalog        []plan.Plan
	Hasher         ports.Hasher
	APIKeyHash     string
	AuthHeader     string
	MetricsEnabled bool
	Logger         zerolog.Logger
}

// New creates a web handler.
func New(d Deps) *Handler {
	header := d.AuthHeader
	if header == "" {
		header = "X-API-Key"
	}
	return &Handler{
		engine:     d.Engine,
		catalog:    d.Catalog,
		hasher:     d.Hasher,
		apiKeyHash: []byte(d.APIKeyHash),
		authHeader: header,
		metricsOn:  d.MetricsEnabled,
		logger:     d.Logger.With().Str("component", "web").Logger(),
		startTime:  time.Now(),
	}
}

// SetCatalog swaps the plan catalog shown by the plans endpoint.
// Called by the config holder on hot reload, which runs on its own
// goroutine, so access is serialized against request handlers.
func (h *Handler) SetCatalog(catalog []plan.Plan) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.catalog = catalog
}

func (h *Handler) planCatalog() []plan.Plan {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestLogger)

	r.Get("/healthz", h.handleHealth)
	if h.metricsOn {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.requireAPIKey)

		r.Post("/operations", h.handleApply)
		r.Post("/units", h.handleRegisterUnit)
		r.Get("/units", h.handleListUnits)
		r.Get("/units/{unitID}", h.handleGetUnit)
		r.Get("/units/{unitID}/report", h.handleReport)
		r.Get("/plans", h.handleListPlans)
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.apiKeyHash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(h.authHeader)
		if key == "" || !h.hasher.Compare(h.apiKeyHash, key) {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type operationRequest struct {
	Timestamp string `json:"timestamp"`
	Kind      string `json:"kind"`
	UnitID    string `json:"unit_id"`
	FileID    string `json:"file_id,omitempty"`
	SizeMB    int64  `json:"size_mb,omitempty"`
}

type reportResponse struct {
	UnitID         string `json:"unit_id"`
	Month          string `json:"month"`
	MaxUsageMB     int64  `json:"max_usage_mb"`
	UpdateVolumeMB int64  `json:"update_volume_mb"`
	StorageFee     string `json:"storage_fee"`
	UpdateFee      string `json:"update_fee"`
	UsageFee       string `json:"usage_fee"`
}

type applyResponse struct {
	Kind   string          `json:"kind"`
	UnitID string          `json:"unit_id"`
	FileID string          `json:"file_id,omitempty"`
	Report *reportResponse `json:"report,omitempty"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		// Accept the minute-resolution shape the line format uses.
		ts, err = time.Parse("2006-01-02T15:04", req.Timestamp)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	res, err := h.engine.Apply(operation.Record{
		Timestamp: ts,
		Kind:      operation.Kind(req.Kind),
		UnitID:    req.UnitID,
		FileID:    req.FileID,
		SizeMB:    req.SizeMB,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := applyResponse{Kind: string(res.Kind), UnitID: res.UnitID, FileID: res.FileID}
	if res.Report != nil {
		rr := toReportResponse(*res.Report)
		resp.Report = &rr
	}
	writeJSON(w, http.StatusOK, resp)
}

type registerUnitRequest struct {
	ID   string `json:"id"`
	Plan string `json:"plan"`
}

func (h *Handler) handleRegisterUnit(w http.ResponseWriter, r *http.Request) {
	var req registerUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, ok := plan.FindPlan(h.planCatalog(), req.Plan)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown plan "+req.Plan)
		return
	}
	if err := h.engine.RegisterUnit(req.ID, p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID, "plan": req.Plan})
}

type unitResponse struct {
	ID          string   `json:"id"`
	Plan        string   `json:"plan"`
	FileCount   int      `json:"file_count"`
	TotalSizeMB int64    `json:"total_size_mb"`
	Months      []string `json:"months,omitempty"`
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request) {
	infos := h.engine.Units()
	out := make([]unitResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, toUnitResponse(info))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.UnitInfo(chi.URLParam(r, "unitID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUnitResponse(info))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	month, err := operation.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	rep, err := h.engine.Report(chi.URLParam(r, "unitID"), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rep))
}

type planResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	StoragePricePerMB   string `json:"storage_price_per_mb"`
	UpdatePricePerMB    string `json:"update_price_per_mb"`
	FreeMonthlyFeeCapMB *int64 `json:"free_monthly_fee_cap_mb,omitempty"`
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	catalog := h.planCatalog()
	out := make([]planResponse, 0, len(catalog))
	for _, p := range catalog {
		pr := planResponse{
			ID:                p.ID,
			Name:              p.Name,
			StoragePricePerMB: p.StoragePricePerMB.String(),
			UpdatePricePerMB:  p.UpdatePricePerMB.String(),
		}
		if p.HasFreeCap() {
			capMB := p.FreeMonthlyFeeCapMB
			pr.FreeMonthlyFeeCapMB = &capMB
		}
		out = append(out, pr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

func toUnitResponse(info app.UnitInfo) unitResponse {
	months := make([]string, 0, len(info.Months))
	for _, m := range info.Months {
		months = append(months, m.String())
	}
	return unitResponse{
		ID:          info.ID,
		Plan:        info.PlanID,
		FileCount:   info.FileCount,
		TotalSizeMB: info.TotalSizeMB,
		Months:      months,
	}
}

func toReportResponse(rep fee.Report) reportResponse {
	return reportResponse{
		UnitID:         rep.UnitID,
		Month:          rep.Month.String(),
		MaxUsageMB:     rep.MaxUsageMB,
		UpdateVolumeMB: rep.UpdateVolumeMB,
		StorageFee:     rep.StorageFee.String(),
		UpdateFee:      rep.UpdateFee.String(),
		UsageFee:       rep.UsageFee.String(),
	}
}

// writeDomainError maps engine and unit errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnitNotFound),
		errors.Is(err, unit.ErrFileNotFound),
		errors.Is(err, unit.ErrNoDataForMonth):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrDuplicateUnit),
		errors.Is(err, unit.ErrDuplicateFile):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, unit.ErrInvalidSize),
		errors.Is(err, unit.ErrOutOfOrderOperation),
		errors.Is(err, operation.ErrMalformedRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
