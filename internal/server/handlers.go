package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/export"
	"github.com/sells-group/dengue-atlas/internal/region"
	"github.com/sells-group/dengue-atlas/internal/risk"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// maxForecastMonths bounds the forecast horizon accepted from clients.
const maxForecastMonths = 36

var errBoundaryNotLoaded = eris.New("boundary document not loaded")

// BreakerHealth is the circuit breaker section of /health.
type BreakerHealth struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status           string         `json:"status"`
	BoundaryFeatures int            `json:"boundary_features"`
	Breaker          *BreakerHealth `json:"breaker,omitempty"`
	Cache            *cache.Stats   `json:"cache,omitempty"`
}

type statser interface {
	Stats() cache.Stats
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", BoundaryFeatures: s.Boundary().Len()}
	if cb := s.opts.Breaker; cb != nil {
		failures, state := cb.Counters()
		resp.Breaker = &BreakerHealth{State: state.String(), ConsecutiveFailures: failures}
	}
	if st, ok := s.opts.Cache.(statser); ok {
		stats := st.Stats()
		resp.Cache = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	years := s.opts.Years
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"years":   years,
		"default": s.opts.DefaultYear,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r, s.Boundary())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	doc := s.Boundary()
	if doc == nil {
		writeError(w, http.StatusServiceUnavailable, errBoundaryNotLoaded.Error())
		return
	}
	v, ok := s.view(w, r, doc)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := boundary.Encode(w, dashboard.StyleFeatures(doc, v)); err != nil {
		s.log.Error("encode map", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}
}

// DataResponse is the body of /api/data/{year}.
type DataResponse struct {
	Year    int               `json:"year"`
	NoData  bool              `json:"no_data"`
	Summary dashboard.Summary `json:"summary"`
	Filter  dashboard.Filter  `json:"filter"`
	Total   int               `json:"total"`
	Rows    []dashboard.Row   `json:"rows"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r, s.Boundary())
	if !ok {
		return
	}
	f := filterFrom(r)
	all := dashboard.Rows(v.Records, s.palette())
	writeJSON(w, http.StatusOK, DataResponse{
		Year:    v.Year,
		NoData:  v.NoData,
		Summary: v.Summary,
		Filter:  f,
		Total:   len(all),
		Rows:    f.Apply(all),
	})
}

func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := s.view(w, r, s.Boundary())
		if !ok {
			return
		}
		rows := filterFrom(r).Apply(dashboard.Rows(v.Records, s.palette()))

		name := "data_dbd_" + strconv.Itoa(v.Year) + "." + format
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		if err := export.Write(w, format, rows); err != nil {
			s.log.Error("export failed", zap.String("format", format), zap.Error(err))
		}
	}
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	months := s.opts.ForecastMonths
	if raw := chi.URLParam(r, "months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxForecastMonths {
			writeError(w, http.StatusBadRequest, "months must be between 1 and "+strconv.Itoa(maxForecastMonths))
			return
		}
		months = n
	}

	v, err := dashboard.FetchForecast(r.Context(), s.client, months)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// BoundaryResponse describes the loaded boundary document and, when a year
// is given, how its attributes resolve against that year's records.
type BoundaryResponse struct {
	Features   int                `json:"features"`
	Candidates []string           `json:"candidates"`
	Resolution *region.Resolution `json:"resolution,omitempty"`
	Shadowed   []region.Shadow    `json:"shadowed,omitempty"`
	Unmatched  *int               `json:"unmatched,omitempty"`
}

func (s *Server) handleBoundary(w http.ResponseWriter, r *http.Request) {
	doc := s.Boundary()
	if doc == nil {
		writeError(w, http.StatusServiceUnavailable, errBoundaryNotLoaded.Error())
		return
	}
	resp := BoundaryResponse{Features: doc.Len(), Candidates: []string{}}
	if doc.Len() > 0 {
		resp.Candidates = doc.Features[0].Attributes.Keys()
	}

	if r.URL.Query().Get("year") != "" {
		v, ok := s.view(w, r, doc)
		if !ok {
			return
		}
		resp.Resolution = &v.Resolution
		resp.Shadowed = v.Shadowed
		resp.Unmatched = &v.Unmatched
	}
	writeJSON(w, http.StatusOK, resp)
}

// view parses year and clustering parameters and builds the view against doc,
// which the caller reads once per request. It writes the error response
// itself and reports false on failure.
func (s *Server) view(w http.ResponseWriter, r *http.Request, doc *boundary.Document) (*dashboard.View, bool) {
	raw := chi.URLParam(r, "year")
	if raw == "" {
		raw = r.URL.Query().Get("year")
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return nil, false
	}
	params, err := s.params(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return nil, false
	}

	v, err := dashboard.Fetch(r.Context(), s.client, doc, dashboard.Selection{Year: year, Params: params}, s.opts.Dashboard)
	if err != nil {
		s.upstreamError(w, r, err)
		return nil, false
	}
	return v, true
}

func (s *Server) params(r *http.Request) (analytics.Params, error) {
	q := r.URL.Query()
	for _, k := range []string{"mode", "n_clusters", "eps", "min_samples"} {
		if q.Has(k) {
			p, err := analytics.ParseParams(q)
			if err != nil {
				return analytics.Params{}, err
			}
			return p, nil
		}
	}
	return s.opts.Params, nil
}

func (s *Server) palette() risk.Palette {
	return s.opts.Dashboard.Palette
}

// upstreamError logs the cause and answers with a generic message.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("upstream request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusBadGateway, "failed to fetch data from analytics service")
}

func filterFrom(r *http.Request) dashboard.Filter {
	q := r.URL.Query()
	return dashboard.Filter{Search: q.Get("q"), Risk: q.Get("risk")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
