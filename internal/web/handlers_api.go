package web

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/logging"
)

type catalogResponse struct {
	catalog.Status
	Columns []core.ColumnSpec `json:"columns"`
}

type searchResult struct {
	Name           string   `json:"name"`
	EffectiveCores int      `json:"effective_cores"`
	MaxClockGHz    *float64 `json:"max_clock_ghz"`
	Selected       bool     `json:"selected"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type selectionResponse struct {
	Names   []string        `json:"names"`
	Max     int             `json:"max"`
	Result  *core.AddResult `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// urlParam returns a decoded path parameter. chi matches against
// r.URL.RawPath when the request has one, and its parameters are then
// still escaped.
func urlParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func (s *Server) catalogResponse(ctrl *core.Controller) catalogResponse {
	cols := ctrl.Catalog().DisplayColumns(ctrl.Policy())
	return catalogResponse{Status: s.store.Status(), Columns: cols}
}

func (s *Server) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalogResponse(s.sessions.Controller(w, r)))
}

// handleCatalogReload fetches the catalog again. On failure the previous
// catalog stays in service and the error is reported.
func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Load(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, s.catalogResponse(s.sessions.Controller(w, r)))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	selected := ctrl.SelectedNames()

	resp := searchResponse{Query: query, Results: []searchResult{}}
	for _, rec := range ctrl.Search(query) {
		res := searchResult{
			Name:           rec.Name,
			EffectiveCores: rec.EffectiveCores,
			Selected:       slices.Contains(selected, rec.Name),
		}
		if rec.HasClock() {
			v := rec.MaxClockGHz
			res.MaxClockGHz = &v
		}
		resp.Results = append(resp.Results, res)
	}
	writeJSON(w, http.StatusOK, resp)
}

func selectionOf(ctrl *core.Controller) selectionResponse {
	names := ctrl.SelectedNames()
	if names == nil {
		names = []string{}
	}
	return selectionResponse{Names: names, Max: ctrl.MaxSelected()}
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionOf(s.sessions.Controller(w, r)))
}

// handleAddSelection answers 201 when the CPU was added, 200 when it was
// already selected, 409 when the selection is full and 404 for an unknown name.
func (s *Server) handleAddSelection(w http.ResponseWriter, r *http.Request) {
	name, err := urlParam(r, "name")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)

	res := ctrl.Select(name)
	s.metrics.ObserveSelection(res.Status.String())

	if err := core.AddResultError(res); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := selectionOf(ctrl)
	resp.Result = &res
	resp.Message = res.Message()

	status := http.StatusOK
	if res.Status == core.Added {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleRemoveSelection(w http.ResponseWriter, r *http.Request) {
	name, err := urlParam(r, "name")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)
	if !ctrl.Deselect(name) {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, selectionOf(ctrl))
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	ctrl.Clear()
	writeJSON(w, http.StatusOK, selectionOf(ctrl))
}

func (s *Server) handleToggleSort(w http.ResponseWriter, r *http.Request) {
	column, err := urlParam(r, "column")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)
	if _, err := ctrl.ToggleSort(column); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ctrl.ComparisonModel())
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Controller(w, r).ComparisonModel())
}

// handleExport writes a CSV summary of the selection, or of the whole
// catalog with ?all=1.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)

	records := ctrl.Selected()
	filename := "cpu-comparison.csv"
	if all := r.URL.Query().Get("all"); all == "1" || all == "true" {
		records = ctrl.Catalog().Records()
		filename = "cpu-catalog.csv"
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := catalog.Export(w, records); err != nil {
		// Headers are already out; all that is left is to log.
		logging.FromContext(r.Context()).Error("export csv", "error", err)
	}
}
