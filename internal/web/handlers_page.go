package web

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/web/templates"
)

// maxFormSize bounds POST bodies of the page forms.
const maxFormSize = 64 << 10

// handlePage renders the comparison page. ?q= runs a search and ?notice=
// carries a message from the form handler that redirected here.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := s.pageData(ctrl, query)
	data.Notice = r.URL.Query().Get("notice")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) pageData(ctrl *core.Controller, query string) templates.PageData {
	selected := ctrl.SelectedNames()
	data := templates.PageData{
		Query:       query,
		Searched:    query != "",
		Selected:    selected,
		MaxSelected: ctrl.MaxSelected(),
		Model:       ctrl.ComparisonModel(),
		Catalog:     s.catalogInfo(),
	}
	for _, rec := range ctrl.Search(query) {
		data.Results = append(data.Results, templates.Suggestion{
			Name:     rec.Name,
			Cores:    rec.EffectiveCores,
			Clock:    core.FormatGHz(rec.MaxClockGHz),
			Selected: slices.Contains(selected, rec.Name),
		})
	}
	return data
}

func (s *Server) catalogInfo() templates.CatalogInfo {
	st := s.store.Status()
	info := templates.CatalogInfo{
		Loaded:   st.Loaded,
		Records:  st.Records,
		LoadedAt: st.LoadedAt,
	}
	switch err := s.store.LastError(); {
	case err != nil:
		msg := core.MapError(err)
		info.Error = &msg
	case !st.Loaded:
		msg := core.MapError(core.ErrCatalogNotLoaded)
		info.Error = &msg
	}
	return info
}

// parseForm reads a bounded urlencoded body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	return r.ParseForm()
}

// redirectToPage sends the browser back to the page, keeping its search.
func redirectToPage(w http.ResponseWriter, r *http.Request, query, notice string) {
	target := templates.SearchURL(query)
	if notice != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)

	res := ctrl.Select(r.PostForm.Get("name"))
	s.metrics.ObserveSelection(res.Status.String())

	notice := ""
	if res.Status != core.Added {
		notice = res.Message()
	}
	redirectToPage(w, r, r.PostForm.Get("q"), notice)
}

func (s *Server) handleDeselectForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)
	ctrl.Deselect(r.PostForm.Get("name"))
	redirectToPage(w, r, r.PostForm.Get("q"), "")
}

func (s *Server) handleClearForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.sessions.Controller(w, r).Clear()
	redirectToPage(w, r, r.PostForm.Get("q"), "")
}

func (s *Server) handleSortForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)

	notice := ""
	if _, err := ctrl.ToggleSort(r.PostForm.Get("column")); err != nil {
		notice = core.MapError(err).Message
	}
	redirectToPage(w, r, r.PostForm.Get("q"), notice)
}

// handleRawCatalog serves the catalog text exactly as it was last loaded.
func (s *Server) handleRawCatalog(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.store.Raw()
	if !ok {
		s.respondError(w, r, core.ErrCatalogNotLoaded, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(raw))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.store.Status()
	status, code := "ok", http.StatusOK
	if !st.Loaded {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"catalog":  st.Loaded,
		"records":  st.Records,
		"sessions": s.sessions.Len(),
	})
}
