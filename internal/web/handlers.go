package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/web/templates"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

// handleDashboard renders the dataset list and upload form.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	names, err := s.ruleSetNames(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, templates.Dashboard(templates.DashboardData{
		Datasets:   s.workspace.List(),
		RuleSets:   names,
		Categories: workspace.Categories,
	}))
}

// handleDatasetPage renders the editable grid for one dataset.
func (s *Server) handleDatasetPage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.workspace.Get(pathParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	names, err := s.ruleSetNames(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, templates.DatasetPage(templates.DatasetPageData{
		Snapshot: snap,
		RuleSets: names,
	}))
}

// handleRuleSetsPage renders every stored rule set.
func (s *Server) handleRuleSetsPage(w http.ResponseWriter, r *http.Request) {
	sets, err := s.rules.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, templates.RuleSetsPage(sets))
}

func (s *Server) ruleSetNames(r *http.Request) ([]string, error) {
	sets, err := s.rules.List(r.Context())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sets))
	for i, set := range sets {
		names[i] = set.Name
	}
	return names, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
