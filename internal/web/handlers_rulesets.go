package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
)

// ruleSetChange is returned by mutations that touch loaded datasets.
type ruleSetChange struct {
	RuleSet  *core.RuleSet `json:"ruleSet,omitempty"`
	Deleted  string        `json:"deleted,omitempty"`
	Datasets int           `json:"datasetsRevalidated"`
}

func (s *Server) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.rules.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.rules.Get(r.Context(), pathParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleCreateRuleSet accepts a rule set as JSON or YAML (by Content-Type).
func (s *Server) handleCreateRuleSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.decodeRuleSet(r, "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.rules.Create(r.Context(), set)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "rule_set", created.Name).Info("rule set created", "rules", len(created.Rules))
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateRuleSet replaces a rule set and revalidates every dataset
// using it. The body may rename the set; a body without a name keeps it.
func (s *Server) handleUpdateRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := pathParam(r, "name")

	set, err := s.decodeRuleSet(r, name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.rules.Update(ctx, name, set)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.workspace.RuleSetChanged(ctx, name, updated.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(ctx, "rule_set", name).Info("rule set updated",
		"new_name", updated.Name,
		"rules", len(updated.Rules),
		"datasets", n,
	)
	writeJSON(w, http.StatusOK, ruleSetChange{RuleSet: &updated, Datasets: n})
}

// handleDeleteRuleSet removes a rule set. Datasets using it lose their
// selection and annotations.
func (s *Server) handleDeleteRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := pathParam(r, "name")

	if err := s.rules.Delete(ctx, name); err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.workspace.RuleSetChanged(ctx, name, "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(ctx, "rule_set", name).Info("rule set deleted", "datasets", n)
	writeJSON(w, http.StatusOK, ruleSetChange{Deleted: name, Datasets: n})
}

// handleExportRuleSet downloads a stored rule set as JSON or YAML.
func (s *Server) handleExportRuleSet(w http.ResponseWriter, r *http.Request) {
	f, err := rulestore.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	set, err := s.rules.Get(r.Context(), pathParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	attachment(w, rulestore.ExportFileName(f), rulestore.ContentType(f))
	if err := rulestore.Encode(w, set, f); err != nil {
		logging.FromContext(r.Context()).Error("export rule set", "rule_set", set.Name, "error", err)
	}
}

// handleImportRuleSet stores an uploaded rules file. It accepts a
// multipart "file" field or a raw body. The name comes from the "name"
// field, the file itself, or the file name, in that order. With
// ?replace=true an existing set of the same name is overwritten.
func (s *Server) handleImportRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Dataset.MaxFileSize)

	var (
		body     io.Reader = r.Body
		fileName string
	)
	if err := r.ParseMultipartForm(s.cfg.Dataset.MaxFileSize); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			s.respondError(w, r, errNoFile)
			return
		}
		defer file.Close()
		body, fileName = file, header.Filename
	}

	f, err := ruleFormat(r, fileName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	fallback := r.FormValue("name")
	if fallback == "" && fileName != "" {
		fallback = baseName(fileName)
	}
	set, err := rulestore.Decode(body, f, fallback)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if name := r.FormValue("name"); name != "" {
		set.Name = name
	}

	created, err := s.rules.Create(ctx, set)
	switch {
	case err == nil:
		logging.WithFields(ctx, "rule_set", created.Name).Info("rule set imported", "rules", len(created.Rules))
		writeJSON(w, http.StatusCreated, ruleSetChange{RuleSet: &created})
		return
	case !errors.Is(err, rulestore.ErrAlreadyExists) || r.URL.Query().Get("replace") != "true":
		s.respondError(w, r, err)
		return
	}

	updated, err := s.rules.Update(ctx, set.Name, set)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.workspace.RuleSetChanged(ctx, set.Name, updated.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(ctx, "rule_set", updated.Name).Info("rule set replaced by import", "datasets", n)
	writeJSON(w, http.StatusOK, ruleSetChange{RuleSet: &updated, Datasets: n})
}

// decodeRuleSet reads a rule set body in the request's format.
func (s *Server) decodeRuleSet(r *http.Request, fallbackName string) (core.RuleSet, error) {
	f, err := ruleFormat(r, "")
	if err != nil {
		return core.RuleSet{}, err
	}
	return rulestore.Decode(r.Body, f, fallbackName)
}
