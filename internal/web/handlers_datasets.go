package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/ingest"
	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

// multipartOverhead leaves room for form fields around the file itself.
const multipartOverhead = 1 << 20

// datasetResponse is a page of rows plus the dataset summary.
type datasetResponse struct {
	workspace.Snapshot
	Columns []string   `json:"columns"`
	Offset  int        `json:"offset"`
	Rows    []core.Row `json:"rows"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.List())
}

// handleUploadDataset loads a multipart "file" with a "category" field.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Dataset.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			err = errNoFile
		}
		s.respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	sum, err := s.workspace.Load(r.Context(), header.Filename, r.FormValue("category"), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

// handleGetDataset returns the summary, error index and a page of rows
// selected by ?offset= and ?limit= (default: all rows).
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.workspace.Get(pathParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rows := snap.Dataset.Rows
	offset := min(parseIntParam(r, "offset", 0), len(rows))
	limit := min(parseIntParam(r, "limit", len(rows)), len(rows)-offset)
	end := offset + limit

	writeJSON(w, http.StatusOK, datasetResponse{
		Snapshot: snap,
		Columns:  snap.Dataset.Columns,
		Offset:   offset,
		Rows:     rows[offset:end],
	})
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.Remove(r.Context(), pathParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectRuleSet switches the dataset's rule set. {"name": ""} clears it.
func (s *Server) handleSelectRuleSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	sum, err := s.workspace.SelectRuleSet(r.Context(), pathParam(r, "id"), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleEditCell sets one cell. String values are typed the same way as
// cells read from the uploaded file.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Row    *int   `json:"row"`
		Column string `json:"column"`
		Value  any    `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Row == nil || req.Column == "" {
		s.respondError(w, r, errInvalidBody)
		return
	}

	value := req.Value
	if text, ok := value.(string); ok {
		value = ingest.ParseCell(text, s.cfg.Dataset.InferNumbers)
	}

	upd, err := s.workspace.EditCell(r.Context(), pathParam(r, "id"), *req.Row, req.Column, value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

// handleNextError advances the dataset's error cursor.
func (s *Server) handleNextError(w http.ResponseWriter, r *http.Request) {
	row, err := s.workspace.NextError(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"row": row})
}

// handleExportDataset downloads business values as CSV or JSON.
func (s *Server) handleExportDataset(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	f, err := ingest.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sum, err := s.workspace.Summary(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	attachment(w, baseName(sum.FileName)+"."+string(f), ingest.ContentType(f))
	if err := s.workspace.ExportData(id, f, w); err != nil {
		logging.WithFields(r.Context(), "dataset_id", id).Error("export dataset", "error", err)
	}
}

// handleExportDatasetRules downloads the dataset's active rule set.
func (s *Server) handleExportDatasetRules(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	f, err := rulestore.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sum, err := s.workspace.Summary(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if sum.RuleSet == "" {
		s.respondError(w, r, core.ErrNoActiveRuleSet)
		return
	}

	attachment(w, rulestore.ExportFileName(f), rulestore.ContentType(f))
	if err := s.workspace.ExportRules(r.Context(), id, f, w); err != nil {
		logging.WithFields(r.Context(), "dataset_id", id).Error("export rules", "error", err)
	}
}
