package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gridrules/internal/rulestore"
)

// maxJSONBody bounds JSON request bodies other than rule set uploads.
const maxJSONBody = 1 << 20

// pathParam returns a URL parameter with percent-escapes decoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// parseIntParam parses a query parameter, returning defaultVal when it is
// missing or not a non-negative integer.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

// ruleFormat reads the rule file format from ?format=, then the file
// extension, then the Content-Type. JSON is the default.
func ruleFormat(r *http.Request, fileName string) (rulestore.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return rulestore.ParseFormat(f)
	}
	if ext := filepath.Ext(fileName); ext != "" {
		return rulestore.ParseFormat(ext)
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		return rulestore.FormatYAML, nil
	}
	return rulestore.FormatJSON, nil
}

// attachment marks the response as a download.
func attachment(w http.ResponseWriter, fileName, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
}

// baseName strips the directory and extension from an uploaded file name.
func baseName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
