package workspace

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// ErrDatasetNotFound is returned for unknown or removed dataset ids.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("unknown category")

// Category classifies an uploaded file.
type Category string

const (
	CategoryClient Category = "client"
	CategoryWorker Category = "worker"
	CategoryTask   Category = "task"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryClient, CategoryWorker, CategoryTask}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownCategory)
}

// Status summarizes a dataset's validation state.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusNoRuleSet Status = "no_rule_set"
)

// session owns one loaded dataset. All fields after mu are guarded by it.
type session struct {
	id       uuid.UUID
	fileName string
	category Category
	loadedAt time.Time

	mu      sync.Mutex
	ruleSet *core.RuleSet
	data    core.Dataset
	nav     *core.Navigator
}

func newSession(fileName string, category Category, data core.Dataset, now time.Time) *session {
	return &session{
		id:       uuid.New(),
		fileName: fileName,
		category: category,
		loadedAt: now,
		data:     data,
		nav:      core.NewNavigator(data),
	}
}

// apply installs a freshly revalidated dataset and rebuilds the error index.
// Callers hold s.mu.
func (s *session) apply(set *core.RuleSet, data core.Dataset) {
	s.ruleSet = set
	s.data = data
	s.nav.Rebuild(data)
}

// ruleSetName returns the active rule set name or "". Callers hold s.mu.
func (s *session) ruleSetName() string {
	if s.ruleSet == nil {
		return ""
	}
	return s.ruleSet.Name
}

// summary builds a Summary. Callers hold s.mu.
func (s *session) summary() Summary {
	status := StatusNoRuleSet
	total := s.data.TotalErrors()
	if s.ruleSet != nil {
		status = StatusValid
		if total > 0 {
			status = StatusInvalid
		}
	}
	return Summary{
		ID:          s.id.String(),
		FileName:    s.fileName,
		Category:    s.category,
		LoadedAt:    s.loadedAt,
		RuleSet:     s.ruleSetName(),
		Rows:        s.data.Len(),
		Columns:     len(s.data.Columns),
		TotalErrors: total,
		ErrorRows:   s.nav.Len(),
		Status:      status,
	}
}

// Summary describes a loaded dataset without its rows.
type Summary struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Category    Category  `json:"category"`
	LoadedAt    time.Time `json:"loadedAt"`
	RuleSet     string    `json:"ruleSet,omitempty"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	TotalErrors int       `json:"totalErrors"`
	ErrorRows   int       `json:"errorRows"`
	Status      Status    `json:"status"`
}

// Snapshot is a consistent copy of a dataset and its error index.
type Snapshot struct {
	Summary
	Dataset    core.Dataset `json:"-"`
	ErrorIndex []int        `json:"errorRowIndices"`
}

// CellUpdate reports the outcome of an edit.
type CellUpdate struct {
	Row         int      `json:"row"`
	Column      string   `json:"column"`
	Data        core.Row `json:"data"`
	TotalErrors int      `json:"totalErrors"`
	ErrorIndex  []int    `json:"errorRowIndices"`
	Status      Status   `json:"status"`
}
