// Package workspace holds the datasets users are working on.
//
// A Service owns every loaded dataset together with its selected rule set
// and error navigator. It is the only place dataset values change: each
// operation asks the engine for a new dataset and swaps it in whole, so a
// reader never sees a half-revalidated grid.
package workspace

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/ingest"
	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
)

// Options configures a Service.
type Options struct {
	// Revalidator controls parallel revalidation.
	Revalidator core.Revalidator
	// Ingest controls CSV parsing for Load.
	Ingest ingest.Options
	// Limiter caps concurrent loads. Nil means the defaults.
	Limiter *Limiter
	// DefaultRuleSet is selected for new datasets when it exists.
	DefaultRuleSet string
}

// Service manages loaded datasets.
type Service struct {
	store rulestore.Store
	opts  Options
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewService returns a Service reading rule sets from store.
func NewService(store rulestore.Store, opts Options) *Service {
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0, 0)
	}
	return &Service{
		store:    store,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Store returns the rule set store the service reads from.
func (s *Service) Store() rulestore.Store {
	return s.store
}

// Load parses a CSV file into a new dataset. If a default rule set is
// configured and exists, the dataset is validated against it.
func (s *Service) Load(ctx context.Context, fileName, category string, r io.Reader) (Summary, error) {
	cat, err := ParseCategory(category)
	if err != nil {
		return Summary{}, err
	}

	if err := s.opts.Limiter.Acquire(ctx); err != nil {
		return Summary{}, err
	}
	defer s.opts.Limiter.Release()

	start := s.now()
	data, err := ingest.ReadCSV(r, s.opts.Ingest)
	if err != nil {
		return Summary{}, fmt.Errorf("load %q: %w", fileName, err)
	}

	sess := newSession(fileName, cat, data, start)
	log := logging.WithFields(ctx, "dataset_id", sess.id, "file", fileName, "category", cat)

	if name := s.opts.DefaultRuleSet; name != "" {
		set, err := s.store.Get(ctx, name)
		switch {
		case err == nil:
			validated, err := s.opts.Revalidator.RevalidateAll(data, &set)
			if err != nil {
				return Summary{}, err
			}
			sess.apply(&set, validated)
		default:
			log.Warn("default rule set unavailable, dataset left unvalidated", "rule_set", name, "error", err)
		}
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	sum := sess.summary()
	sess.mu.Unlock()

	log.Info("dataset loaded",
		"rows", sum.Rows,
		"columns", sum.Columns,
		"rule_set", sum.RuleSet,
		"errors", sum.TotalErrors,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return sum, nil
}

// List summarizes every loaded dataset, oldest first.
func (s *Service) List() []Summary {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		out = append(out, sess.summary())
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoadedAt.Equal(out[j].LoadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LoadedAt.Before(out[j].LoadedAt)
	})
	return out
}

// Get returns a snapshot of the dataset with id.
func (s *Service) Get(id string) (Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return Snapshot{
		Summary:    sess.summary(),
		Dataset:    sess.data,
		ErrorIndex: sess.nav.Positions(),
	}, nil
}

// Summary returns the summary of the dataset with id.
func (s *Service) Summary(id string) (Summary, error) {
	sess, err := s.session(id)
	if err != nil {
		return Summary{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summary(), nil
}

// Remove discards the dataset with id.
func (s *Service) Remove(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := s.sessions[uid]
	delete(s.sessions, uid)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, ErrDatasetNotFound)
	}
	logging.WithFields(ctx, "dataset_id", id).Info("dataset removed")
	return nil
}

// SelectRuleSet makes name the active rule set of a dataset and
// revalidates every row. An empty name clears the selection and all
// annotations.
func (s *Service) SelectRuleSet(ctx context.Context, id, name string) (Summary, error) {
	sess, err := s.session(id)
	if err != nil {
		return Summary{}, err
	}

	if name == "" {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.apply(nil, sess.data.Clear())
		logging.WithFields(ctx, "dataset_id", id).Info("rule set cleared")
		return sess.summary(), nil
	}

	set, err := s.store.Get(ctx, name)
	if err != nil {
		return Summary{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.revalidate(ctx, sess, &set); err != nil {
		return Summary{}, err
	}
	return sess.summary(), nil
}

// RuleSetChanged revalidates every dataset using oldName after the rule
// set was edited, renamed to newName, or deleted (newName == ""). Datasets
// whose set was deleted lose their selection and annotations. It returns
// the number of datasets touched.
func (s *Service) RuleSetChanged(ctx context.Context, oldName, newName string) (int, error) {
	var set *core.RuleSet
	if newName != "" {
		fetched, err := s.store.Get(ctx, newName)
		if err != nil {
			return 0, err
		}
		set = &fetched
	}

	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	touched := 0
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.ruleSetName() != oldName || oldName == "" {
			sess.mu.Unlock()
			continue
		}
		var err error
		if set == nil {
			sess.apply(nil, sess.data.Clear())
		} else {
			err = s.revalidate(ctx, sess, set)
		}
		sess.mu.Unlock()
		if err != nil {
			return touched, err
		}
		touched++
	}

	if touched > 0 {
		logging.FromContext(ctx).Info("rule set change applied",
			"rule_set", oldName,
			"new_name", newName,
			"datasets", touched,
		)
	}
	return touched, nil
}

// revalidate runs a full revalidation of sess against set. Callers hold sess.mu.
func (s *Service) revalidate(ctx context.Context, sess *session, set *core.RuleSet) error {
	start := s.now()
	validated, err := s.opts.Revalidator.RevalidateAll(sess.data, set)
	if err != nil {
		return err
	}
	// Each session gets its own copy so later edits to set cannot leak in.
	own := set.Clone()
	sess.apply(&own, validated)

	logging.WithFields(ctx, "dataset_id", sess.id, "rule_set", set.Name).Info("dataset revalidated",
		"rows", validated.Len(),
		"errors", validated.TotalErrors(),
		"error_rows", sess.nav.Len(),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return nil
}

// EditCell sets one cell and revalidates it against the active rule set.
// Without an active rule set the value is stored unvalidated.
func (s *Service) EditCell(ctx context.Context, id string, row int, column string, value any) (CellUpdate, error) {
	sess, err := s.session(id)
	if err != nil {
		return CellUpdate{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	before, err := sess.data.Row(row)
	if err != nil {
		return CellUpdate{}, err
	}

	var after core.Row
	if sess.ruleSet == nil {
		after, err = core.SetValue(before, column, value)
	} else {
		after, err = core.UpdateCell(before, column, value, sess.ruleSet)
	}
	if err != nil {
		return CellUpdate{}, err
	}

	data, err := sess.data.WithRow(row, after)
	if err != nil {
		return CellUpdate{}, err
	}
	sess.data = data
	if core.CrossesZero(before, after) {
		sess.nav.Rebuild(data)
	}

	sum := sess.summary()
	logging.WithFields(ctx, "dataset_id", id).Debug("cell edited",
		"row", row,
		"column", column,
		"row_errors", after.ErrorCount(),
	)
	return CellUpdate{
		Row:         row,
		Column:      column,
		Data:        after,
		TotalErrors: sum.TotalErrors,
		ErrorIndex:  sess.nav.Positions(),
		Status:      sum.Status,
	}, nil
}

// NextError returns the next row with errors, cycling through them.
func (s *Service) NextError(ctx context.Context, id string) (int, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.nav.Next()
}

// ExportData writes the dataset's values without annotations.
func (s *Service) ExportData(id string, f ingest.Format, w io.Writer) error {
	snap, err := s.Get(id)
	if err != nil {
		return err
	}
	return ingest.Write(w, snap.Dataset, f)
}

// ExportRules writes the dataset's active rule set.
func (s *Service) ExportRules(ctx context.Context, id string, f rulestore.Format, w io.Writer) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.ruleSet == nil {
		sess.mu.Unlock()
		return fmt.Errorf("export rules: %w", core.ErrNoActiveRuleSet)
	}
	set := sess.ruleSet.Clone()
	sess.mu.Unlock()

	return rulestore.Encode(w, set, f)
}

// LimiterStatus reports load slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.opts.Limiter.Status()
}

// WaitForLoads blocks until running loads finish or ctx ends.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.opts.Limiter.WaitForDrain(ctx)
}

func (s *Service) session(id string) (*session, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, ok := s.sessions[uid]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrDatasetNotFound)
	}
	return sess, nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q: %w", id, ErrDatasetNotFound)
	}
	return uid, nil
}
