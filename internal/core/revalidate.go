package core

// revalidate.go re-annotates a whole dataset when the active rule set
// changes.
//
// Rows have no dependency on each other, so the dataset is split into
// contiguous batches that are annotated concurrently. Each batch writes
// only its own slice positions of the output, and the caller receives the
// new dataset only after every batch is done. A partially revalidated
// dataset is never returned.

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultRevalidateBatchSize is the number of rows annotated per task.
const DefaultRevalidateBatchSize = 1000

// Revalidator annotates datasets in parallel batches.
// The zero value uses GOMAXPROCS workers and DefaultRevalidateBatchSize.
type Revalidator struct {
	// Workers caps concurrent batches. Values <= 0 mean GOMAXPROCS.
	Workers int
	// BatchSize is the number of rows per batch. Values <= 0 mean the default.
	BatchSize int
}

// RevalidateAll annotates every row of ds against set using the default
// Revalidator. A nil set is a contract violation.
func RevalidateAll(ds Dataset, set *RuleSet) (Dataset, error) {
	return Revalidator{}.RevalidateAll(ds, set)
}

// RevalidateAll annotates every row of ds against set.
func (rv Revalidator) RevalidateAll(ds Dataset, set *RuleSet) (Dataset, error) {
	if set == nil {
		return Dataset{}, contractErr("revalidate", ErrNoActiveRuleSet, "")
	}

	table := newResolverTable(*set)
	out := make([]Row, len(ds.Rows))

	batch := rv.batchSize()
	if len(ds.Rows) <= batch {
		for i, r := range ds.Rows {
			out[i] = annotateWith(r, table)
		}
		return Dataset{Columns: ds.Columns, Rows: out}, nil
	}

	var g errgroup.Group
	g.SetLimit(rv.workers())
	for start := 0; start < len(ds.Rows); start += batch {
		end := min(start+batch, len(ds.Rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = annotateWith(ds.Rows[i], table)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}

	return Dataset{Columns: ds.Columns, Rows: out}, nil
}

// RevalidateFrom fetches the active rule set from src and revalidates ds
// against it.
func (rv Revalidator) RevalidateFrom(ctx context.Context, ds Dataset, src RuleSetSource) (Dataset, RuleSet, error) {
	if src == nil {
		return Dataset{}, RuleSet{}, contractErr("revalidate", ErrNoActiveRuleSet, "no rule set source")
	}
	set, err := src.ActiveRuleSet(ctx)
	if err != nil {
		return Dataset{}, RuleSet{}, err
	}
	out, err := rv.RevalidateAll(ds, &set)
	if err != nil {
		return Dataset{}, RuleSet{}, err
	}
	return out, set, nil
}

func (rv Revalidator) workers() int {
	if rv.Workers > 0 {
		return rv.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (rv Revalidator) batchSize() int {
	if rv.BatchSize > 0 {
		return rv.BatchSize
	}
	return DefaultRevalidateBatchSize
}
