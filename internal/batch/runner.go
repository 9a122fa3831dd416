// Package batch runs bulk operations: N independent attempts (or one bulk fetch)
// whose individual failures are tolerated and counted rather than returned.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one batch. len(Records) == SucceededCount <= RequestedCount.
type Result[T any] struct {
	RequestedCount int
	SucceededCount int
	Records        []T
}

// Unit identifies one attempt inside a batch.
type Unit struct {
	Index int
	ID    string
}

// UnitFunc performs one attempt. Any error marks the unit failed.
type UnitFunc[T any] func(ctx context.Context, unit Unit) (T, error)

// BulkFunc fetches every record of a bulk target in one call.
type BulkFunc[T any] func(ctx context.Context) ([]T, error)

// StampFunc assigns the generated ID to a fetched record.
type StampFunc[T any] func(record T, id string) T

type Runner[T any] struct {
	ids         ports.IDGenerator
	concurrency int
	logger      zerolog.Logger
}

func NewRunner[T any](ids ports.IDGenerator, concurrency int, logger zerolog.Logger) (*Runner[T], error) {
	if ids == nil {
		return nil, fmt.Errorf("%w: id generator is required", domain.ErrInvalidArgument)
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be >= 1, got %d", domain.ErrInvalidArgument, concurrency)
	}

	return &Runner[T]{
		ids:         ids,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "batch-runner").Logger(),
	}, nil
}

// Run attempts unit requested times. Once started the batch always runs to the end:
// units see a context that is never canceled, and ctx only gates the start.
func (r *Runner[T]) Run(ctx context.Context, requested int, unit UnitFunc[T], progress ProgressFunc) (Result[T], error) {
	if requested < 1 {
		return Result[T]{}, fmt.Errorf("%w: requested count must be >= 1, got %d", domain.ErrInvalidArgument, requested)
	}
	if unit == nil {
		return Result[T]{}, fmt.Errorf("%w: unit of work is required", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	units := make([]Unit, requested)
	for i := range units {
		units[i] = Unit{Index: i, ID: r.ids.NewID()}
	}

	records := make([]T, requested)
	succeeded := make([]bool, requested)
	tracker := newTracker(requested, progress)
	runCtx := context.WithoutCancel(ctx)

	r.logger.Info().Int("requested", requested).Int("concurrency", r.concurrency).Msg("batch started")

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, u := range units {
		g.Go(func() error {
			record, err := unit(runCtx, u)
			if err != nil {
				r.logger.Debug().Err(err).Int("index", u.Index).Str("id", u.ID).Msg("unit failed")
				tracker.done(false)
				return nil
			}
			records[u.Index] = record
			succeeded[u.Index] = true
			tracker.done(true)
			return nil
		})
	}
	_ = g.Wait()

	result := Result[T]{RequestedCount: requested, Records: make([]T, 0, requested)}
	for i, ok := range succeeded {
		if ok {
			result.Records = append(result.Records, records[i])
		}
	}
	result.SucceededCount = len(result.Records)

	r.logger.Info().
		Int("requested", result.RequestedCount).
		Int("succeeded", result.SucceededCount).
		Msg("batch finished")

	return result, nil
}

// RunBulk performs fetch as a single unit and stamps each returned record with a
// fresh ID. Records beyond requested are dropped. A failed fetch yields a result
// with zero successes.
func (r *Runner[T]) RunBulk(ctx context.Context, requested int, fetch BulkFunc[T], stamp StampFunc[T], progress ProgressFunc) (Result[T], error) {
	if requested < 1 {
		return Result[T]{}, fmt.Errorf("%w: requested count must be >= 1, got %d", domain.ErrInvalidArgument, requested)
	}
	if fetch == nil || stamp == nil {
		return Result[T]{}, fmt.Errorf("%w: bulk fetch and stamp are required", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	result := Result[T]{RequestedCount: requested, Records: []T{}}

	fetched, err := fetch(context.WithoutCancel(ctx))
	if err != nil {
		r.logger.Debug().Err(err).Int("requested", requested).Msg("bulk fetch failed")
		if progress != nil {
			progress(Progress{Requested: requested, Completed: requested})
		}
		return result, nil
	}

	if len(fetched) > requested {
		fetched = fetched[:requested]
	}
	for _, record := range fetched {
		result.Records = append(result.Records, stamp(record, r.ids.NewID()))
	}
	result.SucceededCount = len(result.Records)

	if progress != nil {
		progress(Progress{Requested: requested, Completed: requested, Succeeded: result.SucceededCount})
	}

	r.logger.Info().
		Int("requested", result.RequestedCount).
		Int("succeeded", result.SucceededCount).
		Msg("bulk batch finished")

	return result, nil
}

type tracker struct {
	mu       sync.Mutex
	progress ProgressFunc
	state    Progress
}

func newTracker(requested int, progress ProgressFunc) *tracker {
	return &tracker{progress: progress, state: Progress{Requested: requested}}
}

func (t *tracker) done(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Completed++
	if ok {
		t.state.Succeeded++
	}
	if t.progress != nil {
		t.progress(t.state)
	}
}
