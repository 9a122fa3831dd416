package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/potato-cli/internal/adapters/ids"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnit = errors.New("remote rejected")

func newRunner[T any](t *testing.T, concurrency int) *Runner[T] {
	t.Helper()

	runner, err := NewRunner[T](ids.NewSequence("id-"), concurrency, zerolog.Nop())
	require.NoError(t, err)

	return runner
}

func TestNewRunnerValidatesArguments(t *testing.T) {
	t.Parallel()

	_, err := NewRunner[int](nil, 1, zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = NewRunner[int](ids.NewSequence("x"), 0, zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRunRejectsNonPositiveCount(t *testing.T) {
	t.Parallel()

	for _, requested := range []int{0, -1, -50} {
		t.Run(fmt.Sprint(requested), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			runner := newRunner[string](t, 1)
			_, err := runner.Run(context.Background(), requested, func(context.Context, Unit) (string, error) {
				calls.Add(1)
				return "", nil
			}, nil)

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Zero(t, calls.Load())
		})
	}
}

func TestRunRejectsNilUnit(t *testing.T) {
	t.Parallel()

	_, err := newRunner[string](t, 1).Run(context.Background(), 3, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRunCountsSuccessesAndSwallowsFailures(t *testing.T) {
	t.Parallel()

	failing := map[int]bool{3: true, 7: true}
	runner := newRunner[string](t, 1)

	result, err := runner.Run(context.Background(), 10, func(_ context.Context, u Unit) (string, error) {
		if failing[u.Index] {
			return "", errUnit
		}
		return u.ID, nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, result.RequestedCount)
	assert.Equal(t, 8, result.SucceededCount)
	require.Len(t, result.Records, 8)

	seen := make(map[string]struct{}, len(result.Records))
	for _, id := range result.Records {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 8)
	assert.NotContains(t, seen, "id-4")
	assert.NotContains(t, seen, "id-8")
}

func TestRunAllFailuresIsNotAnError(t *testing.T) {
	t.Parallel()

	result, err := newRunner[int](t, 2).Run(context.Background(), 5, func(context.Context, Unit) (int, error) {
		return 0, errUnit
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RequestedCount)
	assert.Zero(t, result.SucceededCount)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
}

func TestRunKeepsIndexOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	runner := newRunner[int](t, 8)
	result, err := runner.Run(context.Background(), 40, func(_ context.Context, u Unit) (int, error) {
		time.Sleep(time.Duration(40-u.Index) * 100 * time.Microsecond)
		if u.Index%5 == 0 {
			return 0, errUnit
		}
		return u.Index, nil
	}, nil)
	require.NoError(t, err)

	require.Equal(t, 32, result.SucceededCount)
	for i := 1; i < len(result.Records); i++ {
		assert.Less(t, result.Records[i-1], result.Records[i])
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var active, peak atomic.Int32
	runner := newRunner[int](t, 3)
	_, err := runner.Run(context.Background(), 12, func(context.Context, Unit) (int, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return 1, nil
	}, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunAssignsDistinctIDsInIndexOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]string)
	runner := newRunner[string](t, 4)
	_, err := runner.Run(context.Background(), 6, func(_ context.Context, u Unit) (string, error) {
		mu.Lock()
		seen[u.Index] = u.ID
		mu.Unlock()
		return u.ID, nil
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), seen[i])
	}
}

func TestRunReportsProgressSerially(t *testing.T) {
	t.Parallel()

	var snapshots []Progress
	runner := newRunner[int](t, 4)
	result, err := runner.Run(context.Background(), 10, func(_ context.Context, u Unit) (int, error) {
		if u.Index%2 == 0 {
			return 0, errUnit
		}
		return u.Index, nil
	}, func(p Progress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 10)
	for i, p := range snapshots {
		assert.Equal(t, 10, p.Requested)
		assert.Equal(t, i+1, p.Completed)
	}
	last := snapshots[len(snapshots)-1]
	assert.True(t, last.Done())
	assert.Equal(t, result.SucceededCount, last.Succeeded)
	assert.Equal(t, 5, last.Failed())
}

func TestRunDoesNotStartOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := newRunner[int](t, 1).Run(ctx, 3, func(context.Context, Unit) (int, error) {
		calls.Add(1)
		return 1, nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestRunCompletesAfterCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := newRunner[int](t, 1)

	result, err := runner.Run(ctx, 4, func(unitCtx context.Context, u Unit) (int, error) {
		if u.Index == 0 {
			cancel()
		}
		if unitCtx.Err() != nil {
			return 0, unitCtx.Err()
		}
		return u.Index, nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.SucceededCount)
}

type stampedUser struct {
	ID   string
	Name string
}

func stampUser(u stampedUser, id string) stampedUser {
	u.ID = id
	return u
}

func TestRunBulkStampsAndTruncates(t *testing.T) {
	t.Parallel()

	runner := newRunner[stampedUser](t, 1)
	var last Progress

	result, err := runner.RunBulk(context.Background(), 3, func(context.Context) ([]stampedUser, error) {
		return []stampedUser{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}, nil
	}, stampUser, func(p Progress) { last = p })
	require.NoError(t, err)

	assert.Equal(t, 3, result.RequestedCount)
	assert.Equal(t, 3, result.SucceededCount)
	assert.Equal(t, []stampedUser{{ID: "id-1", Name: "a"}, {ID: "id-2", Name: "b"}, {ID: "id-3", Name: "c"}}, result.Records)
	assert.Equal(t, Progress{Requested: 3, Completed: 3, Succeeded: 3}, last)
}

func TestRunBulkFetchFailureYieldsZeroSuccess(t *testing.T) {
	t.Parallel()

	result, err := newRunner[stampedUser](t, 1).RunBulk(context.Background(), 50, func(context.Context) ([]stampedUser, error) {
		return nil, errUnit
	}, stampUser, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, result.RequestedCount)
	assert.Zero(t, result.SucceededCount)
	assert.Empty(t, result.Records)
}

func TestRunBulkValidatesArguments(t *testing.T) {
	t.Parallel()

	runner := newRunner[stampedUser](t, 1)
	fetch := func(context.Context) ([]stampedUser, error) { return nil, nil }

	_, err := runner.RunBulk(context.Background(), 0, fetch, stampUser, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = runner.RunBulk(context.Background(), 1, nil, stampUser, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = runner.RunBulk(context.Background(), 1, fetch, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
