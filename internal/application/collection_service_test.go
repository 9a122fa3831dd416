package application

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/bnema/potato-cli/internal/adapters/export"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectNearbyStampsAndPersists(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{users: nearbyUsers(20)})

	var last batch.Progress
	result, err := service.CollectNearby(context.Background(), domain.NearbyQuery{Range: 1000, MaxUsers: 15}, func(p batch.Progress) { last = p })
	require.NoError(t, err)

	assert.Equal(t, 15, result.RequestedCount)
	assert.Equal(t, 15, result.SucceededCount)
	assert.True(t, last.Done())

	stored, err := st.users.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.Records, stored)
	for i, user := range stored {
		assert.Equal(t, domain.CollectedUserID("user_"+strconv.Itoa(i+1)), user.ID)
		assert.Equal(t, testNow, user.CollectedAt)
		assert.Equal(t, domain.SourceNearby, user.Source)
	}
}

func TestCollectNearbyValidatesQuery(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{users: nearbyUsers(1)})

	for _, query := range []domain.NearbyQuery{
		{Range: 50, MaxUsers: 10},
		{Range: 6000, MaxUsers: 10},
		{Range: 500, MaxUsers: 0},
		{Range: 500, MaxUsers: 1001},
	} {
		_, err := service.CollectNearby(context.Background(), query, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "query %+v", query)
	}

	stored, err := st.users.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCollectGroupRequiresLink(t *testing.T) {
	t.Parallel()

	service, _, _ := newCollection(t, true, &blockingCollection{})

	_, err := service.CollectGroup(context.Background(), domain.GroupQuery{Method: domain.GroupMethodAll}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = service.CollectGroup(context.Background(), domain.GroupQuery{Link: "g", Method: "everyone"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCollectRequiresAuthentication(t *testing.T) {
	t.Parallel()

	service, _, _ := newCollection(t, false, &blockingCollection{users: nearbyUsers(1)})

	_, err := service.CollectNearby(context.Background(), domain.NearbyQuery{Range: 100, MaxUsers: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = service.List(context.Background(), domain.Criteria{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.ErrorIs(t, service.Clear(context.Background()), domain.ErrNotAuthenticated)
}

func TestCollectGroupScanFailureIsZeroSuccess(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{err: errRemote})

	result, err := service.CollectGroup(context.Background(), domain.GroupQuery{Link: "g", Method: domain.GroupMethodAll}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.RequestedCount)
	assert.Zero(t, result.SucceededCount)

	stored, err := st.users.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSecondCollectionWhileRunningIsRejected(t *testing.T) {
	t.Parallel()

	remote := &blockingCollection{
		users:   groupUsers(10, "https://t.me/potato"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service, st, guard := newCollection(t, true, remote)
	require.NoError(t, st.users.Append(context.Background(), nearbyUsers(2)))
	before, err := st.users.Load(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := service.CollectGroup(context.Background(), domain.GroupQuery{Link: "https://t.me/potato", Method: domain.GroupMethodRecent}, nil)
		done <- err
	}()

	select {
	case <-remote.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first collection never started")
	}
	assert.True(t, guard.InProgress(st.users.Name()))

	_, err = service.CollectNearby(context.Background(), domain.NearbyQuery{Range: 500, MaxUsers: 5}, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyInProgress)
	assert.ErrorIs(t, service.Clear(context.Background()), domain.ErrAlreadyInProgress)

	during, err := st.users.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, during)

	close(remote.release)
	require.NoError(t, <-done)
	assert.False(t, guard.InProgress(st.users.Name()))

	after, err := st.users.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, after, 12)
}

func TestListFiltersStoredUsers(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{})
	require.NoError(t, st.users.Append(context.Background(), append(nearbyUsers(10), groupUsers(6, "g")...)))

	got, err := service.List(context.Background(), domain.Criteria{Source: domain.SourceNearby, MinDistance: domain.IntPtr(500)})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, user := range got {
		assert.Equal(t, domain.SourceNearby, user.Source)
		assert.GreaterOrEqual(t, *user.Distance, 500)
	}

	got, err = service.List(context.Background(), domain.Criteria{MaxDistance: domain.IntPtr(10000)})
	require.NoError(t, err)
	assert.Len(t, got, 10)

	got, err = service.List(context.Background(), domain.Criteria{Activity: domain.ActivityInactive})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = service.List(context.Background(), domain.Criteria{Source: "satellite"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExport(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{})

	empty, err := service.Export(context.Background(), domain.Criteria{Source: domain.SourceGroup}, export.FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Zero(t, empty.Count)
	assert.Equal(t, "collected_users_1771070400000.csv", empty.FileName)

	require.NoError(t, st.users.Append(context.Background(), groupUsers(3, "g")))

	result, err := service.Export(context.Background(), domain.Criteria{Source: domain.SourceGroup}, export.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, "collected_users_1771070400000.json", result.FileName)

	var decoded []domain.CollectedUser
	require.NoError(t, json.Unmarshal(result.Data, &decoded))
	assert.Len(t, decoded, 3)
}

func TestClearEmptiesCollection(t *testing.T) {
	t.Parallel()

	service, st, _ := newCollection(t, true, &blockingCollection{})
	require.NoError(t, st.users.Append(context.Background(), nearbyUsers(4)))

	require.NoError(t, service.Clear(context.Background()))

	stored, err := st.users.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}
