package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/potato-cli/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountsCollection(t *testing.T) (*Collection[domain.Account], string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	collection, err := NewCollection[domain.Account](store, "accounts")
	require.NoError(t, err)

	return collection, dir
}

func account(id string) domain.Account {
	return domain.Account{
		ID:        domain.AccountID(id),
		Phone:     "+79000000000",
		Username:  "user_" + id,
		Status:    domain.AccountStatusOnline,
		CreatedAt: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadMissingCollectionReturnsEmpty(t *testing.T) {
	t.Parallel()

	collection, _ := newAccountsCollection(t)

	got, err := collection.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAppendThenLoadPreservesOrder(t *testing.T) {
	t.Parallel()

	collection, dir := newAccountsCollection(t)
	ctx := context.Background()

	require.NoError(t, collection.Append(ctx, []domain.Account{account("1"), account("2")}))
	require.NoError(t, collection.Append(ctx, []domain.Account{account("3")}))

	got, err := collection.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{account("1"), account("2"), account("3")}, got)

	_, err = os.Stat(filepath.Join(dir, "accounts.json"))
	assert.NoError(t, err)
}

func TestLoadIsIdempotent(t *testing.T) {
	t.Parallel()

	collection, _ := newAccountsCollection(t)
	ctx := context.Background()
	require.NoError(t, collection.Append(ctx, []domain.Account{account("1"), account("2")}))

	first, err := collection.Load(ctx)
	require.NoError(t, err)
	second, err := collection.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOverwriteReplacesSequence(t *testing.T) {
	t.Parallel()

	collection, dir := newAccountsCollection(t)
	ctx := context.Background()
	require.NoError(t, collection.Append(ctx, []domain.Account{account("1"), account("2")}))

	require.NoError(t, collection.Overwrite(ctx, []domain.Account{account("9")}))
	got, err := collection.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{account("9")}, got)

	require.NoError(t, collection.Overwrite(ctx, nil))
	got, err = collection.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	data, err := os.ReadFile(filepath.Join(dir, "accounts.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestAppendEmptyIsNoop(t *testing.T) {
	t.Parallel()

	collection, dir := newAccountsCollection(t)
	require.NoError(t, collection.Append(context.Background(), nil))

	_, err := os.Stat(filepath.Join(dir, "accounts.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCorruptCollectionIsTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	collection, dir := newAccountsCollection(t)
	path := filepath.Join(dir, "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := collection.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, collection.Append(context.Background(), []domain.Account{account("1")}))
	got, err = collection.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{account("1")}, got)

	backup, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}

func TestJSONNullIsTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	collection, dir := newAccountsCollection(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"), []byte("null"), 0o600))

	got, err := collection.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	t.Parallel()

	collection, _ := newAccountsCollection(t)
	ctx := context.Background()

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, collection.Append(ctx, []domain.Account{account(fmt.Sprintf("%02d", i))}))
		}(i)
	}
	wg.Wait()

	got, err := collection.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, writers)
}

func TestCollectionsOnSameStoreShareLockAndData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	first, err := NewCollection[domain.Account](store, "accounts")
	require.NoError(t, err)
	second, err := NewCollection[domain.Account](store, "accounts")
	require.NoError(t, err)

	assert.Same(t, first.mu, second.mu)

	require.NoError(t, first.Append(context.Background(), []domain.Account{account("1")}))
	got, err := second.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCollectionRespectsCanceledContext(t *testing.T) {
	t.Parallel()

	collection, _ := newAccountsCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collection.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, collection.Append(ctx, []domain.Account{account("1")}), context.Canceled)
	assert.ErrorIs(t, collection.Overwrite(ctx, nil), context.Canceled)
}

func TestNewCollectionRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	for _, name := range []string{"", " accounts", "../accounts", "a/b", ".hidden"} {
		_, err := NewCollection[domain.Account](store, name)
		assert.ErrorIs(t, err, ErrInvalidCollectionName, "name %q", name)
	}
}

func TestCollectedUsersRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	collection, err := NewCollection[domain.CollectedUser](store, "collected_users")
	require.NoError(t, err)

	at := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	users := []domain.CollectedUser{
		{ID: "user_1", Username: "nearby_user_0", Phone: "+79000000001", Distance: domain.IntPtr(0), CollectedAt: at, Source: domain.SourceNearby},
		{ID: "user_2", Username: "group_member_0", Phone: "+79000000002", Group: "g", Activity: domain.ActivityActive, CollectedAt: at, Source: domain.SourceGroup},
	}
	require.NoError(t, collection.Append(context.Background(), users))

	got, err := collection.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users, got)
	require.NotNil(t, got[0].Distance)
	assert.Equal(t, 0, *got[0].Distance)
	assert.Nil(t, got[1].Distance)
}
