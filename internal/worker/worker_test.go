// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/authhelp"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = bytes.Repeat([]byte{3}, 32)

type fakeStore struct {
	mu       sync.Mutex
	accounts []database.ActiveAccount
	updates  []database.UpdateAccountSyncParams
}

func (s *fakeStore) ListActiveAccounts(context.Context) ([]database.ActiveAccount, error) {
	return s.accounts, nil
}

func (s *fakeStore) GetActiveAccount(_ context.Context, id uuid.UUID) (database.ActiveAccount, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return database.ActiveAccount{}, database.ErrNotFound
}

func (s *fakeStore) UpdateAccountSync(_ context.Context, arg database.UpdateAccountSyncParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, arg)
	return nil
}

type listerFunc func(ctx context.Context, token string) ([]fetcher.Account, error)

func (f listerFunc) Accounts(ctx context.Context, token string) ([]fetcher.Account, error) {
	return f(ctx, token)
}

func activeAccount(t *testing.T, token string) database.ActiveAccount {
	t.Helper()
	ct, nonce, err := authhelp.EncryptToken(token, key)
	require.NoError(t, err)
	return database.ActiveAccount{
		ConnectedAccount: database.ConnectedAccount{
			ID:        uuid.New(),
			Platform:  "facebook",
			AccountID: "page-1",
			IsActive:  true,
		},
		EncryptedAccessToken: ct,
		TokenNonce:           nonce,
	}
}

func newTestWorker(store Store, lister AccountLister) (*Worker, *[]time.Duration) {
	w := NewWorker(store, lister, key)
	var slept []time.Duration
	w.sleep = func(d time.Duration) { slept = append(slept, d) }
	return w, &slept
}

func TestSyncAccountUpdatesFollowers(t *testing.T) {
	acc := activeAccount(t, "user-token")
	store := &fakeStore{accounts: []database.ActiveAccount{acc}}
	var gotToken string
	w, _ := newTestWorker(store, listerFunc(func(_ context.Context, token string) ([]fetcher.Account, error) {
		gotToken = token
		return []fetcher.Account{{ID: "page-1", Platform: metrics.Facebook, Followers: 4200}}, nil
	}))

	require.NoError(t, w.SyncAccount(acc.ID))
	assert.Equal(t, "user-token", gotToken)

	require.Len(t, store.updates, 1)
	u := store.updates[0]
	assert.Equal(t, acc.ID, u.ID)
	assert.Equal(t, StatusSynced, u.SyncStatus)
	assert.Equal(t, int32(4200), u.Followers.Int32)
	assert.True(t, u.LastSync.Valid)
	assert.False(t, u.StatusReason.Valid)
}

func TestSyncRetriesThenFails(t *testing.T) {
	acc := activeAccount(t, "tok")
	store := &fakeStore{accounts: []database.ActiveAccount{acc}}
	calls := 0
	w, slept := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		calls++
		return nil, errors.New("graph unavailable")
	}))
	w.MaxRetries = 2

	err := w.SyncAccount(acc.ID)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)

	require.Len(t, store.updates, 1)
	assert.Equal(t, StatusFailed, store.updates[0].SyncStatus)
	assert.Equal(t, "graph unavailable", store.updates[0].StatusReason.String)
	assert.False(t, store.updates[0].Followers.Valid)
}

func TestSyncRecoversAfterTransientError(t *testing.T) {
	acc := activeAccount(t, "tok")
	store := &fakeStore{accounts: []database.ActiveAccount{acc}}
	calls := 0
	w, slept := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		return []fetcher.Account{{ID: "page-1", Platform: metrics.Facebook, Followers: 10}}, nil
	}))

	require.NoError(t, w.SyncAccount(acc.ID))
	assert.Len(t, *slept, 1)
	assert.Equal(t, StatusSynced, store.updates[0].SyncStatus)
}

func TestSyncPermanentErrorsSkipRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"expired token", &graph.APIError{Code: 190, Message: "expired"}},
		{"account gone", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := activeAccount(t, "tok")
			store := &fakeStore{accounts: []database.ActiveAccount{acc}}
			w, slept := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
				return []fetcher.Account{{ID: "other", Platform: metrics.Facebook}}, tt.err
			}))

			assert.Error(t, w.SyncAccount(acc.ID))
			assert.Empty(t, *slept)
			assert.Equal(t, StatusFailed, store.updates[0].SyncStatus)
		})
	}
}

func TestSyncWithoutStoredToken(t *testing.T) {
	acc := activeAccount(t, "tok")
	acc.EncryptedAccessToken = nil
	store := &fakeStore{accounts: []database.ActiveAccount{acc}}
	w, _ := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		t.Fatal("graph should not be called")
		return nil, nil
	}))

	assert.ErrorIs(t, w.SyncAccount(acc.ID), ErrNoToken)
}

func TestSyncRecoversPanic(t *testing.T) {
	acc := activeAccount(t, "tok")
	store := &fakeStore{accounts: []database.ActiveAccount{acc}}
	w, _ := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		panic("boom")
	}))
	w.MaxRetries = 0

	err := w.SyncAccount(acc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSyncAll(t *testing.T) {
	ok := activeAccount(t, "tok")
	bad := activeAccount(t, "tok")
	bad.AccountID = "missing"
	store := &fakeStore{accounts: []database.ActiveAccount{ok, bad}}
	w, _ := newTestWorker(store, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		return []fetcher.Account{{ID: "page-1", Platform: metrics.Facebook, Followers: 1}}, nil
	}))

	assert.Equal(t, 1, w.SyncAll())
	assert.Len(t, store.updates, 2)
}

func TestSyncAccountNotFound(t *testing.T) {
	w, _ := newTestWorker(&fakeStore{}, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		return nil, nil
	}))
	assert.ErrorIs(t, w.SyncAccount(uuid.New()), database.ErrNotFound)
}

func TestStartStop(t *testing.T) {
	w, _ := newTestWorker(&fakeStore{}, listerFunc(func(context.Context, string) ([]fetcher.Account, error) {
		return nil, nil
	}))

	assert.False(t, w.IsActive())
	w.Start(time.Hour)
	assert.True(t, w.IsActive())

	w.Restart(2 * time.Hour)
	assert.True(t, w.IsActive())

	w.Stop()
	assert.Eventually(t, func() bool { return !w.IsActive() }, time.Second, 5*time.Millisecond)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := backoffWithJitter(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 15*time.Minute)
	}
}
