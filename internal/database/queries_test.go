// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptDriver answers queries from a queue and records what it was asked.
type scriptDriver struct{}

type scriptConn struct{}

type scriptRows struct {
	columns []string
	data    [][]driver.Value
	idx     int
}

type scriptResult struct{ affected int64 }

type call struct {
	query string
	args  []driver.Value
}

var script struct {
	sync.Mutex
	rows     []*scriptRows
	affected []int64
	calls    []call
}

func reset() {
	script.Lock()
	defer script.Unlock()
	script.rows = nil
	script.affected = nil
	script.calls = nil
}

func queueRows(columns []string, data ...[]driver.Value) {
	script.Lock()
	defer script.Unlock()
	script.rows = append(script.rows, &scriptRows{columns: columns, data: data})
}

func queueAffected(n int64) {
	script.Lock()
	defer script.Unlock()
	script.affected = append(script.affected, n)
}

func record(query string, args []driver.NamedValue) {
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	script.calls = append(script.calls, call{query: query, args: vals})
}

func (scriptDriver) Open(string) (driver.Conn, error) { return &scriptConn{}, nil }

func (c *scriptConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *scriptConn) Close() error                        { return nil }
func (c *scriptConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }

func (c *scriptConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	script.Lock()
	defer script.Unlock()
	record(query, args)
	if len(script.rows) == 0 {
		return nil, errors.New("unexpected query")
	}
	r := script.rows[0]
	script.rows = script.rows[1:]
	return r, nil
}

func (c *scriptConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	script.Lock()
	defer script.Unlock()
	record(query, args)
	if len(script.affected) == 0 {
		return nil, errors.New("unexpected exec")
	}
	n := script.affected[0]
	script.affected = script.affected[1:]
	return scriptResult{affected: n}, nil
}

func (scriptResult) LastInsertId() (int64, error)   { return 0, nil }
func (r scriptResult) RowsAffected() (int64, error) { return r.affected, nil }

func (r *scriptRows) Columns() []string { return r.columns }
func (r *scriptRows) Close() error      { return nil }
func (r *scriptRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}

func init() { sql.Register("scriptDummy", scriptDriver{}) }

func openDummy(t *testing.T) *Queries {
	t.Helper()
	reset()
	db, err := sql.Open("scriptDummy", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

var (
	userCols    = []string{"id", "facebook_id", "name", "email", "picture_url", "encrypted_access_token", "token_nonce", "created_at", "updated_at"}
	accountCols = []string{"id", "user_id", "platform", "account_id", "account_name", "followers", "is_active", "sync_status", "status_reason", "last_sync", "created_at"}
	reportCols  = []string{"id", "user_id", "name", "report_type", "frequency", "format", "accounts", "recipients", "is_active", "created_at"}
)

func TestGetUserNotFound(t *testing.T) {
	q := openDummy(t)
	queueRows(userCols)

	_, err := q.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserByFacebookID(t *testing.T) {
	q := openDummy(t)
	id := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	queueRows(userCols, []driver.Value{id.String(), "fb-1", "Alice", "alice@example.com", "", []byte("ct"), []byte("nonce"), created, created})

	u, err := q.GetUserByFacebookID(context.Background(), "fb-1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, []byte("ct"), u.EncryptedAccessToken)
	assert.Equal(t, created, u.CreatedAt)

	require.Len(t, script.calls, 1)
	assert.Equal(t, []driver.Value{"fb-1"}, script.calls[0].args)
}

func TestListAccountsByUser(t *testing.T) {
	q := openDummy(t)
	userID := uuid.New()
	synced := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	queueRows(accountCols,
		[]driver.Value{uuid.NewString(), userID.String(), "facebook", "p1", "Page One", int64(1200), true, "Synced", nil, synced, synced},
		[]driver.Value{uuid.NewString(), userID.String(), "instagram", "ig1", "Insta", int64(640), false, "Failed", "token expired", nil, synced},
	)

	items, err := q.ListAccountsByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Page One", items[0].AccountName)
	assert.Equal(t, int32(1200), items[0].Followers)
	assert.True(t, items[0].LastSync.Valid)
	assert.False(t, items[0].StatusReason.Valid)

	assert.False(t, items[1].IsActive)
	assert.Equal(t, "token expired", items[1].StatusReason.String)
	assert.False(t, items[1].LastSync.Valid)
}

func TestListActiveAccountsCarriesToken(t *testing.T) {
	q := openDummy(t)
	cols := append(append([]string{}, accountCols...), "encrypted_access_token", "token_nonce")
	now := time.Now().UTC()
	queueRows(cols, []driver.Value{uuid.NewString(), uuid.NewString(), "facebook", "p1", "Page", int64(5), true, "Synced", nil, nil, now, []byte("ct"), []byte("n")})

	items, err := q.ListActiveAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].AccountID)
	assert.Equal(t, []byte("ct"), items[0].EncryptedAccessToken)
	assert.Equal(t, []byte("n"), items[0].TokenNonce)
}

func TestDeleteAccount(t *testing.T) {
	q := openDummy(t)
	queueAffected(0)
	queueAffected(1)

	arg := DeleteAccountParams{ID: uuid.New(), UserID: uuid.New()}
	assert.ErrorIs(t, q.DeleteAccount(context.Background(), arg), ErrNotFound)
	assert.NoError(t, q.DeleteAccount(context.Background(), arg))
}

func TestUpdateAccountSync(t *testing.T) {
	q := openDummy(t)
	queueAffected(1)

	id := uuid.New()
	err := q.UpdateAccountSync(context.Background(), UpdateAccountSyncParams{
		ID:           id,
		SyncStatus:   "Failed",
		StatusReason: sql.NullString{String: "boom", Valid: true},
	})
	require.NoError(t, err)

	require.Len(t, script.calls, 1)
	args := script.calls[0].args
	assert.Equal(t, id.String(), args[0])
	assert.Nil(t, args[1])
	assert.Equal(t, "Failed", args[2])
	assert.Equal(t, "boom", args[3])
	assert.Nil(t, args[4])
}

func TestCreateScheduledReport(t *testing.T) {
	q := openDummy(t)
	userID := uuid.New()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	queueRows(reportCols, []driver.Value{uuid.NewString(), userID.String(), "Weekly", "overview", "weekly", "csv", []byte("{}"), []byte(`{"a@example.com","b@example.com"}`), true, now})

	r, err := q.CreateScheduledReport(context.Background(), CreateScheduledReportParams{
		UserID:     userID,
		Name:       "Weekly",
		ReportType: "overview",
		Frequency:  "weekly",
		Format:     "csv",
		Recipients: []string{"a@example.com", "b@example.com"},
		CreatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly", r.Name)
	assert.Empty(t, r.Accounts)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, []string(r.Recipients))

	args := script.calls[0].args
	assert.Equal(t, "{}", args[6])
	assert.Equal(t, `{"a@example.com","b@example.com"}`, args[7])
}

func TestGetActiveAccountNotFound(t *testing.T) {
	q := openDummy(t)
	queueRows(append(append([]string{}, accountCols...), "encrypted_access_token", "token_nonce"))

	_, err := q.GetActiveAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, _, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestPingWithoutPinger(t *testing.T) {
	assert.NoError(t, New(fakeDBTX{}).Ping(context.Background()))
}

type fakeDBTX struct{ DBTX }
