// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, facebook_id, name, email, picture_url, encrypted_access_token, token_nonce, created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.FacebookID,
		&u.Name,
		&u.Email,
		&u.PictureURL,
		&u.EncryptedAccessToken,
		&u.TokenNonce,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const upsertUser = `
INSERT INTO users (id, facebook_id, name, email, picture_url, encrypted_access_token, token_nonce, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (facebook_id) DO UPDATE SET
    name = EXCLUDED.name,
    email = EXCLUDED.email,
    picture_url = EXCLUDED.picture_url,
    encrypted_access_token = COALESCE(EXCLUDED.encrypted_access_token, users.encrypted_access_token),
    token_nonce = COALESCE(EXCLUDED.token_nonce, users.token_nonce),
    updated_at = EXCLUDED.updated_at
RETURNING ` + userColumns

type UpsertUserParams struct {
	FacebookID           string
	Name                 string
	Email                string
	PictureURL           string
	EncryptedAccessToken []byte
	TokenNonce           []byte
	Now                  time.Time
}

// UpsertUser keeps the stored token when the new one is nil.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, upsertUser,
		uuid.New(),
		arg.FacebookID,
		arg.Name,
		arg.Email,
		arg.PictureURL,
		arg.EncryptedAccessToken,
		arg.TokenNonce,
		arg.Now,
	)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUser, id))
	return u, notFound(err)
}

const getUserByFacebookID = `SELECT ` + userColumns + ` FROM users WHERE facebook_id = $1`

func (q *Queries) GetUserByFacebookID(ctx context.Context, facebookID string) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByFacebookID, facebookID))
	return u, notFound(err)
}

const accountColumns = `id, user_id, platform, account_id, account_name, followers, is_active, sync_status, status_reason, last_sync, created_at`

func scanAccountInto(a *ConnectedAccount, extra ...any) []any {
	return append([]any{
		&a.ID,
		&a.UserID,
		&a.Platform,
		&a.AccountID,
		&a.AccountName,
		&a.Followers,
		&a.IsActive,
		&a.SyncStatus,
		&a.StatusReason,
		&a.LastSync,
		&a.CreatedAt,
	}, extra...)
}

func scanAccount(row scanner) (ConnectedAccount, error) {
	var a ConnectedAccount
	err := row.Scan(scanAccountInto(&a)...)
	return a, err
}

const listAccountsByUser = `SELECT ` + accountColumns + ` FROM connected_accounts WHERE user_id = $1 ORDER BY created_at, account_name`

func (q *Queries) ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]ConnectedAccount, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ConnectedAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAccount = `SELECT ` + accountColumns + ` FROM connected_accounts WHERE id = $1 AND user_id = $2`

type GetAccountParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetAccount(ctx context.Context, arg GetAccountParams) (ConnectedAccount, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccount, arg.ID, arg.UserID))
	return a, notFound(err)
}

const createAccountIfMissing = `
INSERT INTO connected_accounts (id, user_id, platform, account_id, account_name, followers, is_active, sync_status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, 'Initialized', $7)
ON CONFLICT (user_id, platform, account_id) DO UPDATE SET
    account_name = EXCLUDED.account_name,
    followers = EXCLUDED.followers
RETURNING ` + accountColumns

type CreateAccountParams struct {
	UserID      uuid.UUID
	Platform    string
	AccountID   string
	AccountName string
	Followers   int32
	CreatedAt   time.Time
}

// CreateAccountIfMissing refreshes name and followers of an existing row.
func (q *Queries) CreateAccountIfMissing(ctx context.Context, arg CreateAccountParams) (ConnectedAccount, error) {
	row := q.db.QueryRowContext(ctx, createAccountIfMissing,
		uuid.New(),
		arg.UserID,
		arg.Platform,
		arg.AccountID,
		arg.AccountName,
		arg.Followers,
		arg.CreatedAt,
	)
	return scanAccount(row)
}

const updateAccountStatus = `
UPDATE connected_accounts SET is_active = $3
WHERE id = $1 AND user_id = $2
RETURNING ` + accountColumns

type UpdateAccountStatusParams struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	IsActive bool
}

func (q *Queries) UpdateAccountStatus(ctx context.Context, arg UpdateAccountStatusParams) (ConnectedAccount, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, updateAccountStatus, arg.ID, arg.UserID, arg.IsActive))
	return a, notFound(err)
}

const updateAccountSync = `
UPDATE connected_accounts SET
    followers = COALESCE($2, followers),
    sync_status = $3,
    status_reason = $4,
    last_sync = COALESCE($5, last_sync)
WHERE id = $1`

type UpdateAccountSyncParams struct {
	ID           uuid.UUID
	Followers    sql.NullInt32
	SyncStatus   string
	StatusReason sql.NullString
	LastSync     sql.NullTime
}

func (q *Queries) UpdateAccountSync(ctx context.Context, arg UpdateAccountSyncParams) error {
	_, err := q.db.ExecContext(ctx, updateAccountSync,
		arg.ID,
		arg.Followers,
		arg.SyncStatus,
		arg.StatusReason,
		arg.LastSync,
	)
	return err
}

const deleteAccount = `DELETE FROM connected_accounts WHERE id = $1 AND user_id = $2`

type DeleteAccountParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteAccount(ctx context.Context, arg DeleteAccountParams) error {
	res, err := q.db.ExecContext(ctx, deleteAccount, arg.ID, arg.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const listActiveAccounts = `
SELECT ca.id, ca.user_id, ca.platform, ca.account_id, ca.account_name, ca.followers, ca.is_active,
       ca.sync_status, ca.status_reason, ca.last_sync, ca.created_at,
       u.encrypted_access_token, u.token_nonce
FROM connected_accounts ca
JOIN users u ON u.id = ca.user_id
WHERE ca.is_active
ORDER BY ca.last_sync NULLS FIRST`

func (q *Queries) ListActiveAccounts(ctx context.Context) ([]ActiveAccount, error) {
	rows, err := q.db.QueryContext(ctx, listActiveAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActiveAccount
	for rows.Next() {
		var a ActiveAccount
		if err := rows.Scan(scanAccountInto(&a.ConnectedAccount, &a.EncryptedAccessToken, &a.TokenNonce)...); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getActiveAccount = `
SELECT ca.id, ca.user_id, ca.platform, ca.account_id, ca.account_name, ca.followers, ca.is_active,
       ca.sync_status, ca.status_reason, ca.last_sync, ca.created_at,
       u.encrypted_access_token, u.token_nonce
FROM connected_accounts ca
JOIN users u ON u.id = ca.user_id
WHERE ca.id = $1`

// GetActiveAccount loads one account with its owner's token regardless of
// whether it is active.
func (q *Queries) GetActiveAccount(ctx context.Context, id uuid.UUID) (ActiveAccount, error) {
	var a ActiveAccount
	err := q.db.QueryRowContext(ctx, getActiveAccount, id).
		Scan(scanAccountInto(&a.ConnectedAccount, &a.EncryptedAccessToken, &a.TokenNonce)...)
	return a, notFound(err)
}

const reportColumns = `id, user_id, name, report_type, frequency, format, accounts, recipients, is_active, created_at`

func scanReport(row scanner) (ScheduledReport, error) {
	var r ScheduledReport
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Name,
		&r.ReportType,
		&r.Frequency,
		&r.Format,
		&r.Accounts,
		&r.Recipients,
		&r.IsActive,
		&r.CreatedAt,
	)
	return r, err
}

const createScheduledReport = `
INSERT INTO scheduled_reports (id, user_id, name, report_type, frequency, format, accounts, recipients, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
RETURNING ` + reportColumns

type CreateScheduledReportParams struct {
	UserID     uuid.UUID
	Name       string
	ReportType string
	Frequency  string
	Format     string
	Accounts   []string
	Recipients []string
	CreatedAt  time.Time
}

func (q *Queries) CreateScheduledReport(ctx context.Context, arg CreateScheduledReportParams) (ScheduledReport, error) {
	row := q.db.QueryRowContext(ctx, createScheduledReport,
		uuid.New(),
		arg.UserID,
		arg.Name,
		arg.ReportType,
		arg.Frequency,
		arg.Format,
		pq.Array(nonNil(arg.Accounts)),
		pq.Array(nonNil(arg.Recipients)),
		arg.CreatedAt,
	)
	return scanReport(row)
}

const listScheduledReports = `SELECT ` + reportColumns + ` FROM scheduled_reports WHERE user_id = $1 ORDER BY created_at DESC`

func (q *Queries) ListScheduledReports(ctx context.Context, userID uuid.UUID) ([]ScheduledReport, error) {
	rows, err := q.db.QueryContext(ctx, listScheduledReports, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScheduledReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// nonNil avoids writing NULL into NOT NULL array columns.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
