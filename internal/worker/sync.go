// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/authhelp"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/rs/zerolog/log"
)

const (
	StatusSynced = "Synced"
	StatusFailed = "Failed"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNoToken        = errors.New("no stored access token")
	ErrAccountGone    = errors.New("account is no longer accessible with the stored token")
)

func backoffWithJitter(attempt int) time.Duration {
	const (
		baseDelay = 10 * time.Second
		maxDelay  = 15 * time.Minute
	)

	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}

	var b [8]byte
	_, _ = rand.Read(b[:])
	jitter := time.Duration(binary.LittleEndian.Uint64(b[:]) % uint64(delay))

	return jitter
}

func (w *Worker) runSync(ctx context.Context) int {
	log.Info().Msg("Worker starting sync")

	accounts, err := w.DB.ListActiveAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Worker failed to list active accounts")
		return 0
	}

	synced := 0
	for _, acc := range accounts {
		if err := w.syncWithRetry(ctx, acc); err == nil {
			synced++
		}
	}

	log.Info().Int("accounts", len(accounts)).Int("synced", synced).Msg("Worker completed sync")
	return synced
}

func (w *Worker) syncWithRetry(ctx context.Context, acc database.ActiveAccount) error {
	var err error
	for attempt := 0; attempt <= w.MaxRetries; attempt++ {
		var followers int
		followers, err = w.syncOnce(ctx, acc, attempt)
		if err == nil {
			return w.record(ctx, acc, StatusSynced, "", &followers)
		}

		if permanent(err) || attempt == w.MaxRetries {
			log.Error().
				Err(err).
				Str("account_id", acc.AccountID).
				Int("attempt", attempt+1).
				Msg("Account sync failed")
			if rerr := w.record(ctx, acc, StatusFailed, err.Error(), nil); rerr != nil {
				log.Error().Err(rerr).Str("account_id", acc.AccountID).Msg("Failed to record sync status")
			}
			return err
		}

		delay := backoffWithJitter(attempt)
		log.Warn().
			Err(err).
			Str("account_id", acc.AccountID).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Msg("Account sync error, retrying")
		w.sleep(delay)
	}
	return err
}

func (w *Worker) syncOnce(ctx context.Context, acc database.ActiveAccount, attempt int) (followers int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("account_id", acc.AccountID).
				Int("attempt", attempt+1).
				Interface("panic", r).
				Msg("Panic in account sync")
			err = fmt.Errorf("panic during sync: %v", r)
		}
	}()

	if len(acc.EncryptedAccessToken) == 0 {
		return 0, ErrNoToken
	}
	token, err := authhelp.DecryptToken(acc.EncryptedAccessToken, acc.TokenNonce, w.Key)
	if err != nil {
		return 0, fmt.Errorf("decrypting token: %w", err)
	}

	accounts, err := w.Accounts.Accounts(ctx, token)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if a.ID == acc.AccountID && string(a.Platform) == acc.Platform {
			return a.Followers, nil
		}
	}
	return 0, ErrAccountGone
}

func permanent(err error) bool {
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) && apiErr.TokenExpired() {
		return true
	}
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrAccountGone) || errors.Is(err, authhelp.ErrInvalidKey)
}

func (w *Worker) record(ctx context.Context, acc database.ActiveAccount, status, reason string, followers *int) error {
	arg := database.UpdateAccountSyncParams{
		ID:           acc.ID,
		SyncStatus:   status,
		StatusReason: sql.NullString{String: reason, Valid: reason != ""},
	}
	if followers != nil {
		arg.Followers = sql.NullInt32{Int32: int32(*followers), Valid: true}
		arg.LastSync = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return w.DB.UpdateAccountSync(ctx, arg)
}
