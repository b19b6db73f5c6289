// SPDX-License-Identifier: AGPL-3.0-only

// Package worker periodically refreshes connected account state from the
// Graph API.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Store interface {
	ListActiveAccounts(ctx context.Context) ([]database.ActiveAccount, error)
	GetActiveAccount(ctx context.Context, id uuid.UUID) (database.ActiveAccount, error)
	UpdateAccountSync(ctx context.Context, arg database.UpdateAccountSyncParams) error
}

type AccountLister interface {
	Accounts(ctx context.Context, token string) ([]fetcher.Account, error)
}

type Worker struct {
	DB       Store
	Accounts AccountLister
	Key      []byte
	Ticker   *time.Ticker
	StopChan chan bool

	// MaxRetries bounds retry attempts per account after the first try.
	MaxRetries int
	sleep      func(time.Duration)

	mu      sync.Mutex
	running bool
	active  bool
}

func NewWorker(db Store, accounts AccountLister, key []byte) *Worker {
	return &Worker{
		DB:         db,
		Accounts:   accounts,
		Key:        key,
		StopChan:   make(chan bool),
		MaxRetries: 5,
		sleep:      time.Sleep,
	}
}

func (w *Worker) Start(interval time.Duration) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		log.Warn().Msg("Worker scheduler already active, use Restart to change interval")
		return
	}
	w.active = true
	w.mu.Unlock()

	w.Ticker = time.NewTicker(interval)
	go func() {
		defer func() {
			w.mu.Lock()
			w.active = false
			w.mu.Unlock()
		}()
		for {
			select {
			case <-w.Ticker.C:
				w.SyncAll()
			case <-w.StopChan:
				w.Ticker.Stop()
				return
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Background worker started")
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		log.Warn().Msg("Worker scheduler not active")
		return
	}
	w.mu.Unlock()

	w.StopChan <- true
	log.Info().Msg("Background worker stopped")
}

func (w *Worker) Restart(interval time.Duration) {
	if w.IsActive() {
		w.Stop()
		for w.IsActive() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	w.Start(interval)
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// begin marks a sync as running. It returns false if one already is.
func (w *Worker) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		log.Info().Msg("Worker sync already in progress, skipping")
		return false
	}
	w.running = true
	return true
}

func (w *Worker) end() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// SyncAll refreshes every active account and reports how many succeeded.
func (w *Worker) SyncAll() int {
	if !w.begin() {
		return 0
	}
	defer w.end()

	return w.runSync(context.Background())
}

// SyncAccount refreshes a single account on demand.
func (w *Worker) SyncAccount(id uuid.UUID) error {
	if !w.begin() {
		return ErrSyncInProgress
	}
	defer w.end()

	ctx := context.Background()
	acc, err := w.DB.GetActiveAccount(ctx, id)
	if err != nil {
		return err
	}
	log.Info().Str("account_id", acc.AccountID).Msg("Starting manual account sync")
	return w.syncWithRetry(ctx, acc)
}
