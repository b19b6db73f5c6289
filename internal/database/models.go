// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type User struct {
	ID                   uuid.UUID
	FacebookID           string
	Name                 string
	Email                string
	PictureURL           string
	EncryptedAccessToken []byte
	TokenNonce           []byte
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ConnectedAccount struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Platform     string
	AccountID    string
	AccountName  string
	Followers    int32
	IsActive     bool
	SyncStatus   string
	StatusReason sql.NullString
	LastSync     sql.NullTime
	CreatedAt    time.Time
}

// ActiveAccount carries the owner's stored Graph token for background sync.
type ActiveAccount struct {
	ConnectedAccount
	EncryptedAccessToken []byte
	TokenNonce           []byte
}

type ScheduledReport struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	ReportType string
	Frequency  string
	Format     string
	Accounts   pq.StringArray
	Recipients pq.StringArray
	IsActive   bool
	CreatedAt  time.Time
}
