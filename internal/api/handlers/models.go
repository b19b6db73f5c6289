// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
)

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type accountResponse struct {
	ID          string     `json:"id"`
	Platform    string     `json:"platform"`
	AccountID   string     `json:"platformAccountId"`
	AccountName string     `json:"accountName"`
	Followers   int        `json:"followerCount"`
	IsActive    bool       `json:"isActive"`
	SyncStatus  string     `json:"syncStatus,omitempty"`
	Reason      string     `json:"statusReason,omitempty"`
	LastSync    *time.Time `json:"lastSync"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

func storedAccount(a database.ConnectedAccount) accountResponse {
	r := accountResponse{
		ID:          a.ID.String(),
		Platform:    a.Platform,
		AccountID:   a.AccountID,
		AccountName: a.AccountName,
		Followers:   int(a.Followers),
		IsActive:    a.IsActive,
		SyncStatus:  a.SyncStatus,
		Reason:      a.StatusReason.String,
		CreatedAt:   &a.CreatedAt,
	}
	if a.LastSync.Valid {
		r.LastSync = &a.LastSync.Time
	}
	return r
}

func liveAccount(a fetcher.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Platform:    string(a.Platform),
		AccountID:   a.ID,
		AccountName: a.Name,
		Followers:   a.Followers,
		IsActive:    a.IsConnected,
		LastSync:    a.LastSync,
	}
}

type scheduledReportResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ReportType string    `json:"reportType"`
	Frequency  string    `json:"frequency"`
	Format     string    `json:"format"`
	Accounts   []string  `json:"accounts"`
	Recipients []string  `json:"recipients"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

func scheduledReport(r database.ScheduledReport) scheduledReportResponse {
	accounts, recipients := []string(r.Accounts), []string(r.Recipients)
	if accounts == nil {
		accounts = []string{}
	}
	if recipients == nil {
		recipients = []string{}
	}
	return scheduledReportResponse{
		ID:         r.ID.String(),
		Name:       r.Name,
		ReportType: r.ReportType,
		Frequency:  r.Frequency,
		Format:     r.Format,
		Accounts:   accounts,
		Recipients: recipients,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt,
	}
}
