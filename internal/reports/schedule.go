// SPDX-License-Identifier: AGPL-3.0-only
package reports

import (
	"fmt"
	"net/mail"
	"strings"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Schedule is a stored request for a recurring report. Delivery happens
// outside this service.
type Schedule struct {
	Name       string    `json:"name"`
	ReportType Kind      `json:"reportType"`
	Frequency  Frequency `json:"frequency"`
	Format     Format    `json:"format"`
	Accounts   []string  `json:"accounts"`
	Recipients []string  `json:"recipients"`
}

// Normalize validates s and fills defaults.
func (s *Schedule) Normalize() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return ErrMissingReportName
	}

	kind, err := ParseKind(string(s.ReportType))
	if err != nil {
		return err
	}
	s.ReportType = kind

	switch f := Frequency(strings.ToLower(string(s.Frequency))); f {
	case Daily, Weekly, Monthly:
		s.Frequency = f
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, s.Frequency)
	}

	format, err := ParseFormat(string(s.Format))
	if err != nil {
		return err
	}
	s.Format = format

	for i, r := range s.Recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return fmt.Errorf("invalid recipient %q: %w", r, err)
		}
		s.Recipients[i] = addr.Address
	}
	if s.Accounts == nil {
		s.Accounts = []string{}
	}
	if s.Recipients == nil {
		s.Recipients = []string{}
	}
	return nil
}
