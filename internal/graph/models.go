// SPDX-License-Identifier: AGPL-3.0-only
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05-0700"

// Time accepts the Graph API timestamp layout as well as RFC 3339.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("graph: parsing time %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(timeLayout) + `"`), nil
}

type Me struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type InstagramAccount struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	FollowersCount int    `json:"followers_count"`
}

type Page struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	FanCount    int               `json:"fan_count"`
	AccessToken string            `json:"access_token"`
	Instagram   *InstagramAccount `json:"instagram_business_account,omitempty"`
}

// InsightValue holds a single datapoint. Breakdown metrics report an object
// of numbers; Value is then the sum of its entries.
type InsightValue struct {
	Value   float64 `json:"value"`
	EndTime Time    `json:"end_time"`
}

func (v *InsightValue) UnmarshalJSON(b []byte) error {
	var raw struct {
		Value   json.RawMessage `json:"value"`
		EndTime Time            `json:"end_time"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v.EndTime = raw.EndTime
	v.Value = 0

	trimmed := bytes.TrimSpace(raw.Value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '{' {
		var parts map[string]float64
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return fmt.Errorf("graph: decoding insight breakdown: %w", err)
		}
		for _, n := range parts {
			v.Value += n
		}
		return nil
	}
	return json.Unmarshal(trimmed, &v.Value)
}

type Insight struct {
	Name   string         `json:"name"`
	Period string         `json:"period"`
	Values []InsightValue `json:"values"`
	// TotalValue is set for metric_type=total_value requests.
	TotalValue *struct {
		Value float64 `json:"value"`
	} `json:"total_value,omitempty"`
}

// Sum adds all datapoints, preferring the reported total when present.
func (i Insight) Sum() float64 {
	if i.TotalValue != nil {
		return i.TotalValue.Value
	}
	var sum float64
	for _, v := range i.Values {
		sum += v.Value
	}
	return sum
}

// Latest returns the most recent datapoint, or 0.
func (i Insight) Latest() float64 {
	if i.TotalValue != nil {
		return i.TotalValue.Value
	}
	if len(i.Values) == 0 {
		return 0
	}
	return i.Values[len(i.Values)-1].Value
}

type InsightQuery struct {
	Metrics []string
	Period  string
	Since   time.Time
	Until   time.Time
}

type Summary struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

func (e Summary) Count() int {
	return e.Summary.TotalCount
}

type Insights struct {
	Data []Insight `json:"data"`
}

// Metric returns the first insight named name.
func (e Insights) Metric(name string) (Insight, bool) {
	for _, in := range e.Data {
		if in.Name == name {
			return in, true
		}
	}
	return Insight{}, false
}

type PagePost struct {
	ID          string  `json:"id"`
	Message     string  `json:"message"`
	Story       string  `json:"story"`
	StatusType  string  `json:"status_type"`
	CreatedTime Time    `json:"created_time"`
	Likes       Summary `json:"likes"`
	Comments    Summary `json:"comments"`
	Reactions   Summary `json:"reactions"`
	Shares      struct {
		Count int `json:"count"`
	} `json:"shares"`
	Insights Insights `json:"insights"`
}

type Media struct {
	ID            string   `json:"id"`
	Caption       string   `json:"caption"`
	MediaType     string   `json:"media_type"`
	LikeCount     int      `json:"like_count"`
	CommentsCount int      `json:"comments_count"`
	Timestamp     Time     `json:"timestamp"`
	Insights      Insights `json:"insights"`
}

// APIError is the error object returned by the Graph API.
type APIError struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	FBTraceID  string `json:"fbtrace_id"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("graph: unexpected status %d", e.HTTPStatus)
	}
	return fmt.Sprintf("graph: %s (type=%s code=%d subcode=%d)", e.Message, e.Type, e.Code, e.Subcode)
}

// TokenExpired reports whether the user must log in again.
func (e *APIError) TokenExpired() bool {
	return e.Code == 190
}

type envelope[T any] struct {
	Data   []T `json:"data"`
	Paging struct {
		Next string `json:"next,omitempty"`
	} `json:"paging"`
}
