// SPDX-License-Identifier: AGPL-3.0-only
package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Write encodes r as format.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case CSV:
		return writeCSV(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes r into dir and returns the file path. The caller removes
// the file once it has been delivered.
func WriteFile(dir string, r Report, format Format) (string, error) {
	if format != CSV && format != JSON {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	path := filepath.Join(dir, Filename(r, format))
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", err
	}

	if err := Write(file, r, format); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func Filename(r Report, format Format) string {
	return fmt.Sprintf("report_%s_%s_%s.%s", r.Kind, r.ID, r.GeneratedAt.Format("20060102_150405"), format)
}

func writeCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)

	var header []string
	var rows [][]string

	switch r.Kind {
	case Overview:
		header = []string{"content", "platform", "likes", "comments", "shares", "engagement", "created_at"}
		for _, p := range r.TopPosts {
			created := ""
			if !p.CreatedAt.IsZero() {
				created = p.CreatedAt.UTC().Format(time.RFC3339)
			}
			rows = append(rows, []string{
				p.Content,
				string(p.Platform),
				strconv.Itoa(p.Likes),
				strconv.Itoa(p.Comments),
				strconv.Itoa(p.Shares),
				strconv.Itoa(p.Engagement),
				created,
			})
		}
	case Audience:
		header = []string{"category", "label", "percentage"}
		if d := r.Demographics; d != nil {
			for _, a := range d.Age {
				rows = append(rows, []string{"age", a.Range, strconv.Itoa(a.Percentage)})
			}
			for _, g := range d.Gender {
				rows = append(rows, []string{"gender", g.Type, strconv.Itoa(g.Percentage)})
			}
			for _, l := range d.Locations {
				rows = append(rows, []string{"location", l.Country, strconv.Itoa(l.Percentage)})
			}
		}
	case Content:
		header = []string{"content_type", "count", "avg_engagement", "total_likes", "total_comments"}
		for _, c := range r.ContentTypes {
			rows = append(rows, []string{
				c.Type,
				strconv.Itoa(c.Count),
				strconv.Itoa(c.AvgEngagement),
				strconv.Itoa(c.TotalLikes),
				strconv.Itoa(c.TotalComments),
			})
		}
	case Engagement:
		header = []string{"date", "daily_engagement", "posts_count"}
		for _, d := range r.DailyEngagement {
			rows = append(rows, []string{d.Date, strconv.Itoa(d.Engagement), strconv.Itoa(d.Posts)})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportType, r.Kind)
	}

	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
