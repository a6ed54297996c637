// Package export renders the sessions of a date range as CSV for download.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"livegraphs/internal/models"

	"github.com/jmoiron/sqlx"
)

var columns = []string{
	"session_id", "start_time", "end_time", "ip_hash", "country", "language",
	"sentiment", "escalated", "forwarded_hr", "category",
	"conversation_duration_seconds", "total_messages", "user_messages",
	"avg_response_time", "total_tokens", "cost_eur_cents",
	"source_url", "summary", "user_rating",
}

// Filename returns the canonical download name for a range export
func Filename(from, to time.Time) string {
	return fmt.Sprintf("livegraphs_%s_to_%s.csv",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// WriteSessionsCSV streams one CSV row per session in the inclusive date
// range, ordered by start time. Returns the number of data rows written.
func WriteSessionsCSV(ctx context.Context, db *sqlx.DB, w io.Writer, from, to time.Time) (int, error) {
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	hi := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Format(time.RFC3339)

	var rows []models.SessionRow
	query := `
		SELECT session_id, start_time, end_time, ip_hash, country, language,
			sentiment, escalated, forwarded_hr, category,
			conversation_duration_seconds, total_messages, user_messages,
			avg_response_time, total_tokens, cost_eur_cents,
			source_url, summary, user_rating
		FROM sessions
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time ASC`
	if err := db.SelectContext(ctx, &rows, query, lo, hi); err != nil {
		return 0, fmt.Errorf("failed to query sessions for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(&r)); err != nil {
			return 0, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return len(rows), nil
}

func record(r *models.SessionRow) []string {
	category := ""
	if r.Category != nil {
		category = *r.Category
	}
	rating := ""
	if r.UserRating != nil {
		rating = strconv.FormatFloat(*r.UserRating, 'f', -1, 64)
	}
	return []string{
		r.SessionID, r.StartTime, r.EndTime, r.IPHash, r.Country, r.Language,
		r.Sentiment, strconv.FormatBool(r.Escalated), strconv.FormatBool(r.ForwardedHR), category,
		strconv.FormatFloat(r.DurationSeconds, 'f', -1, 64),
		strconv.Itoa(r.TotalMessages), strconv.Itoa(r.UserMessages),
		strconv.FormatFloat(r.AvgResponseTime, 'f', -1, 64),
		strconv.Itoa(r.TotalTokens), strconv.Itoa(r.CostEURCents),
		r.SourceURL, r.Summary, rating,
	}
}
