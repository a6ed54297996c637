package database

import (
	"context"
	"fmt"
	"time"

	"livegraphs/internal/models"
	"livegraphs/internal/validation"
)

// InsertSessions commits a validated batch of session records. It runs as
// one transaction: a failure partway through leaves no orphaned rows.
// Sessions whose session_id already exists are skipped, so re-uploading
// the same file is idempotent. Returns the count actually inserted.
func (e *Engine) InsertSessions(ctx context.Context, sessions []models.ChatSession) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingestion transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sessionQuery := `
		INSERT OR IGNORE INTO sessions (
			session_id, start_time, end_time, ip_hash, country, language,
			sentiment, escalated, forwarded_hr, category,
			conversation_duration_seconds, total_messages, user_messages,
			avg_response_time, total_tokens, cost_eur_cents,
			source_url, summary, user_rating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	messageQuery := `INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`
	questionQuery := `INSERT INTO questions (session_id, question) VALUES (?, ?)`

	inserted := 0
	for i := range sessions {
		s := &sessions[i]
		row, err := deriveRow(s)
		if err != nil {
			return 0, fmt.Errorf("session %s: %w", s.SessionID, err)
		}

		res, err := tx.ExecContext(ctx, sessionQuery,
			row.SessionID, row.StartTime, row.EndTime, row.IPHash, row.Country, row.Language,
			row.Sentiment, row.Escalated, row.ForwardedHR, row.Category,
			row.DurationSeconds, row.TotalMessages, row.UserMessages,
			row.AvgResponseTime, row.TotalTokens, row.CostEURCents,
			row.SourceURL, row.Summary, row.UserRating,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert session %s: %w", s.SessionID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result for session %s: %w", s.SessionID, err)
		}
		if affected == 0 {
			// Duplicate session_id: skip children too, the existing rows own them.
			continue
		}
		inserted++

		for _, entry := range s.Transcript {
			if _, err := tx.ExecContext(ctx, messageQuery, s.SessionID, entry.Role, entry.Content, entry.Timestamp); err != nil {
				return 0, fmt.Errorf("failed to insert message for session %s: %w", s.SessionID, err)
			}
		}
		for _, question := range s.Questions {
			if _, err := tx.ExecContext(ctx, questionQuery, s.SessionID, question); err != nil {
				return 0, fmt.Errorf("failed to insert question for session %s: %w", s.SessionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingestion transaction: %w", err)
	}

	if inserted > 0 {
		// Durability is best-effort: a quota failure leaves the in-memory
		// data usable for the session, but must not pass silently.
		if err := e.Persist(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("Snapshot persist failed after ingestion")
		}
	}

	return inserted, nil
}

// deriveRow computes the stored numerics for one validated session record
func deriveRow(s *models.ChatSession) (*models.SessionRow, error) {
	start, err := validation.ParseTimestamp(s.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := validation.ParseTimestamp(s.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", err)
	}

	var category *string
	if s.Category != "" {
		category = &s.Category
	}

	return &models.SessionRow{
		SessionID:       s.SessionID,
		StartTime:       start.UTC().Format(time.RFC3339),
		EndTime:         end.UTC().Format(time.RFC3339),
		IPHash:          s.User.IP,
		Country:         s.User.Country,
		Language:        s.User.Language,
		Sentiment:       s.Sentiment,
		Escalated:       s.Escalated,
		ForwardedHR:     s.ForwardedHR,
		Category:        category,
		DurationSeconds: end.Sub(start).Seconds(),
		TotalMessages:   s.Messages.Amount.Total,
		UserMessages:    s.Messages.Amount.User,
		AvgResponseTime: s.Messages.ResponseTime.Avg,
		TotalTokens:     s.Messages.Tokens,
		CostEURCents:    s.Messages.Cost.EUR.Cent,
		SourceURL:       s.Messages.SourceURL,
		Summary:         s.Summary,
		UserRating:      s.UserRating,
	}, nil
}
