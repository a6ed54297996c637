package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"livegraphs/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Chart bucket labels
const (
	LabelResolved      = "Resolved"
	LabelEscalated     = "Escalated"
	LabelForwardedHR   = "Forwarded to HR"
	LabelUncategorized = "Unrecognized / Other"
	LabelOther         = "Other"
)

// DefaultTopN caps categorical chart buckets (categories, questions,
// countries, languages).
const DefaultTopN = 10

// Service computes dashboard metrics and chart aggregates over a date
// range. Every call re-derives its results from raw session rows; there
// is no cached aggregation state to invalidate.
type Service struct {
	db     *sqlx.DB
	topN   int
	logger zerolog.Logger
}

// NewService creates an aggregation service over the engine's read handle
func NewService(db *sqlx.DB, topN int, logger zerolog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required for analytics service")
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{db: db, topN: topN, logger: logger}, nil
}

// rangeBounds converts an inclusive calendar-day range into half-open
// RFC 3339 bounds usable in a start_time BETWEEN filter.
func rangeBounds(from, to time.Time) (string, string) {
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	hi := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return lo.Format(time.RFC3339), hi.Format(time.RFC3339)
}

// DaysInRange counts the calendar days of an inclusive date range
func DaysInRange(from, to time.Time) int {
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	hi := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if hi.Before(lo) {
		return 0
	}
	return int(hi.Sub(lo).Hours()/24) + 1
}

// Metrics computes the scalar KPIs for the given inclusive date range.
// An empty range yields all-zero values, never an error.
func (s *Service) Metrics(ctx context.Context, from, to time.Time) (models.Metrics, error) {
	lo, hi := rangeBounds(from, to)

	var row struct {
		Total       int             `db:"total"`
		UniqueUsers int             `db:"unique_users"`
		AvgDuration sql.NullFloat64 `db:"avg_duration"`
		AvgResponse sql.NullFloat64 `db:"avg_response"`
		Unresolved  int             `db:"unresolved"`
		CostCents   int             `db:"cost_cents"`
	}
	summaryQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(DISTINCT ip_hash) AS unique_users,
			AVG(conversation_duration_seconds) AS avg_duration,
			AVG(avg_response_time) AS avg_response,
			COALESCE(SUM(CASE WHEN escalated = 1 OR forwarded_hr = 1 THEN 1 ELSE 0 END), 0) AS unresolved,
			COALESCE(SUM(cost_eur_cents), 0) AS cost_cents
		FROM sessions
		WHERE start_time >= ? AND start_time < ?`
	if err := s.db.GetContext(ctx, &row, summaryQuery, lo, hi); err != nil {
		return models.Metrics{}, fmt.Errorf("failed to compute summary metrics: %w", err)
	}

	m := models.Metrics{
		TotalConversations: row.Total,
		UniqueUsers:        row.UniqueUsers,
		AvgConversationMin: row.AvgDuration.Float64 / 60,
		AvgResponseSec:     row.AvgResponse.Float64,
	}

	if row.Total > 0 {
		m.ResolvedPercent = 100 - float64(row.Unresolved)/float64(row.Total)*100
	}
	if days := DaysInRange(from, to); days > 0 {
		m.AvgDailyCostEUR = float64(row.CostCents) / 100 / float64(days)
	}

	peak, err := s.peakUsageHour(ctx, lo, hi)
	if err != nil {
		return models.Metrics{}, err
	}
	m.PeakUsageHour = peak

	rating, err := s.averageRating(ctx, lo, hi)
	if err != nil {
		return models.Metrics{}, err
	}
	m.AvgRating = rating

	return m, nil
}

// peakUsageHour returns the hour of day with the most sessions, ties
// broken by the lowest hour number. Zero when the range is empty.
func (s *Service) peakUsageHour(ctx context.Context, lo, hi string) (int, error) {
	var hour int
	query := `
		SELECT CAST(strftime('%H', start_time) AS INTEGER) AS hour
		FROM sessions
		WHERE start_time >= ? AND start_time < ?
		GROUP BY hour
		ORDER BY COUNT(*) DESC, hour ASC
		LIMIT 1`
	err := s.db.GetContext(ctx, &hour, query, lo, hi)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute peak usage hour: %w", err)
	}
	return hour, nil
}

// averageRating returns the mean of non-null ratings, or nil when no
// session in range was rated. Nil is deliberate: an absent rating must
// never read as a rating of zero.
func (s *Service) averageRating(ctx context.Context, lo, hi string) (*float64, error) {
	var row struct {
		Avg   sql.NullFloat64 `db:"avg_rating"`
		Rated int             `db:"rated"`
	}
	query := `
		SELECT AVG(user_rating) AS avg_rating, COUNT(user_rating) AS rated
		FROM sessions
		WHERE start_time >= ? AND start_time < ? AND user_rating IS NOT NULL`
	if err := s.db.GetContext(ctx, &row, query, lo, hi); err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	if row.Rated == 0 || !row.Avg.Valid {
		return nil, nil
	}
	avg := row.Avg.Float64
	return &avg, nil
}

// ChartData computes every chart aggregate for the given inclusive date
// range. A failing query degrades its chart to an empty value and is
// reported in the joined error; the rest of the battery still runs.
func (s *Service) ChartData(ctx context.Context, from, to time.Time) (models.ChartData, error) {
	lo, hi := rangeBounds(from, to)
	cd := models.ChartData{}
	var errs []error

	fail := func(chart string, err error) {
		s.logger.Error().Err(err).Str("chart", chart).Msg("Chart query failed")
		errs = append(errs, fmt.Errorf("%s: %w", chart, err))
	}

	if v, err := s.labelCounts(ctx, `
		SELECT sentiment AS label, COUNT(*) AS value
		FROM sessions WHERE start_time >= ? AND start_time < ?
		GROUP BY sentiment ORDER BY value DESC`, lo, hi); err != nil {
		fail("sentiment", err)
	} else {
		cd.Sentiment = v
	}

	if v, err := s.resolutionCounts(ctx, lo, hi); err != nil {
		fail("resolution", err)
	} else {
		cd.Resolution = v
	}

	if v, err := s.labelCounts(ctx, `
		SELECT COALESCE(NULLIF(category, ''), '`+LabelUncategorized+`') AS label, COUNT(*) AS value
		FROM sessions WHERE start_time >= ? AND start_time < ?
		GROUP BY label ORDER BY value DESC`, lo, hi); err != nil {
		fail("categories", err)
	} else {
		cd.Categories = bucketTopN(v, s.topN, LabelUncategorized)
	}

	if v, err := s.labelCounts(ctx, `
		SELECT q.question AS label, COUNT(*) AS value
		FROM questions q
		JOIN sessions s ON s.session_id = q.session_id
		WHERE s.start_time >= ? AND s.start_time < ?
		GROUP BY q.question ORDER BY value DESC, label ASC
		LIMIT `+fmt.Sprint(s.topN), lo, hi); err != nil {
		fail("top_questions", err)
	} else {
		cd.TopQuestions = v
	}

	s.dailySeries(ctx, &cd, from, to, lo, hi, fail)

	caser := cases.Title(language.English)
	if v, err := s.labelCounts(ctx, `
		SELECT country AS label, COUNT(*) AS value
		FROM sessions WHERE start_time >= ? AND start_time < ?
		GROUP BY country ORDER BY value DESC`, lo, hi); err != nil {
		fail("countries", err)
	} else {
		cd.Countries = bucketTopN(titleLabels(caser, v), s.topN, LabelOther)
	}

	if v, err := s.labelCounts(ctx, `
		SELECT language AS label, COUNT(*) AS value
		FROM sessions WHERE start_time >= ? AND start_time < ?
		GROUP BY language ORDER BY value DESC`, lo, hi); err != nil {
		fail("languages", err)
	} else {
		cd.Languages = bucketTopN(titleLabels(caser, v), s.topN, LabelOther)
	}

	if v, err := s.heatmap(ctx, lo, hi); err != nil {
		fail("heatmap", err)
	} else {
		cd.Heatmap = v
	}

	if v, err := s.floatColumn(ctx, `
		SELECT conversation_duration_seconds FROM sessions
		WHERE start_time >= ? AND start_time < ? ORDER BY start_time`, lo, hi); err != nil {
		fail("duration_seconds", err)
	} else {
		cd.DurationSeconds = v
	}

	if v, err := s.floatColumn(ctx, `
		SELECT CAST(total_messages AS REAL) FROM sessions
		WHERE start_time >= ? AND start_time < ? ORDER BY start_time`, lo, hi); err != nil {
		fail("messages_per_session", err)
	} else {
		cd.MessagesPerSession = v
	}

	if v, err := s.ratingDistribution(ctx, lo, hi); err != nil {
		fail("ratings", err)
	} else {
		cd.Ratings = v
	}

	if v, err := s.sentimentOverTime(ctx, from, to, lo, hi); err != nil {
		fail("sentiment_over_time", err)
	} else {
		cd.SentimentOverTime = v
	}

	return cd, errors.Join(errs...)
}

func (s *Service) labelCounts(ctx context.Context, query, lo, hi string) ([]models.LabelValue, error) {
	var rows []models.LabelValue
	if err := s.db.SelectContext(ctx, &rows, query, lo, hi); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.LabelValue{}
	}
	return rows, nil
}

func (s *Service) resolutionCounts(ctx context.Context, lo, hi string) ([]models.LabelValue, error) {
	var row struct {
		Resolved  float64 `db:"resolved"`
		Escalated float64 `db:"escalated"`
		Forwarded float64 `db:"forwarded"`
	}
	// forwarded_hr wins when a session is both escalated and forwarded
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN escalated = 0 AND forwarded_hr = 0 THEN 1 ELSE 0 END), 0) AS resolved,
			COALESCE(SUM(CASE WHEN escalated = 1 AND forwarded_hr = 0 THEN 1 ELSE 0 END), 0) AS escalated,
			COALESCE(SUM(CASE WHEN forwarded_hr = 1 THEN 1 ELSE 0 END), 0) AS forwarded
		FROM sessions
		WHERE start_time >= ? AND start_time < ?`
	if err := s.db.GetContext(ctx, &row, query, lo, hi); err != nil {
		return nil, err
	}
	return []models.LabelValue{
		{Label: LabelResolved, Value: row.Resolved},
		{Label: LabelEscalated, Value: row.Escalated},
		{Label: LabelForwardedHR, Value: row.Forwarded},
	}, nil
}

type dayRow struct {
	Day   string  `db:"day"`
	Value float64 `db:"value"`
}

func (s *Service) dailySeries(ctx context.Context, cd *models.ChartData, from, to time.Time, lo, hi string, fail func(string, error)) {
	series := []struct {
		chart string
		query string
		dest  *[]models.DayPoint
	}{
		{"daily_conversations", `SELECT date(start_time) AS day, COUNT(*) AS value`, &cd.DailyConversations},
		{"daily_avg_response", `SELECT date(start_time) AS day, AVG(avg_response_time) AS value`, &cd.DailyAvgResponse},
		{"daily_cost_eur", `SELECT date(start_time) AS day, SUM(cost_eur_cents) / 100.0 AS value`, &cd.DailyCostEUR},
		{"daily_messages", `SELECT date(start_time) AS day, SUM(total_messages) AS value`, &cd.DailyMessages},
	}

	suffix := ` FROM sessions WHERE start_time >= ? AND start_time < ? GROUP BY day`
	for _, sp := range series {
		var rows []dayRow
		if err := s.db.SelectContext(ctx, &rows, sp.query+suffix, lo, hi); err != nil {
			fail(sp.chart, err)
			continue
		}
		byDay := make(map[string]float64, len(rows))
		for _, r := range rows {
			byDay[r.Day] = r.Value
		}
		*sp.dest = zeroFilledDays(from, to, byDay)
	}
}

// zeroFilledDays emits one point per calendar day in range, zero for
// days with no sessions.
func zeroFilledDays(from, to time.Time, byDay map[string]float64) []models.DayPoint {
	days := DaysInRange(from, to)
	points := make([]models.DayPoint, 0, days)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		key := day.Format("2006-01-02")
		points = append(points, models.DayPoint{Date: key, Value: byDay[key]})
		day = day.AddDate(0, 0, 1)
	}
	return points
}

// heatmap returns a zero-filled 7x24 grid of session counts, weekday
// (Sunday first) by hour of day.
func (s *Service) heatmap(ctx context.Context, lo, hi string) ([][]int, error) {
	grid := make([][]int, 7)
	for i := range grid {
		grid[i] = make([]int, 24)
	}

	var rows []struct {
		Weekday int `db:"weekday"`
		Hour    int `db:"hour"`
		Count   int `db:"count"`
	}
	query := `
		SELECT
			CAST(strftime('%w', start_time) AS INTEGER) AS weekday,
			CAST(strftime('%H', start_time) AS INTEGER) AS hour,
			COUNT(*) AS count
		FROM sessions
		WHERE start_time >= ? AND start_time < ?
		GROUP BY weekday, hour`
	if err := s.db.SelectContext(ctx, &rows, query, lo, hi); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Weekday >= 0 && r.Weekday < 7 && r.Hour >= 0 && r.Hour < 24 {
			grid[r.Weekday][r.Hour] = r.Count
		}
	}
	return grid, nil
}

func (s *Service) floatColumn(ctx context.Context, query, lo, hi string) ([]float64, error) {
	var values []float64
	if err := s.db.SelectContext(ctx, &values, query, lo, hi); err != nil {
		return nil, err
	}
	if values == nil {
		values = []float64{}
	}
	return values, nil
}

// ratingDistribution returns counts for each rating 1-5, zero-filled
func (s *Service) ratingDistribution(ctx context.Context, lo, hi string) ([]models.LabelValue, error) {
	var rows []struct {
		Rating int     `db:"rating"`
		Count  float64 `db:"count"`
	}
	query := `
		SELECT CAST(ROUND(user_rating) AS INTEGER) AS rating, COUNT(*) AS count
		FROM sessions
		WHERE start_time >= ? AND start_time < ? AND user_rating IS NOT NULL
		GROUP BY rating`
	if err := s.db.SelectContext(ctx, &rows, query, lo, hi); err != nil {
		return nil, err
	}

	counts := make(map[int]float64, len(rows))
	for _, r := range rows {
		counts[r.Rating] += r.Count
	}
	dist := make([]models.LabelValue, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		dist = append(dist, models.LabelValue{Label: fmt.Sprint(rating), Value: counts[rating]})
	}
	return dist, nil
}

func (s *Service) sentimentOverTime(ctx context.Context, from, to time.Time, lo, hi string) ([]models.SentimentDay, error) {
	var rows []struct {
		Day      string `db:"day"`
		Positive int    `db:"positive"`
		Neutral  int    `db:"neutral"`
		Negative int    `db:"negative"`
	}
	query := `
		SELECT
			date(start_time) AS day,
			SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END) AS positive,
			SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END) AS neutral,
			SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END) AS negative
		FROM sessions
		WHERE start_time >= ? AND start_time < ?
		GROUP BY day`
	if err := s.db.SelectContext(ctx, &rows, query, lo, hi); err != nil {
		return nil, err
	}

	byDay := make(map[string]models.SentimentDay, len(rows))
	for _, r := range rows {
		byDay[r.Day] = models.SentimentDay{Date: r.Day, Positive: r.Positive, Neutral: r.Neutral, Negative: r.Negative}
	}

	days := DaysInRange(from, to)
	points := make([]models.SentimentDay, 0, days)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		key := day.Format("2006-01-02")
		if p, ok := byDay[key]; ok {
			points = append(points, p)
		} else {
			points = append(points, models.SentimentDay{Date: key})
		}
		day = day.AddDate(0, 0, 1)
	}
	return points, nil
}

// bucketTopN keeps the n highest-count labels and folds the remainder
// into the named overflow bucket.
func bucketTopN(values []models.LabelValue, n int, overflow string) []models.LabelValue {
	if len(values) <= n {
		return values
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Value > values[j].Value })

	kept := append([]models.LabelValue(nil), values[:n]...)
	var rest float64
	for _, v := range values[n:] {
		rest += v.Value
	}
	for i := range kept {
		if kept[i].Label == overflow {
			kept[i].Value += rest
			return kept
		}
	}
	return append(kept, models.LabelValue{Label: overflow, Value: rest})
}

func titleLabels(caser cases.Caser, values []models.LabelValue) []models.LabelValue {
	for i := range values {
		values[i].Label = caser.String(values[i].Label)
	}
	return values
}
