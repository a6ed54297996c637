package models

// Metrics holds the scalar dashboard KPIs for a date range
// @Description Scalar dashboard KPIs for a date range
type Metrics struct {
	TotalConversations int      `json:"total_conversations" example:"128"`          // Sessions started in range
	UniqueUsers        int      `json:"unique_users" example:"97"`                  // Distinct anonymized IPs
	AvgConversationMin float64  `json:"avg_conversation_minutes" example:"4.2"`     // Average session length in minutes
	AvgResponseSec     float64  `json:"avg_response_seconds" example:"2.1"`         // Average bot response time in seconds
	ResolvedPercent    float64  `json:"resolved_percent" example:"87.5"`            // Share of sessions neither escalated nor forwarded
	AvgDailyCostEUR    float64  `json:"avg_daily_cost_eur" example:"1.34"`          // Average cost per calendar day in euros
	PeakUsageHour      int      `json:"peak_usage_hour" example:"14"`               // Hour of day (0-23) with most sessions
	AvgRating          *float64 `json:"avg_rating,omitempty" example:"4.3"`         // Mean user rating; null when no session was rated
}

// LabelValue is one label/value pair of a categorical chart
type LabelValue struct {
	Label string  `json:"label" example:"positive"`
	Value float64 `json:"value" example:"42"`
}

// DayPoint is one calendar-day point of a time series
type DayPoint struct {
	Date  string  `json:"date" example:"2024-03-01"` // Calendar day (YYYY-MM-DD)
	Value float64 `json:"value" example:"17"`
}

// SentimentDay is one calendar-day point of the sentiment time series
type SentimentDay struct {
	Date     string `json:"date" example:"2024-03-01"`
	Positive int    `json:"positive" example:"9"`
	Neutral  int    `json:"neutral" example:"5"`
	Negative int    `json:"negative" example:"3"`
}

// ChartData holds every chart-ready aggregate for a date range.
// Daily series carry one point per calendar day in range, zero-filled.
// The heatmap is a 7x24 grid (weekday, Sunday first, by hour of day).
// @Description Chart-ready aggregates for a date range
type ChartData struct {
	Sentiment          []LabelValue   `json:"sentiment"`
	Resolution         []LabelValue   `json:"resolution"`
	Categories         []LabelValue   `json:"categories"`
	TopQuestions       []LabelValue   `json:"top_questions"`
	DailyConversations []DayPoint     `json:"daily_conversations"`
	DailyAvgResponse   []DayPoint     `json:"daily_avg_response"`
	DailyCostEUR       []DayPoint     `json:"daily_cost_eur"`
	DailyMessages      []DayPoint     `json:"daily_messages"`
	Countries          []LabelValue   `json:"countries"`
	Languages          []LabelValue   `json:"languages"`
	Heatmap            [][]int        `json:"heatmap"`
	DurationSeconds    []float64      `json:"duration_seconds"`
	MessagesPerSession []float64      `json:"messages_per_session"`
	Ratings            []LabelValue   `json:"ratings"`
	SentimentOverTime  []SentimentDay `json:"sentiment_over_time"`
}

// Insight severity types
const (
	InsightError   = "error"
	InsightWarning = "warning"
	InsightInfo    = "info"
)

// Insight impact levels
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Insight flags a statistically suspicious or low-confidence aggregate result
// @Description Data quality insight
type Insight struct {
	Type        string `json:"type" example:"warning"`                  // error, warning or info
	Title       string `json:"title" example:"Small Sample Size"`       // Short rule title
	Description string `json:"description"`                             // Human-readable explanation
	Impact      string `json:"impact" example:"medium"`                 // high, medium or low
}

// Dashboard bundles everything the presentation layer needs for one range
type Dashboard struct {
	Metrics      Metrics   `json:"metrics"`
	Charts       ChartData `json:"charts"`
	Insights     []Insight `json:"insights"`
	ShowInsights bool      `json:"show_insights"`
}
