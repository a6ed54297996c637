package models

// Sentiment values accepted on upload
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Transcript roles accepted on upload
const (
	RoleUser      = "User"
	RoleAssistant = "Assistant"
)

// TranscriptEntry represents a single turn in a conversation transcript
// @Description Single transcript turn
type TranscriptEntry struct {
	Timestamp string `json:"timestamp" validate:"required" example:"2024-03-01T10:00:05Z"` // ISO-8601 timestamp
	Role      string `json:"role" validate:"required,oneof=User Assistant" example:"User"` // User or Assistant
	Content   string `json:"content" example:"Hi, I have a question about my contract"`    // Message text
}

// ResponseTime holds response time statistics for a session
type ResponseTime struct {
	Avg float64 `json:"avg" validate:"gte=0" example:"2.4"` // Average response time in seconds
}

// MessageAmount holds message counts for a session
type MessageAmount struct {
	User  int `json:"user" validate:"gte=0" example:"4"`  // Messages sent by the user
	Total int `json:"total" validate:"gte=0" example:"9"` // All messages in the session
}

// CostEUR holds the session cost in euros
type CostEUR struct {
	Cent int     `json:"cent" validate:"gte=0" example:"12"`  // Cost in euro cents (minor units)
	Full float64 `json:"full" validate:"gte=0" example:"0.12"` // Cost in euros
}

// Cost wraps per-currency cost figures
type Cost struct {
	EUR CostEUR `json:"eur"`
}

// MessageStats holds the aggregate message figures reported per session
type MessageStats struct {
	ResponseTime ResponseTime  `json:"response_time"`
	Amount       MessageAmount `json:"amount"`
	Tokens       int           `json:"tokens" validate:"gte=0" example:"1450"`                           // Total tokens consumed
	Cost         Cost          `json:"cost"`
	SourceURL    string        `json:"source_url" validate:"required,url" example:"https://example.com"` // Page the chat widget ran on
}

// UserContext holds the uploader-provided user context for a session.
// The IP is anonymized during validation and never persisted in full.
type UserContext struct {
	IP       string `json:"ip" validate:"required" example:"203.0.XXX.XXX"`  // Anonymized IP
	Country  string `json:"country" validate:"required" example:"Germany"`   // User country
	Language string `json:"language" validate:"required" example:"German"`   // Conversation language
}

// ChatSession is the upload contract: one chatbot conversation record
// @Description Uploaded chatbot conversation record
type ChatSession struct {
	SessionID   string            `json:"session_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartTime   string            `json:"start_time" validate:"required" example:"2024-03-01T10:00:00Z"`
	EndTime     string            `json:"end_time" validate:"required" example:"2024-03-01T10:06:30Z"`
	Transcript  []TranscriptEntry `json:"transcript" validate:"dive"`
	Messages    MessageStats      `json:"messages"`
	User        UserContext       `json:"user"`
	Sentiment   string            `json:"sentiment" validate:"required,oneof=positive neutral negative" example:"positive"`
	Escalated   bool              `json:"escalated" example:"false"`
	ForwardedHR bool              `json:"forwarded_hr" example:"false"`
	Category    string            `json:"category" example:"Contract"`
	Questions   []string          `json:"questions"`
	Summary     string            `json:"summary" example:"User asked about contract renewal"`
	UserRating  *float64          `json:"user_rating,omitempty" validate:"omitempty,gte=1,lte=5" example:"4"`
}

// SessionRow is a sessions table row with the numerics derived at ingest time
type SessionRow struct {
	SessionID       string   `db:"session_id" json:"session_id"`
	StartTime       string   `db:"start_time" json:"start_time"`
	EndTime         string   `db:"end_time" json:"end_time"`
	IPHash          string   `db:"ip_hash" json:"ip_hash"`
	Country         string   `db:"country" json:"country"`
	Language        string   `db:"language" json:"language"`
	Sentiment       string   `db:"sentiment" json:"sentiment"`
	Escalated       bool     `db:"escalated" json:"escalated"`
	ForwardedHR     bool     `db:"forwarded_hr" json:"forwarded_hr"`
	Category        *string  `db:"category" json:"category,omitempty"`
	DurationSeconds float64  `db:"conversation_duration_seconds" json:"conversation_duration_seconds"`
	TotalMessages   int      `db:"total_messages" json:"total_messages"`
	UserMessages    int      `db:"user_messages" json:"user_messages"`
	AvgResponseTime float64  `db:"avg_response_time" json:"avg_response_time"`
	TotalTokens     int      `db:"total_tokens" json:"total_tokens"`
	CostEURCents    int      `db:"cost_eur_cents" json:"cost_eur_cents"`
	SourceURL       string   `db:"source_url" json:"source_url"`
	Summary         string   `db:"summary" json:"summary"`
	UserRating      *float64 `db:"user_rating" json:"user_rating,omitempty"`
}
