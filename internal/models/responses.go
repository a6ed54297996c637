package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2024-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Engine readiness
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Probe query latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// UploadResponse represents the result of a session log upload
// @Description Upload result payload
type UploadResponse struct {
	Success   bool   `json:"success" example:"true"`
	Submitted int    `json:"submitted" example:"100"`    // Sessions in the uploaded file
	Inserted  int    `json:"inserted" example:"97"`      // Sessions actually written
	Skipped   int    `json:"skipped" example:"3"`        // Duplicates skipped
	Error     string `json:"error,omitempty" example:""` // Aggregated validation errors if any
}

// DashboardResponse represents the aggregated dashboard payload for a range
// @Description Dashboard response payload
type DashboardResponse struct {
	Success   bool       `json:"success" example:"true"`
	From      string     `json:"from,omitempty" example:"2024-03-01"`
	To        string     `json:"to,omitempty" example:"2024-03-31"`
	Dashboard *Dashboard `json:"dashboard,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"` // Charts degraded by query failures
	Error     string     `json:"error,omitempty" example:""`
}

// DatasetStats describes the stored dataset as a whole
// @Description Stored dataset statistics
type DatasetStats struct {
	TotalSessions int    `json:"total_sessions" example:"1204"`
	MinStartTime  string `json:"min_start_time,omitempty" example:"2024-01-03T08:12:00Z"`
	MaxStartTime  string `json:"max_start_time,omitempty" example:"2024-03-31T19:40:00Z"`
}

// StatsResponse wraps DatasetStats for the API
// @Description Dataset statistics response payload
type StatsResponse struct {
	Success bool          `json:"success" example:"true"`
	Stats   *DatasetStats `json:"stats,omitempty"`
	Error   string        `json:"error,omitempty" example:""`
}

// ClearResponse represents the result of a clear-all-data request
// @Description Clear data response payload
type ClearResponse struct {
	Success bool   `json:"success" example:"true"`
	Error   string `json:"error,omitempty" example:""`
}
