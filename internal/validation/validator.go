package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"livegraphs/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Violation is a single field-level validation failure
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found in an uploaded batch.
// A batch is accepted or rejected as a whole: one invalid record rejects
// the entire upload.
type ValidationError struct {
	Violations []Violation
}

// Error renders all violations as a multi-line message
func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, fmt.Sprintf("upload rejected: %d validation error(s)", len(e.Violations)))
	for _, v := range e.Violations {
		lines = append(lines, fmt.Sprintf("  %s: %s", v.Path, v.Message))
	}
	return strings.Join(lines, "\n")
}

// Validator validates uploaded session batches
type Validator struct {
	validate *validator.Validate
}

// New creates a batch validator with json-tag field reporting
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateBatch decodes a raw JSON payload into session records, validates
// every record and anonymizes user IPs in place. On any failure the whole
// batch is rejected with a *ValidationError listing every violation.
func (v *Validator) ValidateBatch(raw []byte) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, &ValidationError{Violations: []Violation{
			{Path: "$", Message: fmt.Sprintf("payload must be a JSON array of session objects: %v", err)},
		}}
	}
	if len(sessions) == 0 {
		return nil, &ValidationError{Violations: []Violation{
			{Path: "$", Message: "payload contains no session records"},
		}}
	}

	var violations []Violation
	for i := range sessions {
		violations = append(violations, v.validateSession(i, &sessions[i])...)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	// The original IP must never leave this function.
	for i := range sessions {
		sessions[i].User.IP = AnonymizeIP(sessions[i].User.IP)
	}

	return sessions, nil
}

func (v *Validator) validateSession(idx int, s *models.ChatSession) []Violation {
	prefix := fmt.Sprintf("[%d]", idx)
	var violations []Violation

	if err := v.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok {
			for _, fe := range fieldErrs {
				violations = append(violations, Violation{
					Path:    prefix + "." + trimNamespace(fe.Namespace()),
					Message: tagMessage(fe),
				})
			}
		} else {
			violations = append(violations, Violation{Path: prefix, Message: err.Error()})
		}
	}

	if s.SessionID != "" {
		if _, err := uuid.Parse(s.SessionID); err != nil {
			violations = append(violations, Violation{
				Path:    prefix + ".session_id",
				Message: "must be a UUID-formatted string",
			})
		}
	}

	start, startErr := ParseTimestamp(s.StartTime)
	if s.StartTime != "" && startErr != nil {
		violations = append(violations, Violation{
			Path:    prefix + ".start_time",
			Message: "must be an ISO-8601 datetime",
		})
	}
	end, endErr := ParseTimestamp(s.EndTime)
	if s.EndTime != "" && endErr != nil {
		violations = append(violations, Violation{
			Path:    prefix + ".end_time",
			Message: "must be an ISO-8601 datetime",
		})
	}
	if startErr == nil && endErr == nil && s.StartTime != "" && s.EndTime != "" && end.Before(start) {
		violations = append(violations, Violation{
			Path:    prefix + ".end_time",
			Message: "must not be before start_time",
		})
	}

	for j, entry := range s.Transcript {
		if entry.Timestamp == "" {
			continue // caught by the required tag
		}
		if _, err := ParseTimestamp(entry.Timestamp); err != nil {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("%s.transcript[%d].timestamp", prefix, j),
				Message: "must be an ISO-8601 datetime",
			})
		}
	}

	return violations
}

// ParseTimestamp parses an ISO-8601 datetime, with or without a zone offset
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

func trimNamespace(ns string) string {
	// Namespace starts with the struct type name ("ChatSession.user.ip")
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a well-formed URL"
	case "uuid":
		return "must be a UUID-formatted string"
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fieldErrs
	}
	return ok
}
