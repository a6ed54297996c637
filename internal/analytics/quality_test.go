package analytics

import (
	"testing"
	"time"

	"livegraphs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightTitles(insights []models.Insight) []string {
	titles := make([]string, 0, len(insights))
	for _, in := range insights {
		titles = append(titles, in.Title)
	}
	return titles
}

func findInsight(t *testing.T, insights []models.Insight, title string) models.Insight {
	t.Helper()
	for _, in := range insights {
		if in.Title == title {
			return in
		}
	}
	t.Fatalf("insight %q not found in %v", title, insightTitles(insights))
	return models.Insight{}
}

// healthyInputs returns aggregates that trip none of the quality rules.
func healthyInputs() (models.Metrics, models.ChartData, int, int, time.Time, time.Time) {
	m := models.Metrics{
		TotalConversations: 100,
		AvgResponseSec:     3.0,
		ResolvedPercent:    80,
	}
	cd := models.ChartData{
		Categories: []models.LabelValue{
			{Label: "Contract", Value: 80},
			{Label: LabelUncategorized, Value: 20},
		},
		Resolution: []models.LabelValue{
			{Label: LabelResolved, Value: 80},
			{Label: LabelEscalated, Value: 15},
			{Label: LabelForwardedHR, Value: 5},
		},
	}
	return m, cd, 100, 100, date("2024-03-01"), date("2024-03-14")
}

func TestEvaluateQuality_Healthy(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()

	insights := EvaluateQuality(m, cd, inRange, total, from, to)

	require.Len(t, insights, 1)
	assert.Equal(t, "Good Data Quality", insights[0].Title)
	assert.Equal(t, models.InsightInfo, insights[0].Type)
}

func TestEvaluateQuality_SampleSize(t *testing.T) {
	m, cd, inRange, _, from, to := healthyInputs()

	insights := EvaluateQuality(m, cd, inRange, 5, from, to)
	in := findInsight(t, insights, "Very Small Sample Size")
	assert.Equal(t, models.InsightError, in.Type)
	assert.Equal(t, models.ImpactHigh, in.Impact)

	insights = EvaluateQuality(m, cd, inRange, 30, from, to)
	in = findInsight(t, insights, "Small Sample Size")
	assert.Equal(t, models.InsightWarning, in.Type)
	assert.NotContains(t, insightTitles(insights), "Very Small Sample Size")
}

func TestEvaluateQuality_ShortPeriod(t *testing.T) {
	m, cd, _, total, _, _ := healthyInputs()

	insights := EvaluateQuality(m, cd, 10, total, date("2024-03-01"), date("2024-03-02"))
	in := findInsight(t, insights, "Short Time Period")
	assert.Equal(t, models.InsightInfo, in.Type)
}

func TestEvaluateQuality_LowActivity(t *testing.T) {
	m, cd, _, total, from, to := healthyInputs()

	// 14 days, 10 sessions: under two per day.
	insights := EvaluateQuality(m, cd, 10, total, from, to)
	in := findInsight(t, insights, "Low Activity Volume")
	assert.Equal(t, models.InsightWarning, in.Type)
}

func TestEvaluateQuality_SlowResponses(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()
	m.AvgResponseSec = 12.5

	insights := EvaluateQuality(m, cd, inRange, total, from, to)
	in := findInsight(t, insights, "Slow Response Times")
	assert.Contains(t, in.Description, "12.5s")
}

func TestEvaluateQuality_EscalationExtremes(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()

	m.ResolvedPercent = 100
	insights := EvaluateQuality(m, cd, inRange, total, from, to)
	findInsight(t, insights, "No Escalations Recorded")

	m.ResolvedPercent = 0
	insights = EvaluateQuality(m, cd, inRange, total, from, to)
	in := findInsight(t, insights, "All Conversations Escalated")
	assert.Equal(t, models.ImpactHigh, in.Impact)
}

func TestEvaluateQuality_UnrecognizedCategories(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()
	cd.Categories = []models.LabelValue{
		{Label: LabelUncategorized, Value: 40},
		{Label: "Contract", Value: 60},
	}

	insights := EvaluateQuality(m, cd, inRange, total, from, to)
	in := findInsight(t, insights, "High Share of Unrecognized Categories")
	assert.Contains(t, in.Description, "40.0%")
}

func TestEvaluateQuality_HRForwarding(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()

	cd.Resolution = []models.LabelValue{
		{Label: LabelResolved, Value: 0},
		{Label: LabelEscalated, Value: 0},
		{Label: LabelForwardedHR, Value: float64(inRange)},
	}
	m.ResolvedPercent = 50 // keep the escalation rules quiet
	insights := EvaluateQuality(m, cd, inRange, total, from, to)
	in := findInsight(t, insights, "All Conversations Forwarded to HR")
	assert.Equal(t, models.ImpactHigh, in.Impact)

	cd.Resolution = []models.LabelValue{
		{Label: LabelResolved, Value: float64(inRange)},
		{Label: LabelEscalated, Value: 0},
		{Label: LabelForwardedHR, Value: 0},
	}
	insights = EvaluateQuality(m, cd, inRange, total, from, to)
	in = findInsight(t, insights, "No HR Forwards")
	assert.Equal(t, models.InsightInfo, in.Type)
}

func TestEvaluateQuality_RatingAnomalies(t *testing.T) {
	m, cd, inRange, total, from, to := healthyInputs()

	five := 5.0
	m.AvgRating = &five
	insights := EvaluateQuality(m, cd, inRange, total, from, to)
	findInsight(t, insights, "Uniform Maximum Ratings")

	zero := 0.0
	m.AvgRating = &zero
	insights = EvaluateQuality(m, cd, inRange, total, from, to)
	in := findInsight(t, insights, "All Ratings Are Zero")
	assert.Equal(t, models.InsightWarning, in.Type)

	m.AvgRating = nil
	insights = EvaluateQuality(m, cd, inRange, total, from, to)
	assert.NotContains(t, insightTitles(insights), "Uniform Maximum Ratings")
	assert.NotContains(t, insightTitles(insights), "All Ratings Are Zero")
}

func TestShouldDisplayInsights(t *testing.T) {
	info := []models.Insight{{Type: models.InsightInfo, Impact: models.ImpactLow}}
	warnMedium := []models.Insight{{Type: models.InsightWarning, Impact: models.ImpactMedium}}
	warnHigh := []models.Insight{{Type: models.InsightWarning, Impact: models.ImpactHigh}}
	errInsight := []models.Insight{{Type: models.InsightError, Impact: models.ImpactHigh}}

	tests := []struct {
		name     string
		insights []models.Insight
		total    int
		want     bool
	}{
		{"small dataset always shows", info, 20, true},
		{"info only stays hidden", info, 100, false},
		{"medium warning stays hidden", warnMedium, 100, false},
		{"high-impact warning shows", warnHigh, 100, true},
		{"error shows", errInsight, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldDisplayInsights(tt.insights, tt.total))
		})
	}
}
