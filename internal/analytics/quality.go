package analytics

import (
	"fmt"
	"time"

	"livegraphs/internal/models"
)

// Data-quality thresholds
const (
	verySmallSampleSize = 10
	smallSampleSize     = 50
	shortPeriodDays     = 3
	lowDailyActivity    = 2.0
	slowResponseSeconds = 10.0
	unrecognizedShare   = 25.0
	hrZeroFloor         = 50
	maxRatingFloor      = 20
	zeroRatingFloor     = 10
	alwaysDisplayBelow  = 30
)

// EvaluateQuality runs the fixed battery of data-quality rules over
// already-computed aggregates. Every matching rule emits one insight, in
// rule order; when nothing matches a single "Good Data Quality" info is
// returned. Pure function: it never touches the database.
func EvaluateQuality(m models.Metrics, cd models.ChartData, sessionsInRange, totalSessions int, from, to time.Time) []models.Insight {
	var insights []models.Insight

	// Sample size rules look at the whole dataset, not the filtered range.
	if totalSessions < verySmallSampleSize {
		insights = append(insights, models.Insight{
			Type:        models.InsightError,
			Title:       "Very Small Sample Size",
			Description: fmt.Sprintf("The dataset holds only %d sessions; aggregate metrics are not statistically meaningful below %d.", totalSessions, verySmallSampleSize),
			Impact:      models.ImpactHigh,
		})
	} else if totalSessions < smallSampleSize {
		insights = append(insights, models.Insight{
			Type:        models.InsightWarning,
			Title:       "Small Sample Size",
			Description: fmt.Sprintf("The dataset holds %d sessions; trends below %d sessions are easily skewed by outliers.", totalSessions, smallSampleSize),
			Impact:      models.ImpactMedium,
		})
	}

	days := DaysInRange(from, to)
	if days < shortPeriodDays {
		insights = append(insights, models.Insight{
			Type:        models.InsightInfo,
			Title:       "Short Time Period",
			Description: fmt.Sprintf("The selected range spans %d day(s); daily patterns need at least %d days to show.", days, shortPeriodDays),
			Impact:      models.ImpactLow,
		})
	}

	if days > 0 {
		perDay := float64(sessionsInRange) / float64(days)
		if perDay < lowDailyActivity {
			insights = append(insights, models.Insight{
				Type:        models.InsightWarning,
				Title:       "Low Activity Volume",
				Description: fmt.Sprintf("Only %.1f sessions per day on average; daily aggregates will be noisy.", perDay),
				Impact:      models.ImpactMedium,
			})
		}
	}

	if m.AvgResponseSec > slowResponseSeconds {
		insights = append(insights, models.Insight{
			Type:        models.InsightWarning,
			Title:       "Slow Response Times",
			Description: fmt.Sprintf("Average response time is %.1fs, above the %.0fs threshold.", m.AvgResponseSec, slowResponseSeconds),
			Impact:      models.ImpactMedium,
		})
	}

	if sessionsInRange > 0 {
		escalationRate := 100 - m.ResolvedPercent
		switch {
		case escalationRate == 0:
			insights = append(insights, models.Insight{
				Type:        models.InsightWarning,
				Title:       "No Escalations Recorded",
				Description: "A 0% escalation rate across all sessions may indicate escalation tracking is broken.",
				Impact:      models.ImpactMedium,
			})
		case escalationRate == 100:
			insights = append(insights, models.Insight{
				Type:        models.InsightWarning,
				Title:       "All Conversations Escalated",
				Description: "Every session in range was escalated or forwarded; resolution tracking is likely misconfigured.",
				Impact:      models.ImpactHigh,
			})
		}
	}

	if share, ok := uncategorizedShare(cd.Categories); ok && share > unrecognizedShare {
		insights = append(insights, models.Insight{
			Type:        models.InsightWarning,
			Title:       "High Share of Unrecognized Categories",
			Description: fmt.Sprintf("%.1f%% of sessions fall into %q; category labeling is incomplete.", share, LabelUncategorized),
			Impact:      models.ImpactMedium,
		})
	}

	forwarded := labelValue(cd.Resolution, LabelForwardedHR)
	if sessionsInRange > 0 && int(forwarded) == sessionsInRange {
		insights = append(insights, models.Insight{
			Type:        models.InsightWarning,
			Title:       "All Conversations Forwarded to HR",
			Description: "Every session in range was forwarded to HR; the forwarding flag is likely stuck.",
			Impact:      models.ImpactHigh,
		})
	} else if forwarded == 0 && sessionsInRange > hrZeroFloor {
		insights = append(insights, models.Insight{
			Type:        models.InsightInfo,
			Title:       "No HR Forwards",
			Description: fmt.Sprintf("No session out of %d was forwarded to HR; verify the flag is being set at the source.", sessionsInRange),
			Impact:      models.ImpactLow,
		})
	}

	if m.AvgRating != nil {
		switch {
		case *m.AvgRating == 5.0 && sessionsInRange > maxRatingFloor:
			insights = append(insights, models.Insight{
				Type:        models.InsightInfo,
				Title:       "Uniform Maximum Ratings",
				Description: "Every rated session scored exactly 5.0; a stuck rating widget produces the same pattern.",
				Impact:      models.ImpactLow,
			})
		case *m.AvgRating == 0 && sessionsInRange > zeroRatingFloor:
			insights = append(insights, models.Insight{
				Type:        models.InsightWarning,
				Title:       "All Ratings Are Zero",
				Description: "Every rated session scored 0; this is an instrumentation defect signal.",
				Impact:      models.ImpactMedium,
			})
		}
	}

	if len(insights) == 0 {
		insights = append(insights, models.Insight{
			Type:        models.InsightInfo,
			Title:       "Good Data Quality",
			Description: "No statistical anomalies detected in the selected range.",
			Impact:      models.ImpactLow,
		})
	}

	return insights
}

// ShouldDisplayInsights reproduces the presentation policy: the block is
// shown only when something demands attention or the dataset is small
// enough that every reading needs a caveat.
func ShouldDisplayInsights(insights []models.Insight, totalSessions int) bool {
	if totalSessions < alwaysDisplayBelow {
		return true
	}
	for _, in := range insights {
		if in.Type == models.InsightError {
			return true
		}
		if in.Type == models.InsightWarning && in.Impact == models.ImpactHigh {
			return true
		}
	}
	return false
}

// uncategorizedShare computes the "Unrecognized / Other" share of all
// categorized sessions, in percent
func uncategorizedShare(categories []models.LabelValue) (float64, bool) {
	var total, unrecognized float64
	for _, c := range categories {
		total += c.Value
		if c.Label == LabelUncategorized {
			unrecognized = c.Value
		}
	}
	if total == 0 {
		return 0, false
	}
	return unrecognized / total * 100, true
}

func labelValue(values []models.LabelValue, label string) float64 {
	for _, v := range values {
		if v.Label == label {
			return v.Value
		}
	}
	return 0
}
