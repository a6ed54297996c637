package analytics

import (
	"context"
	"strings"
	"time"

	"livegraphs/internal/models"
)

// Dashboard computes the full read-side payload for one date range:
// metrics, chart data and the quality insights derived from both.
// Metrics failures are fatal; chart failures degrade the affected chart
// and come back as warnings so the rest of the dashboard still renders.
func (s *Service) Dashboard(ctx context.Context, from, to time.Time, totalDatasetSessions int) (*models.Dashboard, []string, error) {
	metrics, err := s.Metrics(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	charts, chartErr := s.ChartData(ctx, from, to)
	var warnings []string
	if chartErr != nil {
		warnings = strings.Split(chartErr.Error(), "\n")
	}

	insights := EvaluateQuality(metrics, charts, metrics.TotalConversations, totalDatasetSessions, from, to)

	return &models.Dashboard{
		Metrics:      metrics,
		Charts:       charts,
		Insights:     insights,
		ShowInsights: ShouldDisplayInsights(insights, totalDatasetSessions),
	}, warnings, nil
}
