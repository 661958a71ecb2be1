package api

import (
	"context"
	"net/http"

	"github.com/mindcareplus/mindcare/client/pkg/logger"
)

// AnalyticsSummary returns the overview, or nil on any failure.
func (c *Client) AnalyticsSummary(ctx context.Context) *AnalyticsOverview {
	var out *AnalyticsOverview
	if err := c.do(ctx, call{endpoint: "analytics_overview", method: http.MethodGet, path: "/analytics/overview", out: &out}); err != nil {
		logger.Debugf("api: analytics overview unavailable: %v", err)
		return nil
	}
	return out
}
