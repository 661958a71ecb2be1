package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const (
	defaultCheckInLimit = 7
	defaultTrendDays    = 30
)

func (c *Client) CreateCheckIn(ctx context.Context, in NewCheckIn) (*CheckInCreated, error) {
	var out CheckInCreated
	if err := c.do(ctx, call{endpoint: "checkin_create", method: http.MethodPost, path: "/checkin", in: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentCheckIns lists the newest check-ins; limit <= 0 means 7.
func (c *Client) RecentCheckIns(ctx context.Context, limit int) ([]CheckIn, error) {
	if limit <= 0 {
		limit = defaultCheckInLimit
	}
	var out []CheckIn
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.do(ctx, call{endpoint: "checkins_list", method: http.MethodGet, path: "/checkins", query: q, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []CheckIn{}
	}
	return out, nil
}

// CheckInTrends returns per-day aggregates over the last days; days <= 0 means 30.
func (c *Client) CheckInTrends(ctx context.Context, days int) (*CheckInTrends, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	var out CheckInTrends
	q := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.do(ctx, call{endpoint: "checkins_trends", method: http.MethodGet, path: "/analytics/checkins", query: q, out: &out}); err != nil {
		return nil, err
	}
	if out.Buckets == nil {
		out.Buckets = []TrendBucket{}
	}
	if out.Moods == nil {
		out.Moods = map[string]int{}
	}
	return &out, nil
}
