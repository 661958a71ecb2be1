package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const defaultSlotDays = 14

func (c *Client) Counselors(ctx context.Context) ([]Counselor, error) {
	var out []Counselor
	if err := c.do(ctx, call{endpoint: "counselors", method: http.MethodGet, path: "/counselors", out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Counselor{}
	}
	return out, nil
}

// Slots lists open slots of a counselor for the next days; days <= 0 means 14.
func (c *Client) Slots(ctx context.Context, counselorID int64, days int) ([]Slot, error) {
	if days <= 0 {
		days = defaultSlotDays
	}
	var out []Slot
	path := "/counselors/" + strconv.FormatInt(counselorID, 10) + "/slots"
	q := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.do(ctx, call{endpoint: "counselor_slots", method: http.MethodGet, path: path, query: q, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Slot{}
	}
	return out, nil
}

// BookSession books a slot. 402 (premium required) and 409 (slot taken)
// come back as *Error.
func (c *Client) BookSession(ctx context.Context, in BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, call{endpoint: "bookings_create", method: http.MethodPost, path: "/bookings", in: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyBookings(ctx context.Context) ([]Booking, error) {
	var out []Booking
	if err := c.do(ctx, call{endpoint: "bookings_mine", method: http.MethodGet, path: "/bookings/my", out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Booking{}
	}
	return out, nil
}
