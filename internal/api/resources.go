package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Resources lists self-help resources. Anything but a JSON array yields an
// empty list.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "resources", method: http.MethodGet, path: "/resources", out: &raw}); err != nil {
		return nil, err
	}
	out := []Resource{}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []Resource{}, nil
	}
	return out, nil
}
