package models

import (
	"encoding/json"
	"fmt"
)

// DefaultPlan is reported when a profile carries no plan.
const DefaultPlan = "free"

// Profile is the cached user record returned by /auth/* and /me.
// Fields other than id/email/plan are kept verbatim in Extra so a
// persisted profile round-trips whatever the API sent.
type Profile struct {
	ID    int64
	Email string
	Plan  string
	Extra map[string]json.RawMessage
}

// AuthResult is the payload of /auth/login and /auth/register.
type AuthResult struct {
	Token string   `json:"token"`
	User  *Profile `json:"user"`
}

// PlanOrDefault returns the plan tier, "free" when unset.
func (p *Profile) PlanOrDefault() string {
	if p == nil || p.Plan == "" {
		return DefaultPlan
	}
	return p.Plan
}

func (p Profile) MarshalJSON() ([]byte, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("profile: expected JSON object")
	}
	var out Profile
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("profile id: %w", err)
		}
		delete(fields, "id")
	}
	if raw, ok := fields["email"]; ok {
		if err := json.Unmarshal(raw, &out.Email); err != nil {
			return fmt.Errorf("profile email: %w", err)
		}
		delete(fields, "email")
	}
	if raw, ok := fields["plan"]; ok {
		// null plan is treated as unset
		var plan *string
		if err := json.Unmarshal(raw, &plan); err != nil {
			return fmt.Errorf("profile plan: %w", err)
		}
		if plan != nil {
			out.Plan = *plan
		}
		delete(fields, "plan")
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*p = out
	return nil
}

func (p Profile) fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(p.Extra)+3)
	for k, v := range p.Extra {
		fields[k] = v
	}
	id, err := json.Marshal(p.ID)
	if err != nil {
		return nil, err
	}
	email, err := json.Marshal(p.Email)
	if err != nil {
		return nil, err
	}
	fields["id"] = id
	fields["email"] = email
	if p.Plan != "" {
		plan, err := json.Marshal(p.Plan)
		if err != nil {
			return nil, err
		}
		fields["plan"] = plan
	}
	return fields, nil
}

// Merge overlays the JSON object patch on base: keys present in patch win,
// every other key of base is retained. A nil base merges onto an empty profile.
func Merge(base *Profile, patch json.RawMessage) (*Profile, error) {
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, fmt.Errorf("merge profile: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if base != nil {
		f, err := base.fields()
		if err != nil {
			return nil, err
		}
		fields = f
	}
	for k, v := range overlay {
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var merged Profile
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, fmt.Errorf("merge profile: %w", err)
	}
	return &merged, nil
}
