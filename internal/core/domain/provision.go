package domain

import (
	"encoding/json"
	"time"
)

// ProvisionKind tags the recognized shapes of rights/options payloads.
// Provisions that resist a common shape stay opaque with their original
// structure preserved.
type ProvisionKind string

const (
	ProvisionNoticeBased ProvisionKind = "notice-based"
	ProvisionFixedDate   ProvisionKind = "fixed-date"
	ProvisionOpaque      ProvisionKind = "opaque"
)

// Provision is the tagged-union form of a rights/options term such as a
// termination option or renewal right. The citation lives on the enclosing
// ExtractedField regardless of shape.
type Provision struct {
	Kind       ProvisionKind   `json:"kind"`
	NoticeDays int             `json:"noticeDays,omitempty"`
	FeeAmount  float64         `json:"feeAmount,omitempty"`
	Date       string          `json:"date,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
}

type provisionProbe struct {
	Kind       string          `json:"kind"`
	NoticeDays *int            `json:"noticeDays"`
	FeeAmount  *float64        `json:"feeAmount"`
	Date       string          `json:"date"`
	Summary    string          `json:"summary"`
	Details    json.RawMessage `json:"details"`
}

// NormalizeProvision coerces a free-form provision payload into the tagged
// union. Objects carrying noticeDays become notice-based, objects carrying a
// valid ISO date become fixed-date, everything else is kept opaque with the
// original payload under details. Non-object payloads (a plain summary
// string) become opaque with the string as summary.
func NormalizeProvision(raw json.RawMessage) (Provision, error) {
	var summary string
	if err := json.Unmarshal(raw, &summary); err == nil {
		return Provision{Kind: ProvisionOpaque, Summary: summary}, nil
	}

	var probe provisionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Provision{}, err
	}

	switch {
	case probe.Kind != "" && probe.Kind != string(ProvisionOpaque):
		// Already tagged by the collaborator; trust the tag, keep fields.
		p := Provision{
			Kind:    ProvisionKind(probe.Kind),
			Date:    probe.Date,
			Summary: probe.Summary,
			Details: probe.Details,
		}
		if probe.NoticeDays != nil {
			p.NoticeDays = *probe.NoticeDays
		}
		if probe.FeeAmount != nil {
			p.FeeAmount = *probe.FeeAmount
		}
		return p, nil
	case probe.NoticeDays != nil:
		p := Provision{Kind: ProvisionNoticeBased, NoticeDays: *probe.NoticeDays, Summary: probe.Summary}
		if probe.FeeAmount != nil {
			p.FeeAmount = *probe.FeeAmount
		}
		return p, nil
	case probe.Date != "" && validISODate(probe.Date):
		return Provision{Kind: ProvisionFixedDate, Date: probe.Date, Summary: probe.Summary}, nil
	default:
		return Provision{Kind: ProvisionOpaque, Summary: probe.Summary, Details: raw}, nil
	}
}

const isoDateLayout = "2006-01-02"

func validISODate(s string) bool {
	_, err := time.Parse(isoDateLayout, s)
	return err == nil
}

// ParseISODate parses a YYYY-MM-DD date string as UTC midnight.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse(isoDateLayout, s)
}
