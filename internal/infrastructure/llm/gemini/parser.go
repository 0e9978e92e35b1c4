package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

// Wire shapes for the model's JSON response. Everything is decoded
// defensively: an unparseable or ill-typed payload is an extraction parse
// failure, never a partial result.

type wireField struct {
	Value    json.RawMessage `json:"value"`
	Citation *wireCitation   `json:"citation"`
	Notes    string          `json:"notes"`
}

type wireRentPeriod struct {
	PeriodStart string        `json:"periodStart"`
	PeriodEnd   string        `json:"periodEnd"`
	MonthlyRent float64       `json:"monthlyRent"`
	AnnualRent  float64       `json:"annualRent"`
	RentPerSqFt float64       `json:"rentPerSqFt"`
	Notes       string        `json:"notes"`
	Citation    *wireCitation `json:"citation"`
}

type wireAmendment struct {
	Field             string          `json:"field"`
	OriginalValue     json.RawMessage `json:"originalValue"`
	NewValue          json.RawMessage `json:"newValue"`
	AmendmentDocument string          `json:"amendmentDocument"`
	EffectiveDate     string          `json:"effectiveDate"`
	Citation          *wireCitation   `json:"citation"`
}

// wireCitation decodes the page loosely: the prompt asks for string pages
// but models frequently emit numbers, and a numeric page should not fail
// the whole document.
type wireCitation struct {
	Document  string          `json:"document"`
	Section   string          `json:"section"`
	Page      json.RawMessage `json:"page"`
	Paragraph string          `json:"paragraph"`
}

func (c *wireCitation) toDomain() (*domain.Citation, error) {
	if c == nil {
		return nil, nil
	}
	page, err := coercePage(c.Page)
	if err != nil {
		return nil, err
	}
	return &domain.Citation{
		Document:  c.Document,
		Section:   c.Section,
		Page:      page,
		Paragraph: c.Paragraph,
	}, nil
}

func coercePage(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("citation page %s is neither a string nor a number", raw)
}

const (
	keyRentSchedule     = "rentSchedule"
	keyAmendmentHistory = "amendmentHistory"
	keyEffectiveDate    = "effectiveDate"
)

// parseExtractionResponse turns the model's text into validated domain data.
// Models occasionally wrap JSON in a markdown fence despite instructions, so
// the fence is stripped before decoding.
func parseExtractionResponse(text string) (*domain.ExtractedLeaseData, error) {
	text = stripCodeFence(text)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionParse, "decode extraction payload", err)
	}

	data := &domain.ExtractedLeaseData{
		Fields: make(map[domain.TermName]domain.ExtractedField),
	}

	for key, raw := range envelope {
		switch key {
		case keyRentSchedule:
			schedule, err := parseRentSchedule(raw)
			if err != nil {
				return nil, err
			}
			data.RentSchedule = schedule
		case keyAmendmentHistory:
			history, err := parseAmendmentHistory(raw)
			if err != nil {
				return nil, err
			}
			data.ReportedAmendments = history
		case keyEffectiveDate:
			effective, err := parseOptionalDate(raw, keyEffectiveDate)
			if err != nil {
				return nil, err
			}
			data.EffectiveDate = effective
		default:
			name := domain.TermName(key)
			if !domain.KnownTerm(name) {
				// Extra keys are dropped, not fatal.
				continue
			}
			field, ok, err := parseTermField(name, raw)
			if err != nil {
				return nil, err
			}
			if ok {
				data.Fields[name] = field
			}
		}
	}
	return data, nil
}

func parseTermField(name domain.TermName, raw json.RawMessage) (domain.ExtractedField, bool, error) {
	var wire wireField
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.ExtractedField{}, false,
			domain.WrapError(domain.ErrExtractionParse, fmt.Sprintf("decode term %q", name), err)
	}

	value, err := coerceTermValue(name, wire.Value)
	if err != nil {
		return domain.ExtractedField{}, false, err
	}
	if value.IsAbsent() {
		return domain.ExtractedField{}, false, nil
	}
	citation, err := wire.Citation.toDomain()
	if err != nil {
		return domain.ExtractedField{}, false,
			domain.WrapError(domain.ErrExtractionParse, fmt.Sprintf("term %q citation", name), err)
	}
	return domain.ExtractedField{Value: value, Citation: citation, Notes: wire.Notes}, true, nil
}

// coerceTermValue validates the raw value against the term's declared kind
// and returns its canonical form.
func coerceTermValue(name domain.TermName, raw json.RawMessage) (domain.FieldValue, error) {
	parseErr := func(err error) (domain.FieldValue, error) {
		return domain.FieldValue{},
			domain.WrapError(domain.ErrExtractionParse, fmt.Sprintf("term %q", name), err)
	}

	value, err := domain.NewFieldValue(raw)
	if err != nil {
		return parseErr(err)
	}
	if value.IsAbsent() {
		return domain.FieldValue{}, nil
	}

	switch domain.KindOf(name) {
	case domain.KindText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return parseErr(fmt.Errorf("expected a string: %w", err))
		}
	case domain.KindNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return parseErr(fmt.Errorf("expected a number: %w", err))
		}
	case domain.KindDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return parseErr(fmt.Errorf("expected an ISO date string: %w", err))
		}
		if _, err := domain.ParseISODate(s); err != nil {
			return parseErr(err)
		}
	case domain.KindProvision:
		provision, err := domain.NormalizeProvision(raw)
		if err != nil {
			return parseErr(err)
		}
		canonical, err := json.Marshal(provision)
		if err != nil {
			return parseErr(err)
		}
		return domain.NewFieldValue(canonical)
	}
	return value, nil
}

func parseRentSchedule(raw json.RawMessage) ([]domain.RentPeriodDraft, error) {
	var wire []wireRentPeriod
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionParse, "decode rent schedule", err)
	}

	drafts := make([]domain.RentPeriodDraft, 0, len(wire))
	for i, period := range wire {
		start, err := domain.ParseISODate(period.PeriodStart)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("rent schedule entry %d periodStart", i), err)
		}
		end, err := domain.ParseISODate(period.PeriodEnd)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("rent schedule entry %d periodEnd", i), err)
		}
		citation, err := period.Citation.toDomain()
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("rent schedule entry %d citation", i), err)
		}
		drafts = append(drafts, domain.RentPeriodDraft{
			PeriodStart:     start,
			PeriodEnd:       end,
			MonthlyBaseRent: period.MonthlyRent,
			AnnualBaseRent:  period.AnnualRent,
			RentPerSqFt:     period.RentPerSqFt,
			Notes:           period.Notes,
			Citation:        citation,
		})
	}
	return drafts, nil
}

func parseAmendmentHistory(raw json.RawMessage) ([]domain.ReportedAmendment, error) {
	var wire []wireAmendment
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionParse, "decode amendment history", err)
	}

	history := make([]domain.ReportedAmendment, 0, len(wire))
	for i, entry := range wire {
		original, err := domain.NewFieldValue(entry.OriginalValue)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("amendment history entry %d originalValue", i), err)
		}
		updated, err := domain.NewFieldValue(entry.NewValue)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("amendment history entry %d newValue", i), err)
		}
		citation, err := entry.Citation.toDomain()
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtractionParse,
				fmt.Sprintf("amendment history entry %d citation", i), err)
		}
		history = append(history, domain.ReportedAmendment{
			Field:         domain.TermName(entry.Field),
			OriginalValue: original,
			NewValue:      updated,
			EffectiveDate: entry.EffectiveDate,
			Citation:      citation,
		})
	}
	return history, nil
}

func parseOptionalDate(raw json.RawMessage, key string) (*time.Time, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionParse, key, err)
	}
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := domain.ParseISODate(*s)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionParse, key, err)
	}
	return &parsed, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
