package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

const promptHeader = `You are a commercial real estate lease abstraction analyst. Read the lease
document and extract every business term listed below.

Rules:
- Only report a term if the document states it. Omit terms the document is
  silent about; never guess or carry over boilerplate.
- Every reported term MUST include a citation identifying where in the
  document the value appears: document name, section or article, page, and
  paragraph when available.
- Dates use ISO format YYYY-MM-DD. Monetary amounts are plain numbers with
  no currency symbols or thousands separators.
- Renewal, termination, and expansion option terms are structured objects:
  notice-based options carry "noticeDays" and optional "feeAmount";
  fixed-date options carry "date"; anything else carries a "summary" and
  optional "details".
- Respond with a single JSON object and nothing else.`

const promptAmendmentRules = `This document is an AMENDMENT. The current consolidated abstract is included
below. Compare the amendment against it:
- Report ONLY terms the amendment explicitly changes, plus any terms it
  introduces for the first time.
- If the amendment restates a term with the same value, omit it.
- If the amendment changes rent, report the full revised rent schedule it
  establishes under "rentSchedule".
- Summarize each change under "amendmentHistory" with the field name, the
  prior value, the new value, and a citation into the amendment.`

// buildExtractionPrompt assembles the instruction text for one document. The
// term list is generated from the registry so prompt and parser cannot drift.
func buildExtractionPrompt(req domain.ExtractionRequest) (string, error) {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString("\n\nBusiness terms to extract:\n")
	for _, name := range domain.Terms() {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", name, domain.KindOf(name), domain.DisplayName(name))
	}

	sb.WriteString(`
Response shape:
{
  "<termName>": {"value": <value>, "citation": {"document": "...", "section": "...", "page": "1", "paragraph": "..."}, "notes": "..."},
  "rentSchedule": [{"periodStart": "YYYY-MM-DD", "periodEnd": "YYYY-MM-DD", "monthlyRent": 0, "annualRent": 0, "rentPerSqFt": 0, "notes": "...", "citation": {...}}],
  "amendmentHistory": [{"field": "...", "originalValue": <value>, "newValue": <value>, "amendmentDocument": "...", "effectiveDate": "YYYY-MM-DD", "citation": {...}}],
  "effectiveDate": "YYYY-MM-DD"
}
"rentSchedule" periods are half-open: periodEnd is the first day NOT covered.
"effectiveDate" is the date the document's changes take effect, when stated.
`)

	if req.IsAmendment {
		sb.WriteString("\n")
		sb.WriteString(promptAmendmentRules)
		if req.PriorAbstract != nil {
			prior, err := json.MarshalIndent(req.PriorAbstract.Fields, "", "  ")
			if err != nil {
				return "", fmt.Errorf("marshal prior abstract: %w", err)
			}
			sb.WriteString("\n\nCurrent consolidated abstract:\n")
			sb.Write(prior)
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nDocument name: %s\n", req.DocumentName)
	if req.Content.HasText() {
		sb.WriteString("\nDocument text:\n---\n")
		sb.WriteString(req.Content.Text)
		sb.WriteString("\n---\n")
	} else {
		sb.WriteString("\nThe document is attached as inline data.\n")
	}
	return sb.String(), nil
}
