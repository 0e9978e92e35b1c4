package domain

import (
	"fmt"
	"sort"
	"time"
)

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

const DocumentKindOriginal = "original"

// DocumentKindForOrder derives the document kind from its position in the
// tenant's chain: order 0 is the original lease, order k is amendment_k.
func DocumentKindForOrder(order int) string {
	if order == 0 {
		return DocumentKindOriginal
	}
	return fmt.Sprintf("amendment_%d", order)
}

// LeaseDocument is one source file contributing to a tenant's lease. Status,
// RawText, ProcessedAt and Warnings are the only fields mutated after upload,
// and only by the consolidation pipeline.
type LeaseDocument struct {
	ID           string               `json:"id"`
	TenantID     string               `json:"tenant_id"`
	Name         string               `json:"name"`
	Kind         string               `json:"kind"`
	Order        int                  `json:"order"`
	MimeType     string               `json:"mime_type"`
	StoragePath  string               `json:"storage_path"`
	Status       DocumentStatus       `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	RawText      string               `json:"raw_text,omitempty"`
	Warnings     []DataQualityWarning `json:"warnings,omitempty"`
	UploadedAt   time.Time            `json:"uploaded_at"`
	ProcessedAt  *time.Time           `json:"processed_at,omitempty"`
}

func (d *LeaseDocument) IsAmendment() bool {
	return d.Order > 0
}

var allowedTransitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
}

// Transition moves the document to the next lifecycle state, rejecting any
// move the state machine does not allow. Guards against duplicate concurrent
// processing attempts.
func (d *LeaseDocument) Transition(to DocumentStatus) error {
	for _, allowed := range allowedTransitions[d.Status] {
		if allowed == to {
			d.Status = to
			return nil
		}
	}
	return WrapError(ErrInvalidTransition, "transition document",
		fmt.Errorf("document %s: %s -> %s", d.ID, d.Status, to))
}

// NextPending returns the lowest-order pending document whose immediate
// predecessor is completed, or nil when the queue is empty or the chain is
// blocked. A predecessor in error blocks deliberately: an amendment's meaning
// depends on the prior abstract, so processing must not skip past a failure.
func NextPending(docs []LeaseDocument) *LeaseDocument {
	ordered := make([]LeaseDocument, len(docs))
	copy(ordered, docs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for i := range ordered {
		switch ordered[i].Status {
		case StatusCompleted:
			continue
		case StatusPending:
			next := ordered[i]
			return &next
		default:
			// processing or error ahead of the first pending document
			return nil
		}
	}
	return nil
}
