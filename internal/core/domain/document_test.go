package domain

import "testing"

func TestDocumentKindForOrder(t *testing.T) {
	if got := DocumentKindForOrder(0); got != "original" {
		t.Fatalf("DocumentKindForOrder(0) = %q", got)
	}
	if got := DocumentKindForOrder(2); got != "amendment_2" {
		t.Fatalf("DocumentKindForOrder(2) = %q", got)
	}
}

func TestTransitionAllowsLifecyclePath(t *testing.T) {
	doc := LeaseDocument{ID: "d1", Status: StatusPending}
	if err := doc.Transition(StatusProcessing); err != nil {
		t.Fatalf("pending -> processing error = %v", err)
	}
	if err := doc.Transition(StatusCompleted); err != nil {
		t.Fatalf("processing -> completed error = %v", err)
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	cases := []struct {
		from DocumentStatus
		to   DocumentStatus
	}{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusError},
		{StatusCompleted, StatusProcessing},
		{StatusError, StatusProcessing},
		{StatusError, StatusCompleted},
	}
	for _, tc := range cases {
		doc := LeaseDocument{ID: "d1", Status: tc.from}
		err := doc.Transition(tc.to)
		if err == nil {
			t.Fatalf("%s -> %s should fail", tc.from, tc.to)
		}
		if !IsKind(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s error = %v, want invalid transition", tc.from, tc.to, err)
		}
		if doc.Status != tc.from {
			t.Fatalf("failed transition mutated status to %s", doc.Status)
		}
	}
}

func TestNextPendingPicksLowestEligible(t *testing.T) {
	docs := []LeaseDocument{
		{ID: "d2", Order: 2, Status: StatusPending},
		{ID: "d0", Order: 0, Status: StatusCompleted},
		{ID: "d1", Order: 1, Status: StatusPending},
	}
	next := NextPending(docs)
	if next == nil || next.ID != "d1" {
		t.Fatalf("NextPending() = %+v, want d1", next)
	}
}

func TestNextPendingBlockedByError(t *testing.T) {
	docs := []LeaseDocument{
		{ID: "d0", Order: 0, Status: StatusCompleted},
		{ID: "d1", Order: 1, Status: StatusError},
		{ID: "d2", Order: 2, Status: StatusPending},
	}
	if next := NextPending(docs); next != nil {
		t.Fatalf("NextPending() = %+v, want nil for blocked chain", next)
	}
}

func TestNextPendingBlockedByProcessing(t *testing.T) {
	docs := []LeaseDocument{
		{ID: "d0", Order: 0, Status: StatusProcessing},
		{ID: "d1", Order: 1, Status: StatusPending},
	}
	if next := NextPending(docs); next != nil {
		t.Fatalf("NextPending() = %+v, want nil while predecessor in flight", next)
	}
}

func TestNextPendingEmptyAndDrained(t *testing.T) {
	if next := NextPending(nil); next != nil {
		t.Fatalf("NextPending(nil) = %+v", next)
	}
	docs := []LeaseDocument{
		{ID: "d0", Order: 0, Status: StatusCompleted},
		{ID: "d1", Order: 1, Status: StatusCompleted},
	}
	if next := NextPending(docs); next != nil {
		t.Fatalf("NextPending(all completed) = %+v", next)
	}
}
