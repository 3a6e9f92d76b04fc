package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDocumentClone_DoesNotShareProducts(t *testing.T) {
	orig := Document{Products: []Product{{UitCode: "a"}}}
	c := orig.Clone()
	c.Products[0].UitCode = "b"

	if orig.Products[0].UitCode != "a" {
		t.Fatalf("clone shares the products slice with the original")
	}
}

func TestDocumentClone_NilProductsBecomesEmpty(t *testing.T) {
	c := Document{}.Clone()
	if c.Products == nil {
		t.Fatalf("expected non-nil products")
	}
}

func TestNewSubmission_CopiesDocument(t *testing.T) {
	doc := Document{Products: []Product{{OwnerInn: "1"}}}
	sub := NewSubmission(doc, "sig")
	doc.Products[0].OwnerInn = "changed"

	if sub.Document.Products[0].OwnerInn != "1" {
		t.Fatalf("submission must not see later changes to the caller's document")
	}
	if sub.ID == "" || sub.Attempt != 0 || sub.SubmittedAt.IsZero() {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateDelivered, StateFailed, StateAbandoned} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateDeferred} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsQuotaExceeded(fmt.Errorf("wrap: %w", ErrQuotaExceeded)) {
		t.Fatalf("expected wrapped quota error to match")
	}
	se, ok := IsStatusError(fmt.Errorf("post: %w", &StatusError{StatusCode: 503}))
	if !ok || se.StatusCode != 503 {
		t.Fatalf("expected wrapped status error, got %v %v", se, ok)
	}
	if _, ok := IsStatusError(errors.New("plain")); ok {
		t.Fatalf("plain error is not a status error")
	}
}
