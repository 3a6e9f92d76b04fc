package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeQuota struct {
	allow bool
	err   error
	calls int
}

func (f *fakeQuota) TryAcquire(context.Context) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func (f *fakeQuota) Reset(context.Context) error { return nil }
func (f *fakeQuota) Limit() int                  { return 1 }

func TestAdmissionService_Decide_AllowsWhenNoQuota(t *testing.T) {
	svc := AdmissionService{}
	dec := svc.Decide(context.Background())
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestAdmissionService_Decide_AllowsWhenQuotaAdmits(t *testing.T) {
	q := &fakeQuota{allow: true}
	svc := AdmissionService{Quota: q, RetryAfter: 5 * time.Second}
	dec := svc.Decide(context.Background())
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if q.calls != 1 {
		t.Fatalf("expected exactly one TryAcquire, got %d", q.calls)
	}
}

func TestAdmissionService_Decide_DefersWithRetryAfterDefault(t *testing.T) {
	svc := AdmissionService{Quota: &fakeQuota{allow: false}}
	dec := svc.Decide(context.Background())
	if dec.Allowed {
		t.Fatalf("expected deferred")
	}
	if dec.RetryAfter != 1*time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestAdmissionService_Decide_DefersWithConfiguredInterval(t *testing.T) {
	svc := AdmissionService{Quota: &fakeQuota{allow: false}, RetryAfter: 2500 * time.Millisecond}
	dec := svc.Decide(context.Background())
	if dec.Allowed {
		t.Fatalf("expected deferred")
	}
	if dec.RetryAfter != 2500*time.Millisecond {
		t.Fatalf("expected RetryAfter=2.5s, got %s", dec.RetryAfter)
	}
}

func TestAdmissionService_Decide_BackendErrorDefers(t *testing.T) {
	svc := AdmissionService{Quota: &fakeQuota{allow: true, err: errors.New("redis down")}, RetryAfter: time.Second}
	dec := svc.Decide(context.Background())
	if dec.Allowed {
		t.Fatalf("expected backend error to defer, not admit")
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected RetryAfter=1s, got %s", dec.RetryAfter)
	}
}
