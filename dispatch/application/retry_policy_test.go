package application

import "testing"

func TestRetryPolicy_ZeroIsUnbounded(t *testing.T) {
	p := RetryPolicy{}
	if !p.Unbounded() {
		t.Fatalf("expected zero policy to be unbounded")
	}
	for _, attempt := range []int{1, 10, 1_000_000} {
		if !p.ShouldRetry(attempt) {
			t.Fatalf("expected retry at attempt %d", attempt)
		}
	}
}

func TestRetryPolicy_GivesUpAtMaxAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	if !p.ShouldRetry(1) || !p.ShouldRetry(2) {
		t.Fatalf("expected retries before the third attempt")
	}
	if p.ShouldRetry(3) {
		t.Fatalf("expected no retry after the third denied attempt")
	}
}

func TestRetryPolicy_SingleAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 1}
	if p.ShouldRetry(1) {
		t.Fatalf("expected MaxAttempts=1 to never retry")
	}
}
