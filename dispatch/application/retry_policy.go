package application

// RetryPolicy decide se uma submissão negada pela quota ainda pode ser adiada.
//
// MaxAttempts conta tentativas de admissão (a primeira inclusa). Zero significa
// sem limite, que é o comportamento padrão.
type RetryPolicy struct {
	MaxAttempts int
}

// ShouldRetry recebe o número da tentativa que acabou de ser negada.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	if p.MaxAttempts <= 0 {
		return true
	}
	return attempt < p.MaxAttempts
}

// Unbounded indica se a política nunca desiste.
func (p RetryPolicy) Unbounded() bool {
	return p.MaxAttempts <= 0
}
