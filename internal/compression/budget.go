package compression

// Budget defines the token limit for context selection.
type Budget struct {
	// TokenBudget is the maximum number of tokens selected (default: 8000)
	TokenBudget int

	// AllowTruncation enables truncated inclusion of files that do not fit whole
	AllowTruncation bool
}

// DefaultTokenBudget is used when no budget is configured.
const DefaultTokenBudget = 8000

// DefaultBudget returns the default selection budget.
func DefaultBudget() Budget {
	return Budget{
		TokenBudget:     DefaultTokenBudget,
		AllowTruncation: true,
	}
}

// WithTokens returns a copy of b limited to tokens. A negative value is
// treated as zero.
func (b Budget) WithTokens(tokens int) Budget {
	if tokens < 0 {
		tokens = 0
	}
	b.TokenBudget = tokens
	return b
}
