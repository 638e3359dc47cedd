// Package compression selects a token-bounded subset of ranked files,
// truncating the last file that only partially fits.
package compression

import (
	"log/slog"

	"ctxmap/internal/slogutil"
)

// Truncator renders the truncated form of a file: imports, exports and
// top-level declaration signatures with bodies dropped and a truncation
// marker appended. ok is false when no truncated form exists.
type Truncator interface {
	Truncate(path, content string) (truncated string, ok bool)
}

// TruncatorFunc adapts a function to Truncator.
type TruncatorFunc func(path, content string) (string, bool)

// Truncate implements Truncator.
func (f TruncatorFunc) Truncate(path, content string) (string, bool) {
	return f(path, content)
}

// Candidate is a ranked file offered to the budgeter.
type Candidate struct {
	Path string
	Rank int
	// Tokens of the whole file; counted from Content when <= 0.
	Tokens  int
	Content string
}

// Status is the outcome for one candidate.
type Status string

const (
	StatusIncluded  Status = "included"
	StatusTruncated Status = "truncated"
	StatusExcluded  Status = "excluded"
)

// Decision records what happened to one candidate.
type Decision struct {
	Path           string           `json:"path"`
	Rank           int              `json:"rank"`
	Tokens         int              `json:"tokens"`
	SelectedTokens int              `json:"selectedTokens"`
	Status         Status           `json:"status"`
	Reason         TruncationReason `json:"reason,omitempty"`
	Content        string           `json:"content,omitempty"`
}

// Selection is the outcome of budgeting. Used never exceeds Budget.
type Selection struct {
	Budget    int        `json:"budget"`
	Used      int        `json:"used"`
	Decisions []Decision `json:"decisions"`
	Included  int        `json:"included"`
	Truncated int        `json:"truncated"`
	Excluded  int        `json:"excluded"`
}

// Empty reports whether nothing was selected.
func (s *Selection) Empty() bool {
	return s.Included+s.Truncated == 0
}

// Truncation summarizes the excluded candidates.
func (s *Selection) Truncation() *TruncationInfo {
	reason := TruncNone
	for _, d := range s.Decisions {
		if d.Status == StatusExcluded {
			reason = d.Reason
			break
		}
	}
	return NewTruncationInfo(reason, len(s.Decisions), s.Included+s.Truncated)
}

// Budgeter greedily fills a token budget with ranked files.
type Budgeter struct {
	budget    Budget
	counter   TokenCounter
	truncator Truncator
	logger    *slog.Logger
}

// NewBudgeter creates a budgeter. A nil counter uses EstimateCounter; a nil
// truncator disables truncated inclusion.
func NewBudgeter(budget Budget, counter TokenCounter, truncator Truncator, logger *slog.Logger) *Budgeter {
	if budget.TokenBudget < 0 {
		budget.TokenBudget = 0
	}
	if counter == nil {
		counter = EstimateCounter{}
	}
	return &Budgeter{
		budget:    budget,
		counter:   counter,
		truncator: truncator,
		logger:    slogutil.OrDiscard(logger),
	}
}

// Select walks candidates in the order given (rank order):
//
//   - a file that fits the remaining budget is included whole;
//   - otherwise its truncated form is included if it is smaller than the
//     whole file and fits; that closes the selection and every later file
//     is excluded as selection-closed;
//   - otherwise the file is excluded and the walk continues.
//
// Earlier decisions are never revisited.
func (b *Budgeter) Select(candidates []Candidate) *Selection {
	limit := b.budget.TokenBudget
	sel := &Selection{
		Budget:    limit,
		Decisions: make([]Decision, 0, len(candidates)),
	}

	closed := false
	for _, c := range candidates {
		tokens := c.Tokens
		if tokens <= 0 && c.Content != "" {
			tokens = b.counter.Count(c.Content)
		}
		if tokens < 0 {
			tokens = 0
		}

		d := Decision{
			Path:   c.Path,
			Rank:   c.Rank,
			Tokens: tokens,
			Status: StatusExcluded,
		}

		switch {
		case closed:
			d.Reason = TruncSelectionClosed

		case sel.Used+tokens <= limit:
			d.Status = StatusIncluded
			d.SelectedTokens = tokens
			d.Content = c.Content

		default:
			truncated, truncTokens, ok := b.truncate(c)
			switch {
			case !ok || truncTokens >= tokens:
				d.Reason = TruncNoTruncatedForm
			case sel.Used+truncTokens > limit:
				d.Reason = TruncBudget
			default:
				d.Status = StatusTruncated
				d.Reason = TruncToFit
				d.SelectedTokens = truncTokens
				d.Content = truncated
				closed = true
			}
		}

		sel.Used += d.SelectedTokens
		switch d.Status {
		case StatusIncluded:
			sel.Included++
		case StatusTruncated:
			sel.Truncated++
		default:
			sel.Excluded++
		}
		sel.Decisions = append(sel.Decisions, d)
	}

	b.logger.Debug("Context selected",
		"budget", limit,
		"used", sel.Used,
		"included", sel.Included,
		"truncated", sel.Truncated,
		"excluded", sel.Excluded,
	)
	return sel
}

func (b *Budgeter) truncate(c Candidate) (string, int, bool) {
	if !b.budget.AllowTruncation || b.truncator == nil || c.Content == "" {
		return "", 0, false
	}
	t, ok := b.truncator.Truncate(c.Path, c.Content)
	if !ok {
		return "", 0, false
	}
	return t, b.counter.Count(t), true
}
