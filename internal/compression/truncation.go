package compression

import "fmt"

// TruncationReason explains a budgeting decision.
type TruncationReason string

const (
	// TruncNone indicates the file was included whole
	TruncNone TruncationReason = ""

	// TruncToFit indicates the file was included in truncated form
	TruncToFit TruncationReason = "truncated-to-fit"

	// TruncBudget indicates neither form fitted the remaining budget
	TruncBudget TruncationReason = "budget-exceeded"

	// TruncNoTruncatedForm indicates the file did not fit whole and has no
	// smaller truncated form
	TruncNoTruncatedForm TruncationReason = "no-truncated-form"

	// TruncSelectionClosed indicates an earlier truncated inclusion closed the selection
	TruncSelectionClosed TruncationReason = "selection-closed"
)

// TruncationInfo summarizes how many candidates a selection dropped.
type TruncationInfo struct {
	// Reason is the dominant reason for dropping
	Reason TruncationReason `json:"reason"`

	// OriginalCount is the number of candidates
	OriginalCount int `json:"originalCount"`

	// ReturnedCount is the number of candidates included whole or truncated
	ReturnedCount int `json:"returnedCount"`

	// DroppedCount is the number of excluded candidates
	DroppedCount int `json:"droppedCount"`
}

// NewTruncationInfo creates a TruncationInfo with the dropped count derived.
func NewTruncationInfo(reason TruncationReason, original, returned int) *TruncationInfo {
	dropped := original - returned
	if dropped < 0 {
		dropped = 0
	}
	return &TruncationInfo{
		Reason:        reason,
		OriginalCount: original,
		ReturnedCount: returned,
		DroppedCount:  dropped,
	}
}

// WasTruncated returns true if any candidate was dropped.
func (t *TruncationInfo) WasTruncated() bool {
	return t != nil && t.DroppedCount > 0
}

func (t *TruncationInfo) String() string {
	if !t.WasTruncated() {
		return "no truncation"
	}
	return fmt.Sprintf("%s: dropped %d of %d files", t.Reason, t.DroppedCount, t.OriginalCount)
}
