package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure and degenerate-result modes
type ErrorCode string

const (
	// MalformedInput indicates edges referencing files outside the supplied file set
	MalformedInput ErrorCode = "MALFORMED_INPUT"
	// EmptyGraph indicates that no files were supplied
	EmptyGraph ErrorCode = "EMPTY_GRAPH"
	// NonConvergence indicates the importance iteration hit its cap before converging
	NonConvergence ErrorCode = "NON_CONVERGENCE"
	// BudgetTooSmall indicates the token budget could not hold any file, whole or truncated
	BudgetTooSmall ErrorCode = "BUDGET_TOO_SMALL"
	// InvalidConfig indicates an invalid configuration value
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// InvalidInput indicates an unreadable or invalid input manifest
	InvalidInput ErrorCode = "INVALID_INPUT"
	// IndexMissing indicates a SCIP index was requested but not found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// StorageError indicates a snapshot store failure
	StorageError ErrorCode = "STORAGE_ERROR"
	// RunNotFound indicates a stored analysis run does not exist
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Setting     string        `json:"setting,omitempty"`
}

// AnalysisError represents an error with code, message, and suggestions
type AnalysisError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewAnalysisError creates a new AnalysisError
func NewAnalysisError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *AnalysisError {
	return &AnalysisError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AnalysisError) WithDetails(details interface{}) *AnalysisError {
	e.Details = details
	return e
}

// Diagnostic describes a degenerate but valid analysis outcome.
// Diagnostics travel inside the result instead of failing the run.
type Diagnostic struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]int `json:"details,omitempty"`
}

// NewDiagnostic creates a Diagnostic
func NewDiagnostic(code ErrorCode, message string, details map[string]int) Diagnostic {
	return Diagnostic{Code: code, Message: message, Details: details}
}

// String returns a human-readable form of the diagnostic
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "scip-typescript index",
			Safe:        true,
			Description: "Generate a SCIP index for the repository",
		},
	},
	InvalidConfig: {
		{
			Type:        RunCommand,
			Command:     "ctxmap config init --force",
			Safe:        false,
			Description: "Rewrite .ctxmap/config.json with defaults",
		},
	},
	BudgetTooSmall: {
		{
			Type:        EditConfig,
			Setting:     "budget.tokenBudget",
			Description: "Raise the token budget",
		},
	},
	NonConvergence: {
		{
			Type:        EditConfig,
			Setting:     "metrics.maxIterations",
			Description: "Allow more importance iterations",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
