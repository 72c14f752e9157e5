// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"internship-allocator/internal/allocation"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeAllocationValidationFailed  ErrorCode = "ALLOCATION_VALIDATION_FAILED"
	ErrCodeAllocationInvariantViolated ErrorCode = "ALLOCATION_INVARIANT_VIOLATED"
	ErrCodeQuotaConfigInvalid          ErrorCode = "QUOTA_CONFIG_INVALID"
	ErrCodeMatchingTimeout             ErrorCode = "MATCHING_TIMEOUT"

	ErrCodeBatchNotFound      ErrorCode = "BATCH_NOT_FOUND"
	ErrCodeAllocationNotFound ErrorCode = "ALLOCATION_NOT_FOUND"

	ErrCodeCacheOperationFailed ErrorCode = "CACHE_OPERATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeReportIndexingFailed          ErrorCode = "REPORT_INDEXING_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowCommandRejected   ErrorCode = "WORKFLOW_COMMAND_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable payload error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false)
}

// NewAllocationValidationError creates a non-retryable error for rejected matching or allocation input.
func NewAllocationValidationError(details string) *StandardError {
	return newError(ErrCodeAllocationValidationFailed, "Allocation input rejected", details, false)
}

// NewAllocationInvariantError reports an aborted run. The user-facing message
// stays generic; the offending id travels in Metadata.
func NewAllocationInvariantError(details string) *StandardError {
	return newError(ErrCodeAllocationInvariantViolated, "allocation failed", details, false)
}

func NewQuotaConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeQuotaConfigInvalid, "Allocation configuration rejected", details, false)
}

func NewMatchingTimeoutError(err error) *StandardError {
	return newError(ErrCodeMatchingTimeout, "Matching did not finish in time", err.Error(), true)
}

func NewBatchNotFoundError(batchID string) *StandardError {
	return newError(ErrCodeBatchNotFound, "Match batch not found or expired", fmt.Sprintf("batchId: %s", batchID), false)
}

func NewAllocationNotFoundError(allocationID string) *StandardError {
	return newError(ErrCodeAllocationNotFound, "Allocation run not found", fmt.Sprintf("allocationId: %s", allocationID), false)
}

// NewCacheOperationFailedError creates a retryable Redis error.
func NewCacheOperationFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeCacheOperationFailed, "Cache operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert failed", err.Error(), true)
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewReportIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeReportIndexingFailed, "Diversity report indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewWorkflowEngineError wraps a failed Zeebe command. Transport failures are
// retryable, rejections are not.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	if retryable {
		return newError(ErrCodeWorkflowEngineUnavailable, "Workflow engine unavailable",
			fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
	}
	return newError(ErrCodeWorkflowCommandRejected, "Workflow engine rejected command",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// FromAllocationError maps errors returned by the allocation core.
func FromAllocationError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var out *StandardError
	switch {
	case allocation.IsInvariant(err):
		out = NewAllocationInvariantError(err.Error())
	case allocation.IsValidation(err):
		out = NewAllocationValidationError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return NewMatchingTimeoutError(err)
	default:
		return NewInternalError(err)
	}

	var stageErr *allocation.StageError
	if stderrors.As(err, &stageErr) {
		out.Metadata = map[string]interface{}{"stage": stageErr.Stage}
		if stageErr.ID != "" {
			out.Metadata["offendingId"] = stageErr.ID
		}
	}
	return out
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeReportIndexingFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeMatchingTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN codes are the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "QUOTA"):
		return "CONFIGURATION"
	case strings.HasPrefix(codeStr, "ALLOCATION") || strings.HasPrefix(codeStr, "MATCHING") || strings.HasPrefix(codeStr, "BATCH"):
		return "ALLOCATION"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEXING"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
