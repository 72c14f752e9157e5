package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/allocation"
)

// ==========================
// FromAllocationError
// ==========================

func TestFromAllocationError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
		message   string
	}{
		{
			name:    "invariant violation",
			err:     &allocation.StageError{Stage: allocation.StageAllocation, ID: "cand-7", Detail: "double allocation", Err: allocation.ErrAllocationInvariant},
			code:    ErrCodeAllocationInvariantViolated,
			message: "allocation failed",
		},
		{
			name: "validation",
			err:  &allocation.StageError{Stage: allocation.StageMatching, Detail: "candidate set is empty", Err: allocation.ErrValidation},
			code: ErrCodeAllocationValidationFailed,
		},
		{
			name:      "deadline",
			err:       fmt.Errorf("match cancelled: %w", context.DeadlineExceeded),
			code:      ErrCodeMatchingTimeout,
			retryable: true,
		},
		{
			name: "unknown",
			err:  stderrors.New("boom"),
			code: ErrCodeInternal,
		},
		{
			name:      "already standard",
			err:       fmt.Errorf("load: %w", NewCacheOperationFailedError("get", stderrors.New("conn reset"))),
			code:      ErrCodeCacheOperationFailed,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAllocationError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.retryable, got.Retryable)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}
}

func TestFromAllocationError_CarriesStageAndOffendingID(t *testing.T) {
	err := &allocation.StageError{Stage: allocation.StageAllocation, ID: "int-3", Detail: "capacity overflow", Err: allocation.ErrAllocationInvariant}

	got := FromAllocationError(err)
	assert.Equal(t, "allocation", got.Metadata["stage"])
	assert.Equal(t, "int-3", got.Metadata["offendingId"])

	bpmn := ConvertToBPMNError(got)
	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "int-3", vars["offendingId"])
	assert.Equal(t, string(ErrCodeAllocationInvariantViolated), vars["errorCode"])
	assert.Equal(t, 0, bpmn.Retries)
}

// ==========================
// Retry policy
// ==========================

func TestRemainingRetries(t *testing.T) {
	tests := []struct {
		name       string
		err        *StandardError
		jobRetries int32
		expected   int
	}{
		{name: "business error never retried", err: NewQuotaConfigInvalidError("sum 1.1"), jobRetries: 3, expected: 0},
		{name: "retryable decrements", err: NewQueryExecutionFailedError("insert_run", stderrors.New("x")), jobRetries: 3, expected: 2},
		{name: "capped by code budget", err: NewMatchingTimeoutError(context.DeadlineExceeded), jobRetries: 10, expected: 2},
		{name: "last attempt", err: NewDatabaseInsertFailedError(stderrors.New("x")), jobRetries: 1, expected: 0},
		{name: "exhausted", err: NewDatabaseInsertFailedError(stderrors.New("x")), jobRetries: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemainingRetries(tt.err, tt.jobRetries))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeQuotaConfigInvalid))
	assert.Equal(t, "ALLOCATION", GetErrorCategory(ErrCodeAllocationInvariantViolated))
	assert.Equal(t, "ALLOCATION", GetErrorCategory(ErrCodeBatchNotFound))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheOperationFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeReportIndexingFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheOperationFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeElasticsearchConnectionFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeAllocationValidationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeAllocationNotFound))
}
