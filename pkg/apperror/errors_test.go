// Package apperror provides tests for the custom error types and utility functions.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestError_Error verifies that the Error() method returns the correct string format.
func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without field",
			err:      New(CodeInvalidFormat, "format is not supported"),
			expected: "[INVALID_FORMAT] format is not supported",
		},
		{
			name:     "with field",
			err:      NewWithField(CodeInvalidFilter, "unknown filter key", "filters"),
			expected: "[INVALID_FILTER] unknown filter key (field: filters)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestError_Unwrap verifies that the Unwrap() method correctly returns the underlying cause.
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, CodeInternal, "wrapped error")

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through the wrap")
	}
}

// TestError_HTTPStatus verifies that HTTPStatus() maps ErrorCodes to correct HTTP statuses.
func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name           string
		code           ErrorCode
		expectedStatus int
	}{
		{"validation", CodeValidation, http.StatusBadRequest},
		{"invalid format", CodeInvalidFormat, http.StatusBadRequest},
		{"invalid filter", CodeInvalidFilter, http.StatusBadRequest},
		{"unauthenticated", CodeUnauthenticated, http.StatusUnauthorized},
		{"permission denied", CodePermissionDenied, http.StatusForbidden},
		{"not found", CodeNotFound, http.StatusNotFound},
		{"file not ready", CodeFileNotReady, http.StatusConflict},
		{"report expired", CodeReportExpired, http.StatusGone},
		{"rate limited", CodeRateLimited, http.StatusTooManyRequests},
		{"timeout", CodeTimeout, http.StatusGatewayTimeout},
		{"storage drift", CodeStorageDrift, http.StatusInternalServerError},
		{"render failed", CodeRenderFailed, http.StatusInternalServerError},
		{"internal", CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test message")
			if got := err.HTTPStatus(); got != tt.expectedStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.expectedStatus)
			}
		})
	}
}

// TestHTTPStatus_PlainError verifies that plain errors map to 500.
func TestHTTPStatus_PlainError(t *testing.T) {
	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus() = %v, want %v", got, http.StatusInternalServerError)
	}

	wrapped := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
	if got := HTTPStatus(wrapped); got != http.StatusNotFound {
		t.Errorf("HTTPStatus() for wrapped app error = %v, want %v", got, http.StatusNotFound)
	}
}

// TestNew verifies the New function correctly initializes an Error.
func TestNew(t *testing.T) {
	err := New(CodeRenderFailed, "render crashed")

	if err.Code != CodeRenderFailed {
		t.Errorf("Code = %v, want %v", err.Code, CodeRenderFailed)
	}
	if err.Message != "render crashed" {
		t.Errorf("Message = %v, want %v", err.Message, "render crashed")
	}
	if err.Severity != SeverityError {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityError)
	}
}

// TestNewWarning verifies the NewWarning function correctly initializes an Error with SeverityWarning.
func TestNewWarning(t *testing.T) {
	err := NewWarning(CodeReportExpired, "report is stale")

	if err.Severity != SeverityWarning {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityWarning)
	}
}

// TestNewCritical verifies the NewCritical function correctly initializes an Error with SeverityCritical.
func TestNewCritical(t *testing.T) {
	err := NewCritical(CodeStorageDrift, "blob missing")

	if err.Severity != SeverityCritical {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityCritical)
	}
}

// TestWithDetails verifies that WithDetails adds key-value pairs to the error's details map.
func TestWithDetails(t *testing.T) {
	err := New(CodeStorageDrift, "blob missing").
		WithDetails("report_id", "r-1").
		WithDetails("storage_key", "reports/r-1.xlsx")

	if err.Details["report_id"] != "r-1" {
		t.Errorf("Details[report_id] = %v, want r-1", err.Details["report_id"])
	}
	if err.Details["storage_key"] != "reports/r-1.xlsx" {
		t.Errorf("Details[storage_key] = %v, want reports/r-1.xlsx", err.Details["storage_key"])
	}
}

// TestWithField verifies that WithField sets the field of the error.
func TestWithField(t *testing.T) {
	err := New(CodeInvalidSorting, "unknown sort key").WithField("sorting.key")

	if err.Field != "sorting.key" {
		t.Errorf("Field = %v, want sorting.key", err.Field)
	}
}

// TestWithSeverity verifies that WithSeverity sets the severity level of the error.
func TestWithSeverity(t *testing.T) {
	err := New(CodeStorageFailed, "write failed").WithSeverity(SeverityCritical)

	if err.Severity != SeverityCritical {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityCritical)
	}
}

// TestIs verifies the Is function correctly identifies errors by their ErrorCode.
func TestIs(t *testing.T) {
	err := New(CodeNotFound, "report not found")

	if !Is(err, CodeNotFound) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, CodeValidation) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(errors.New("regular error"), CodeNotFound) {
		t.Error("Is() should return false for non-Error")
	}
}

// TestCode verifies the Code function correctly extracts the ErrorCode.
func TestCode(t *testing.T) {
	err := New(CodeQueueFailed, "enqueue failed")

	if Code(err) != CodeQueueFailed {
		t.Errorf("Code() = %v, want %v", Code(err), CodeQueueFailed)
	}

	regularErr := errors.New("regular error")
	if Code(regularErr) != CodeInternal {
		t.Errorf("Code() for regular error = %v, want %v", Code(regularErr), CodeInternal)
	}
}

// TestIsWarning verifies the IsWarning function correctly identifies warning errors.
func TestIsWarning(t *testing.T) {
	warning := NewWarning(CodeReportExpired, "stale")
	err := New(CodeValidation, "invalid")

	if !IsWarning(warning) {
		t.Error("IsWarning() should return true for warning")
	}
	if IsWarning(err) {
		t.Error("IsWarning() should return false for error")
	}
}

// TestIsCritical verifies the IsCritical function correctly identifies critical errors.
func TestIsCritical(t *testing.T) {
	critical := NewCritical(CodeStorageDrift, "drift")
	err := New(CodeValidation, "invalid")

	if !IsCritical(critical) {
		t.Error("IsCritical() should return true for critical")
	}
	if IsCritical(err) {
		t.Error("IsCritical() should return false for error")
	}
}

// TestSeverity_String verifies the String method of Severity returns the correct string representation.
func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		expected string
	}{
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.expected {
			t.Errorf("Severity.String() = %v, want %v", got, tt.expected)
		}
	}
}

// TestValidationErrors verifies the functionality of the ValidationErrors collection.
func TestValidationErrors(t *testing.T) {
	t.Run("new validation errors", func(t *testing.T) {
		ve := NewValidationErrors()
		if ve.HasErrors() {
			t.Error("new ValidationErrors should not have errors")
		}
		if ve.HasWarnings() {
			t.Error("new ValidationErrors should not have warnings")
		}
		if !ve.IsValid() {
			t.Error("new ValidationErrors should be valid")
		}
		if ve.AsError() != nil {
			t.Error("AsError() should be nil for a valid collection")
		}
	})

	t.Run("add error", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddError(CodeInvalidFormat, "unsupported format")

		if !ve.HasErrors() {
			t.Error("should have errors")
		}
		if ve.IsValid() {
			t.Error("should not be valid")
		}
		if len(ve.Errors) != 1 {
			t.Errorf("errors count = %d, want 1", len(ve.Errors))
		}
	})

	t.Run("add warning", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddWarning(CodeReportExpired, "close to expiry")

		if !ve.HasWarnings() {
			t.Error("should have warnings")
		}
		if !ve.IsValid() {
			t.Error("should be valid (warnings don't affect validity)")
		}
	})

	t.Run("add error with field", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddErrorWithField(CodeInvalidColumns, "empty columns", "columns")

		if ve.Errors[0].Field != "columns" {
			t.Errorf("Field = %v, want columns", ve.Errors[0].Field)
		}
	})

	t.Run("add via Add method", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.Add(NewWarning(CodeReportExpired, "warning"))
		ve.Add(New(CodeInvalidFormat, "error"))

		if len(ve.Warnings) != 1 {
			t.Errorf("warnings count = %d, want 1", len(ve.Warnings))
		}
		if len(ve.Errors) != 1 {
			t.Errorf("errors count = %d, want 1", len(ve.Errors))
		}
	})

	t.Run("as error collapses to validation error", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddErrorWithField(CodeEmptyTitle, "title is required", "title")
		ve.AddError(CodeInvalidFormat, "unsupported format")

		err := ve.AsError()
		if err == nil {
			t.Fatal("AsError() should not be nil")
		}
		if Code(err) != CodeValidation {
			t.Errorf("Code = %v, want %v", Code(err), CodeValidation)
		}
		var appErr *Error
		if !errors.As(err, &appErr) {
			t.Fatal("AsError() should return *Error")
		}
		if appErr.Field != "title" {
			t.Errorf("Field = %v, want title", appErr.Field)
		}
		if msgs, ok := appErr.Details["errors"].([]string); !ok || len(msgs) != 2 {
			t.Errorf("Details[errors] = %v, want 2 messages", appErr.Details["errors"])
		}
	})

	t.Run("error messages", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddError(CodeInvalidFormat, "error1")
		ve.AddError(CodeInvalidFilter, "error2")

		messages := ve.ErrorMessages()
		if len(messages) != 2 {
			t.Errorf("messages count = %d, want 2", len(messages))
		}
	})

	t.Run("warning messages", func(t *testing.T) {
		ve := NewValidationErrors()
		ve.AddWarning(CodeReportExpired, "warning1")

		messages := ve.WarningMessages()
		if len(messages) != 1 {
			t.Errorf("messages count = %d, want 1", len(messages))
		}
		if messages[0] != "warning1" {
			t.Errorf("message = %v, want warning1", messages[0])
		}
	})
}

// TestPredefinedErrors verifies that all predefined errors are correctly initialized.
func TestPredefinedErrors(t *testing.T) {
	predefinedErrors := []*Error{
		ErrReportNotFound,
		ErrFileNotFound,
		ErrFileNotReady,
		ErrReportExpired,
		ErrStorageDrift,
		ErrUnauthenticated,
		ErrPermissionDenied,
		ErrJobNotClaimable,
		ErrTimeout,
	}

	for _, err := range predefinedErrors {
		if err == nil {
			t.Error("predefined error should not be nil")
			continue
		}
		if err.Code == "" {
			t.Error("predefined error should have a code")
		}
		if err.Message == "" {
			t.Error("predefined error should have a message")
		}
	}
}
