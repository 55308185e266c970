package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GitHubError
		expected string
	}{
		{
			name: "error with resource",
			err: &GitHubError{
				Type:     ErrorTypeAuth,
				Message:  "invalid token",
				Resource: "repository test/hazards",
			},
			expected: "authentication error for repository test/hazards: invalid token",
		},
		{
			name: "error without resource",
			err: &GitHubError{
				Type:    ErrorTypeValidation,
				Message: "validation failed",
			},
			expected: "validation error: validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGitHubError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &GitHubError{
		Type:    ErrorTypeNetwork,
		Message: "network error",
		Cause:   cause,
	}

	assert.ErrorIs(t, err, cause)
	assert.True(t, errdefs.IsUnavailable(err))
}

func TestGitHubError_Class(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		check     func(error) bool
	}{
		{ErrorTypeAuth, errdefs.IsUnauthorized},
		{ErrorTypePermission, errdefs.IsPermissionDenied},
		{ErrorTypeNotFound, errdefs.IsNotFound},
		{ErrorTypeValidation, errdefs.IsInvalidArgument},
		{ErrorTypeConflict, errdefs.IsAlreadyExists},
		{ErrorTypeRateLimit, errdefs.IsUnavailable},
		{ErrorTypeNetwork, errdefs.IsUnavailable},
		{ErrorTypeUnknown, errdefs.IsUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewGitHubError(tt.errorType, "boom", nil))
			assert.True(t, tt.check(err))
		})
	}
}

func TestGitHubError_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		expected  bool
	}{
		{
			name:      "rate limit error is retryable",
			errorType: ErrorTypeRateLimit,
			expected:  true,
		},
		{
			name:      "network error is retryable",
			errorType: ErrorTypeNetwork,
			expected:  true,
		},
		{
			name:      "auth error is not retryable",
			errorType: ErrorTypeAuth,
			expected:  false,
		},
		{
			name:      "not found error is not retryable",
			errorType: ErrorTypeNotFound,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGitHubError(tt.errorType, "test error", nil)
			assert.Equal(t, tt.expected, err.IsRetryable())
		})
	}
}

func TestNewGitHubError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewGitHubError(ErrorTypeAuth, "authentication failed", cause)

	assert.Equal(t, ErrorTypeAuth, err.Type)
	assert.Equal(t, "authentication failed", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.False(t, err.Retryable)
}

func TestDomainErrors(t *testing.T) {
	assert.True(t, errdefs.IsInvalidArgument(ErrInvalidArgument))
	assert.True(t, errdefs.IsInvalidArgument(ErrInvalidLabel))
	assert.True(t, errdefs.IsNotFound(ErrRepositoryNotFound))
	assert.True(t, errdefs.IsNotFound(ErrOrganisationNotFound))
	assert.True(t, errdefs.IsNotFound(ErrHazardNotFound))
	assert.NotErrorIs(t, ErrHazardNotFound, ErrRepositoryNotFound)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewGitHubError(ErrorTypeNotFound, "gone", nil)))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", NewGitHubError(ErrorTypeNotFound, "gone", nil))))
	assert.False(t, IsNotFound(NewGitHubError(ErrorTypeAuth, "denied", nil)))
	assert.False(t, IsNotFound(ErrRepositoryNotFound))
	assert.False(t, IsNotFound(nil))
}

func TestWrapGitHubError(t *testing.T) {
	tests := []struct {
		name           string
		inputError     error
		resource       string
		expectedType   ErrorType
		expectedMsg    string
		expectedStatus int
	}{
		{
			name:       "nil error returns nil",
			inputError: nil,
			resource:   "test",
		},
		{
			name: "already GitHubError returns as-is",
			inputError: &GitHubError{
				Type:    ErrorTypeAuth,
				Message: "auth error",
			},
			resource:     "repository test/hazards",
			expectedType: ErrorTypeAuth,
			expectedMsg:  "auth error",
		},
		{
			name: "401 bad credentials",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnauthorized},
				Message:  "Bad credentials",
			},
			resource:       "user (authenticated)",
			expectedType:   ErrorTypeAuth,
			expectedMsg:    "Invalid or expired GitHub token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "403 forbidden on repository",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "Forbidden",
			},
			resource:       "repository test/hazards",
			expectedType:   ErrorTypePermission,
			expectedMsg:    "Required scopes: repo, and delete_repo to delete repositories",
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "403 rate limit",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "API rate limit exceeded",
			},
			resource:       "issue test/hazards",
			expectedType:   ErrorTypeRateLimit,
			expectedMsg:    "rate limit exceeded",
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "404 repository",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusNotFound},
				Message:  "Not Found",
			},
			resource:       "repository test/hazards",
			expectedType:   ErrorTypeNotFound,
			expectedMsg:    "Repository not found",
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "404 organisation",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusNotFound},
				Message:  "Not Found",
			},
			resource:       "organisation acme",
			expectedType:   ErrorTypeNotFound,
			expectedMsg:    "Organisation not found",
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "404 issue",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusNotFound},
				Message:  "Not Found",
			},
			resource:       "issue test/hazards#9",
			expectedType:   ErrorTypeNotFound,
			expectedMsg:    "Issue not found",
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "410 issues disabled",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusGone},
				Message:  "Issues are disabled for this repo",
			},
			resource:       "issue test/hazards",
			expectedType:   ErrorTypeNotFound,
			expectedMsg:    "issues are disabled",
			expectedStatus: http.StatusGone,
		},
		{
			name: "409 conflict error",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusConflict},
				Message:  "Repository already exists",
			},
			resource:       "repository test/hazards",
			expectedType:   ErrorTypeConflict,
			expectedMsg:    "Resource already exists with the same name",
			expectedStatus: http.StatusConflict,
		},
		{
			name: "422 validation error",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
				Message:  "Validation Failed",
				Errors: []github.Error{
					{Field: "name", Message: "is required", Code: "missing_field"},
					{Message: "Repository name is invalid"},
				},
			},
			resource:       "repository test/hazards",
			expectedType:   ErrorTypeValidation,
			expectedMsg:    "Validation failed: name: is required; Repository name is invalid",
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "500 server error",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusInternalServerError},
				Message:  "Internal Server Error",
			},
			resource:       "repository test/hazards",
			expectedType:   ErrorTypeNetwork,
			expectedMsg:    "GitHub API is temporarily unavailable",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:         "deadline exceeded",
			inputError:   fmt.Errorf("get: %w", context.DeadlineExceeded),
			resource:     "repository test/hazards",
			expectedType: ErrorTypeNetwork,
			expectedMsg:  "Network error occurred",
		},
		{
			name:         "unknown error",
			inputError:   errors.New("something odd"),
			resource:     "repository test/hazards",
			expectedType: ErrorTypeUnknown,
			expectedMsg:  "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapGitHubError(tt.inputError, tt.resource)

			if tt.inputError == nil {
				assert.Nil(t, result)
				return
			}

			require.NotNil(t, result)
			assert.Equal(t, tt.expectedType, result.Type)
			assert.Contains(t, result.Message, tt.expectedMsg)
			assert.Equal(t, tt.resource, result.Resource)
			assert.Equal(t, tt.expectedStatus, result.StatusCode)
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			expected: true,
		},
		{
			name:     "no such host",
			err:      errors.New("dial tcp: no such host"),
			expected: true,
		},
		{
			name:     "i/o timeout",
			err:      errors.New("read tcp: i/o timeout"),
			expected: true,
		},
		{
			name:     "context deadline",
			err:      context.DeadlineExceeded,
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("some other error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNetworkError(tt.err))
		})
	}
}

func fastRetry(retries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:       retries,
		InitialDelay:     time.Millisecond,
		MaxDelay:         10 * time.Millisecond,
		BackoffFactor:    2.0,
		MaxRateLimitWait: time.Second,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("successful operation on first try", func(t *testing.T) {
		callCount := 0
		operation := func(context.Context) error {
			callCount++
			return nil
		}

		err := WithRetry(ctx, operation, fastRetry(3))
		assert.NoError(t, err)
		assert.Equal(t, 1, callCount)
	})

	t.Run("successful operation after retries", func(t *testing.T) {
		callCount := 0
		operation := func(context.Context) error {
			callCount++
			if callCount < 3 {
				return NewGitHubError(ErrorTypeNetwork, "network error", nil)
			}
			return nil
		}

		err := WithRetry(ctx, operation, fastRetry(3))
		assert.NoError(t, err)
		assert.Equal(t, 3, callCount)
	})

	t.Run("non-retryable error fails immediately", func(t *testing.T) {
		callCount := 0
		operation := func(context.Context) error {
			callCount++
			return NewGitHubError(ErrorTypeAuth, "auth error", nil)
		}

		err := WithRetry(ctx, operation, fastRetry(3))
		assert.Error(t, err)
		assert.True(t, errdefs.IsUnauthorized(err))
		assert.Equal(t, 1, callCount)
	})

	t.Run("exhausts max retries", func(t *testing.T) {
		callCount := 0
		operation := func(context.Context) error {
			callCount++
			return NewGitHubError(ErrorTypeNetwork, "network error", nil)
		}

		err := WithRetry(ctx, operation, fastRetry(2))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "operation failed after 2 retries")
		assert.True(t, errdefs.IsUnavailable(err))
		assert.Equal(t, 3, callCount) // Initial attempt + 2 retries
	})

	t.Run("no retry runs once", func(t *testing.T) {
		callCount := 0
		cause := NewGitHubError(ErrorTypeNetwork, "network error", nil)
		operation := func(context.Context) error {
			callCount++
			return cause
		}

		err := WithRetry(ctx, operation, NoRetry())
		assert.Equal(t, cause, err)
		assert.Equal(t, 1, callCount)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		callCount := 0
		operation := func(context.Context) error {
			callCount++
			cancel()
			return NewGitHubError(ErrorTypeNetwork, "network error", nil)
		}

		config := fastRetry(5)
		config.InitialDelay = time.Minute
		err := WithRetry(cancelled, operation, config)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, callCount)
	})

	t.Run("rate limit error with reset time", func(t *testing.T) {
		callCount := 0
		resetTime := time.Now().Add(50 * time.Millisecond)

		operation := func(context.Context) error {
			callCount++
			if callCount == 1 {
				rateLimitErr := &github.RateLimitError{
					Rate: github.Rate{
						Reset: github.Timestamp{Time: resetTime},
					},
				}
				return NewGitHubError(ErrorTypeRateLimit, "rate limit exceeded", rateLimitErr)
			}
			return nil
		}

		start := time.Now()
		err := WithRetry(ctx, operation, fastRetry(3))
		duration := time.Since(start)

		assert.NoError(t, err)
		assert.Equal(t, 2, callCount)
		// Should have waited for the rate limit reset
		assert.GreaterOrEqual(t, duration, 40*time.Millisecond)
	})
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.InitialDelay)
	assert.Equal(t, 30*time.Second, config.MaxDelay)
	assert.Equal(t, 2.0, config.BackoffFactor)
	assert.Equal(t, 5*time.Minute, config.MaxRateLimitWait)
}

func TestIsRetryableErrorType(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeAuth, false},
		{ErrorTypePermission, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeValidation, false},
		{ErrorTypeConflict, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableErrorType(tt.errorType))
		})
	}
}
