package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/theme"
)

func testLogger() *logger.StyledLogger {
	l, _, err := logger.New(&logger.Config{Level: "error"})
	if err != nil {
		panic(err)
	}
	return logger.NewStyledLogger(l, theme.Default())
}

func TestExecutor_SucceedsFirstTry(t *testing.T) {
	exec := NewExecutor(testLogger())
	calls := 0

	resp, attempts, err := exec.Execute(context.Background(), 3, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return httptest.NewRecorder().Result(), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.NotNil(t, resp)
}

func TestExecutor_RetriesOnRetryableStatus(t *testing.T) {
	exec := NewExecutor(testLogger())
	calls := 0

	resp, attempts, err := exec.Execute(context.Background(), 2, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		rec := httptest.NewRecorder()
		if attempt < 2 {
			rec.Code = http.StatusServiceUnavailable
		} else {
			rec.Code = http.StatusOK
		}
		return rec.Result(), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExecutor_DoesNotRetryNonRetryableStatus(t *testing.T) {
	exec := NewExecutor(testLogger())
	calls := 0

	resp, attempts, err := exec.Execute(context.Background(), 3, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		rec := httptest.NewRecorder()
		rec.Code = http.StatusBadRequest
		return rec.Result(), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecutor_StopsOnNonRetryableError(t *testing.T) {
	exec := NewExecutor(testLogger())
	calls := 0
	wantErr := errors.New("boom: invalid request")

	_, attempts, err := exec.Execute(context.Background(), 3, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return nil, wantErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestExecutor_ExhaustsRetriesOnPersistentRetryableError(t *testing.T) {
	exec := NewExecutor(testLogger())
	calls := 0

	_, attempts, err := exec.Execute(context.Background(), 2, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return nil, context.DeadlineExceeded
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(400))
	assert.False(t, IsRetryableStatus(200))
}

func TestIsRetryableError_ContextCancelledNeverRetries(t *testing.T) {
	assert.False(t, IsRetryableError(context.Canceled))
}

func TestIsRetryableError_SubstringFallback(t *testing.T) {
	assert.True(t, IsRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, IsRetryableError(errors.New("invalid json payload")))
}
