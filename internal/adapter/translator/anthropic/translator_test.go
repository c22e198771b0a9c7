package anthropic

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteError_MapsStatusCodeToAnthropicErrorType(t *testing.T) {
	tr := testTranslator(t)

	rec := httptest.NewRecorder()
	tr.WriteError(rec, assertableError{"model not found"}, http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"type":"error","error":{"type":"not_found_error","message":"model not found"}}`, rec.Body.String())
}

func TestWriteError_UnmappedStatusFallsBackToApiError(t *testing.T) {
	tr := testTranslator(t)

	rec := httptest.NewRecorder()
	tr.WriteError(rec, assertableError{"boom"}, http.StatusInternalServerError)

	assert.JSONEq(t, `{"type":"error","error":{"type":"api_error","message":"boom"}}`, rec.Body.String())
}

type assertableError struct{ msg string }

func (e assertableError) Error() string { return e.msg }
