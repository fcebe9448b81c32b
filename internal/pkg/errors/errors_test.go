package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeEventNotFound, "public event not found", http.StatusNotFound),
			want: "EVENT_NOT_FOUND: public event not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("connection reset"), CodeSourceFetchFailed, "fetch failed", http.StatusBadGateway),
			want: "SOURCE_FETCH_FAILED: fetch failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", http.StatusInternalServerError)

	assert.True(t, errors.Is(appErr, inner))
}

func TestIsAppErrorAndCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("wrapped: %w", ErrUnknownSource("NOPE"))

	got, ok := IsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUnknownSource, got.Code)
	assert.Equal(t, "NOPE", got.Params["source"])
	assert.Equal(t, CodeUnknownSource, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"event not found", ErrEventNotFound("01J"), http.StatusNotFound, CodeEventNotFound},
		{"invalid params", ErrInvalidIngestParams(fmt.Errorf("bad pageNo")), http.StatusBadRequest, CodeInvalidIngestParams},
		{"unknown source", ErrUnknownSource("X"), http.StatusNotFound, CodeUnknownSource},
		{"bad request", BadRequest(CodeInvalidQuery, "bad size"), http.StatusBadRequest, CodeInvalidQuery},
		{"internal", Internal("IE", "internal"), http.StatusInternalServerError, "IE"},
		{"bad gateway", BadGateway(CodeSourceUnavailable, "down"), http.StatusBadGateway, CodeSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestWithParams_EmptyKeepsNil(t *testing.T) {
	err := New("C", "m", http.StatusTeapot).WithParams(nil)
	assert.Nil(t, err.Params)
}
