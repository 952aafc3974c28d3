package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/pkg/platform/sentinel"
)

func TestErrorMatching(t *testing.T) {
	t.Run("errors.Is matches code and message", func(t *testing.T) {
		err := fmt.Errorf("issue: %w", New(CodeInvalidLevel, "Level must be 1-4"))
		require.ErrorIs(t, err, New(CodeInvalidLevel, "Level must be 1-4"))
		assert.NotErrorIs(t, err, New(CodeInvalidLevel, "other"))
		assert.NotErrorIs(t, err, New(CodeInvalidScore, "Level must be 1-4"))
	})

	t.Run("wrapped cause stays reachable", func(t *testing.T) {
		err := Wrap(sentinel.ErrUnavailable, CodeInternal, "failed to load registry")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, "failed to load registry: unavailable", err.Error())
	})

	t.Run("HasCode walks nested coded errors", func(t *testing.T) {
		inner := New(CodeOverflow, "balance overflow")
		outer := Wrap(inner, CodeInternal, "batch failed")
		assert.True(t, HasCode(outer, CodeOverflow))
		assert.True(t, HasCode(outer, CodeInternal))
		assert.False(t, HasCode(outer, CodeTimeout))
		assert.True(t, Is(outer, CodeInternal))
		assert.False(t, Is(outer, CodeOverflow))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeAlreadyInitialized:  http.StatusConflict,
		CodeUnauthorized:        http.StatusForbidden,
		CodeUnauthenticated:     http.StatusUnauthorized,
		CodeInvalidLevel:        http.StatusBadRequest,
		CodeInvalidScore:        http.StatusBadRequest,
		CodeCertificateNotFound: http.StatusNotFound,
		CodeOverflow:            http.StatusConflict,
		CodeInvalidInput:        http.StatusBadRequest,
		CodeTimeout:             http.StatusGatewayTimeout,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}
