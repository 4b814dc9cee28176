package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(New(KindValidation, "empty content")))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("plain")))
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(KindConnection, "connection reset")
	outer := fmt.Errorf("query failed: %w", inner)
	assert.Equal(t, KindConnection, KindOf(outer))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrap(KindConnection, "neo4j unavailable", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "socket closed")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindConnection, "reset")))
	assert.False(t, Retryable(New(KindQuery, "syntax")))
	assert.False(t, Retryable(New(KindConfiguration, "missing uri")))
	assert.False(t, Retryable(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusUnprocessableEntity,
		KindSelfReference:  http.StatusUnprocessableEntity,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConfiguration:  http.StatusInternalServerError,
		KindConnection:     http.StatusInternalServerError,
		KindQuery:          http.StatusInternalServerError,
		KindPersistence:    http.StatusInternalServerError,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), "kind %s", kind)
	}
}
