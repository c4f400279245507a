package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{Parse("unparseable"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Internal("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.StatusCode())
		})
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("row missing")
	err := NotFound("service order not found", WithCause(cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "service order not found: row missing", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := BadRequest("invalid", WithDetail("field", "numero_os"))
	require.NotNil(t, err.Details())
	assert.Equal(t, "numero_os", err.Details()["field"])
}

func TestFrom(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("app error passes through", func(t *testing.T) {
		orig := NotFound("missing")
		assert.Same(t, orig, From(orig))
	})

	t.Run("wrapped app error is recovered", func(t *testing.T) {
		orig := NotFound("missing")
		wrapped := fmt.Errorf("handler: %w", orig)
		assert.Same(t, orig, From(wrapped))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := From(errors.New("boom"))
		assert.Equal(t, KindInternal, got.Kind())
		assert.ErrorContains(t, got, "boom")
	})
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := New(KindParse, "")
	assert.Equal(t, string(KindParse), err.Message())
}
