package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailureMapping(t *testing.T) {
	type sample struct {
		Value int `validate:"min=1,max=10"`
	}
	verr := validation.Struct(sample{Value: 11})
	require.Error(t, verr)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", verr, http.StatusUnprocessableEntity, CodeValidation},
		{"not found", fmt.Errorf("load: %w", repository.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"conflict", fmt.Errorf("%w: ratings_movie_id_user_id_key", repository.ErrConflict), http.StatusConflict, CodeConflict},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(nil).Failure(rec, "do thing", tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestFailureLogsInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rd := New(zap.New(core))

	rd.Failure(httptest.NewRecorder(), "list movies", errors.New("boom"))
	rd.Failure(httptest.NewRecorder(), "list movies", repository.ErrNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "list movies failed", logs.All()[0].Message)
}

func TestValidationDetails(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	rec := httptest.NewRecorder()
	New(nil).Failure(rec, "create", validation.Struct(sample{}))

	var body struct {
		Code    string `json:"code"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "Name", body.Details[0].Field)
	assert.Equal(t, "name is required", body.Details[0].Message)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Drama"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Drama", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Drama","extra":1}`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
}

func TestDecodeErrorStatuses(t *testing.T) {
	var dst map[string]int
	cases := map[string]int{
		"":           http.StatusUnprocessableEntity,
		"{":          http.StatusUnprocessableEntity,
		`{"a":"x"}`:  http.StatusUnprocessableEntity,
		"not json!!": http.StatusUnprocessableEntity,
	}
	for body, status := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		err := DecodeJSON(rec, req, &dst)
		require.Error(t, err, body)
		New(nil).DecodeError(rec, err)
		assert.Equal(t, status, rec.Code, "body %q", body)
	}
}
